package security

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var ErrOriginDenied = errors.New("origin denied")

// Guard rejects cross-site browser requests. It does not authenticate.
type Guard struct {
	allowedOrigins map[string]struct{}
}

func New(allowedOrigins []string) *Guard {
	g := &Guard{
		allowedOrigins: make(map[string]struct{}),
	}
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimRight(strings.TrimSpace(origin), "/")
		if trimmed == "" {
			continue
		}
		g.allowedOrigins[trimmed] = struct{}{}
	}
	return g
}

// CheckOrigin accepts requests without an Origin header, origins listed in
// the allow list, and same-origin requests.
func (g *Guard) CheckOrigin(r *http.Request) error {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return nil
	}
	if g != nil {
		if _, ok := g.allowedOrigins[origin]; ok {
			return nil
		}
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("%w: invalid origin", ErrOriginDenied)
	}

	scheme := "http"
	if requestUsesTLS(r) {
		scheme = "https"
	}
	if parsed.Scheme != scheme || parsed.Host != r.Host {
		return fmt.Errorf("%w: expected %s://%s, got %s", ErrOriginDenied, scheme, r.Host, origin)
	}
	return nil
}

// AllowedOrigins returns the configured allow list size.
func (g *Guard) AllowedOrigins() int {
	if g == nil {
		return 0
	}
	return len(g.allowedOrigins)
}

func requestUsesTLS(r *http.Request) bool {
	if r == nil {
		return false
	}
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}

package httpui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newMux(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	if err := Register(mux); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return mux
}

func TestRootRedirects(t *testing.T) {
	t.Parallel()
	mux := newMux(t)

	for _, target := range []string{"/", "/?foo=bar", "/?email=x%40y.edu&next=/admin"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("GET %s status = %d, want 307", target, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != IndexPath {
			t.Fatalf("GET %s Location = %q, want %q", target, loc, IndexPath)
		}
	}
}

func TestRootOnlyMatchesExactPath(t *testing.T) {
	t.Parallel()
	mux := newMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRootRedirectsWithForeignOrigin(t *testing.T) {
	t.Parallel()
	mux := newMux(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "127.0.0.1:8000"
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != IndexPath {
		t.Fatalf("Location = %q, want %q", loc, IndexPath)
	}

	req = httptest.NewRequest(http.MethodGet, "/static/app.js", nil)
	req.Host = "127.0.0.1:8000"
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("static status = %d, want 200", rec.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	t.Parallel()
	mux := newMux(t)

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{path: "/static/index.html", contentType: "text/html", contains: "Mergington High School"},
		{path: "/static/app.js", contentType: "javascript", contains: "/activities"},
		{path: "/static/styles.css", contentType: "text/css", contains: ".activity-card"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", tt.path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, tt.contentType) {
			t.Errorf("GET %s Content-Type = %q, want %q", tt.path, ct, tt.contentType)
		}
		if !strings.Contains(rec.Body.String(), tt.contains) {
			t.Errorf("GET %s body missing %q", tt.path, tt.contains)
		}
	}
}

func TestStaticMissingFile(t *testing.T) {
	t.Parallel()
	mux := newMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/missing.js", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestStaticDirectoryServesIndex(t *testing.T) {
	t.Parallel()
	mux := newMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<title>Mergington High School Activities</title>") {
		t.Fatal("GET /static/ did not serve the index page")
	}
}

func TestServeStaticPathRejectsTraversal(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/static/x", nil)
	if serveStaticPath(rec, req, "../web.go") {
		t.Fatal("serveStaticPath escaped the static root")
	}
}

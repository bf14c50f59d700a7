package registry

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed seed.toml
var defaultSeed string

type seedDocument struct {
	Activities []Activity `toml:"activity"`
}

// DefaultSeed returns the built-in activity list.
func DefaultSeed() ([]Activity, error) {
	return ParseSeed(defaultSeed)
}

// LoadSeed reads a seed document from path, or returns the built-in seed
// when path is empty.
func LoadSeed(path string) ([]Activity, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultSeed()
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(string(data))
}

// ParseSeed decodes a TOML document made of [[activity]] tables.
func ParseSeed(data string) ([]Activity, error) {
	var doc seedDocument
	if _, err := toml.Decode(data, &doc); err != nil {
		return nil, &Error{Kind: ErrKindInvalidSeed, Msg: "invalid seed: decode toml", Err: err}
	}
	if err := validateSeed(doc.Activities); err != nil {
		return nil, err
	}
	out := make([]Activity, 0, len(doc.Activities))
	for _, a := range doc.Activities {
		out = append(out, a.Clone())
	}
	return out, nil
}

func validateSeed(activities []Activity) error {
	seen := make(map[string]struct{}, len(activities))
	for i, a := range activities {
		if strings.TrimSpace(a.Name) == "" {
			return invalidSeed(fmt.Sprintf("activity #%d has no name", i+1))
		}
		if _, dup := seen[a.Name]; dup {
			return invalidSeed(fmt.Sprintf("duplicate activity %q", a.Name))
		}
		seen[a.Name] = struct{}{}
		if a.MaxParticipants < 0 {
			return invalidSeed(fmt.Sprintf("activity %q has negative max_participants", a.Name))
		}
		emails := make(map[string]struct{}, len(a.Participants))
		for _, email := range a.Participants {
			if _, dup := emails[email]; dup {
				return invalidSeed(fmt.Sprintf("activity %q lists %s twice", a.Name, email))
			}
			emails[email] = struct{}{}
		}
	}
	return nil
}

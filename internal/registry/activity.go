package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Activity is a named extracurricular offering. MaxParticipants is
// informational and never enforced.
type Activity struct {
	Name            string   `json:"-" toml:"name"`
	Description     string   `json:"description" toml:"description"`
	Schedule        string   `json:"schedule" toml:"schedule"`
	MaxParticipants int      `json:"max_participants" toml:"max_participants"`
	Participants    []string `json:"participants" toml:"participants"`
}

// Clone returns a deep copy whose Participants is never nil.
func (a Activity) Clone() Activity {
	out := a
	out.Participants = make([]string, len(a.Participants))
	copy(out.Participants, a.Participants)
	return out
}

func (a Activity) HasParticipant(email string) bool {
	return slices.Contains(a.Participants, email)
}

// Catalog is an ordered snapshot of the registry. It encodes as a JSON
// object keyed by activity name, keeping registry order.
type Catalog []Activity

func (c Catalog) Get(name string) (Activity, bool) {
	for _, a := range c {
		if a.Name == name {
			return a, true
		}
	}
	return Activity{}, false
}

func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for _, a := range c {
		names = append(names, a.Name)
	}
	return names
}

func (c Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(a.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(a.Clone())
		if err != nil {
			return nil, fmt.Errorf("encode activity %q: %w", a.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *Catalog) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("catalog: expected json object")
	}

	out := Catalog{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return errors.New("catalog: expected activity name")
		}
		var a Activity
		if err := dec.Decode(&a); err != nil {
			return fmt.Errorf("catalog: activity %q: %w", name, err)
		}
		a.Name = name
		out = append(out, a.Clone())
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// State is what cmsctl remembers between runs.
type State struct {
	Server  string        `yaml:"server"`
	Email   string        `yaml:"email,omitempty"`
	Role    string        `yaml:"role,omitempty"`
	Cookies []savedCookie `yaml:"cookies,omitempty"`
}

type savedCookie struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// LoadState reads path. A missing file is an empty state.
func LoadState(path string) (State, error) {
	var st State
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("read state: %w", err)
	}
	if err := yaml.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("parse state %s: %w", path, err)
	}
	return st, nil
}

// Save writes the state readable only by the current user.
func (s State) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

func (s State) httpCookies() []*http.Cookie {
	out := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	return out
}

func (s *State) setCookies(cookies []*http.Cookie) {
	s.Cookies = s.Cookies[:0]
	for _, c := range cookies {
		s.Cookies = append(s.Cookies, savedCookie{Name: c.Name, Value: c.Value})
	}
}

// signOut forgets the session but keeps the server.
func (s *State) signOut() {
	s.Email = ""
	s.Role = ""
	s.Cookies = nil
}

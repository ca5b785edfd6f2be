package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrMalformedProfile indicates the profile file exists but cannot be decoded.
// Callers should surface "profile unavailable" rather than crash.
var ErrMalformedProfile = errors.New("malformed patient profile")

// Store reads and writes the patient document as a JSON file. The first Load
// against a missing file writes the default profile so the application always
// has a document to work with.
type Store struct {
	Path string
}

// NewStore constructs a Store for the given file path.
func NewStore(path string) *Store { return &Store{Path: path} }

// Load reads the patient document, creating the default one on first use.
// The returned document is normalized: list fields are never nil.
func (s *Store) Load() (*Patient, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p Patient
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProfile, err)
	}
	p.Normalize()
	return &p, nil
}

// Save writes the patient document back to disk as indented JSON. The
// document is normalized first so a load→save round trip is idempotent.
func (s *Store) Save(p *Patient) error {
	p.Normalize()
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	if err := os.WriteFile(s.Path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// ensure creates the file with the default profile if it does not exist yet.
func (s *Store) ensure() error {
	if _, err := os.Stat(s.Path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat profile: %w", err)
	}
	return s.Save(DefaultPatient())
}

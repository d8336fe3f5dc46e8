package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"lightplan/internal/fixture"
)

// DocumentVersion is the layout format version written by Export.
const DocumentVersion = 1

// ErrMalformed is returned by Decode for payloads that are not a valid layout.
var ErrMalformed = errors.New("malformed layout document")

// Document is the clipboard and file representation of a layout.
type Document struct {
	Version  int                    `json:"version"`
	Fixtures []fixture.Fixture      `json:"fixtures"`
	Lines    []fixture.MountingLine `json:"mountingLines"`
}

// Export serializes the current layout as indented JSON.
func (s *Store) Export() ([]byte, error) {
	snap := s.Snapshot()
	doc := Document{
		Version:  DocumentVersion,
		Fixtures: snap.Fixtures,
		Lines:    snap.Lines,
	}
	if doc.Fixtures == nil {
		doc.Fixtures = []fixture.Fixture{}
	}
	if doc.Lines == nil {
		doc.Lines = []fixture.MountingLine{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export layout: %w", err)
	}
	return data, nil
}

// Import replaces the layout with a decoded document. Malformed payloads
// are rejected and leave the store untouched.
func (s *Store) Import(data []byte) bool {
	doc, err := Decode(data, s.cfg)
	if err != nil {
		return false
	}

	s.mu.Lock()
	s.fixtures = doc.Fixtures
	s.lines = doc.Lines
	s.commit()
	s.mu.Unlock()

	s.notify()
	return true
}

// Decode parses and validates a layout document against the given limits.
func Decode(data []byte, cfg Config) (Document, error) {
	var doc Document

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Document{}, fmt.Errorf("%w: trailing data", ErrMalformed)
	}
	if doc.Version != DocumentVersion {
		return Document{}, fmt.Errorf("%w: unsupported version %d", ErrMalformed, doc.Version)
	}

	seen := make(map[string]bool, len(doc.Fixtures))
	for i, f := range doc.Fixtures {
		if err := f.Validate(); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if seen[f.ID] {
			return Document{}, fmt.Errorf("%w: fixture %s: %v", ErrMalformed, f.ID, ErrDuplicateID)
		}
		seen[f.ID] = true
		doc.Fixtures[i] = f.Normalize()
	}

	if len(doc.Lines) > cfg.MaxLines {
		return Document{}, fmt.Errorf("%w: %d lines: %v", ErrMalformed, len(doc.Lines), ErrLineLimit)
	}
	seenLines := make(map[string]bool, len(doc.Lines))
	for i, l := range doc.Lines {
		if err := l.Validate(); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if seenLines[l.ID] {
			return Document{}, fmt.Errorf("%w: line %s: %v", ErrMalformed, l.ID, ErrDuplicateID)
		}
		seenLines[l.ID] = true
		l = l.Clamp()
		if l.Length() < cfg.MinLineLength {
			return Document{}, fmt.Errorf("%w: line %s: %v", ErrMalformed, l.ID, ErrLineTooShort)
		}
		doc.Lines[i] = l
	}

	return doc, nil
}

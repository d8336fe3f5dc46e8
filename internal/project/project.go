// Package project provides project file handling and persistence.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lightplan/internal/store"
)

// Extension is the project file suffix.
const Extension = ".lightplan"

// CurrentVersion is written by Save.
const CurrentVersion = 1

// ErrNoPhoto is returned when a project has no photo to render.
var ErrNoPhoto = errors.New("project has no photo")

// File represents a lighting plan project file (.lightplan).
type File struct {
	Version     int       `json:"version"`
	Name        string    `json:"name"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Description string    `json:"description,omitempty"`

	// Image paths (relative to project file)
	PhotoPath  string `json:"photo,omitempty"`
	SpritePath string `json:"sprite,omitempty"`

	// Layout is the store document: fixtures and mounting lines.
	Layout json.RawMessage `json:"layout,omitempty"`

	// User settings
	Settings Settings `json:"settings"`
}

// Settings holds per-project render preferences. Zero values defer to
// the loaded configuration.
type Settings struct {
	GuideStyle  string `json:"guide_style,omitempty"`
	NightFilter *bool  `json:"night_filter,omitempty"`
	Quality     int    `json:"quality,omitempty"`
}

// New creates a new project file with an empty layout.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  CurrentVersion,
		Name:     name,
		Created:  now,
		Modified: now,
	}
}

// Load loads a project from a .lightplan file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("invalid project file %s: %w", path, err)
	}
	if proj.Version > CurrentVersion {
		return nil, fmt.Errorf("project version %d is newer than supported version %d", proj.Version, CurrentVersion)
	}

	return &proj, nil
}

// Save saves the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()
	p.Version = CurrentVersion

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetPhoto sets the photo path (relative to project).
func (p *File) SetPhoto(projectPath, imagePath string) {
	p.PhotoPath = relative(projectPath, imagePath)
	p.Modified = time.Now()
}

// SetSprite sets the fixture sprite path (relative to project).
func (p *File) SetSprite(projectPath, imagePath string) {
	p.SpritePath = relative(projectPath, imagePath)
	p.Modified = time.Now()
}

// GetPhotoPath returns the absolute path to the photo.
func (p *File) GetPhotoPath(projectPath string) (string, error) {
	if p.PhotoPath == "" {
		return "", ErrNoPhoto
	}
	return resolve(projectPath, p.PhotoPath), nil
}

// GetSpritePath returns the absolute path to the sprite, or "" if unset.
func (p *File) GetSpritePath(projectPath string) string {
	if p.SpritePath == "" {
		return ""
	}
	return resolve(projectPath, p.SpritePath)
}

// OutputPath returns the default path for a rendered artifact, e.g.
// house_composite.jpg next to house.lightplan.
func (p *File) OutputPath(projectPath, suffix, ext string) string {
	base := strings.TrimSuffix(projectPath, filepath.Ext(projectPath))
	return base + "_" + suffix + "." + ext
}

// Capture stores the store's current layout in the project.
func (p *File) Capture(st *store.Store) error {
	data, err := st.Export()
	if err != nil {
		return err
	}
	p.Layout = data
	p.Modified = time.Now()
	return nil
}

// Apply replaces the store's layout with the project's. An empty layout
// clears the store.
func (p *File) Apply(st *store.Store) error {
	if len(p.Layout) == 0 {
		st.Clear()
		return nil
	}
	if !st.Import(p.Layout) {
		return fmt.Errorf("project %q: %w", p.Name, store.ErrMalformed)
	}
	return nil
}

func relative(projectPath, imagePath string) string {
	abs, err := filepath.Abs(imagePath)
	if err != nil {
		return imagePath
	}
	dir, err := filepath.Abs(filepath.Dir(projectPath))
	if err != nil {
		return imagePath
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return imagePath
	}
	return rel
}

func resolve(projectPath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(projectPath), p)
}

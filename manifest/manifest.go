// Package manifest handles robusta.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/EchidnaHQ/robusta/transform"
)

// Manifest represents a robusta.toml project configuration.
type Manifest struct {
	Project  Project           `toml:"project"`
	Source   Source            `toml:"source"`
	Output   Output            `toml:"output"`
	Packages map[string]string `toml:"packages"`

	// Dir is the directory containing the robusta.toml file (set at load
	// time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures where bridge declarations come from.
type Source struct {
	// Package is the Go import path (or relative directory) holding the
	// annotated declarations.
	Package string `toml:"package"`
	// Module optionally names a CBOR module file produced by an external
	// front-end, used instead of introspecting Package.
	Module string `toml:"module"`
}

// Output configures generated file locations.
type Output struct {
	File  string `toml:"file"`
	Cache string `toml:"cache"`
}

// Load parses a robusta.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "robusta.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	// Defaults
	if m.Output.File == "" {
		m.Output.File = "bridge_gen.go"
	}
	if m.Output.Cache == "" {
		m.Output.Cache = filepath.Join(".robusta", "cache.db")
	}

	// Package entries are validated here, before any generation work
	// starts, with the same rules the resolver applies to in-source
	// associations.
	for typeName, pkg := range m.Packages {
		if err := transform.ValidateJavaPath(pkg); err != nil {
			return nil, fmt.Errorf("invalid package for type %s in %s: %w", typeName, path, err)
		}
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a robusta.toml file, then
// loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "robusta.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// OutputPath returns the absolute path of the generated file.
func (m *Manifest) OutputPath() string {
	return filepath.Join(m.Dir, m.Output.File)
}

// CachePath returns the absolute path of the generation cache database.
func (m *Manifest) CachePath() string {
	return filepath.Join(m.Dir, m.Output.Cache)
}

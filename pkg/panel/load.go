package panel

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// File is the on-disk profile list. YAML files use a "panels" list, TOML files
// a [[panel]] table array.
type File struct {
	Panels []Profile `yaml:"panels" toml:"panel"`
}

// LoadFile reads and validates the profiles in a .yaml, .yml or .toml file.
func LoadFile(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read panel file: %w", err)
	}

	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("failed to parse %s: unknown key %s", path, undecoded[0])
		}
	default:
		return nil, fmt.Errorf("unsupported panel file extension %q", ext)
	}

	if len(f.Panels) == 0 {
		return nil, fmt.Errorf("%w: %s defines no panels", ErrInvalidProfile, path)
	}
	seen := make(map[string]bool, len(f.Panels))
	for _, p := range f.Panels {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("%w: duplicate panel %q in %s", ErrInvalidProfile, p.Name, path)
		}
		seen[p.Name] = true
	}
	return f.Panels, nil
}

// Select returns the profile called name, or the only profile when name is
// empty.
func Select(profiles []Profile, name string) (Profile, error) {
	if name == "" {
		if len(profiles) == 1 {
			return profiles[0], nil
		}
		return Profile{}, fmt.Errorf("%d panels defined, pick one by name", len(profiles))
	}
	for _, p := range profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

package filter

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// Presets are named filter specs loaded from a TOML file:
//
//	[presets.green-fleet]
//	min_score = 60
//	transport = "electric"
type Presets map[string]Spec

type presetFile struct {
	Presets map[string]Spec `toml:"presets"`
}

// LoadPresets reads a preset file. An empty path yields no presets.
func LoadPresets(path string) (Presets, error) {
	if path == "" {
		return Presets{}, nil
	}

	var file presetFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("decode presets %s: %w", path, err)
	}

	if file.Presets == nil {
		return Presets{}, nil
	}
	return Presets(file.Presets), nil
}

// Names returns preset names sorted alphabetically
func (p Presets) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named preset
func (p Presets) Lookup(name string) (Spec, error) {
	spec, ok := p[name]
	if !ok {
		return Spec{}, fmt.Errorf("unknown filter preset %q", name)
	}
	return spec, nil
}

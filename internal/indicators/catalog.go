// Package indicators exposes the static library of indicator descriptions.
//
// The library is an embedded YAML table, parsed once on first use. Post
// processors reference entries by short name to describe their outputs.
package indicators

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Lookup for an unknown short name.
var ErrNotFound = errors.New("indicator not found")

//go:embed indicators_library.yaml
var library []byte

// Description is the immutable metadata of one indicator.
type Description struct {
	ShortName    string   `yaml:"short_name" json:"short_name"`
	DisplayName  string   `yaml:"display_name" json:"display_name"`
	Description  string   `yaml:"description" json:"description"`
	Unit         string   `yaml:"unit" json:"unit,omitempty"`
	Range        string   `yaml:"range" json:"range"`
	Applications []string `yaml:"applications" json:"applications"`
}

// HasUnit reports whether the indicator carries a physical unit.
func (d Description) HasUnit() bool { return d.Unit != "" }

var (
	loadOnce sync.Once
	catalog  []Description
	byName   map[string]int
	loadErr  error
)

func load() {
	loadOnce.Do(func() {
		catalog, byName, loadErr = parse(library)
	})
}

func parse(data []byte) ([]Description, map[string]int, error) {
	var descs []Description
	if err := yaml.Unmarshal(data, &descs); err != nil {
		return nil, nil, fmt.Errorf("failed to parse indicator library: %w", err)
	}
	index := make(map[string]int, len(descs))
	for i, d := range descs {
		if d.ShortName == "" {
			return nil, nil, fmt.Errorf("indicator library entry %d has no short_name", i)
		}
		if _, dup := index[d.ShortName]; dup {
			return nil, nil, fmt.Errorf("indicator library lists %q twice", d.ShortName)
		}
		index[d.ShortName] = i
	}
	return descs, index, nil
}

// All returns a copy of every indicator description, in library order.
func All() ([]Description, error) {
	load()
	if loadErr != nil {
		return nil, loadErr
	}
	out := make([]Description, len(catalog))
	for i, d := range catalog {
		out[i] = d.clone()
	}
	return out, nil
}

// Lookup returns the description for shortName or ErrNotFound.
func Lookup(shortName string) (Description, error) {
	load()
	if loadErr != nil {
		return Description{}, loadErr
	}
	i, ok := byName[shortName]
	if !ok {
		return Description{}, fmt.Errorf("%w: %q", ErrNotFound, shortName)
	}
	return catalog[i].clone(), nil
}

// MustLookup is Lookup for descriptions compiled into post processors.
// It panics when the library does not carry shortName.
func MustLookup(shortName string) Description {
	d, err := Lookup(shortName)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Description) clone() Description {
	d.Applications = append([]string(nil), d.Applications...)
	return d
}

// Package catalog holds the entity metadata that raw media files are
// resolved against during ingestion.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnresolved is returned when a file stem matches no catalog entry.
var ErrUnresolved = errors.New("no catalog entry matches")

// Entry describes one pokemon.
type Entry struct {
	Name       string   `yaml:"name"`
	Generation int      `yaml:"generation"`
	Types      []string `yaml:"types"`
	Tags       []string `yaml:"tags"`
}

// Catalog is an ordered list of entries. Resolution returns the first match.
type Catalog struct {
	Entries []Entry `yaml:"entries"`
}

// Default returns the built-in catalog with the three generation one starters.
func Default() *Catalog {
	return &Catalog{Entries: []Entry{
		{Name: "Bulbasaur", Generation: 1, Types: []string{"Grass", "Poison"}, Tags: []string{"starter"}},
		{Name: "Charmander", Generation: 1, Types: []string{"Fire"}, Tags: []string{"starter"}},
		{Name: "Squirtle", Generation: 1, Types: []string{"Water"}, Tags: []string{"starter"}},
	}}
}

// Parse decodes a YAML catalog and checks every entry.
//
//	entries:
//	  - name: Pikachu
//	    generation: 1
//	    types: [Electric]
//	    tags: [mascot]
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	for i, e := range c.Entries {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("catalog entry %d has no name", i)
		}
		if e.Generation <= 0 {
			return nil, fmt.Errorf("catalog entry %q has invalid generation %d", e.Name, e.Generation)
		}
		if len(e.Types) > 2 {
			return nil, fmt.Errorf("catalog entry %q has more than two types", e.Name)
		}
	}
	return &c, nil
}

// Load reads the catalog at path, or returns Default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Resolve finds the entry whose lowercased name is contained in the
// lowercased file stem, e.g. "bulbasaur_card" resolves to Bulbasaur.
func (c *Catalog) Resolve(stem string) (Entry, error) {
	s := strings.ToLower(stem)
	for _, e := range c.Entries {
		if strings.Contains(s, strings.ToLower(e.Name)) {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w %q", ErrUnresolved, stem)
}

// Marshal encodes the catalog as YAML.
func (c *Catalog) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolve(t *testing.T) {
	c := Default()

	tests := []struct {
		stem string
		want string
	}{
		{"bulbasaur", "Bulbasaur"},
		{"Bulbasaur_card", "Bulbasaur"},
		{"my-CHARMANDER-notes", "Charmander"},
		{"squirtle", "Squirtle"},
	}
	for _, tt := range tests {
		t.Run(tt.stem, func(t *testing.T) {
			e, err := c.Resolve(tt.stem)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if e.Name != tt.want {
				t.Fatalf("Resolve() = %q, want %q", e.Name, tt.want)
			}
		})
	}
}

func TestResolveUnknown(t *testing.T) {
	_, err := Default().Resolve("pikachu")
	if !errors.Is(err, ErrUnresolved) {
		t.Fatalf("expected ErrUnresolved, got %v", err)
	}
}

func TestDefaultEntries(t *testing.T) {
	want := Entry{Name: "Bulbasaur", Generation: 1, Types: []string{"Grass", "Poison"}, Tags: []string{"starter"}}
	if diff := cmp.Diff(want, Default().Entries[0]); diff != "" {
		t.Fatalf("Bulbasaur entry mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRoundTrip(t *testing.T) {
	raw, err := Default().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	c, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff(Default(), c); diff != "" {
		t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := map[string]string{
		"missing name":   "entries:\n  - generation: 1\n",
		"bad generation": "entries:\n  - name: Pikachu\n    generation: 0\n",
		"three types":    "entries:\n  - name: Pikachu\n    generation: 1\n    types: [Electric, Fire, Water]\n",
		"not yaml":       "entries: [",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(input)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	if err != nil || len(c.Entries) != 3 {
		t.Fatalf("Load(\"\") = %v, %v", c, err)
	}

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := "entries:\n  - name: Pikachu\n    generation: 1\n    types: [Electric]\n    tags: [mascot]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	e, err := c.Resolve("pikachu_card")
	if err != nil || e.Tags[0] != "mascot" {
		t.Fatalf("Resolve() = %+v, %v", e, err)
	}
}

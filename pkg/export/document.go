// Package export serializes a canonical graph to the graph document, one
// CSV file per collection and the document's JSON Schema.
package export

import (
	"cmp"
	"encoding/json"
	"slices"

	"github.com/OFFIS-RIT/pokegraph/pkg/ai"
	"github.com/OFFIS-RIT/pokegraph/pkg/common"
	"github.com/OFFIS-RIT/pokegraph/pkg/schema"
)

// PokemonNode is one pokemon of the export. Types absent from the sources
// are omitted.
type PokemonNode struct {
	Name          string  `json:"name" jsonschema_description:"Canonical pokemon name"`
	Generation    int     `json:"generation" jsonschema_description:"Generation the pokemon was introduced in"`
	PrimaryType   *string `json:"primary_type,omitempty"`
	SecondaryType *string `json:"secondary_type,omitempty"`
}

// TypeNode is one pokemon type.
type TypeNode struct {
	Name string `json:"name"`
}

// PokemonTypeEdge links a pokemon to one of its types.
type PokemonTypeEdge struct {
	FromPokemon string `json:"from_pokemon"`
	ToType      string `json:"to_type"`
}

// EvolutionEdge links a pokemon to the pokemon it evolves into.
type EvolutionEdge struct {
	FromPokemon string `json:"from_pokemon"`
	ToPokemon   string `json:"to_pokemon"`
}

// MentionsEdge links a media record to a pokemon it mentions.
type MentionsEdge struct {
	FromMediaID string `json:"from_media_id"`
	ToPokemon   string `json:"to_pokemon"`
}

// Document is the exported graph.
type Document struct {
	PokemonNodes     []PokemonNode     `json:"pokemon_nodes"`
	TypeNodes        []TypeNode        `json:"type_nodes"`
	PokemonTypeEdges []PokemonTypeEdge `json:"pokemon_type_edges"`
	EvolutionEdges   []EvolutionEdge   `json:"evolution_edges"`
	MentionsEdges    []MentionsEdge    `json:"mentions_edges"`
}

// FromGraph maps a canonical graph to the export document. Nodes keep their
// order, edges are sorted by (from, to) so equal graphs export identically.
func FromGraph(g common.Graph) Document {
	d := Document{
		PokemonNodes:     make([]PokemonNode, 0, len(g.EntityNodes)),
		TypeNodes:        make([]TypeNode, 0, len(g.CategoryNodes)),
		PokemonTypeEdges: make([]PokemonTypeEdge, 0, len(g.CategoryEdges)),
		EvolutionEdges:   make([]EvolutionEdge, 0, len(g.EvolutionEdges)),
		MentionsEdges:    make([]MentionsEdge, 0, len(g.MentionsEdges)),
	}

	for _, n := range g.EntityNodes {
		d.PokemonNodes = append(d.PokemonNodes, PokemonNode{
			Name:          n.Name,
			Generation:    n.Generation,
			PrimaryType:   clone(n.PrimaryType),
			SecondaryType: clone(n.SecondaryType),
		})
	}
	for _, n := range g.CategoryNodes {
		d.TypeNodes = append(d.TypeNodes, TypeNode{Name: n.Name})
	}
	for _, e := range g.CategoryEdges {
		d.PokemonTypeEdges = append(d.PokemonTypeEdges, PokemonTypeEdge{FromPokemon: e.FromEntity, ToType: e.ToCategory})
	}
	for _, e := range g.EvolutionEdges {
		d.EvolutionEdges = append(d.EvolutionEdges, EvolutionEdge{FromPokemon: e.FromEntity, ToPokemon: e.ToEntity})
	}
	for _, e := range g.MentionsEdges {
		d.MentionsEdges = append(d.MentionsEdges, MentionsEdge{FromMediaID: e.FromMediaID, ToPokemon: e.ToEntity})
	}

	slices.SortFunc(d.PokemonTypeEdges, func(a, b PokemonTypeEdge) int {
		return cmp.Or(cmp.Compare(a.FromPokemon, b.FromPokemon), cmp.Compare(a.ToType, b.ToType))
	})
	slices.SortFunc(d.EvolutionEdges, func(a, b EvolutionEdge) int {
		return cmp.Or(cmp.Compare(a.FromPokemon, b.FromPokemon), cmp.Compare(a.ToPokemon, b.ToPokemon))
	})
	slices.SortFunc(d.MentionsEdges, func(a, b MentionsEdge) int {
		return cmp.Or(cmp.Compare(a.FromMediaID, b.FromMediaID), cmp.Compare(a.ToPokemon, b.ToPokemon))
	})
	return d
}

func clone(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Marshal returns the indented JSON form of the document.
func (d Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ValidateDocument checks a serialized document against the export field
// contract. The error is a *schema.SchemaViolation for contract breaches.
func ValidateDocument(raw []byte) error {
	return schema.ValidateExport(raw)
}

// Schema returns the JSON Schema of Document.
func Schema() ([]byte, error) {
	return ai.GenerateSchemaJSON(&Document{})
}

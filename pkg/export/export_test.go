package export

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/pokegraph/pkg/common"
	"github.com/OFFIS-RIT/pokegraph/pkg/schema"

	"github.com/google/go-cmp/cmp"
)

func starterGraph() common.Graph {
	return common.Graph{
		EntityNodes: []common.EntityNode{
			{Name: "Bulbasaur", Generation: 1, PrimaryType: common.Ptr("Grass"), SecondaryType: common.Ptr("Poison")},
			{Name: "Squirtle", Generation: 1, PrimaryType: common.Ptr("Water")},
			{Name: "Charmander", Generation: 1},
		},
		CategoryNodes: []common.CategoryNode{{Name: "Grass"}, {Name: "Poison"}, {Name: "Water"}},
		CategoryEdges: []common.CategoryEdge{
			{FromEntity: "Squirtle", ToCategory: "Water"},
			{FromEntity: "Bulbasaur", ToCategory: "Poison"},
			{FromEntity: "Bulbasaur", ToCategory: "Grass"},
		},
		EvolutionEdges: []common.EvolutionEdge{{FromEntity: "Charmander", ToEntity: "Charmeleon"}},
		MentionsEdges: []common.MentionsEdge{
			{FromMediaID: "squirtle", ToEntity: "Squirtle"},
			{FromMediaID: "bulbasaur", ToEntity: "Bulbasaur"},
			{FromMediaID: "charmander", ToEntity: "Charmander"},
		},
	}
}

func TestFromGraph(t *testing.T) {
	doc := FromGraph(starterGraph())

	wantNodes := []string{"Bulbasaur", "Squirtle", "Charmander"}
	var gotNodes []string
	for _, n := range doc.PokemonNodes {
		gotNodes = append(gotNodes, n.Name)
	}
	if diff := cmp.Diff(wantNodes, gotNodes); diff != "" {
		t.Errorf("node order changed (-want +got):\n%s", diff)
	}

	wantTypeEdges := []PokemonTypeEdge{
		{FromPokemon: "Bulbasaur", ToType: "Grass"},
		{FromPokemon: "Bulbasaur", ToType: "Poison"},
		{FromPokemon: "Squirtle", ToType: "Water"},
	}
	if diff := cmp.Diff(wantTypeEdges, doc.PokemonTypeEdges); diff != "" {
		t.Errorf("type edges not sorted (-want +got):\n%s", diff)
	}

	wantMentions := []MentionsEdge{
		{FromMediaID: "bulbasaur", ToPokemon: "Bulbasaur"},
		{FromMediaID: "charmander", ToPokemon: "Charmander"},
		{FromMediaID: "squirtle", ToPokemon: "Squirtle"},
	}
	if diff := cmp.Diff(wantMentions, doc.MentionsEdges); diff != "" {
		t.Errorf("mentions not sorted (-want +got):\n%s", diff)
	}
}

func TestFromGraphDetached(t *testing.T) {
	g := starterGraph()
	doc := FromGraph(g)
	*g.EntityNodes[0].PrimaryType = "Fire"
	if *doc.PokemonNodes[0].PrimaryType != "Grass" {
		t.Fatal("document shares memory with the graph")
	}
}

func TestSchemaRoundTrip(t *testing.T) {
	tests := map[string]common.Graph{
		"starter": starterGraph(),
		"empty":   {},
	}
	for name, g := range tests {
		t.Run(name, func(t *testing.T) {
			raw, err := FromGraph(g).Marshal()
			if err != nil {
				t.Fatal(err)
			}
			if err := ValidateDocument(raw); err != nil {
				t.Fatalf("ValidateDocument() error = %v\n%s", err, raw)
			}
		})
	}
}

func TestAbsentTypesOmitted(t *testing.T) {
	raw, err := FromGraph(starterGraph()).Marshal()
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		PokemonNodes []map[string]any `json:"pokemon_nodes"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.PokemonNodes[2]["primary_type"]; ok {
		t.Fatalf("absent primary type serialized: %v", doc.PokemonNodes[2])
	}
	if _, ok := doc.PokemonNodes[1]["secondary_type"]; ok {
		t.Fatalf("absent secondary type serialized: %v", doc.PokemonNodes[1])
	}
}

func TestValidateDocumentRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		path string
	}{
		{
			name: "fragment names",
			raw:  `{"entity_nodes":[],"category_nodes":[],"entity_category_edges":[],"evolution_edges":[],"mentions_edges":[]}`,
			path: "category_nodes",
		},
		{
			name: "generation as string",
			raw:  `{"pokemon_nodes":[{"name":"Squirtle","generation":"1"}],"type_nodes":[],"pokemon_type_edges":[],"evolution_edges":[],"mentions_edges":[]}`,
			path: "pokemon_nodes[0].generation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v *schema.SchemaViolation
			if err := ValidateDocument([]byte(tt.raw)); !errors.As(err, &v) {
				t.Fatalf("expected SchemaViolation, got %v", err)
			}
			if v.Path != tt.path {
				t.Fatalf("violation path = %q, want %q", v.Path, tt.path)
			}
		})
	}
}

func TestSchema(t *testing.T) {
	raw, err := Schema()
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"pokemon_nodes", "type_nodes", "pokemon_type_edges", "evolution_edges", "mentions_edges"} {
		if _, ok := doc.Properties[key]; !ok {
			t.Errorf("schema misses %s", key)
		}
	}
	if len(doc.Required) != 5 {
		t.Errorf("expected five required collections, got %v", doc.Required)
	}
}

type memUploader struct {
	files map[string]string
	err   error
}

func (m *memUploader) PutFile(ctx context.Context, key string, body io.ReadSeeker) error {
	if m.err != nil {
		return m.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if m.files == nil {
		m.files = map[string]string{}
	}
	m.files[key] = string(b)
	return nil
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "graph")
	up := &memUploader{}
	e := NewExporter(NewExporterParams{Dir: dir, Uploader: up})

	res, err := e.Export(context.Background(), "build1", starterGraph())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	wantFiles := []string{
		"graph.json",
		"nodes/pokemon_nodes.csv",
		"nodes/type_nodes.csv",
		"edges/pokemon_type_edges.csv",
		"edges/evolution_edges.csv",
		"edges/mentions_edges.csv",
		"schema.json",
	}
	if diff := cmp.Diff(wantFiles, res.Files); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
	if len(up.files) != len(wantFiles) {
		t.Fatalf("expected %d uploads, got %d", len(wantFiles), len(up.files))
	}
	if _, ok := up.files["graph/build1/edges/mentions_edges.csv"]; !ok {
		t.Fatalf("missing upload key, got %v", res.Uploaded)
	}

	pokemonCSV, err := os.ReadFile(filepath.Join(dir, "nodes", "pokemon_nodes.csv"))
	if err != nil {
		t.Fatal(err)
	}
	wantCSV := strings.Join([]string{
		"name,generation,primary_type,secondary_type",
		"Bulbasaur,1,Grass,Poison",
		"Squirtle,1,Water,",
		"Charmander,1,,",
		"",
	}, "\n")
	if string(pokemonCSV) != wantCSV {
		t.Fatalf("pokemon_nodes.csv:\n%s\nwant:\n%s", pokemonCSV, wantCSV)
	}

	evolutionCSV, _ := os.ReadFile(filepath.Join(dir, "edges", "evolution_edges.csv"))
	if string(evolutionCSV) != "from_pokemon,to_pokemon\nCharmander,Charmeleon\n" {
		t.Fatalf("unexpected evolution_edges.csv:\n%s", evolutionCSV)
	}

	graphJSON, err := e.ReadGraph()
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateDocument(graphJSON); err != nil {
		t.Fatalf("exported graph does not validate: %v", err)
	}
}

func TestExportEmptyGraphWritesHeaders(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewExporter(NewExporterParams{Dir: dir}).Export(context.Background(), "", common.Graph{}); err != nil {
		t.Fatal(err)
	}
	typesCSV, err := os.ReadFile(filepath.Join(dir, "nodes", "type_nodes.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(typesCSV) != "name\n" {
		t.Fatalf("unexpected type_nodes.csv %q", typesCSV)
	}
}

func TestExportUploadError(t *testing.T) {
	boom := errors.New("bucket gone")
	e := NewExporter(NewExporterParams{Dir: t.TempDir(), Uploader: &memUploader{err: boom}})
	if _, err := e.Export(context.Background(), "b", starterGraph()); !errors.Is(err, boom) {
		t.Fatalf("expected upload error, got %v", err)
	}
}

func TestExportFailureKeepsPreviousExport(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "graph")
	e := NewExporter(NewExporterParams{Dir: dir})

	if _, err := e.Export(context.Background(), "", starterGraph()); err != nil {
		t.Fatal(err)
	}
	before := readTree(t, dir)

	boom := errors.New("disk full")
	orig := writeOutput
	t.Cleanup(func() { writeOutput = orig })
	writeOutput = func(p string, content []byte) error {
		if filepath.Base(p) == "evolution_edges.csv" {
			return boom
		}
		return orig(p, content)
	}

	g := starterGraph()
	g.EntityNodes = g.EntityNodes[:1]
	if _, err := e.Export(context.Background(), "", g); !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}

	if diff := cmp.Diff(before, readTree(t, dir)); diff != "" {
		t.Fatalf("previous export changed (-want +got):\n%s", diff)
	}
	entries, err := os.ReadDir(parent)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "graph" {
		t.Fatalf("staging left behind: %v", entries)
	}
}

func TestExportReplacesStaleFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "graph")
	stale := filepath.Join(dir, "nodes", "old_nodes.csv")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("name\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewExporter(NewExporterParams{Dir: dir}).Export(context.Background(), "", starterGraph()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stale file survived the export: %v", err)
	}
	if _, ok := readTree(t, dir)["graph.json"]; !ok {
		t.Fatal("graph.json missing")
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return files
}

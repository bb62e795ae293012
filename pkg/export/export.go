package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/OFFIS-RIT/pokegraph/pkg/common"
	"github.com/OFFIS-RIT/pokegraph/pkg/logger"
)

// File names below the export directory.
const (
	GraphFile  = "graph.json"
	SchemaFile = "schema.json"
)

// Uploader stores exported files in object storage.
type Uploader interface {
	PutFile(ctx context.Context, key string, body io.ReadSeeker) error
}

// Exporter writes graph exports into one directory and optionally uploads
// them under graph/<build id>/.
type Exporter struct {
	dir      string
	uploader Uploader
}

// NewExporterParams defines the input parameters for creating an Exporter.
// Dir defaults to "graph". Uploads are skipped when Uploader is nil.
type NewExporterParams struct {
	Dir      string
	Uploader Uploader
}

// NewExporter creates an Exporter for the given directory and uploader.
func NewExporter(params NewExporterParams) *Exporter {
	dir := params.Dir
	if dir == "" {
		dir = "graph"
	}
	return &Exporter{dir: dir, uploader: params.Uploader}
}

// Dir returns the directory the export is written to.
func (e *Exporter) Dir() string { return e.dir }

// Result lists the written files relative to the export directory.
type Result struct {
	Document Document
	Files    []string
	Uploaded []string
}

type output struct {
	name    string
	content []byte
}

// Export renders every file, writes them into a staging directory next to
// the export directory and then swaps the staging directory in. A failing
// render or write leaves the previous export untouched.
func (e *Exporter) Export(ctx context.Context, buildID string, g common.Graph) (*Result, error) {
	doc := FromGraph(g)

	outputs, err := render(doc)
	if err != nil {
		return nil, err
	}

	if err := e.replaceDir(outputs); err != nil {
		return nil, err
	}

	res := &Result{Document: doc}
	for _, o := range outputs {
		res.Files = append(res.Files, o.name)
	}

	if e.uploader != nil && buildID != "" {
		for _, o := range outputs {
			key := path.Join("graph", buildID, o.name)
			if err := e.uploader.PutFile(ctx, key, bytes.NewReader(o.content)); err != nil {
				return nil, fmt.Errorf("failed to upload %s: %w", o.name, err)
			}
			res.Uploaded = append(res.Uploaded, key)
		}
	}

	logger.Info("[Export] Exported graph",
		"build_id", buildID,
		"dir", e.dir,
		"pokemon", len(doc.PokemonNodes),
		"types", len(doc.TypeNodes),
		"mentions", len(doc.MentionsEdges),
		"uploaded", len(res.Uploaded),
	)
	return res, nil
}

// ReadGraph returns the last exported graph document.
func (e *Exporter) ReadGraph() ([]byte, error) {
	return os.ReadFile(filepath.Join(e.dir, GraphFile))
}

func render(doc Document) ([]output, error) {
	graphJSON, err := doc.Marshal()
	if err != nil {
		return nil, err
	}
	schemaJSON, err := Schema()
	if err != nil {
		return nil, err
	}

	outputs := []output{{name: GraphFile, content: graphJSON}}
	for _, t := range tables(doc) {
		content, err := t.csv()
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", t.name, err)
		}
		outputs = append(outputs, output{name: t.name, content: content})
	}
	return append(outputs, output{name: SchemaFile, content: schemaJSON}), nil
}

type table struct {
	name   string
	header []string
	rows   [][]string
}

func (t table) csv() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(t.rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cell(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// tables projects every collection row-wise with the JSON field names as
// header.
func tables(doc Document) []table {
	pokemon := table{name: "nodes/pokemon_nodes.csv", header: []string{"name", "generation", "primary_type", "secondary_type"}}
	for _, n := range doc.PokemonNodes {
		pokemon.rows = append(pokemon.rows, []string{n.Name, strconv.Itoa(n.Generation), cell(n.PrimaryType), cell(n.SecondaryType)})
	}

	types := table{name: "nodes/type_nodes.csv", header: []string{"name"}}
	for _, n := range doc.TypeNodes {
		types.rows = append(types.rows, []string{n.Name})
	}

	pokemonTypes := table{name: "edges/pokemon_type_edges.csv", header: []string{"from_pokemon", "to_type"}}
	for _, e := range doc.PokemonTypeEdges {
		pokemonTypes.rows = append(pokemonTypes.rows, []string{e.FromPokemon, e.ToType})
	}

	evolutions := table{name: "edges/evolution_edges.csv", header: []string{"from_pokemon", "to_pokemon"}}
	for _, e := range doc.EvolutionEdges {
		evolutions.rows = append(evolutions.rows, []string{e.FromPokemon, e.ToPokemon})
	}

	mentions := table{name: "edges/mentions_edges.csv", header: []string{"from_media_id", "to_pokemon"}}
	for _, e := range doc.MentionsEdges {
		mentions.rows = append(mentions.rows, []string{e.FromMediaID, e.ToPokemon})
	}

	return []table{pokemon, types, pokemonTypes, evolutions, mentions}
}

// writeOutput is replaced in tests to simulate failing writes.
var writeOutput = func(p string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, content, 0o644)
}

func (e *Exporter) replaceDir(outputs []output) error {
	parent, base := filepath.Split(filepath.Clean(e.dir))
	if parent == "" {
		parent = "."
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}

	staging, err := os.MkdirTemp(parent, "."+base+".staging-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)
	if err := os.Chmod(staging, 0o755); err != nil {
		return err
	}

	for _, o := range outputs {
		if err := writeOutput(filepath.Join(staging, filepath.FromSlash(o.name)), o.content); err != nil {
			return fmt.Errorf("failed to write %s: %w", o.name, err)
		}
	}

	previous := staging + ".previous"
	hadPrevious := true
	if err := os.Rename(e.dir, previous); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to move previous export aside: %w", err)
		}
		hadPrevious = false
	}
	if err := os.Rename(staging, e.dir); err != nil {
		if hadPrevious {
			if rerr := os.Rename(previous, e.dir); rerr != nil {
				logger.Error("[Export] Failed to restore previous export", "dir", e.dir, "err", rerr)
			}
		}
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	if hadPrevious {
		if err := os.RemoveAll(previous); err != nil {
			logger.Warn("[Export] Failed to remove previous export", "dir", previous, "err", err)
		}
	}
	return nil
}

package graph

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/OFFIS-RIT/pokegraph/pkg/common"
	"github.com/OFFIS-RIT/pokegraph/pkg/records"
	"github.com/OFFIS-RIT/pokegraph/pkg/schema"

	"github.com/google/go-cmp/cmp"
)

func writeStream(t *testing.T, path string, lines ...string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// hintExtractor returns one entity node named after the hint and one
// mentions edge from the media id to the hint.
var hintExtractor = ExtractorFunc(func(_ context.Context, _ string, mediaID string, hint string) (json.RawMessage, error) {
	f := common.NewFragment()
	f.EntityNodes = append(f.EntityNodes, common.EntityNode{Name: hint, Generation: 1})
	f.MentionsEdges = append(f.MentionsEdges, common.MentionsEdge{FromMediaID: mediaID, ToEntity: hint})
	return json.Marshal(f)
})

func starterStreams(t *testing.T) records.Streams {
	t.Helper()
	streams := records.DefaultStreams(t.TempDir())
	writeStream(t, streams.Text,
		`{"id":"bulbasaur_fact","text":"Bulbasaur is a Grass/Poison starter.","pokemon":"Bulbasaur","generation":1}`)
	writeStream(t, streams.Audio, `{"id":"charmander_fact","pokemon":"Charmander","generation":1}`)
	writeStream(t, streams.Image, `{"id":"squirtle_card","pokemon":"Squirtle","generation":1}`)
	return streams
}

func TestBuildGraph_StarterScenario(t *testing.T) {
	client := NewGraphClient(NewGraphClientParams{
		Streams:   starterStreams(t),
		Extractor: hintExtractor,
	})

	res, err := client.BuildGraph(context.Background())
	if err != nil {
		t.Fatalf("BuildGraph() error = %v", err)
	}
	g := res.Graph

	wantNodes := []common.EntityNode{
		{Name: "Bulbasaur", Generation: 1},
		{Name: "Squirtle", Generation: 1},
		{Name: "Charmander", Generation: 1},
	}
	if diff := cmp.Diff(wantNodes, g.EntityNodes); diff != "" {
		t.Errorf("entity nodes mismatch (-want +got):\n%s", diff)
	}
	if len(g.CategoryNodes) != 0 || len(g.CategoryEdges) != 0 || len(g.EvolutionEdges) != 0 {
		t.Errorf("expected no categories or evolutions, got %+v", g)
	}

	wantMentions := []common.MentionsEdge{
		{FromMediaID: "bulbasaur_fact", ToEntity: "Bulbasaur"},
		{FromMediaID: "squirtle_card", ToEntity: "Squirtle"},
		{FromMediaID: "charmander_fact", ToEntity: "Charmander"},
	}
	if diff := cmp.Diff(wantMentions, g.MentionsEdges); diff != "" {
		t.Errorf("mentions edges mismatch (-want +got):\n%s", diff)
	}
	if res.Records != 3 || len(res.Skipped) != 0 || res.ID == "" {
		t.Errorf("unexpected result metadata %+v", res)
	}
}

func TestBuildGraph_EmptyStreams(t *testing.T) {
	called := false
	client := NewGraphClient(NewGraphClientParams{
		Streams: records.DefaultStreams(t.TempDir()),
		Extractor: ExtractorFunc(func(context.Context, string, string, string) (json.RawMessage, error) {
			called = true
			return nil, errors.New("should not be called")
		}),
	})

	res, err := client.BuildGraph(context.Background())
	if err != nil {
		t.Fatalf("BuildGraph() error = %v", err)
	}
	if called {
		t.Fatal("extractor called for empty streams")
	}
	g := res.Graph
	if len(g.EntityNodes)+len(g.CategoryNodes)+len(g.CategoryEdges)+len(g.EvolutionEdges)+len(g.MentionsEdges) != 0 {
		t.Fatalf("expected empty graph, got %+v", g)
	}
}

func TestBuildGraph_StreamOrderDecidesNodeAttributes(t *testing.T) {
	// Both streams describe Bulbasaur differently and share an edge.
	typedExtractor := ExtractorFunc(func(_ context.Context, text string, mediaID string, hint string) (json.RawMessage, error) {
		f := common.NewFragment()
		f.EntityNodes = []common.EntityNode{{Name: hint, Generation: 1, PrimaryType: str(text)}}
		f.EntityCategoryEdges = []common.CategoryEdge{{FromEntity: hint, ToCategory: "Grass"}}
		f.MentionsEdges = []common.MentionsEdge{{FromMediaID: mediaID, ToEntity: hint}}
		return json.Marshal(f)
	})

	build := func(t *testing.T, textLine, imageLine string) common.Graph {
		streams := records.DefaultStreams(t.TempDir())
		writeStream(t, streams.Text, textLine)
		writeStream(t, streams.Image, imageLine)
		res, err := NewGraphClient(NewGraphClientParams{Streams: streams, Extractor: typedExtractor}).
			BuildGraph(context.Background())
		if err != nil {
			t.Fatalf("BuildGraph() error = %v", err)
		}
		return res.Graph
	}

	a := `{"id":"a","text":"Grass","pokemon":"Bulbasaur"}`
	b := `{"id":"b","text":"Poison","pokemon":"Bulbasaur"}`

	g1 := build(t, a, b)
	g2 := build(t, b, a)

	if *g1.EntityNodes[0].PrimaryType != "Poison" || *g2.EntityNodes[0].PrimaryType != "Grass" {
		t.Errorf("expected last stream to win: got %q and %q",
			*g1.EntityNodes[0].PrimaryType, *g2.EntityNodes[0].PrimaryType)
	}

	sortMentions := func(in []common.MentionsEdge) []common.MentionsEdge {
		out := slices.Clone(in)
		slices.SortFunc(out, func(x, y common.MentionsEdge) int { return strings.Compare(x.FromMediaID, y.FromMediaID) })
		return out
	}
	if diff := cmp.Diff(sortMentions(g1.MentionsEdges), sortMentions(g2.MentionsEdges)); diff != "" {
		t.Errorf("mentions edge sets differ (-g1 +g2):\n%s", diff)
	}
	if diff := cmp.Diff(g1.CategoryEdges, g2.CategoryEdges); diff != "" {
		t.Errorf("category edge sets differ (-g1 +g2):\n%s", diff)
	}
	if len(g1.CategoryEdges) != 1 {
		t.Errorf("expected deduplicated category edge, got %d", len(g1.CategoryEdges))
	}
}

func TestBuildGraph_ParallelMatchesSequential(t *testing.T) {
	streams := records.DefaultStreams(t.TempDir())
	var lines []string
	for _, name := range []string{"Bulbasaur", "Ivysaur", "Venusaur", "Charmander", "Charmeleon", "Charizard", "Squirtle"} {
		lines = append(lines, `{"id":"`+strings.ToLower(name)+`","pokemon":"`+name+`"}`)
	}
	writeStream(t, streams.Text, lines...)
	writeStream(t, streams.Audio, `{"id":"bulbasaur_clip","pokemon":"Bulbasaur"}`)

	seq, err := NewGraphClient(NewGraphClientParams{Streams: streams, Extractor: hintExtractor}).
		BuildGraph(context.Background())
	if err != nil {
		t.Fatalf("sequential BuildGraph() error = %v", err)
	}
	par, err := NewGraphClient(NewGraphClientParams{Streams: streams, Extractor: hintExtractor, ParallelExtractions: 3}).
		BuildGraph(context.Background())
	if err != nil {
		t.Fatalf("parallel BuildGraph() error = %v", err)
	}
	if diff := cmp.Diff(seq.Graph, par.Graph); diff != "" {
		t.Fatalf("parallel build differs (-seq +par):\n%s", diff)
	}
}

func TestBuildGraph_FailurePolicies(t *testing.T) {
	failing := ExtractorFunc(func(ctx context.Context, text, mediaID, hint string) (json.RawMessage, error) {
		switch mediaID {
		case "broken":
			return nil, errors.New("model timeout")
		case "extra_field":
			return json.RawMessage(`{"entity_nodes":[{"name":"Mew","generation":1,"legendary":true}],` +
				`"category_nodes":[],"entity_category_edges":[],"evolution_edges":[],"mentions_edges":[]}`), nil
		}
		return hintExtractor(ctx, text, mediaID, hint)
	})

	newStreams := func(t *testing.T) records.Streams {
		streams := records.DefaultStreams(t.TempDir())
		writeStream(t, streams.Text,
			`{"id":"bulbasaur_fact","pokemon":"Bulbasaur"}`,
			`{"id":"broken","pokemon":"Charmander"}`,
			`{"id":"extra_field","pokemon":"Mew"}`,
			`{"id":"squirtle_card","pokemon":"Squirtle"}`,
		)
		return streams
	}

	t.Run("fail fast returns extraction error", func(t *testing.T) {
		_, err := NewGraphClient(NewGraphClientParams{Streams: newStreams(t), Extractor: failing}).
			BuildGraph(context.Background())
		var ee *ExtractionError
		if !errors.As(err, &ee) {
			t.Fatalf("expected *ExtractionError, got %v", err)
		}
		if ee.MediaID != "broken" {
			t.Errorf("MediaID = %q, want broken", ee.MediaID)
		}
	})

	t.Run("fail fast returns schema violation", func(t *testing.T) {
		streams := records.DefaultStreams(t.TempDir())
		writeStream(t, streams.Image, `{"id":"extra_field"}`)
		_, err := NewGraphClient(NewGraphClientParams{Streams: streams, Extractor: failing}).
			BuildGraph(context.Background())
		var sv *schema.SchemaViolation
		if !errors.As(err, &sv) {
			t.Fatalf("expected *schema.SchemaViolation, got %v", err)
		}
		if sv.Path != "entity_nodes[0].legendary" {
			t.Errorf("Path = %q", sv.Path)
		}
		var re *RecordError
		if !errors.As(err, &re) || re.MediaID != "extra_field" {
			t.Errorf("expected RecordError for extra_field, got %v", err)
		}
	})

	for _, parallel := range []int{1, 4} {
		t.Run("skip invalid", func(t *testing.T) {
			res, err := NewGraphClient(NewGraphClientParams{
				Streams:             newStreams(t),
				Extractor:           failing,
				FailurePolicy:       SkipInvalid,
				ParallelExtractions: parallel,
			}).BuildGraph(context.Background())
			if err != nil {
				t.Fatalf("BuildGraph() error = %v", err)
			}
			if diff := cmp.Diff([]string{"broken", "extra_field"}, res.Skipped); diff != "" {
				t.Errorf("skipped mismatch (-want +got):\n%s", diff)
			}
			if len(res.Graph.MentionsEdges) != 2 || res.Records != 2 {
				t.Errorf("expected 2 merged records, got %d edges and %d records",
					len(res.Graph.MentionsEdges), res.Records)
			}
		})
	}
}

func TestBuildGraph_StreamReadErrorIsFatal(t *testing.T) {
	streams := records.DefaultStreams(t.TempDir())
	writeStream(t, streams.Text, `{"id":"ok","pokemon":"Bulbasaur"}`, `not json`)

	for _, policy := range []FailurePolicy{FailFast, SkipInvalid} {
		t.Run(policy.String(), func(t *testing.T) {
			_, err := NewGraphClient(NewGraphClientParams{
				Streams:       streams,
				Extractor:     hintExtractor,
				FailurePolicy: policy,
			}).BuildGraph(context.Background())
			var sre *records.StreamReadError
			if !errors.As(err, &sre) {
				t.Fatalf("expected *records.StreamReadError, got %v", err)
			}
			if sre.Line != 2 {
				t.Errorf("Line = %d, want 2", sre.Line)
			}
		})
	}
}

func TestBuildGraph_RetriesExtractor(t *testing.T) {
	streams := records.DefaultStreams(t.TempDir())
	writeStream(t, streams.Text, `{"id":"bulbasaur_fact","pokemon":"Bulbasaur"}`)

	var calls atomic.Int32
	flaky := ExtractorFunc(func(ctx context.Context, text, mediaID, hint string) (json.RawMessage, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("transient")
		}
		return hintExtractor(ctx, text, mediaID, hint)
	})

	res, err := NewGraphClient(NewGraphClientParams{Streams: streams, Extractor: flaky, MaxRetries: 3}).
		BuildGraph(context.Background())
	if err != nil {
		t.Fatalf("BuildGraph() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
	if len(res.Graph.EntityNodes) != 1 {
		t.Errorf("expected 1 entity node, got %d", len(res.Graph.EntityNodes))
	}
}

func TestBuildGraph_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGraphClient(NewGraphClientParams{
		Streams:       starterStreams(t),
		Extractor:     hintExtractor,
		FailurePolicy: SkipInvalid,
	}).BuildGraph(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBuildGraph_NoExtractor(t *testing.T) {
	if _, err := NewGraphClient(NewGraphClientParams{}).BuildGraph(context.Background()); err == nil {
		t.Fatal("expected error without extractor")
	}
}

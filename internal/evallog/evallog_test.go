package evallog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestReadMissingFile(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "logs", "eval.jsonl"))
	got, err := l.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("Read() = %#v, want empty list", got)
	}
}

func TestAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "eval.jsonl")
	l := New(path)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	focus := "Charmander"
	first, err := l.Append(Record{
		Query:            "What type is Charmander?",
		Answer:           "Fire",
		RetrievedContext: map[string]any{"nodes": []any{"Charmander"}},
		Evaluation:       map[string]any{"correct": true},
		FocusedPokemon:   &focus,
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if !first.Timestamp.Equal(fixed) {
		t.Errorf("timestamp = %v, want %v", first.Timestamp, fixed)
	}

	if _, err := l.Append(Record{Query: "Who evolves into Ivysaur?", Extra: map[string]any{}}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := l.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	want := []Record{
		first,
		{
			Timestamp:        fixed,
			Query:            "Who evolves into Ivysaur?",
			RetrievedContext: map[string]any{},
			Evaluation:       map[string]any{},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if strings.Contains(lines[1], "focused_pokemon") || strings.Contains(lines[1], "extra") {
		t.Errorf("optional fields written: %s", lines[1])
	}
	if !strings.Contains(lines[0], `"timestamp":"2026-03-01T12:00:00Z"`) {
		t.Errorf("timestamp not RFC3339 UTC: %s", lines[0])
	}
}

func TestReadSkipsBlankLinesAndReportsBadOnes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eval.jsonl")
	content := "{\"timestamp\":\"2026-01-01T00:00:00Z\",\"query\":\"q\"}\n\n   \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := New(path).Read()
	if err != nil || len(got) != 1 || got[0].Query != "q" {
		t.Fatalf("Read() = %+v, %v", got, err)
	}

	if err := os.WriteFile(path, []byte(content+"{broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path).Read(); err == nil || !strings.Contains(err.Error(), "line 4") {
		t.Fatalf("Read() error = %v, want line 4", err)
	}
}

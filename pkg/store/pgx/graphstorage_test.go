package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/OFFIS-RIT/pokegraph/pkg/common"
	"github.com/OFFIS-RIT/pokegraph/pkg/export"
	"github.com/OFFIS-RIT/pokegraph/pkg/store"

	"github.com/google/go-cmp/cmp"
	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

type execCall struct {
	sql  string
	args []any
}

type fakeConn struct {
	execs   []execCall
	execErr error
	row     pgxv5.Row
}

func (f *fakeConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeConn) Query(context.Context, string, ...any) (pgxv5.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeConn) QueryRow(context.Context, string, ...any) pgxv5.Row {
	return f.row
}

type snapshotRow struct {
	id      string
	created time.Time
	doc     []byte
	skipped []string
	err     error
}

func (r snapshotRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.id
	*(dest[1].(*time.Time)) = r.created
	*(dest[2].(*[]byte)) = r.doc
	*(dest[3].(*[]string)) = r.skipped
	return nil
}

func TestUpsertDocument(t *testing.T) {
	conn := &fakeConn{}
	s := NewGraphDBStorageWithConnection(conn)

	rec := common.Record{
		ID:         "bulbasaur",
		Modality:   common.ModalityText,
		SourcePath: "data/raw/text/bulbasaur.txt",
		Text:       "Bulbasaur\x00 is a Grass type.",
		Pokemon:    common.Ptr("Bulbasaur"),
		Generation: common.Ptr(1),
		Types:      []string{"Grass", "Poison"},
		Tags:       []string{"starter"},
	}
	if err := s.UpsertDocument(context.Background(), rec, []float32{0.1, 0.2}); err != nil {
		t.Fatalf("UpsertDocument() error = %v", err)
	}

	if len(conn.execs) != 1 {
		t.Fatalf("expected 1 exec, got %d", len(conn.execs))
	}
	args := conn.execs[0].args
	if conn.execs[0].sql != upsertDocumentSQL {
		t.Errorf("unexpected statement %q", conn.execs[0].sql)
	}
	if args[0] != "bulbasaur" || args[1] != "text" {
		t.Errorf("key args = %v, %v", args[0], args[1])
	}
	if args[3] != "Bulbasaur is a Grass type." {
		t.Errorf("text not sanitized: %q", args[3])
	}
	if diff := cmp.Diff([]string{"Grass", "Poison"}, args[6]); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
	vec, ok := args[8].(pgvector.Vector)
	if !ok {
		t.Fatalf("embedding arg is %T", args[8])
	}
	if diff := cmp.Diff([]float32{0.1, 0.2}, vec.Slice()); diff != "" {
		t.Errorf("embedding mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertDocument_WrapsError(t *testing.T) {
	conn := &fakeConn{execErr: errors.New("boom")}
	err := NewGraphDBStorageWithConnection(conn).UpsertDocument(
		context.Background(),
		common.Record{ID: "x", Modality: common.ModalityAudio},
		nil,
	)
	if err == nil || !errors.Is(err, conn.execErr) {
		t.Fatalf("UpsertDocument() error = %v, want wrapped boom", err)
	}
}

func TestSaveGraph(t *testing.T) {
	conn := &fakeConn{}
	s := NewGraphDBStorageWithConnection(conn)

	doc := export.Document{
		PokemonNodes: []export.PokemonNode{{Name: "Squirtle", Generation: 1, PrimaryType: common.Ptr("Water")}},
	}
	if err := s.SaveGraph(context.Background(), "b1", doc, nil); err != nil {
		t.Fatalf("SaveGraph() error = %v", err)
	}

	args := conn.execs[0].args
	if args[0] != "b1" {
		t.Errorf("build id = %v", args[0])
	}
	var got export.Document
	if err := json.Unmarshal(args[1].([]byte), &got); err != nil {
		t.Fatalf("stored document is not json: %v", err)
	}
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
	if skipped, _ := args[2].([]string); skipped == nil || len(skipped) != 0 {
		t.Errorf("skipped = %#v, want empty non-nil slice", args[2])
	}
}

func TestLatestGraph(t *testing.T) {
	doc := export.Document{TypeNodes: []export.TypeNode{{Name: "Fire"}}}
	raw, _ := json.Marshal(doc)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	conn := &fakeConn{row: snapshotRow{id: "b2", created: created, doc: raw, skipped: []string{"pikachu"}}}
	snap, err := NewGraphDBStorageWithConnection(conn).LatestGraph(context.Background())
	if err != nil {
		t.Fatalf("LatestGraph() error = %v", err)
	}

	want := &store.Snapshot{ID: "b2", CreatedAt: created, Document: doc, Skipped: []string{"pikachu"}}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestLatestGraph_Empty(t *testing.T) {
	conn := &fakeConn{row: snapshotRow{err: pgxv5.ErrNoRows}}
	_, err := NewGraphDBStorageWithConnection(conn).LatestGraph(context.Background())
	if !errors.Is(err, store.ErrNoSnapshot) {
		t.Fatalf("LatestGraph() error = %v, want ErrNoSnapshot", err)
	}
}

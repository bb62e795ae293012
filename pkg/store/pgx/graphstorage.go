package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/OFFIS-RIT/pokegraph/internal/util"
	"github.com/OFFIS-RIT/pokegraph/pkg/common"
	"github.com/OFFIS-RIT/pokegraph/pkg/export"
	"github.com/OFFIS-RIT/pokegraph/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
}

// GraphDBStorage implements store.GraphStorage on PostgreSQL with pgvector.
// Writes are serialized with a mutex so that parallel ingestion does not
// exhaust the pool.
type GraphDBStorage struct {
	conn   pgxIConn
	dbLock sync.Mutex
}

var _ store.GraphStorage = (*GraphDBStorage)(nil)

// NewGraphDBStorageWithConnection creates a GraphDBStorage on an existing
// pool or connection. Vector types must be registered on conn.
func NewGraphDBStorageWithConnection(conn pgxIConn) *GraphDBStorage {
	return &GraphDBStorage{conn: conn}
}

func (s *GraphDBStorage) UpsertDocument(ctx context.Context, rec common.Record, embedding []float32) error {
	embed := pgvector.NewVector(embedding)

	s.dbLock.Lock()
	_, err := s.conn.Exec(
		ctx,
		upsertDocumentSQL,
		rec.ID,
		string(rec.Modality),
		util.SanitizePostgresText(rec.SourcePath),
		util.SanitizePostgresText(rec.Text),
		rec.Pokemon,
		rec.Generation,
		sanitizeAll(rec.Types),
		sanitizeAll(rec.Tags),
		embed,
	)
	s.dbLock.Unlock()
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", rec.ID, err)
	}
	return nil
}

func (s *GraphDBStorage) SimilarDocuments(ctx context.Context, embedding []float32, limit int) ([]common.Record, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.conn.Query(ctx, similarDocumentsSQL, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar documents: %w", err)
	}
	defer rows.Close()

	out := make([]common.Record, 0, limit)
	for rows.Next() {
		var (
			rec      common.Record
			modality string
		)
		if err := rows.Scan(
			&rec.ID,
			&modality,
			&rec.SourcePath,
			&rec.Text,
			&rec.Pokemon,
			&rec.Generation,
			&rec.Types,
			&rec.Tags,
		); err != nil {
			return nil, err
		}
		rec.Modality = common.Modality(modality)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *GraphDBStorage) SaveGraph(ctx context.Context, buildID string, doc export.Document, skipped []string) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if skipped == nil {
		skipped = []string{}
	}

	s.dbLock.Lock()
	_, err = s.conn.Exec(ctx, saveGraphSQL, buildID, raw, skipped)
	s.dbLock.Unlock()
	if err != nil {
		return fmt.Errorf("failed to save graph snapshot %s: %w", buildID, err)
	}
	return nil
}

func (s *GraphDBStorage) LatestGraph(ctx context.Context) (*store.Snapshot, error) {
	var (
		snap store.Snapshot
		raw  []byte
	)
	err := s.conn.QueryRow(ctx, latestGraphSQL).Scan(&snap.ID, &snap.CreatedAt, &raw, &snap.Skipped)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, store.ErrNoSnapshot
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &snap.Document); err != nil {
		return nil, fmt.Errorf("snapshot %s is corrupt: %w", snap.ID, err)
	}
	return &snap, nil
}

func sanitizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, util.SanitizePostgresText(v))
	}
	return out
}

const upsertDocumentSQL = `
INSERT INTO documents (id, modality, source_path, text, pokemon, generation, types, tags, embedding, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (id, modality) DO UPDATE
SET source_path = EXCLUDED.source_path,
    text        = EXCLUDED.text,
    pokemon     = EXCLUDED.pokemon,
    generation  = EXCLUDED.generation,
    types       = EXCLUDED.types,
    tags        = EXCLUDED.tags,
    embedding   = EXCLUDED.embedding,
    updated_at  = now();
`

const similarDocumentsSQL = `
SELECT id, modality, source_path, text, pokemon, generation, types, tags
FROM documents
ORDER BY embedding <=> $1
LIMIT $2;
`

const saveGraphSQL = `
INSERT INTO graph_builds (id, document, skipped)
VALUES ($1, $2, $3);
`

const latestGraphSQL = `
SELECT id, created_at, document, skipped
FROM graph_builds
ORDER BY created_at DESC
LIMIT 1;
`

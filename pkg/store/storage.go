package store

import (
	"context"
	"errors"
	"time"

	"github.com/OFFIS-RIT/pokegraph/pkg/common"
	"github.com/OFFIS-RIT/pokegraph/pkg/export"
)

// ErrNoSnapshot is returned by LatestGraph before the first successful build.
var ErrNoSnapshot = errors.New("no graph snapshot stored")

// Snapshot is one persisted build result.
type Snapshot struct {
	ID        string
	CreatedAt time.Time
	Document  export.Document
	Skipped   []string
}

// GraphStorage persists ingested documents and finished graph builds.
// Persistence is optional; the record streams and the export directory stay
// the source of truth.
type GraphStorage interface {
	// UpsertDocument stores a record with its text embedding, replacing an
	// earlier version with the same id and modality.
	UpsertDocument(ctx context.Context, rec common.Record, embedding []float32) error

	// SimilarDocuments returns up to limit records ordered by cosine distance
	// of their embeddings to embedding.
	SimilarDocuments(ctx context.Context, embedding []float32, limit int) ([]common.Record, error)

	SaveGraph(ctx context.Context, buildID string, doc export.Document, skipped []string) error
	LatestGraph(ctx context.Context) (*Snapshot, error)
}

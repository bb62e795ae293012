package pipeline

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/pokegraph/internal/storage"
	"github.com/OFFIS-RIT/pokegraph/internal/util"
	"github.com/OFFIS-RIT/pokegraph/pkg/ai"
	"github.com/OFFIS-RIT/pokegraph/pkg/catalog"
	"github.com/OFFIS-RIT/pokegraph/pkg/export"
	"github.com/OFFIS-RIT/pokegraph/pkg/ingest"
	"github.com/OFFIS-RIT/pokegraph/pkg/leaselock"
	"github.com/OFFIS-RIT/pokegraph/pkg/loader"
	ls3 "github.com/OFFIS-RIT/pokegraph/pkg/loader/s3"
	"github.com/OFFIS-RIT/pokegraph/pkg/logger"
	"github.com/OFFIS-RIT/pokegraph/pkg/store"
	pgstore "github.com/OFFIS-RIT/pokegraph/pkg/store/pgx"
)

// Resources is a pipeline together with the backing services it was built
// on. Bucket and Storage are nil when not configured.
type Resources struct {
	Pipeline *Pipeline
	Bucket   *storage.Bucket
	Storage  store.GraphStorage

	closers []func()
}

// Close releases database connections.
func (r *Resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// Bootstrap creates a pipeline from cfg. A database is used when
// cfg.DatabaseURL is set, an S3 bucket when AWS_BUCKET is set.
func Bootstrap(ctx context.Context, cfg Config, aiClient ai.GraphAIClient) (*Resources, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	res := &Resources{}
	params := NewPipelineParams{
		Config:   cfg,
		Catalog:  cat,
		AIClient: aiClient,
	}

	if cfg.DatabaseURL != "" {
		if err := pgstore.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return nil, err
		}
		pool, err := pgstore.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		res.closers = append(res.closers, pool.Close)

		res.Storage = pgstore.NewGraphDBStorageWithConnection(pool)
		params.Storage = res.Storage
		params.Locker = leaselock.New(pool)
		logger.Info("[Pipeline] Database enabled")
	}

	if util.GetEnv("AWS_BUCKET") != "" {
		bucket, err := storage.NewBucketFromEnv(ctx)
		if err != nil {
			res.Close()
			return nil, err
		}
		res.Bucket = bucket
		params.Uploader = bucket
		logger.Info("[Pipeline] S3 enabled", "bucket", bucket.Name())
	}

	switch cfg.IngestSource {
	case "", "fs":
		params.Source = ingest.NewFSSource(cfg.RawDir())
	case "s3":
		if res.Bucket == nil {
			res.Close()
			return nil, fmt.Errorf("INGEST_SOURCE=s3 needs AWS_BUCKET")
		}
		bucket := res.Bucket
		params.Source = ingest.NewS3Source(bucket, "raw", func() loader.GraphFileLoader {
			return ls3.NewS3GraphFileLoaderWithClient(bucket.Name(), bucket.Client())
		})
	default:
		res.Close()
		return nil, fmt.Errorf("unknown INGEST_SOURCE %q", cfg.IngestSource)
	}

	res.Pipeline = New(params)
	return res, nil
}

var _ export.Uploader = (*storage.Bucket)(nil)
var _ ingest.ObjectStore = (*storage.Bucket)(nil)

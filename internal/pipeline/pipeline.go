// Package pipeline wires ingestion, graph builds, export and the optional
// persistence layer into the jobs exposed by the server, worker and CLI.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"

	"github.com/OFFIS-RIT/pokegraph/pkg/ai"
	"github.com/OFFIS-RIT/pokegraph/pkg/catalog"
	"github.com/OFFIS-RIT/pokegraph/pkg/common"
	"github.com/OFFIS-RIT/pokegraph/pkg/export"
	"github.com/OFFIS-RIT/pokegraph/pkg/graph"
	"github.com/OFFIS-RIT/pokegraph/pkg/ingest"
	"github.com/OFFIS-RIT/pokegraph/pkg/leaselock"
	"github.com/OFFIS-RIT/pokegraph/pkg/logger"
	"github.com/OFFIS-RIT/pokegraph/pkg/store"
)

// ErrNoGraph is returned by Graph before the first export.
var ErrNoGraph = errors.New("graph has not been built yet")

// Locker runs fn while holding a named lease.
type Locker interface {
	WithLease(ctx context.Context, key string, opts leaselock.Options, fn func(ctx context.Context) error) error
}

// Pipeline runs ingestion and graph builds. Runs are serialized within the
// process; with a Locker, builds are also exclusive across processes.
type Pipeline struct {
	ingestor *ingest.Ingestor
	graph    *graph.GraphClient
	exporter *export.Exporter
	storage  store.GraphStorage
	locker   Locker
	aiClient ai.GraphAIClient

	runMu sync.Mutex
}

// NewPipelineParams configures a Pipeline.
//
// Extractor defaults to an AI extractor on AIClient. Storage, Locker and
// Uploader are optional.
type NewPipelineParams struct {
	Config    Config
	Catalog   *catalog.Catalog
	Source    ingest.Source
	AIClient  ai.GraphAIClient
	Extractor graph.Extractor
	Storage   store.GraphStorage
	Locker    Locker
	Uploader  export.Uploader
}

func New(params NewPipelineParams) *Pipeline {
	cfg := params.Config
	streams := cfg.Streams()

	src := params.Source
	if src == nil {
		src = ingest.NewFSSource(cfg.RawDir())
	}

	extractor := params.Extractor
	if extractor == nil && params.AIClient != nil {
		extractor = graph.NewAIExtractor(graph.NewAIExtractorParams{
			AIClient:     params.AIClient,
			TokenEncoder: cfg.TokenEncoder,
			MaxTokens:    cfg.ExtractMaxTokens,
		})
	}

	var docs ingest.DocumentStore
	if params.Storage != nil {
		docs = params.Storage
	}

	return &Pipeline{
		ingestor: ingest.NewIngestor(ingest.NewIngestorParams{
			Source:         src,
			Catalog:        params.Catalog,
			Streams:        streams,
			AIClient:       params.AIClient,
			Store:          docs,
			Parallel:       cfg.ParallelExtractions,
			SkipUnresolved: cfg.SkipUnresolved,
			Language:       cfg.Language,
		}),
		graph: graph.NewGraphClient(graph.NewGraphClientParams{
			Streams:             streams,
			Extractor:           extractor,
			ParallelExtractions: cfg.ParallelExtractions,
			MaxRetries:          cfg.MaxRetries,
			FailurePolicy:       cfg.FailurePolicy(),
		}),
		exporter: export.NewExporter(export.NewExporterParams{
			Dir:      cfg.GraphDir,
			Uploader: params.Uploader,
		}),
		storage:  params.Storage,
		locker:   params.Locker,
		aiClient: params.AIClient,
	}
}

// Ingest runs a full ingestion over every raw file.
func (p *Pipeline) Ingest(ctx context.Context, opts ingest.Options) (*ingest.Result, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	return p.ingestor.Ingest(ctx, opts)
}

// IngestFile adds one uploaded file of modality m.
func (p *Pipeline) IngestFile(ctx context.Context, m common.Modality, name string, r io.Reader) (common.Record, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	return p.ingestor.IngestFile(ctx, m, name, r)
}

// ProcessResult summarizes one build and export.
type ProcessResult struct {
	BuildID  string
	Records  int
	Skipped  []string
	Files    []string
	Uploaded []string
	Document export.Document
}

// Process builds the graph from the record streams and exports it. A failed
// build leaves the previous export in place.
func (p *Pipeline) Process(ctx context.Context) (*ProcessResult, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	if p.locker == nil {
		return p.process(ctx)
	}

	var out *ProcessResult
	opts := leaselock.Options{TTL: 2 * time.Minute, TokenPrefix: "build-"}
	err := p.locker.WithLease(ctx, leaselock.GraphBuildKey, opts, func(ctx context.Context) error {
		var err error
		out, err = p.process(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) process(ctx context.Context) (*ProcessResult, error) {
	if p.aiClient != nil {
		p.aiClient.ResetMetrics()
	}

	res, err := p.graph.BuildGraph(ctx)
	if err != nil {
		return nil, err
	}

	exp, err := p.exporter.Export(ctx, res.ID, res.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to export graph: %w", err)
	}

	if p.storage != nil {
		if err := p.storage.SaveGraph(ctx, res.ID, exp.Document, res.Skipped); err != nil {
			logger.Error("[Pipeline] Failed to store graph snapshot", "build_id", res.ID, "err", err)
		}
	}

	if p.aiClient != nil {
		m := p.aiClient.GetMetrics()
		logger.Info("[Pipeline] AI metrics",
			"build_id", res.ID,
			"input_tokens", m.InputTokens,
			"output_tokens", m.OutputTokens,
			"duration_ms", m.DurationMs,
		)
	}

	return &ProcessResult{
		BuildID:  res.ID,
		Records:  res.Records,
		Skipped:  res.Skipped,
		Files:    exp.Files,
		Uploaded: exp.Uploaded,
		Document: exp.Document,
	}, nil
}

// Graph returns the exported graph document. Without a local export the
// latest stored snapshot is used.
func (p *Pipeline) Graph(ctx context.Context) ([]byte, error) {
	raw, err := p.exporter.ReadGraph()
	if err == nil {
		return raw, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if p.storage == nil {
		return nil, ErrNoGraph
	}

	snap, err := p.storage.LatestGraph(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoSnapshot) {
			return nil, ErrNoGraph
		}
		return nil, err
	}
	return snap.Document.Marshal()
}

// RunIngest and RunProcess let the queue worker drive the pipeline.
func (p *Pipeline) RunIngest(ctx context.Context, reset bool) error {
	_, err := p.Ingest(ctx, ingest.Options{Reset: reset})
	return err
}

func (p *Pipeline) RunProcess(ctx context.Context) error {
	_, err := p.Process(ctx)
	return err
}

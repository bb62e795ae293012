package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/pokegraph/internal/util"
	"github.com/OFFIS-RIT/pokegraph/pkg/common"
	"github.com/OFFIS-RIT/pokegraph/pkg/logger"
	"github.com/OFFIS-RIT/pokegraph/pkg/records"
	"github.com/OFFIS-RIT/pokegraph/pkg/schema"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
)

// BuildResult is the outcome of one build run.
type BuildResult struct {
	ID      string
	Graph   common.Graph
	Records int
	Skipped []string
}

// BuildGraph reads the text, image and audio streams in that order, extracts
// a fragment for every record and folds the fragments into one graph.
// Missing streams count as empty. The result is deterministic as long as the
// extractor is.
func (g *GraphClient) BuildGraph(ctx context.Context) (*BuildResult, error) {
	if g.extractor == nil {
		return nil, errors.New("graph client has no extractor")
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate build ID: %w", err)
	}

	start := time.Now()
	builder := NewGraphBuilder()
	res := &BuildResult{ID: id}

	logger.Info(
		"[Graph] Build started",
		"build_id", id,
		"parallel", g.parallelExtractions,
		"policy", g.failurePolicy.String(),
	)

	for _, stream := range g.streams.Ordered() {
		n, err := g.foldStream(ctx, stream, builder, res)
		if err != nil {
			logger.Error("[Graph] Build failed", "build_id", id, "stream", stream.Modality, "err", err)
			return nil, err
		}
		logger.Debug("[Graph] Stream folded", "build_id", id, "stream", stream.Modality, "records", n)
	}

	res.Graph = builder.Finalize()

	logger.Info(
		"[Graph] Build completed",
		"build_id", id,
		"records", res.Records,
		"skipped", len(res.Skipped),
		"entity_nodes", len(res.Graph.EntityNodes),
		"category_nodes", len(res.Graph.CategoryNodes),
		"mentions_edges", len(res.Graph.MentionsEdges),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return res, nil
}

// foldStream reads records in windows of parallelExtractions, extracts the
// window concurrently and merges its fragments in record order.
func (g *GraphClient) foldStream(
	ctx context.Context,
	stream records.Stream,
	builder *GraphBuilder,
	res *BuildResult,
) (int, error) {
	window := make([]common.Record, 0, g.parallelExtractions)
	count := 0

	flush := func() error {
		if len(window) == 0 {
			return nil
		}
		frags, errs := g.extractWindow(ctx, window)
		for i, rec := range window {
			if err := errs[i]; err != nil {
				if g.failurePolicy == SkipInvalid && isRecordFailure(err) {
					logger.Warn("[Graph] Skipping record", "record_id", rec.ID, "stream", stream.Modality, "err", err)
					res.Skipped = append(res.Skipped, rec.ID)
					continue
				}
				return err
			}
			builder.Merge(frags[i])
			res.Records++
		}
		count += len(window)
		window = window[:0]
		return nil
	}

	for rec, err := range stream.Read() {
		if err != nil {
			return count, err
		}
		window = append(window, rec)
		if len(window) >= g.parallelExtractions {
			if err := flush(); err != nil {
				return count, err
			}
		}
	}
	if err := flush(); err != nil {
		return count, err
	}

	return count, nil
}

// extractWindow returns one fragment or one error per record, index aligned.
// Record level failures do not cancel the rest of the window; context
// cancellation does.
func (g *GraphClient) extractWindow(ctx context.Context, window []common.Record) ([]common.Fragment, []error) {
	frags := make([]common.Fragment, len(window))
	errs := make([]error, len(window))

	if len(window) == 1 {
		frags[0], errs[0] = g.extractFragment(ctx, window[0])
		return frags, errs
	}

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelExtractions)
	for i := range window {
		eg.Go(func() error {
			frags[i], errs[i] = g.extractFragment(gCtx, window[i])
			if errs[i] != nil && !isRecordFailure(errs[i]) {
				return errs[i]
			}
			return nil
		})
	}
	_ = eg.Wait()

	return frags, errs
}

func (g *GraphClient) extractFragment(ctx context.Context, rec common.Record) (common.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return common.Fragment{}, err
	}

	raw, err := util.RetryWithContext(ctx, g.maxRetries, func(ctx context.Context) ([]byte, error) {
		return g.extractor.Extract(ctx, rec.Text, rec.ID, rec.Hint())
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return common.Fragment{}, err
		}
		return common.Fragment{}, &ExtractionError{MediaID: rec.ID, Err: err}
	}

	frag, err := schema.ParseFragment(raw)
	if err != nil {
		return common.Fragment{}, &RecordError{MediaID: rec.ID, Err: err}
	}
	return frag, nil
}

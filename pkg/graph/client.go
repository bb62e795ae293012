package graph

import (
	"github.com/OFFIS-RIT/pokegraph/pkg/records"
)

// FailurePolicy decides what a build does when a single record fails.
type FailurePolicy int

const (
	// FailFast aborts the build on the first failing record.
	FailFast FailurePolicy = iota
	// SkipInvalid logs and skips records whose extraction or fragment
	// validation fails. Mentions of skipped records are missing from the
	// graph; BuildResult.Skipped lists them. Stream read errors still abort.
	SkipInvalid
)

func (p FailurePolicy) String() string {
	switch p {
	case SkipInvalid:
		return "skip_invalid"
	default:
		return "fail_fast"
	}
}

// GraphClient runs graph builds over the three record streams.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	streams             records.Streams
	extractor           Extractor
	parallelExtractions int
	maxRetries          int
	failurePolicy       FailurePolicy
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// Streams locates the text, image and audio record files.
// Extractor turns one record into a raw fragment.
// ParallelExtractions controls how many extractor calls may run at once;
// fragments are still merged one by one in stream order.
// MaxRetries bounds attempts per extractor call (1 means no retry).
type NewGraphClientParams struct {
	Streams             records.Streams
	Extractor           Extractor
	ParallelExtractions int
	MaxRetries          int
	FailurePolicy       FailurePolicy
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	client := graph.NewGraphClient(graph.NewGraphClientParams{
//		Streams:             records.DefaultStreams("data"),
//		Extractor:           graph.NewAIExtractor(graph.NewAIExtractorParams{AIClient: aiClient}),
//		ParallelExtractions: 4,
//	})
//	res, err := client.BuildGraph(ctx)
func NewGraphClient(params NewGraphClientParams) *GraphClient {
	parallel := params.ParallelExtractions
	if parallel <= 0 {
		parallel = 1
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &GraphClient{
		streams:             params.Streams,
		extractor:           params.Extractor,
		parallelExtractions: parallel,
		maxRetries:          maxRetries,
		failurePolicy:       params.FailurePolicy,
	}
}

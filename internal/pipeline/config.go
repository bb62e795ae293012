package pipeline

import (
	"path/filepath"

	"github.com/OFFIS-RIT/pokegraph/internal/util"
	"github.com/OFFIS-RIT/pokegraph/pkg/graph"
	"github.com/OFFIS-RIT/pokegraph/pkg/records"
)

// Config holds the settings shared by the server, the worker and the CLI.
type Config struct {
	DataDir     string
	GraphDir    string
	EvalLogPath string
	CatalogPath string

	// IngestSource is "fs" or "s3".
	IngestSource   string
	Language       string
	SkipUnresolved bool

	ParallelExtractions int
	SkipInvalid         bool
	MaxRetries          int
	ExtractMaxTokens    int
	TokenEncoder        string

	DatabaseURL    string
	MigrationsPath string
}

// ConfigFromEnv reads the configuration from the environment. Call
// util.LoadEnv first to pick up a .env file.
func ConfigFromEnv() Config {
	return Config{
		DataDir:     util.GetEnvString("DATA_DIR", "data"),
		GraphDir:    util.GetEnvString("GRAPH_DIR", "graph"),
		EvalLogPath: util.GetEnvString("EVAL_LOG_PATH", filepath.Join("logs", "eval.jsonl")),
		CatalogPath: util.GetEnv("CATALOG_PATH"),

		IngestSource:   util.GetEnvString("INGEST_SOURCE", "fs"),
		Language:       util.GetEnv("AI_AUDIO_LANGUAGE"),
		SkipUnresolved: util.GetEnvBool("INGEST_SKIP_UNRESOLVED", false),

		ParallelExtractions: util.GetEnvInt("GRAPH_PARALLEL_EXTRACTIONS", 4),
		SkipInvalid:         util.GetEnvBool("GRAPH_SKIP_INVALID", false),
		MaxRetries:          util.GetEnvInt("GRAPH_MAX_RETRIES", 3),
		ExtractMaxTokens:    util.GetEnvInt("EXTRACT_MAX_TOKENS", 6000),
		TokenEncoder:        util.GetEnvString("TOKEN_ENCODER", "o200k_base"),

		DatabaseURL:    util.GetEnv("DATABASE_URL"),
		MigrationsPath: util.GetEnvString("MIGRATIONS_PATH", "migrations"),
	}
}

// Streams returns the record stream locations below DataDir.
func (c Config) Streams() records.Streams {
	return records.DefaultStreams(c.DataDir)
}

// RawDir is the directory holding raw media for the filesystem source.
func (c Config) RawDir() string {
	return filepath.Join(c.DataDir, "raw")
}

func (c Config) FailurePolicy() graph.FailurePolicy {
	if c.SkipInvalid {
		return graph.SkipInvalid
	}
	return graph.FailFast
}

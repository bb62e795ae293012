// pokegraph is the operator CLI: ingest raw media, build and export the
// graph, validate fragments and print the export schema.
//
// Usage:
//
//	pokegraph ingest [--reset]
//	pokegraph process [--skip-invalid] [--parallel=<n>]
//	pokegraph validate <fragment.json>
//	pokegraph schema
//	pokegraph catalog
package main

import (
	"fmt"
	"os"

	"github.com/OFFIS-RIT/pokegraph/internal/pipeline"
	"github.com/OFFIS-RIT/pokegraph/internal/util"
	"github.com/OFFIS-RIT/pokegraph/pkg/logger"
	"github.com/OFFIS-RIT/pokegraph/pkg/logger/console"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	dataDir     string
	graphDir    string
	catalogPath string
	parallel    int
	skipInvalid bool
	debug       bool
	jsonLogs    bool
}

var rootCmd = &cobra.Command{
	Use:   "pokegraph",
	Short: "Build a Pokemon knowledge graph from text, images and audio",
	Long:  "pokegraph ingests raw media into per-modality record streams and folds\nthe extracted fragments into one exported knowledge graph.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		util.LoadEnv()
		logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
			Debug:  rootFlags.debug || util.GetEnvBool("DEBUG", false),
			JSON:   rootFlags.jsonLogs || util.GetEnv("LOG_FORMAT") == "json",
			Writer: cmd.ErrOrStderr(),
		}))
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.dataDir, "data-dir", "", "Data directory (overrides DATA_DIR)")
	f.StringVar(&rootFlags.graphDir, "graph-dir", "", "Export directory (overrides GRAPH_DIR)")
	f.StringVar(&rootFlags.catalogPath, "catalog", "", "Catalog YAML (overrides CATALOG_PATH)")
	f.IntVar(&rootFlags.parallel, "parallel", 0, "Parallel extractions (overrides GRAPH_PARALLEL_EXTRACTIONS)")
	f.BoolVar(&rootFlags.skipInvalid, "skip-invalid", false, "Skip invalid fragments instead of failing the build")
	f.BoolVar(&rootFlags.debug, "debug", false, "Enable debug logging")
	f.BoolVar(&rootFlags.jsonLogs, "json-logs", false, "Log one JSON object per line")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.Version = version
	rootCmd.SilenceUsage = true
}

// loadConfig reads the environment and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) pipeline.Config {
	cfg := pipeline.ConfigFromEnv()
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = rootFlags.dataDir
	}
	if flags.Changed("graph-dir") {
		cfg.GraphDir = rootFlags.graphDir
	}
	if flags.Changed("catalog") {
		cfg.CatalogPath = rootFlags.catalogPath
	}
	if flags.Changed("parallel") {
		cfg.ParallelExtractions = rootFlags.parallel
	}
	if flags.Changed("skip-invalid") {
		cfg.SkipInvalid = rootFlags.skipInvalid
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

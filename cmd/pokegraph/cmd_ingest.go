package main

import (
	"fmt"
	"sort"

	"github.com/OFFIS-RIT/pokegraph/internal/pipeline"
	"github.com/OFFIS-RIT/pokegraph/pkg/common"
	"github.com/OFFIS-RIT/pokegraph/pkg/ingest"

	"github.com/spf13/cobra"
)

var ingestFlags struct {
	reset bool
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Convert raw media into the text, image and audio record streams",
	Args:  cobra.NoArgs,
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestFlags.reset, "reset", false, "Truncate the record streams first")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := loadConfig(cmd)

	aiClient, err := pipeline.NewAIClientFromEnv()
	if err != nil {
		return fmt.Errorf("create AI client: %w", err)
	}
	res, err := pipeline.Bootstrap(ctx, cfg, aiClient)
	if err != nil {
		return err
	}
	defer res.Close()

	result, err := res.Pipeline.Ingest(ctx, ingest.Options{Reset: ingestFlags.reset})
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	out := cmd.OutOrStdout()
	modalities := make([]string, 0, len(result.Counts))
	for m := range result.Counts {
		modalities = append(modalities, string(m))
	}
	sort.Strings(modalities)
	for _, m := range modalities {
		fmt.Fprintf(out, "%-6s %d\n", m, result.Counts[common.Modality(m)])
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped: (%d files)\n", len(result.Skipped))
		for _, s := range result.Skipped {
			fmt.Fprintf(out, "  %s\n", s)
		}
	}
	return nil
}

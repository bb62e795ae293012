package main

import (
	"fmt"

	"github.com/OFFIS-RIT/pokegraph/internal/pipeline"

	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Build the graph from the record streams and export it",
	Args:  cobra.NoArgs,
	RunE:  runProcess,
}

func runProcess(cmd *cobra.Command, _ []string) error {
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

	result, err := res.Pipeline.Process(ctx)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}

	out := cmd.OutOrStdout()
	doc := result.Document
	fmt.Fprintf(out, "Build:    %s\n", result.BuildID)
	fmt.Fprintf(out, "Records:  %d\n", result.Records)
	fmt.Fprintf(out, "Pokemon:  %d\n", len(doc.PokemonNodes))
	fmt.Fprintf(out, "Types:    %d\n", len(doc.TypeNodes))
	fmt.Fprintf(out, "Edges:    %d\n", len(doc.PokemonTypeEdges)+len(doc.EvolutionEdges)+len(doc.MentionsEdges))
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped:  %v\n", result.Skipped)
	}
	for _, f := range result.Files {
		fmt.Fprintf(out, "  %s\n", f)
	}
	return nil
}

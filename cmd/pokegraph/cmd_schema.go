package main

import (
	"fmt"

	"github.com/OFFIS-RIT/pokegraph/pkg/catalog"
	"github.com/OFFIS-RIT/pokegraph/pkg/export"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the exported graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, err := export.Schema()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		return nil
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the effective Pokemon catalog as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := catalog.Load(loadConfig(cmd).CatalogPath)
		if err != nil {
			return err
		}
		raw, err := cat.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(raw)
		return err
	},
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/OFFIS-RIT/pokegraph/pkg/schema"

	"github.com/spf13/cobra"
)

var validateFlags struct {
	export bool
}

var validateCmd = &cobra.Command{
	Use:   "validate <file.json>",
	Short: "Check a fragment (or an exported graph with --export) against its field contract",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateFlags.export, "export", false, "Validate an exported graph document instead of a fragment")
}

func runValidate(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	validate := schema.ValidateFragment
	if validateFlags.export {
		validate = schema.ValidateExport
	}
	if err := validate(raw); err != nil {
		var v *schema.SchemaViolation
		if errors.As(err, &v) {
			return fmt.Errorf("%s: %s: %s", args[0], v.Path, v.Reason)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", args[0])
	return nil
}

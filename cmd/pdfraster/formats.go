// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdfraster/pkg/types"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported conversion formats and backends",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printFormats(cmd.OutOrStdout())
	},
}

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the built-in configuration as YAML",
	Long: `Defaults prints the built-in configuration in the layout of
pdfraster.yaml. Redirect it to a file to start a configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cliDefaults())
		if err != nil {
			return fmt.Errorf("marshaling defaults: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func printFormats(w io.Writer) error {
	fmt.Fprintf(w, "Target formats: %v (default: %s)\n", types.SupportedTargetNames(), types.DefaultTarget)
	fmt.Fprintf(w, "Renderers:      %v\n", []types.RenderBackend{types.RenderPoppler, types.RenderGhostscript, types.RenderMuPDF})
	fmt.Fprintf(w, "Encoders:       %v\n", []types.EncodeBackend{types.EncodeLibwebp, types.EncodeVips})
	return nil
}

func init() {
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(defaultsCmd)
}

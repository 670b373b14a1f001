// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfraster/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded conversion runs (list, export)",
	Long: `History reads the SQLite database written by convert --record. Use
subcommands to list recent runs or export every run to YAML or JSON.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent conversion runs",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRuns(cmd.OutOrStdout(), runs, jsonOutput)
}

func formatRuns(w io.Writer, runs []history.Run, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-30s  %-5s  %-10s  %-5s  %-10s  %s\n",
		"Created", "Source", "To", "Status", "Files", "Seconds", "ID")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for _, r := range runs {
		source := filepath.Base(r.Source)
		if len(source) > 30 {
			source = source[:27] + "..."
		}
		fmt.Fprintf(w, "%-20s  %-30s  %-5s  %-10s  %-5d  %-10.4f  %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"), source, r.Target, r.Status,
			len(r.Files), r.Duration.Seconds(), r.ID)
	}

	fmt.Fprintf(w, "\n%d runs\n", len(runs))
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every recorded run to YAML or JSON",
	Long: `Export writes all recorded runs with their produced files to
export.yaml or export.json inside the history directory.`,
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(cmd.Context())
	case "json":
		path, err = store.ExportJSON(cmd.Context())
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Exported to", path)
	return nil
}

// --- shared helpers ---

func openHistory() (*history.Store, error) {
	cfg, err := loadPipelineConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return history.NewStore(cfg.History)
}

func init() {
	historyCmd.PersistentFlags().String("history-dir", "", "directory holding history.db (default .pdfraster)")
	if err := viper.BindPFlag("history.dir", historyCmd.PersistentFlags().Lookup("history-dir")); err != nil {
		panic(err)
	}

	historyListCmd.Flags().Int("limit", 0, "maximum runs to list (0 = use history.max_results)")
	historyListCmd.Flags().Bool("json", false, "output runs as JSON")

	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}

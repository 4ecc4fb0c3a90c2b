package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dupfinder/internal/cluster"
	"dupfinder/internal/detect"
	"dupfinder/internal/workspace"
)

var (
	scanOutput  string
	scanJSON    bool
	scanArchive bool
)

var scanCmd = &cobra.Command{
	Use:   "scan FILE...",
	Short: "Scan documents for duplicate sentences",
	Long: `Extracts every file page by page, finds sentences repeated across pages
and files, and prints the duplicate sentences report.
Supported inputs: .pdf, .docx, .txt (form feed separates pages), .html.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "write the report to this file, or into this directory under a timestamped name")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "output clusters as JSON")
	scanCmd.Flags().BoolVar(&scanArchive, "archive", false, "store the run in the workspace archive")
	rootCmd.AddCommand(scanCmd)
}

type scanResult struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Count       int               `json:"count"`
	Clusters    []cluster.Cluster `json:"clusters"`
}

func runScan(cmd *cobra.Command, args []string) error {
	inputs := make([]detect.Input, 0, len(args))
	for _, p := range args {
		inputs = append(inputs, detect.Input{Filename: filepath.Base(p), Path: p})
	}

	engine, err := newEngine(scanArchive || cfg.Archive)
	if err != nil {
		return err
	}
	result, err := engine.Run(cmd.Context(), inputs)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	content := result.Report
	if scanJSON {
		clusters := result.Clusters
		if clusters == nil {
			clusters = []cluster.Cluster{}
		}
		data, err := json.MarshalIndent(scanResult{
			RunID:       result.RunID,
			GeneratedAt: result.GeneratedAt,
			Count:       result.Count,
			Clusters:    clusters,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		content = string(data)
	}

	if scanOutput == "" {
		fmt.Fprintln(cmd.OutOrStdout(), content)
	} else {
		path, err := writeOutput(scanOutput, content, result.GeneratedAt)
		if err != nil {
			return err
		}
		cmd.PrintErrf("Report written to %s\n", path)
	}
	cmd.PrintErrf("Analysis complete! Found %d duplicate sentences.\n", result.Count)
	return nil
}

func writeOutput(target, content string, generatedAt time.Time) (string, error) {
	info, err := os.Stat(target)
	if (err == nil && info.IsDir()) || strings.HasSuffix(target, string(os.PathSeparator)) {
		return workspace.SaveReport(target, content, generatedAt)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return target, nil
}

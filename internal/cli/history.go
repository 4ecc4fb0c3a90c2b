package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"dupfinder/internal/db"
	"dupfinder/internal/workspace"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Print the report of an archived run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of runs")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func archivePath() (string, error) {
	path := workspace.At(cfg.WorkspaceDir).ArchivePath
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("stat archive: %w", err)
	}
	return path, nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	path, err := archivePath()
	if err != nil {
		return err
	}
	if path == "" {
		cmd.Println("No archived runs.")
		return nil
	}

	runs, err := db.ListRuns(path, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		cmd.Println("No archived runs.")
		return nil
	}
	for _, r := range runs {
		cmd.Printf("%s  %s  documents=%d  duplicates=%d\n",
			r.ID, r.GeneratedAt.Local().Format(time.DateTime), r.DocumentCount, r.ClusterCount)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	path, err := archivePath()
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("run %s not found: archive is empty", args[0])
	}
	report, err := db.LoadReport(path, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), report)
	return nil
}

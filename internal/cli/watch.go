package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"dupfinder/internal/detect"
	"dupfinder/internal/ingest"
	"dupfinder/internal/logger"
	"dupfinder/internal/workspace"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Rescan a directory whenever its documents change",
	Long: `Scans every supported document in DIR, then watches DIR and writes a fresh
report into the workspace reports directory after each batch of changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 750*time.Millisecond, "quiet period before rescanning")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	layout, err := workspace.EnsureAt(cfg.WorkspaceDir)
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg.Archive)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rescan := func() error {
		inputs, err := dirInputs(dir)
		if err != nil {
			return err
		}
		result, err := engine.Run(ctx, inputs)
		if err != nil {
			return err
		}
		path, err := workspace.SaveReport(layout.ReportsDir, result.Report, result.GeneratedAt)
		if err != nil {
			return err
		}
		cmd.Printf("Found %d duplicate sentences in %d files: %s\n", result.Count, len(inputs), path)
		return nil
	}
	if err := rescan(); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	runLog.Log(logger.LevelInfo, "WATCH", "Watching directory", dir)
	return watchLoop(ctx, w.Events, w.Errors, watchDebounce, rescan)
}

// watchLoop calls rescan once events for supported documents stop arriving for
// debounce. It returns when ctx is done or the watcher closes.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, debounce time.Duration, rescan func() error) error {
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			runLog.Log(logger.LevelAnalysis, "WATCH", "Change detected", ev.String())
			fire = time.After(debounce)
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			runLog.Log(logger.LevelRisk, "WATCH", "Watcher error", err.Error())
		case <-fire:
			fire = nil
			if err := rescan(); err != nil {
				runLog.Log(logger.LevelRisk, "WATCH", "Rescan failed", err.Error())
			}
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return ingest.AllowedFile(ev.Name, ingest.SupportedExtensions...)
}

// dirInputs lists the supported regular files of dir in name order.
func dirInputs(dir string) ([]detect.Input, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []detect.Input
	for _, e := range entries {
		if !e.Type().IsRegular() || !ingest.AllowedFile(e.Name(), ingest.SupportedExtensions...) {
			continue
		}
		out = append(out, detect.Input{Filename: e.Name(), Path: filepath.Join(dir, e.Name())})
	}
	return out, nil
}

// Package cli implements the dupfinder command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"dupfinder/internal/config"
	"dupfinder/internal/detect"
	"dupfinder/internal/logger"
	"dupfinder/internal/workspace"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath    string
	workspaceFlag string
	verbose       bool

	cfg    = config.Default()
	runLog = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "dupfinder",
	Short: "Find repeated sentences across documents",
	Long: `dupfinder reads a batch of documents page by page and reports sentences
that repeat across pages and files, either verbatim or with at least 70%
word overlap.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <workspace>/configs/config.toml)")
	rootCmd.PersistentFlags().StringVar(&workspaceFlag, "workspace", "", "workspace directory for reports and the run archive")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log per-page progress")
}

// Execute runs the root command with reports and listings on stdout.
func Execute() error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.Execute()
}

func loadRuntime(cmd *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		base := workspaceFlag
		if base == "" {
			pre, err := config.Load("")
			if err != nil {
				return err
			}
			base = pre.WorkspaceDir
		}
		path = workspace.At(base).ConfigPath
	}

	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if workspaceFlag != "" {
		loaded.WorkspaceDir = workspaceFlag
	}
	if verbose {
		loaded.Verbose = true
	}
	cfg = loaded
	runLog = logger.New(logger.Options{
		Output:  cmd.ErrOrStderr(),
		Format:  cfg.LogFormat,
		Verbose: cfg.Verbose,
	})
	return nil
}

func newEngine(archive bool) (*detect.Engine, error) {
	engine := detect.New(cfg, runLog)
	if archive {
		layout, err := workspace.EnsureAt(cfg.WorkspaceDir)
		if err != nil {
			return nil, err
		}
		engine.Archive = detect.ArchiveTo(layout.ArchivePath)
	}
	return engine, nil
}

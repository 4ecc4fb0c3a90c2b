package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"dupfinder/internal/config"
)

type Layout struct {
	Root        string
	ConfigPath  string
	ReportsDir  string
	ArchivePath string
}

func EnsureDefault() (Layout, error) {
	return EnsureAt(config.Default().WorkspaceDir)
}

// EnsureAt creates the workspace directories under base and writes a default
// config file if none exists yet.
func EnsureAt(base string) (Layout, error) {
	l := At(base)
	paths := []string{
		filepath.Dir(l.ConfigPath),
		l.ReportsDir,
		filepath.Dir(l.ArchivePath),
	}

	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return Layout{}, fmt.Errorf("mkdir %s: %w", p, err)
		}
	}

	if _, err := os.Stat(l.ConfigPath); os.IsNotExist(err) {
		defaults := config.Default()
		defaults.WorkspaceDir = base
		if err := config.Save(l.ConfigPath, defaults); err != nil {
			return Layout{}, err
		}
	}

	return l, nil
}

// At returns the layout under base without touching the filesystem.
func At(base string) Layout {
	return Layout{
		Root:        base,
		ConfigPath:  filepath.Join(base, "configs", config.FileName),
		ReportsDir:  filepath.Join(base, "reports"),
		ArchivePath: filepath.Join(base, "archive", "runs.db"),
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"dupfinder/internal/cluster"
)

const (
	FileName      = "config.toml"
	BaseDirName   = "DupFinder"
	envPrefix     = "DUPFINDER_"
	defaultUpload = 16 * 1024 * 1024
)

type Config struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	ExtractWorkers      int     `toml:"extract_workers"`
	MaxUploadBytes      int64   `toml:"max_upload_bytes"`
	ListenAddr          string  `toml:"listen_addr"`
	WorkspaceDir        string  `toml:"workspace_dir"`
	LogFormat           string  `toml:"log_format"`
	Verbose             bool    `toml:"verbose"`
	Archive             bool    `toml:"archive"`
}

func Default() Config {
	return Config{
		SimilarityThreshold: cluster.DefaultThreshold,
		ExtractWorkers:      1,
		MaxUploadBytes:      defaultUpload,
		ListenAddr:          "127.0.0.1:5000",
		WorkspaceDir:        defaultWorkspace(),
		LogFormat:           "console",
	}
}

// Load reads path over the defaults (a missing file is not an error) and then
// applies DUPFINDER_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}
	cfg = applyEnv(cfg)
	return cfg, cfg.Validate()
}

// Save writes cfg as TOML to path, creating parent directories.
func Save(path string, cfg Config) error {
	raw, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in (0, 1], got %v", c.SimilarityThreshold)
	}
	if c.ExtractWorkers < 1 {
		return fmt.Errorf("extract_workers must be at least 1, got %d", c.ExtractWorkers)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

func applyEnv(c Config) Config {
	c.SimilarityThreshold = getenvFloat("SIMILARITY_THRESHOLD", c.SimilarityThreshold)
	c.ExtractWorkers = getenvInt("EXTRACT_WORKERS", c.ExtractWorkers)
	c.MaxUploadBytes = int64(getenvInt("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))
	c.ListenAddr = getenv("LISTEN_ADDR", c.ListenAddr)
	c.WorkspaceDir = getenv("WORKSPACE", c.WorkspaceDir)
	c.LogFormat = getenv("LOG_FORMAT", c.LogFormat)
	c.Verbose = getenvBool("VERBOSE", c.Verbose)
	c.Archive = getenvBool("ARCHIVE", c.Archive)
	return c
}

func defaultWorkspace() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return BaseDirName
	}
	return filepath.Join(home, BaseDirName)
}

func getenv(name, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envPrefix + name))
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(envPrefix + name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getenvFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(envPrefix + name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func getenvBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(envPrefix + name)))
	if raw == "" {
		return fallback
	}
	return raw == "1" || raw == "true" || raw == "yes" || raw == "on"
}

// Package commands implements the ozmeta subcommands.
package commands

import (
	"errors"
	"os"
	"strconv"

	"github.com/ozmeta-labs/ozmeta/internal/cli/config"
	"github.com/ozmeta-labs/ozmeta/internal/platform"
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
)

// ErrInput marks failures caused by invalid user input that carry no more
// specific error type. Wrapped errors map to the input-error exit code.
var ErrInput = errors.New("invalid input")

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	workers, _ := strconv.Atoi(os.Getenv("OZMETA_WORKERS"))
	return &config.Config{
		SnapshotPath: getEnvOrDefault("OZMETA_SNAPSHOT", config.DefaultSnapshot),
		ProfilesPath: os.Getenv("OZMETA_PROFILES"),
		OutDir:       getEnvOrDefault("OZMETA_OUT", config.DefaultOutDir),
		StatePath:    getEnvOrDefault("OZMETA_STATE_PATH", config.DefaultStateFile),
		Workers:      workers,
		Verbose:      os.Getenv("OZMETA_VERBOSE") == "true",
		OutputFormat: getEnvOrDefault("OZMETA_OUTPUT", config.DefaultOutput),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadSnapshot reads and parses the snapshot document configured for the
// command. It does not validate; commands decide when validation runs.
func loadSnapshot(cfg *config.Config) (*snapshot.Document, error) {
	return snapshot.Load(cfg.SnapshotPath)
}

// loadPlatforms returns the platform profile set, from the configured
// profiles file when one is set, otherwise the built-in profiles.
func loadPlatforms(cfg *config.Config) (*platform.Set, error) {
	if cfg.ProfilesPath == "" {
		return platform.Builtin(), nil
	}
	return platform.LoadSet(cfg.ProfilesPath)
}

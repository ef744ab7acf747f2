// Package config provides configuration management for the ozmeta CLI.
//
// Configuration is layered: built-in defaults, then an optional ozmeta.yaml
// file, then OZMETA_* environment variables, then explicit command-line
// flags. Later layers win.
package config

// Config holds all CLI configuration options.
type Config struct {
	SnapshotPath string `koanf:"snapshot"`
	ProfilesPath string `koanf:"profiles"`
	OutDir       string `koanf:"out"`
	StatePath    string `koanf:"state_path"`
	Workers      int    `koanf:"workers"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
}

// Default configuration values.
const (
	DefaultSnapshot  = "snapshot.json"
	DefaultOutDir    = "dist"
	DefaultStateFile = ".ozmeta/state.db"
	DefaultOutput    = "table"
)

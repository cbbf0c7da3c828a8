package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leynos/claude-q/internal/config"
)

// GetDefaults returns application default paths, checking environment
// variables first.
// Environment variables:
//   - Q_CONFIG_PATH: config file location (default: ~/.config/q.toml)
//   - Q_DIR: queue storage directory (default: $XDG_STATE_HOME/q or ~/.local/state/q)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking Q_CONFIG_PATH first,
// then falling back to ~/.config/q.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("Q_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "q.toml"), nil
}

// getBaseDir returns the queue storage directory, checking Q_DIR first, then
// the XDG state directory, then ~/.local/state/q.
func getBaseDir() (string, error) {
	if path := os.Getenv("Q_DIR"); path != "" {
		return path, nil
	}
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "q"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "state", "q"), nil
}

// ResolveBaseDir picks the storage directory for this invocation. Precedence:
// the --dir flag, then Q_DIR, then the config file, then the XDG state
// default.
func ResolveBaseDir(flagDir string, cfg *config.Config) (string, error) {
	if flagDir != "" {
		return flagDir, nil
	}
	if dir := os.Getenv("Q_DIR"); dir != "" {
		return dir, nil
	}
	if cfg != nil && cfg.BaseDir != "" {
		return cfg.BaseDir, nil
	}
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "q"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "state", "q"), nil
}

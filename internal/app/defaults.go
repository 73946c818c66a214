package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - TIDY_CONFIG_PATH: config file location (default: $XDG_CONFIG_HOME/tidy/config.toml)
//   - TIDY_HOME: base directory for tidy data (default: $XDG_DATA_HOME/tidy)
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
		"rules_path":  filepath.Join(baseDir, "rules.conf"),
	}, nil
}

// getConfigPath returns the config file path, checking TIDY_CONFIG_PATH first.
func getConfigPath() (string, error) {
	if path := os.Getenv("TIDY_CONFIG_PATH"); path != "" {
		return path, nil
	}
	if xdg.ConfigHome == "" {
		return "", fmt.Errorf("cannot determine config directory")
	}
	return filepath.Join(xdg.ConfigHome, "tidy", "config.toml"), nil
}

// getBaseDir returns the base directory for tidy data, checking TIDY_HOME first.
func getBaseDir() (string, error) {
	if path := os.Getenv("TIDY_HOME"); path != "" {
		return path, nil
	}
	if xdg.DataHome == "" {
		return "", fmt.Errorf("cannot determine data directory")
	}
	return filepath.Join(xdg.DataHome, "tidy"), nil
}

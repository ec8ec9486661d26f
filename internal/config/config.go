package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755
	// SecretFilePermissions is used for files that may hold tokens
	SecretFilePermissions = 0600
)

var (
	// ConfigDir is the global configuration directory (~/.lmscli)
	ConfigDir string

	// DatabasePath is the SQLite database file holding the persisted session
	DatabasePath string

	// SettingsFile is the user settings file (yaml)
	SettingsFile string

	// KeybindsFile is the user keybinding overrides file
	KeybindsFile string

	// LogFile receives structured logs while the TUI owns the terminal
	LogFile string
)

// Initialize sets up the configuration directories and files
// It creates ~/.lmscli/ if it doesn't exist
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	return InitializeAt(filepath.Join(homeDir, ".lmscli"))
}

// InitializeAt sets up the configuration paths under dir
func InitializeAt(dir string) error {
	ConfigDir = dir
	DatabasePath = filepath.Join(ConfigDir, "lmscli.db")
	SettingsFile = filepath.Join(ConfigDir, "config.yaml")
	KeybindsFile = filepath.Join(ConfigDir, "keybinds.json")
	LogFile = filepath.Join(ConfigDir, "lmscli.log")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	return nil
}

// LocalSettingsExists checks if there's a config file in the current directory
func LocalSettingsExists() bool {
	_, err := os.Stat(localSettingsFile())
	return err == nil
}

// GetSettingsFilePath returns the settings file path (local or global).
// A local .lmscli.yaml wins over the global config.yaml/json/jsonc.
func GetSettingsFilePath() string {
	if LocalSettingsExists() {
		return localSettingsFile()
	}
	for _, candidate := range []string{SettingsFile, filepath.Join(ConfigDir, "config.json"), filepath.Join(ConfigDir, "config.jsonc")} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return SettingsFile
}

func localSettingsFile() string {
	return ".lmscli.yaml"
}

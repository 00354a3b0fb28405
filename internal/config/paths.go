// Package config provides configuration management for rfmseg.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Paths holds the directory layout for rfmseg files.
type Paths struct {
	// ConfigDir is the directory for configuration files (~/.config/rfmseg)
	ConfigDir string

	// DataDir is the directory for the analysis store (~/.local/share/rfmseg)
	DataDir string
}

// DefaultPaths returns the default paths based on the XDG Base Directory
// spec. On Windows, it uses %APPDATA% instead.
func DefaultPaths() *Paths {
	home := homeDir()

	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(home, "AppData", "Local")
		}
		return &Paths{
			ConfigDir: filepath.Join(appData, "rfmseg"),
			DataDir:   filepath.Join(localAppData, "rfmseg"),
		}
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	return &Paths{
		ConfigDir: filepath.Join(configHome, "rfmseg"),
		DataDir:   filepath.Join(dataHome, "rfmseg"),
	}
}

// ConfigFile returns the path of the yaml config file.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// StoreFile returns the default path of the SQLite analysis store.
func (p *Paths) StoreFile() string {
	return filepath.Join(p.DataDir, "analysis.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to the current directory; callers creating files will
		// surface the real error.
		return "."
	}
	return home
}

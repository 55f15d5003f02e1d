package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Loader finds and reads the configuration file.
type Loader struct {
	Version      string // build version; "dev" enables ./.doodlerc
	OverridePath string // set at compile time if needed
	HomeDir      string // defaults to the user's home directory
}

// NewLoader creates a new Loader.
func NewLoader(version string, overridePath string) *Loader {
	home, _ := os.UserHomeDir()
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
		HomeDir:      home,
	}
}

// Load reads the first configuration file found, or returns defaults when
// there is none.
func (l *Loader) Load() (*Config, error) {
	path := l.GetConfigPath()
	if path == "" {
		return New(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (l *Loader) candidates() []string {
	var paths []string
	if l.OverridePath != "" {
		paths = append(paths, l.OverridePath)
	}
	if l.Version == "dev" {
		if wd, err := os.Getwd(); err == nil {
			paths = append(paths, filepath.Join(wd, ".doodlerc"))
		}
	}
	if l.HomeDir != "" {
		paths = append(paths,
			filepath.Join(l.HomeDir, ".config", "doodle", "config.rc"),
			filepath.Join(l.HomeDir, ".config", "doodle", "doodle.rc"),
		)
	}
	return paths
}

// GetConfigPath returns the path of the configuration file in use, or an
// empty string if none exists.
func (l *Loader) GetConfigPath() string {
	for _, p := range l.candidates() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Save writes cfg to the configuration file in use, or to
// ~/.config/doodle/config.rc when there is none, and returns the path.
func (l *Loader) Save(cfg *Config) (string, error) {
	path := l.GetConfigPath()
	if path == "" {
		if l.HomeDir == "" {
			return "", fmt.Errorf("no home directory to save configuration in")
		}
		path = filepath.Join(l.HomeDir, ".config", "doodle", "config.rc")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(cfg.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return path, nil
}

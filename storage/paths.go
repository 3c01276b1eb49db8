// Package storage persists host preferences as JSON in the user config
// directory. Machine state is never stored.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	appDir         = "amulet"
	configFileName = "config.json"
)

var (
	pathMu       sync.Mutex
	pathOverride string
)

// SetConfigPath makes GetConfigPath return path. An empty path restores the
// default location.
func SetConfigPath(path string) {
	pathMu.Lock()
	defer pathMu.Unlock()
	pathOverride = path
}

// GetConfigDir returns the application config directory, creating it if
// needed.
func GetConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	dir := filepath.Join(base, appDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// GetConfigPath returns the path of config.json
func GetConfigPath() (string, error) {
	pathMu.Lock()
	override := pathOverride
	pathMu.Unlock()
	if override != "" {
		return override, nil
	}

	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// ReadJSON decodes the JSON file at path into v
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// AtomicWriteJSON writes v to path through a temporary file and rename, so a
// crash never leaves a truncated file behind.
func AtomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

package storage

import (
	"errors"
	"os"

	"github.com/golang/glog"
)

// LoadConfig loads the configuration from config.json.
// If the file doesn't exist, it returns default configuration.
// If the file is corrupted, it returns an error.
func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	config := &Config{}
	if err := ReadJSON(path, config); err != nil {
		return nil, err
	}

	return migrateConfig(config), nil
}

// SaveConfig saves the configuration to config.json atomically
func SaveConfig(config *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	return AtomicWriteJSON(path, config)
}

// CreateConfigIfMissing creates a default config.json if it doesn't exist
func CreateConfigIfMissing() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return SaveConfig(DefaultConfig())
	}

	return nil
}

// DeleteConfig removes the config.json file
func DeleteConfig() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

// migrateConfig stamps the current version and repairs invalid or missing
// fields
func migrateConfig(config *Config) *Config {
	if config.Version < CurrentVersion {
		glog.V(1).Infof("migrating config from version %d to %d", config.Version, CurrentVersion)
		config.Version = CurrentVersion
	}

	if config.Window.Scale <= 0 {
		config.Window.Scale = 3
	}
	switch config.Machine.Region {
	case "ntsc", "pal":
	default:
		config.Machine.Region = "ntsc"
	}
	if config.Machine.StepsPerFrame < 0 {
		config.Machine.StepsPerFrame = 0
	}

	// Hand-edited files may leave buttons out; fill any unbound one.
	if config.Input.Pad1 == nil {
		config.Input.Pad1 = map[string]string{}
	}
	for button, key := range DefaultPad1Keys() {
		if config.Input.Pad1[button] == "" {
			config.Input.Pad1[button] = key
		}
	}

	return config
}

package config

import (
	"fmt"

	"github.com/ssicon/screensaver-icon/internal/models"
)

// LoadSettings loads the global settings from ~/.screensaver-icon/settings.yaml.
// If the file doesn't exist, returns default settings.
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	return LoadSettingsFrom(path)
}

// LoadSettingsFrom loads and validates settings from path.
// Keys missing from the file keep their default values.
func LoadSettingsFrom(path string) (*models.Settings, error) {
	settings := models.NewSettings()
	if FileExists(path) {
		if err := LoadYAML(path, settings); err != nil {
			return nil, err
		}
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return settings, nil
}

// SaveSettings saves the global settings to ~/.screensaver-icon/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}

// SaveAwayOnLock changes only away_on_lock in settings.yaml, leaving values
// overridden on the command line out of the file.
func SaveAwayOnLock(enabled bool) error {
	settings, err := LoadSettings()
	if err != nil {
		return err
	}
	settings.AwayOnLock = enabled
	return SaveSettings(settings)
}

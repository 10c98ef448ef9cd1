package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Settings represents all application configuration
type Settings struct {
	Variables   map[string]string      `json:"variables"`
	Theme       string                 `json:"theme"`
	Preferences map[string]interface{} `json:"preferences"`
}

// DefaultSettings returns settings with sensible defaults
func DefaultSettings() *Settings {
	return &Settings{
		Variables: map[string]string{
			"PORT": "8080",
		},
		Theme: "light",
		Preferences: map[string]interface{}{
			"maxUploadMB":     10,
			"defaultPageSize": 50,
		},
	}
}

// LoadSettings loads settings from ${SPENDLENS_DIR}/settings.json
func LoadSettings() (*Settings, error) {
	dir := os.Getenv("SPENDLENS_DIR")
	if dir == "" {
		return nil, fmt.Errorf("SPENDLENS_DIR environment variable not set")
	}

	settingsPath := filepath.Join(dir, "settings.json")

	// Create default settings if file doesn't exist
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		settings := DefaultSettings()
		if err := SaveSettings(settings); err != nil {
			return nil, fmt.Errorf("failed to create default settings: %w", err)
		}
		return settings, nil
	}

	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	return &settings, nil
}

// SaveSettings saves settings to ${SPENDLENS_DIR}/settings.json
func SaveSettings(settings *Settings) error {
	dir := os.Getenv("SPENDLENS_DIR")
	if dir == "" {
		return fmt.Errorf("SPENDLENS_DIR environment variable not set")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create SPENDLENS_DIR: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	settingsPath := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(settingsPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

// GetVariableValue retrieves an environment variable value from settings
func (s *Settings) GetVariableValue(key string) string {
	if val, exists := s.Variables[key]; exists {
		return os.ExpandEnv(val)
	}
	return ""
}

// MaxUploadBytes returns the upload size cap in bytes
func (s *Settings) MaxUploadBytes() int64 {
	return int64(s.preferenceInt("maxUploadMB", 10)) << 20
}

// DefaultPageSize returns the page size used when the client omits one
func (s *Settings) DefaultPageSize() int {
	return s.preferenceInt("defaultPageSize", 50)
}

// preferenceInt reads a numeric preference, tolerating the float64 values
// that JSON decoding produces
func (s *Settings) preferenceInt(key string, fallback int) int {
	v, exists := s.Preferences[key]
	if !exists {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		if n < 1 {
			return fallback
		}
		return int(n)
	case int:
		if n < 1 {
			return fallback
		}
		return n
	default:
		return fallback
	}
}

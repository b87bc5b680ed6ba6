package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	"ddgplugin/logs"
	"ddgplugin/models"
)

const (
	settingsFile = "settings.yaml"
	pinsFile     = "pins.json"
)

// Manager handles data persistence
type Manager struct {
	dataPath     string
	settingsPath string
	minQRSize    int
}

// NewManager creates a storage manager rooted at ~/.ddgplugin
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	dataPath := filepath.Join(homeDir, ".ddgplugin")
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		// Fallback to current directory
		dataPath = "."
	}
	return NewManagerAt(dataPath)
}

// NewManagerAt creates a storage manager rooted at dataPath
func NewManagerAt(dataPath string) *Manager {
	return &Manager{
		dataPath:     dataPath,
		settingsPath: filepath.Join(dataPath, settingsFile),
		minQRSize:    models.DefaultSettings().MinQRSize,
	}
}

// SetSettingsPath overrides where settings are read from and written to
func (m *Manager) SetSettingsPath(path string) {
	if strings.TrimSpace(path) != "" {
		m.settingsPath = path
	}
}

// SetMinQRSize sets the edge length saved QR codes are upscaled to
func (m *Manager) SetMinQRSize(size int) {
	m.minQRSize = size
}

// DataPath returns the directory the manager writes to
func (m *Manager) DataPath() string {
	return m.dataPath
}

// ImageDir returns the default directory for saved images
func (m *Manager) ImageDir() string {
	return filepath.Join(m.dataPath, "images")
}

// LoadSettings loads the settings from disk, falling back to defaults
func (m *Manager) LoadSettings() (*models.Settings, error) {
	data, err := os.ReadFile(m.settingsPath)
	if err != nil {
		if os.IsNotExist(err) {
			logs.Debug("settings file %s does not exist, using defaults", m.settingsPath)
			settings := models.DefaultSettings()
			settings.ImageDir = m.ImageDir()
			return settings, nil
		}
		return nil, err
	}

	var settings models.Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", m.settingsPath, err)
	}
	settings.FillDefaults()
	if settings.ImageDir == "" {
		settings.ImageDir = m.ImageDir()
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", m.settingsPath, err)
	}
	return &settings, nil
}

// SaveSettings saves the settings to disk
func (m *Manager) SaveSettings(settings *models.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(m.settingsPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(m.settingsPath, data, 0644)
}

// Pin is a stored reference to a result the user pinned
type Pin struct {
	Plugin string `json:"plugin"`
	Token  string `json:"token"`
}

// SavePins saves the pinned results to disk
func (m *Manager) SavePins(pins []Pin) error {
	data, err := sonic.ConfigStd.MarshalIndent(pins, "", "  ")
	if err != nil {
		return err
	}

	filePath := filepath.Join(m.dataPath, pinsFile)
	logs.Debug("saving %d pins to %s", len(pins), filePath)
	return os.WriteFile(filePath, data, 0644)
}

// LoadPins loads the pinned results from disk
func (m *Manager) LoadPins() ([]Pin, error) {
	filePath := filepath.Join(m.dataPath, pinsFile)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Pin{}, nil
		}
		return nil, err
	}

	var pins []Pin
	if err := sonic.Unmarshal(data, &pins); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}

	// Drop entries that can never rehydrate
	kept := pins[:0]
	for _, p := range pins {
		if strings.TrimSpace(p.Plugin) != "" && strings.TrimSpace(p.Token) != "" {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

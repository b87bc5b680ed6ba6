package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Settings represents plugin settings
type Settings struct {
	APIEndpoint    string          `yaml:"api_endpoint"`
	SiteURL        string          `yaml:"site_url"`
	UserAgent      string          `yaml:"user_agent"`
	RequestTimeout int             `yaml:"request_timeout"` // in seconds
	SearchTag      string          `yaml:"search_tag"`
	QRTag          string          `yaml:"qr_tag"`
	ImageDir       string          `yaml:"image_dir"`   // Where saved QR codes go when no dialog is available
	MinQRSize      int             `yaml:"min_qr_size"` // Saved QR codes are upscaled to at least this edge, in pixels
	MetricsAddr    string          `yaml:"metrics_addr"`
	Logging        LoggingSettings `yaml:"logging"`
}

// LoggingSettings mirrors logs.Options
type LoggingSettings struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // json, text
	Output     string `yaml:"output"` // stdout, file, both
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
}

// DefaultSettings returns default plugin settings
func DefaultSettings() *Settings {
	return &Settings{
		APIEndpoint:    "https://api.duckduckgo.com/",
		SiteURL:        "https://duckduckgo.com/",
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		RequestTimeout: 10,
		SearchTag:      "duck",
		QRTag:          "qrcode",
		MinQRSize:      256,
		Logging: LoggingSettings{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Timeout returns the request timeout as a duration
func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// Validate checks the settings for values the plugin cannot work with
func (s *Settings) Validate() error {
	if s == nil {
		return fmt.Errorf("settings cannot be nil")
	}
	for name, raw := range map[string]string{"api_endpoint": s.APIEndpoint, "site_url": s.SiteURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %d", s.RequestTimeout)
	}
	searchTag := strings.TrimSpace(s.SearchTag)
	qrTag := strings.TrimSpace(s.QRTag)
	if searchTag == "" || qrTag == "" {
		return fmt.Errorf("search_tag and qr_tag are required")
	}
	if searchTag == qrTag {
		return fmt.Errorf("search_tag and qr_tag must differ, both are %q", searchTag)
	}
	if s.MinQRSize < 0 {
		return fmt.Errorf("min_qr_size cannot be negative")
	}
	return nil
}

// FillDefaults replaces zero values with their defaults
func (s *Settings) FillDefaults() {
	def := DefaultSettings()
	if s.APIEndpoint == "" {
		s.APIEndpoint = def.APIEndpoint
	}
	if s.SiteURL == "" {
		s.SiteURL = def.SiteURL
	}
	if s.UserAgent == "" {
		s.UserAgent = def.UserAgent
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = def.RequestTimeout
	}
	if s.SearchTag == "" {
		s.SearchTag = def.SearchTag
	}
	if s.QRTag == "" {
		s.QRTag = def.QRTag
	}
	if s.MinQRSize == 0 {
		s.MinQRSize = def.MinQRSize
	}
	if s.Logging.Level == "" {
		s.Logging.Level = def.Logging.Level
	}
	if s.Logging.Format == "" {
		s.Logging.Format = def.Logging.Format
	}
	if s.Logging.Output == "" {
		s.Logging.Output = def.Logging.Output
	}
}

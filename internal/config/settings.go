package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL is used when no base URL is configured
	DefaultBaseURL = "http://localhost:8080/api/v1"
	// DefaultTimeout is the HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultDebounce is the search quiescence window
	DefaultDebounce = 500 * time.Millisecond
	// DefaultPageSize is the initial table page size
	DefaultPageSize = 10
	// DefaultLocale is sent as Accept-Language until the user picks one
	DefaultLocale = "en"
)

// Environment variables that override file settings
const (
	EnvBaseURL  = "LMSCLI_BASE_URL"
	EnvLogLevel = "LMSCLI_LOG_LEVEL"
	EnvLocale   = "LMSCLI_LOCALE"
)

// Duration is a time.Duration that reads "500ms" style strings from yaml and json
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.parse(value.Value)
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Bare numbers are milliseconds
		var ms int64
		if err := json.Unmarshal(data, &ms); err != nil {
			return fmt.Errorf("invalid duration %s", string(data))
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	return d.parse(s)
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) parse(s string) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// RateLimit configures client-side request throttling. Zero RPS disables it.
type RateLimit struct {
	RPS   float64 `yaml:"rps" json:"rps"`
	Burst int     `yaml:"burst" json:"burst"`
}

// ColumnSettings overrides or declares a column of a resource table
type ColumnSettings struct {
	ID       string `yaml:"id" json:"id"`
	Header   string `yaml:"header,omitempty" json:"header,omitempty"`
	Width    int    `yaml:"width,omitempty" json:"width,omitempty"`
	Filter   string `yaml:"filter,omitempty" json:"filter,omitempty"` // includesAny, equals
	Sortable *bool  `yaml:"sortable,omitempty" json:"sortable,omitempty"`
}

// OptionSettings is a label/value pair used by search keys and facet filters
type OptionSettings struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// FacetSettings declares a faceted filter widget
type FacetSettings struct {
	ColumnID string           `yaml:"columnId" json:"columnId"`
	Title    string           `yaml:"title" json:"title"`
	Options  []OptionSettings `yaml:"options" json:"options"`
}

// ResourceSettings declares or overrides a browsable resource
type ResourceSettings struct {
	Endpoint    string           `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Title       string           `yaml:"title,omitempty" json:"title,omitempty"`
	Columns     []ColumnSettings `yaml:"columns,omitempty" json:"columns,omitempty"`
	SearchKey   string           `yaml:"searchKey,omitempty" json:"searchKey,omitempty"`
	SearchKeys  []OptionSettings `yaml:"searchKeys,omitempty" json:"searchKeys,omitempty"`
	Filters     []FacetSettings  `yaml:"filters,omitempty" json:"filters,omitempty"`
	ItemsPath   string           `yaml:"itemsPath,omitempty" json:"itemsPath,omitempty"`
	TotalPath   string           `yaml:"totalPath,omitempty" json:"totalPath,omitempty"`
	DefaultSort string           `yaml:"defaultSort,omitempty" json:"defaultSort,omitempty"`
}

// Settings is the user configuration file
type Settings struct {
	BaseURL     string                      `yaml:"baseUrl" json:"baseUrl"`
	Locale      string                      `yaml:"locale" json:"locale"`
	Timeout     Duration                    `yaml:"timeout" json:"timeout"`
	LogLevel    string                      `yaml:"logLevel" json:"logLevel"`
	Debounce    Duration                    `yaml:"debounce" json:"debounce"`
	PageSize    int                         `yaml:"pageSize" json:"pageSize"`
	RateLimit   RateLimit                   `yaml:"rateLimit" json:"rateLimit"`
	MetricsAddr string                      `yaml:"metricsAddr,omitempty" json:"metricsAddr,omitempty"`
	Insecure    bool                        `yaml:"insecure,omitempty" json:"insecure,omitempty"`
	CAFile      string                      `yaml:"caFile,omitempty" json:"caFile,omitempty"`
	Resources   map[string]ResourceSettings `yaml:"resources,omitempty" json:"resources,omitempty"`
}

// DefaultSettings returns settings with every default applied
func DefaultSettings() *Settings {
	s := &Settings{}
	s.applyDefaults()
	return s
}

// LoadSettings reads the settings file at path. A missing file yields defaults.
// Files ending in .json or .jsonc are parsed as JSON with comments, anything
// else as YAML. Environment overrides are applied last.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	default:
		if err := decodeSettings(path, data, s); err != nil {
			return nil, err
		}
	}

	s.applyEnv()
	s.applyDefaults()

	if s.PageSize < 0 {
		return nil, fmt.Errorf("invalid pageSize %d", s.PageSize)
	}

	return s, nil
}

func decodeSettings(path string, data []byte, s *Settings) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), s); err != nil {
			return fmt.Errorf("failed to parse settings file %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, s); err != nil {
			return fmt.Errorf("failed to parse settings file %s: %w", path, err)
		}
	}
	return nil
}

func (s *Settings) applyEnv() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		s.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv(EnvLocale); v != "" {
		s.Locale = v
	}
}

func (s *Settings) applyDefaults() {
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	if s.Locale == "" {
		s.Locale = DefaultLocale
	}
	if s.Timeout <= 0 {
		s.Timeout = Duration(DefaultTimeout)
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	if s.Debounce <= 0 {
		s.Debounce = Duration(DefaultDebounce)
	}
	if s.PageSize == 0 {
		s.PageSize = DefaultPageSize
	}
	if s.RateLimit.RPS > 0 && s.RateLimit.Burst <= 0 {
		s.RateLimit.Burst = 1
	}
}

// SaveSettings writes the settings as yaml
func SaveSettings(path string, s *Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, FilePermissions); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

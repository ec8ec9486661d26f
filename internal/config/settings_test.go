package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadSettings_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLocale, "")

	s, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	if s.BaseURL != DefaultBaseURL {
		t.Errorf("Expected base URL %s, got %s", DefaultBaseURL, s.BaseURL)
	}
	if time.Duration(s.Debounce) != DefaultDebounce {
		t.Errorf("Expected debounce %v, got %v", DefaultDebounce, time.Duration(s.Debounce))
	}
	if s.PageSize != DefaultPageSize {
		t.Errorf("Expected page size %d, got %d", DefaultPageSize, s.PageSize)
	}
	if s.Locale != DefaultLocale {
		t.Errorf("Expected locale %s, got %s", DefaultLocale, s.Locale)
	}
}

func TestLoadSettings_YAML(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLocale, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `baseUrl: https://lms.example.com/api/
locale: vi
timeout: 5s
debounce: 250ms
pageSize: 20
rateLimit:
  rps: 4
resources:
  courses:
    searchKeys:
      - label: Title
        value: title
      - label: Author
        value: author
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	if s.BaseURL != "https://lms.example.com/api" {
		t.Errorf("Expected trailing slash trimmed, got %s", s.BaseURL)
	}
	if time.Duration(s.Timeout) != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %v", time.Duration(s.Timeout))
	}
	if time.Duration(s.Debounce) != 250*time.Millisecond {
		t.Errorf("Expected debounce 250ms, got %v", time.Duration(s.Debounce))
	}
	if s.RateLimit.Burst != 1 {
		t.Errorf("Expected burst defaulted to 1, got %d", s.RateLimit.Burst)
	}
	courses, ok := s.Resources["courses"]
	if !ok {
		t.Fatal("Expected courses resource override")
	}
	if len(courses.SearchKeys) != 2 || courses.SearchKeys[1].Value != "author" {
		t.Errorf("Unexpected search keys: %+v", courses.SearchKeys)
	}
}

func TestLoadSettings_JSONCWithEnvOverride(t *testing.T) {
	t.Setenv(EnvBaseURL, "http://override.local")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLocale, "")

	path := filepath.Join(t.TempDir(), "config.jsonc")
	content := `{
  // comments are allowed
  "baseUrl": "http://ignored.local",
  "debounce": 750,
  "pageSize": 30
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	if s.BaseURL != "http://override.local" {
		t.Errorf("Expected env base URL, got %s", s.BaseURL)
	}
	if s.LogLevel != "debug" {
		t.Errorf("Expected env log level, got %s", s.LogLevel)
	}
	if time.Duration(s.Debounce) != 750*time.Millisecond {
		t.Errorf("Expected numeric debounce in ms, got %v", time.Duration(s.Debounce))
	}
	if s.PageSize != 30 {
		t.Errorf("Expected page size 30, got %d", s.PageSize)
	}
}

func TestLoadSettings_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("debounce: [nope"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSettings(path); err == nil {
		t.Error("Expected error for invalid yaml")
	}
}

func TestInitializeAt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")
	if err := InitializeAt(dir); err != nil {
		t.Fatalf("InitializeAt failed: %v", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Expected config dir to exist: %v", err)
	}
	if DatabasePath != filepath.Join(dir, "lmscli.db") {
		t.Errorf("Unexpected database path %s", DatabasePath)
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matsen/papermeta/internal/resolver"
)

// isolate points the global config at an empty temp dir and clears
// overrides, returning the config file path.
func isolate(t *testing.T) string {
	t.Helper()
	ResetGlobalConfigCache()
	t.Cleanup(ResetGlobalConfigCache)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv(EnvMailto, "")
	t.Setenv(EnvLibrary, "")
	t.Setenv(EnvLogLevel, "")
	return filepath.Join(tmpDir, GlobalConfigDir, GlobalConfigFile)
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := GlobalConfigPath(), "/custom/config/pmeta/config.yml"; got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := GlobalConfigPath(), filepath.Join(home, ".config", "pmeta", "config.yml"); got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	isolate(t)

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if *cfg != Default() {
		t.Errorf("LoadGlobalConfig() = %+v, want defaults", *cfg)
	}
}

func TestLoadGlobalConfig_Valid(t *testing.T) {
	path := isolate(t)
	writeConfig(t, path, `library_path: ~/papers
mailto: me@example.org
lookup_timeout: 3s
similarity_threshold: 0.75
cache: false
`)

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}

	home, _ := os.UserHomeDir()
	if cfg.LibraryPath != filepath.Join(home, "papers") {
		t.Errorf("LibraryPath = %q, want tilde expanded", cfg.LibraryPath)
	}
	if cfg.Mailto != "me@example.org" {
		t.Errorf("Mailto = %q", cfg.Mailto)
	}
	if cfg.SimilarityThreshold != 0.75 {
		t.Errorf("SimilarityThreshold = %v", cfg.SimilarityThreshold)
	}
	if cfg.Cache {
		t.Error("Cache = true, want false")
	}
	if d, _ := cfg.Timeout(); d != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", d)
	}

	// Unset keys keep their defaults.
	if cfg.MinTitleLength != Default().MinTitleLength {
		t.Errorf("MinTitleLength = %d, want default", cfg.MinTitleLength)
	}
	if cfg.CrossrefURL != Default().CrossrefURL {
		t.Errorf("CrossrefURL = %q, want default", cfg.CrossrefURL)
	}
}

func TestLoadGlobalConfig_Cached(t *testing.T) {
	path := isolate(t)
	writeConfig(t, path, "mailto: first@example.org\n")

	first, err := LoadGlobalConfig()
	if err != nil {
		t.Fatal(err)
	}
	writeConfig(t, path, "mailto: second@example.org\n")

	second, err := LoadGlobalConfig()
	if err != nil {
		t.Fatal(err)
	}
	if second.Mailto != first.Mailto {
		t.Errorf("cached config changed: %q", second.Mailto)
	}

	ResetGlobalConfigCache()
	third, err := LoadGlobalConfig()
	if err != nil {
		t.Fatal(err)
	}
	if third.Mailto != "second@example.org" {
		t.Errorf("Mailto after reset = %q", third.Mailto)
	}
}

func TestLoadGlobalConfig_EnvOverrides(t *testing.T) {
	path := isolate(t)
	writeConfig(t, path, "mailto: file@example.org\nlog_level: error\n")
	t.Setenv(EnvMailto, "env@example.org")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLibrary, "/env/library")

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mailto != "env@example.org" || cfg.LogLevel != "debug" || cfg.LibraryPath != "/env/library" {
		t.Errorf("env overrides not applied: %+v", *cfg)
	}

	// The file itself is untouched by overrides.
	raw, err := ReadGlobalFile()
	if err != nil {
		t.Fatal(err)
	}
	if raw.Mailto != "file@example.org" {
		t.Errorf("ReadGlobalFile().Mailto = %q", raw.Mailto)
	}
}

func TestLoadGlobalConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":       "mailto: [unterminated\n",
		"threshold high": "similarity_threshold: 1.5\n",
		"bad timeout":    "lookup_timeout: soon\n",
		"bad level":      "log_level: loud\n",
		"negative title": "min_title_length: -1\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := isolate(t)
			writeConfig(t, path, content)
			if _, err := LoadGlobalConfig(); err == nil {
				t.Error("LoadGlobalConfig() should fail")
			}
		})
	}
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("similarity_threshold", "0.8"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, _ := cfg.Get("similarity_threshold"); got != "0.8" {
		t.Errorf("Get(similarity_threshold) = %q", got)
	}

	if err := cfg.Set("cache", "false"); err != nil || cfg.Cache {
		t.Errorf("Set(cache, false) err=%v cache=%v", err, cfg.Cache)
	}

	if err := cfg.Set("similarity_threshold", "2"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Set(out of range) error = %v, want ErrInvalidConfig", err)
	}
	if cfg.SimilarityThreshold != 0.8 {
		t.Errorf("failed Set changed value to %v", cfg.SimilarityThreshold)
	}

	if err := cfg.Set("min_title_length", "ten"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Set(non-integer) error = %v", err)
	}
	if _, err := cfg.Get("nope"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Get(unknown) error = %v, want ErrUnknownKey", err)
	}
	if err := cfg.Set("nope", "x"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Set(unknown) error = %v, want ErrUnknownKey", err)
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) != 9 {
		t.Errorf("Keys() = %v, want 9 keys", keys)
	}
	cfg := Default()
	for _, k := range keys {
		if _, err := cfg.Get(k); err != nil {
			t.Errorf("Get(%q) error = %v", k, err)
		}
	}
}

func TestSaveGlobalConfig(t *testing.T) {
	path := isolate(t)

	cfg := Default()
	cfg.Mailto = "saved@example.org"
	cfg.MinTitleLength = 20
	if err := SaveGlobalConfig(&cfg); err != nil {
		t.Fatalf("SaveGlobalConfig() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := LoadGlobalConfig()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Mailto != "saved@example.org" || loaded.MinTitleLength != 20 {
		t.Errorf("round trip = %+v", *loaded)
	}
}

func TestTimeout_Default(t *testing.T) {
	cfg := GlobalConfig{}
	d, err := cfg.Timeout()
	if err != nil || d != resolver.DefaultLookupTimeout {
		t.Errorf("Timeout() = %v, %v; want default", d, err)
	}
}

func TestResolveLibrary(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	if err := InitLibrary(root); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveLibrary(root)
	if err != nil || got != root {
		t.Errorf("ResolveLibrary(explicit) = %q, %v", got, err)
	}

	if _, err := ResolveLibrary(t.TempDir()); !errors.Is(err, ErrNoLibrary) {
		t.Errorf("ResolveLibrary(non-library) error = %v", err)
	}

	t.Setenv(EnvLibrary, root)
	ResetGlobalConfigCache()
	got, err = ResolveLibrary("")
	if err != nil || got != root {
		t.Errorf("ResolveLibrary(from env) = %q, %v", got, err)
	}
}

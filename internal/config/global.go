package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matsen/papermeta/internal/crossref"
	"github.com/matsen/papermeta/internal/importer"
	"github.com/matsen/papermeta/internal/logging"
	"github.com/matsen/papermeta/internal/openalex"
	"github.com/matsen/papermeta/internal/resolver"
)

// GlobalConfig represents configuration stored in ~/.config/pmeta/config.yml.
type GlobalConfig struct {
	LibraryPath         string  `yaml:"library_path,omitempty" json:"library_path,omitempty"`
	Mailto              string  `yaml:"mailto,omitempty" json:"mailto,omitempty"`
	CrossrefURL         string  `yaml:"crossref_url" json:"crossref_url"`
	OpenAlexURL         string  `yaml:"openalex_url" json:"openalex_url"`
	LookupTimeout       string  `yaml:"lookup_timeout" json:"lookup_timeout"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
	MinTitleLength      int     `yaml:"min_title_length" json:"min_title_length"`
	Cache               bool    `yaml:"cache" json:"cache"`
	LogLevel            string  `yaml:"log_level" json:"log_level"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "pmeta"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// Environment variables that override the config file.
const (
	EnvMailto   = "PMETA_MAILTO"
	EnvLibrary  = "PMETA_LIBRARY"
	EnvLogLevel = "PMETA_LOG_LEVEL"
)

var (
	// ErrNoLibrary is returned when no library can be located.
	ErrNoLibrary = errors.New("no paper library found")

	// ErrUnknownKey is returned for a config key that does not exist.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrInvalidConfig is returned when a config value is out of range.
	ErrInvalidConfig = errors.New("invalid config")
)

// Default returns the configuration used when no file is present.
func Default() GlobalConfig {
	return GlobalConfig{
		CrossrefURL:         crossref.BaseURL,
		OpenAlexURL:         openalex.BaseURL,
		LookupTimeout:       resolver.DefaultLookupTimeout.String(),
		SimilarityThreshold: resolver.DefaultSimilarityThreshold,
		MinTitleLength:      importer.DefaultMinTitleLength,
		Cache:               true,
		LogLevel:            logging.DefaultLevel,
	}
}

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/pmeta/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file and applies
// environment overrides. Returns defaults (not an error) if the file
// doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	cfg, err := ReadGlobalFile()
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfigCache = cfg
	return cfg, nil
}

// ReadGlobalFile reads the config file alone, without environment
// overrides or caching. Missing keys take their defaults.
func ReadGlobalFile() (*GlobalConfig, error) {
	cfg := Default()

	path := GlobalConfigPath()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.LibraryPath != "" {
		cfg.LibraryPath = ExpandPath(cfg.LibraryPath)
	}

	return &cfg, nil
}

// SaveGlobalConfig writes cfg to the global config file and drops the cache.
func SaveGlobalConfig(cfg *GlobalConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	path := GlobalConfigPath()
	if path == "" {
		return errors.New("cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	ResetGlobalConfigCache()
	return nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

func (c *GlobalConfig) applyEnv() {
	if v := os.Getenv(EnvMailto); v != "" {
		c.Mailto = v
	}
	if v := os.Getenv(EnvLibrary); v != "" {
		c.LibraryPath = ExpandPath(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate checks value ranges and formats.
func (c *GlobalConfig) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold %v outside [0, 1]", ErrInvalidConfig, c.SimilarityThreshold)
	}
	if c.MinTitleLength < 0 {
		return fmt.Errorf("%w: min_title_length %d is negative", ErrInvalidConfig, c.MinTitleLength)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Timeout parses LookupTimeout. An empty value means the default.
func (c *GlobalConfig) Timeout() (time.Duration, error) {
	if c.LookupTimeout == "" {
		return resolver.DefaultLookupTimeout, nil
	}
	d, err := time.ParseDuration(c.LookupTimeout)
	if err != nil {
		return 0, fmt.Errorf("%w: lookup_timeout: %v", ErrInvalidConfig, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: lookup_timeout %s is negative", ErrInvalidConfig, d)
	}
	return d, nil
}

// configField binds a yaml key to accessors on GlobalConfig.
type configField struct {
	get func(c *GlobalConfig) string
	set func(c *GlobalConfig, v string) error
}

func stringField(p func(c *GlobalConfig) *string) configField {
	return configField{
		get: func(c *GlobalConfig) string { return *p(c) },
		set: func(c *GlobalConfig, v string) error {
			*p(c) = v
			return nil
		},
	}
}

var configFields = map[string]configField{
	"library_path":   stringField(func(c *GlobalConfig) *string { return &c.LibraryPath }),
	"mailto":         stringField(func(c *GlobalConfig) *string { return &c.Mailto }),
	"crossref_url":   stringField(func(c *GlobalConfig) *string { return &c.CrossrefURL }),
	"openalex_url":   stringField(func(c *GlobalConfig) *string { return &c.OpenAlexURL }),
	"lookup_timeout": stringField(func(c *GlobalConfig) *string { return &c.LookupTimeout }),
	"log_level":      stringField(func(c *GlobalConfig) *string { return &c.LogLevel }),
	"similarity_threshold": {
		get: func(c *GlobalConfig) string { return strconv.FormatFloat(c.SimilarityThreshold, 'g', -1, 64) },
		set: func(c *GlobalConfig, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%w: similarity_threshold must be a number", ErrInvalidConfig)
			}
			c.SimilarityThreshold = f
			return nil
		},
	},
	"min_title_length": {
		get: func(c *GlobalConfig) string { return strconv.Itoa(c.MinTitleLength) },
		set: func(c *GlobalConfig, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: min_title_length must be an integer", ErrInvalidConfig)
			}
			c.MinTitleLength = n
			return nil
		},
	},
	"cache": {
		get: func(c *GlobalConfig) string { return strconv.FormatBool(c.Cache) },
		set: func(c *GlobalConfig, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: cache must be true or false", ErrInvalidConfig)
			}
			c.Cache = b
			return nil
		},
	},
}

// Keys returns the settable config keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(configFields))
	for k := range configFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the string form of a config value.
func (c *GlobalConfig) Get(key string) (string, error) {
	f, ok := configFields[strings.TrimSpace(key)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return f.get(c), nil
}

// Set parses and assigns a config value, then validates the result.
func (c *GlobalConfig) Set(key, value string) error {
	f, ok := configFields[strings.TrimSpace(key)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	next := *c
	if err := f.set(&next, strings.TrimSpace(value)); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// ResolveLibrary picks the library root: an explicit path, then the
// configured library_path, then a library found above the working directory.
func ResolveLibrary(explicit string) (string, error) {
	if explicit != "" {
		root := ExpandPath(explicit)
		if !IsLibrary(root) {
			return "", fmt.Errorf("%w at %s", ErrNoLibrary, root)
		}
		return root, nil
	}

	cfg, err := LoadGlobalConfig()
	if err != nil {
		return "", err
	}
	if cfg.LibraryPath != "" {
		if !IsLibrary(cfg.LibraryPath) {
			return "", fmt.Errorf("%w at configured library_path %s", ErrNoLibrary, cfg.LibraryPath)
		}
		return cfg.LibraryPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return FindLibrary(cwd)
}

// HelpfulConfigMessage returns a helpful message when no library is found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No paper library found.

Create one with:
  pmeta init /path/to/library

Or set library_path in %s:
  pmeta config library_path /path/to/library`,
		configPath)
}

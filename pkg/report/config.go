package report

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key read from the environment.
const EnvPrefix = "REPORT"

// Config contains all configuration options for the report engine
type Config struct {
	// ProductName prefixes generated artifact names.
	ProductName string `mapstructure:"PRODUCT_NAME"`
	// TemplateURL is the DOCX template reference: http(s) URL, file:// URL or local path.
	TemplateURL string `mapstructure:"TEMPLATE_URL"`
	// OutputDir is where the CLI saves artifacts.
	OutputDir string `mapstructure:"OUTPUT_DIR"`
	// LogLevel controls the verbosity of logging (debug, info, warn, error)
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// HTTPAddr is the listen address of the download server.
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// APIBaseURL is the dashboard API the record source reads from.
	APIBaseURL string `mapstructure:"API_BASE_URL"`
	// APITimeout bounds each record source request.
	APITimeout time.Duration `mapstructure:"API_TIMEOUT"`
	// APIRPS limits record source requests per second. 0 disables limiting.
	APIRPS float64 `mapstructure:"API_RPS"`
	// FetchTimeout bounds the template fetch. 0 leaves it to the transport.
	FetchTimeout time.Duration `mapstructure:"FETCH_TIMEOUT"`
	// TemplateCacheSize is the maximum number of cached templates. 0 disables caching.
	TemplateCacheSize int `mapstructure:"TEMPLATE_CACHE_SIZE"`
	// TemplateCacheTTL is the time-to-live for cached templates. 0 means no expiration.
	TemplateCacheTTL time.Duration `mapstructure:"TEMPLATE_CACHE_TTL"`
	// AssetsDir holds template.docx for the download server. Empty disables the route.
	AssetsDir string `mapstructure:"ASSETS_DIR"`
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ProductName:       "wisenergy",
		TemplateURL:       "assets/template.docx",
		OutputDir:         ".",
		LogLevel:          "info",
		HTTPAddr:          ":8080",
		APIBaseURL:        "http://localhost:3000/api",
		APITimeout:        10 * time.Second,
		APIRPS:            5,
		FetchTimeout:      0,
		TemplateCacheSize: 0,
		TemplateCacheTTL:  0,
		AssetsDir:         "",
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("PRODUCT_NAME", d.ProductName)
	v.SetDefault("TEMPLATE_URL", d.TemplateURL)
	v.SetDefault("OUTPUT_DIR", d.OutputDir)
	v.SetDefault("LOG_LEVEL", d.LogLevel)
	v.SetDefault("HTTP_ADDR", d.HTTPAddr)
	v.SetDefault("API_BASE_URL", d.APIBaseURL)
	v.SetDefault("API_TIMEOUT", d.APITimeout)
	v.SetDefault("API_RPS", d.APIRPS)
	v.SetDefault("FETCH_TIMEOUT", d.FetchTimeout)
	v.SetDefault("TEMPLATE_CACHE_SIZE", d.TemplateCacheSize)
	v.SetDefault("TEMPLATE_CACHE_TTL", d.TemplateCacheTTL)
	v.SetDefault("ASSETS_DIR", d.AssetsDir)
	return v
}

// LoadConfig builds a configuration from defaults, an optional config file
// (any format viper understands, keys without the REPORT_ prefix) and
// REPORT_* environment variables, in increasing order of precedence.
func LoadConfig(file string) (*Config, error) {
	v := newViper()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFromEnvironment creates a configuration from REPORT_* environment
// variables. Invalid settings fall back to the defaults.
func ConfigFromEnvironment() *Config {
	cfg, err := LoadConfig("")
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ProductName) == "" {
		return errors.New("config: PRODUCT_NAME must be set")
	}

	if c.TemplateCacheSize < 0 {
		return errors.New("config: TEMPLATE_CACHE_SIZE cannot be negative")
	}

	if c.TemplateCacheTTL < 0 {
		return errors.New("config: TEMPLATE_CACHE_TTL cannot be negative")
	}

	if c.APITimeout < 0 || c.FetchTimeout < 0 {
		return errors.New("config: timeouts cannot be negative")
	}

	if c.APIRPS < 0 {
		return errors.New("config: API_RPS cannot be negative")
	}

	if c.APIBaseURL != "" {
		if _, err := url.ParseRequestURI(c.APIBaseURL); err != nil {
			return fmt.Errorf("config: invalid API_BASE_URL: %w", err)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.LogLevel] {
		return errors.New("config: invalid log level: " + c.LogLevel)
	}

	return nil
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	configOnce.Do(func() {
		cfg := ConfigFromEnvironment()
		globalConfigMutex.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMutex.Unlock()
	})

	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	// Return a copy to prevent modification
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	configOnce.Do(func() {})

	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// Update logger based on new config (outside the lock to avoid deadlock)
	UpdateLoggerFromConfig()
}

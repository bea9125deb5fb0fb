package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"52428800"`
	OpenBrowser     bool          `yaml:"open_browser" envconfig:"OPEN_BROWSER" default:"true"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"20"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"10"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// ProcessingConfig carries the defaults for a review run. Every value can
// be overridden per request from the upload form; these pre-fill the form.
type ProcessingConfig struct {
	FuzzyThreshold       int           `yaml:"fuzzy_threshold" envconfig:"FUZZY_THRESHOLD" default:"90"`
	UnitedSheet          string        `yaml:"united_sheet" envconfig:"UNITED_SHEET" default:"Last"`
	HighlightColor       string        `yaml:"highlight_color" envconfig:"HIGHLIGHT_COLOR" default:"FFFF00"`
	AffiliationKeywords  []string      `yaml:"affiliation_keywords" envconfig:"AFFILIATION_KEYWORDS"`
	AffiliationExcludes  []string      `yaml:"affiliation_excludes" envconfig:"AFFILIATION_EXCLUDES"`
	TitleExcludeKeywords []string      `yaml:"title_exclude_keywords" envconfig:"TITLE_EXCLUDE_KEYWORDS"`
	ReviewTTL            time.Duration `yaml:"review_ttl" envconfig:"REVIEW_TTL" default:"1h"`
}

// DefaultAffiliationKeywords identify authors of the home institution in
// the "Authors with affiliations" column.
var DefaultAffiliationKeywords = []string{
	"Khazar University",
	"Khazar",
	"Xəzər Universiteti",
}

// DefaultTitleExcludeKeywords drop editorial notices that would otherwise
// surface as new articles.
var DefaultTitleExcludeKeywords = []string{
	"Correction:",
	"Correction to:",
	"Erratum to",
	"Corrigendum to",
	"<FOR VERIFICATION>",
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("SCOPUS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := findConfigFile(); configFile != "" {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	cfg.applyProcessingDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Server.ReadTimeout == 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if envConfig.Server.WriteTimeout == 0 {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if envConfig.Server.MaxUploadBytes == 0 {
		envConfig.Server.MaxUploadBytes = fileConfig.Server.MaxUploadBytes
	}
	if envConfig.Processing.FuzzyThreshold == 0 {
		envConfig.Processing.FuzzyThreshold = fileConfig.Processing.FuzzyThreshold
	}
	if envConfig.Processing.UnitedSheet == "" {
		envConfig.Processing.UnitedSheet = fileConfig.Processing.UnitedSheet
	}
	if len(envConfig.Processing.AffiliationKeywords) == 0 {
		envConfig.Processing.AffiliationKeywords = fileConfig.Processing.AffiliationKeywords
	}
	if len(envConfig.Processing.AffiliationExcludes) == 0 {
		envConfig.Processing.AffiliationExcludes = fileConfig.Processing.AffiliationExcludes
	}
	if len(envConfig.Processing.TitleExcludeKeywords) == 0 {
		envConfig.Processing.TitleExcludeKeywords = fileConfig.Processing.TitleExcludeKeywords
	}

	return envConfig
}

// applyProcessingDefaults fills keyword lists that neither the env nor the
// file provided. envconfig cannot default a slice to values that contain
// spaces, so these live in code.
func (c *Config) applyProcessingDefaults() {
	if len(c.Processing.AffiliationKeywords) == 0 {
		c.Processing.AffiliationKeywords = append([]string(nil), DefaultAffiliationKeywords...)
	}
	if len(c.Processing.TitleExcludeKeywords) == 0 {
		c.Processing.TitleExcludeKeywords = append([]string(nil), DefaultTitleExcludeKeywords...)
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}

	if c.Processing.FuzzyThreshold < 0 || c.Processing.FuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy threshold must be within [0,100], got %d", c.Processing.FuzzyThreshold)
	}

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "stdout" {
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// findConfigFile returns the path to the config file, if any
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  50 << 20,
			OpenBrowser:     true,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   10,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Processing: ProcessingConfig{
			FuzzyThreshold:       90,
			UnitedSheet:          "Last",
			HighlightColor:       "FFFF00",
			AffiliationKeywords:  append([]string(nil), DefaultAffiliationKeywords...),
			TitleExcludeKeywords: append([]string(nil), DefaultTitleExcludeKeywords...),
			ReviewTTL:            time.Hour,
		},
	}
}

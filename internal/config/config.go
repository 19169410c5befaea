package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MaxConcurrency bounds batch.concurrency.
const MaxConcurrency = 64

// Config holds the full application configuration.
type Config struct {
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Ingest     IngestConfig     `yaml:"ingest" mapstructure:"ingest"`
	Enrich     EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	Scope      ScopeConfig      `yaml:"scope" mapstructure:"scope"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// IngestConfig names the feed file to read.
type IngestConfig struct {
	Format   string `yaml:"format" mapstructure:"format"`
	FeedPath string `yaml:"feed_path" mapstructure:"feed_path"`
	FeedURL  string `yaml:"feed_url" mapstructure:"feed_url"`
}

// EnrichConfig configures the enrichment providers.
type EnrichConfig struct {
	KeywordsFile string `yaml:"keywords_file" mapstructure:"keywords_file"`
}

// ScopeConfig restricts which entities become leads. Empty lists accept
// everything.
type ScopeConfig struct {
	TargetIndustries []string `yaml:"target_industries" mapstructure:"target_industries"`
	AllowedSizes     []string `yaml:"allowed_sizes" mapstructure:"allowed_sizes"`
}

// MonitoringConfig configures run alerts.
type MonitoringConfig struct {
	MinAcceptanceRate float64 `yaml:"min_acceptance_rate" mapstructure:"min_acceptance_rate"`
}

// ServerConfig configures the read-only HTTP view.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GLASSBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("batch.concurrency", 8)
	v.SetDefault("ingest.format", "auto")
	v.SetDefault("ingest.feed_path", "")
	v.SetDefault("ingest.feed_url", "")
	v.SetDefault("enrich.keywords_file", "")
	v.SetDefault("scope.target_industries", []string{})
	v.SetDefault("scope.allowed_sizes", []string{})
	v.SetDefault("monitoring.min_acceptance_rate", 0.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Mode is one of
// "run", "watch" or "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "run":
	case "watch":
		if c.Ingest.FeedPath == "" {
			errs = append(errs, "ingest.feed_path is required")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > MaxConcurrency {
		errs = append(errs, fmt.Sprintf("batch.concurrency must be between 1 and %d", MaxConcurrency))
	}
	if r := c.Monitoring.MinAcceptanceRate; r < 0 || r > 1 {
		errs = append(errs, "monitoring.min_acceptance_rate must be between 0 and 1")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/newthinker/finwindow/internal/core"
	"github.com/newthinker/finwindow/internal/indicator"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. FINWINDOW_DRIVER_WORKERS.
const EnvPrefix = "FINWINDOW"

type Config struct {
	Log        LogConfig     `mapstructure:"log"`
	Source     SourceConfig  `mapstructure:"source"`
	Series     SeriesConfig  `mapstructure:"series"`
	Indicators []string      `mapstructure:"indicators"`
	Driver     DriverConfig  `mapstructure:"driver"`
	Metrics    MetricsConfig `mapstructure:"metrics"`
	Server     ServerConfig  `mapstructure:"server"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

// SourceConfig selects where aggregate flat files are read from.
type SourceConfig struct {
	Type   string   `mapstructure:"type"` // "localfs" or "s3"
	Path   string   `mapstructure:"path"` // For localfs
	Prefix string   `mapstructure:"prefix"`
	S3     S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// SeriesConfig maps flat-file columns onto partitions.
type SeriesConfig struct {
	KeyColumn   string   `mapstructure:"key_column"`
	TimeColumn  string   `mapstructure:"time_column"`
	ValueColumn string   `mapstructure:"value_column"`
	Symbols     []string `mapstructure:"symbols"`
}

type DriverConfig struct {
	Workers int `mapstructure:"workers"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Path     string `mapstructure:"path"`
	Textfile string `mapstructure:"textfile"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

// Load reads configuration from file. Keys missing from the file keep
// their Defaults value.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand ${VAR} references, e.g. access_key: ${POLYGON_ACCESS_KEY_ID}
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if ok && strings.Contains(val, "${") {
			v.Set(key, os.ExpandEnv(val))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("source.type", d.Source.Type)
	v.SetDefault("source.path", d.Source.Path)
	v.SetDefault("source.prefix", d.Source.Prefix)
	v.SetDefault("source.s3.bucket", d.Source.S3.Bucket)
	v.SetDefault("source.s3.endpoint", d.Source.S3.Endpoint)
	v.SetDefault("source.s3.region", d.Source.S3.Region)
	v.SetDefault("source.s3.access_key", d.Source.S3.AccessKey)
	v.SetDefault("source.s3.secret_key", d.Source.S3.SecretKey)
	v.SetDefault("source.s3.prefix", d.Source.S3.Prefix)
	v.SetDefault("series.key_column", d.Series.KeyColumn)
	v.SetDefault("series.time_column", d.Series.TimeColumn)
	v.SetDefault("series.value_column", d.Series.ValueColumn)
	v.SetDefault("series.symbols", d.Series.Symbols)
	v.SetDefault("indicators", d.Indicators)
	v.SetDefault("driver.workers", d.Driver.Workers)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.api_key", d.Server.APIKey)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Source: SourceConfig{
			Type: "localfs",
			Path: "./data",
			S3: S3Config{
				Bucket:   "flatfiles",
				Endpoint: "https://files.polygon.io",
				Region:   "us-east-1",
			},
		},
		Series: SeriesConfig{
			KeyColumn:   "ticker",
			TimeColumn:  "window_start",
			ValueColumn: "close",
			Symbols:     []string{},
		},
		Indicators: []string{"sma(20)", "ema(20)", "rsi(14)", "macd(12,26)"},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
	}
}

// IndicatorSpecs parses the configured indicator list.
func (c *Config) IndicatorSpecs() ([]indicator.Spec, error) {
	return indicator.ParseSpecs(c.Indicators)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Source.Type {
	case "localfs":
		if c.Source.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("source.path required when type is localfs"))
		}
	case "s3":
		if c.Source.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("source.s3.bucket required when type is s3"))
		}
		if c.Source.S3.AccessKey == "" || c.Source.S3.SecretKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("source.s3 access_key and secret_key required when type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("source.type must be localfs or s3, got %q", c.Source.Type))
	}

	if c.Series.KeyColumn == "" || c.Series.TimeColumn == "" || c.Series.ValueColumn == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("series key_column, time_column and value_column are required"))
	}

	if c.Driver.Workers < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("driver.workers cannot be negative, got %d", c.Driver.Workers))
	}

	if len(c.Indicators) == 0 {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("at least one indicator required"))
	}
	if _, err := c.IndicatorSpecs(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	return nil
}

// Package config loads the service configuration from an optional YAML
// file, MONKEYTOOLS_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/s3"
)

// EnvPrefix prefixes every environment variable, e.g. MONKEYTOOLS_SERVER_PORT.
const EnvPrefix = "MONKEYTOOLS"

// Config is the whole service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Timeouts  TimeoutConfig   `mapstructure:"timeouts"`
	Commands  CommandsConfig  `mapstructure:"commands"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	OCR       OCRConfig       `mapstructure:"ocr"`
	Log       LogConfig       `mapstructure:"log"`
	Browser   BrowserConfig   `mapstructure:"browser"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Namespace    string `mapstructure:"namespace"`
	ContactEmail string `mapstructure:"contact_email"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type WorkspaceConfig struct {
	// Root holds one directory per task. It is never cleaned up by the service.
	Root string `mapstructure:"root"`
}

// Storage drivers.
const (
	DriverS3   = "s3"
	DriverFile = "file"
)

type StorageConfig struct {
	Driver           string            `mapstructure:"driver"`
	KeyPrefix        string            `mapstructure:"key_prefix"`
	MaxDownloadBytes int64             `mapstructure:"max_download_bytes"`
	S3               s3.Config         `mapstructure:"s3"`
	File             FileStorageConfig `mapstructure:"file"`
}

type FileStorageConfig struct {
	Dir     string `mapstructure:"dir"`
	BaseURL string `mapstructure:"base_url"`
}

type TimeoutConfig struct {
	Tool     time.Duration `mapstructure:"tool"`
	Process  time.Duration `mapstructure:"process"`
	Download time.Duration `mapstructure:"download"`
	Upload   time.Duration `mapstructure:"upload"`
}

type CommandsConfig struct {
	// File is a YAML or JSON allow-list that overrides the built-in commands.
	File string `mapstructure:"file"`
}

type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig enables the loader cache when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type TracingConfig struct {
	// Endpoint is an OTLP/HTTP collector, e.g. localhost:4318. Empty disables export.
	Endpoint    string `mapstructure:"endpoint"`
	Insecure    bool   `mapstructure:"insecure"`
	ServiceName string `mapstructure:"service_name"`
}

type OCRConfig struct {
	Engine    string `mapstructure:"engine"`
	Languages string `mapstructure:"languages"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type BrowserConfig struct {
	ExecPath string `mapstructure:"exec_path"`
}

// Option customizes loading.
type Option func(v *viper.Viper) error

// WithFlags binds flags to keys, e.g. {"server.port": "port"}. A flag only
// overrides the file and environment when it was set explicitly.
func WithFlags(fs *pflag.FlagSet, keys map[string]string) Option {
	return func(v *viper.Viper) error {
		for key, name := range keys {
			f := fs.Lookup(name)
			if f == nil {
				return fmt.Errorf("config: unknown flag %q for key %s", name, key)
			}
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithValue sets a key with the highest precedence.
func WithValue(key string, value any) Option {
	return func(v *viper.Viper) error {
		v.Set(key, value)
		return nil
	}
}

// SetDefaults registers every key with its default value. Keys must be
// known to viper for environment variables to reach them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8890)
	v.SetDefault("server.namespace", "monkeys_tools_text")
	v.SetDefault("server.contact_email", "dev@inf-monkeys.com")

	v.SetDefault("workspace.root", "./download")

	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.key_prefix", "workflow/artifact")
	v.SetDefault("storage.max_download_bytes", 20<<20)
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.use_ssl", true)
	v.SetDefault("storage.s3.path_style", false)
	v.SetDefault("storage.s3.public_url", "")
	v.SetDefault("storage.file.dir", "./artifacts")
	v.SetDefault("storage.file.base_url", "")

	v.SetDefault("timeouts.tool", "10m")
	v.SetDefault("timeouts.process", "5m")
	v.SetDefault("timeouts.download", "2m")
	v.SetDefault("timeouts.upload", "2m")

	v.SetDefault("commands.file", "")

	v.SetDefault("cache.redis.addr", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.ttl", "1h")

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.service_name", "monkey-tools-text")

	v.SetDefault("ocr.engine", "tesseract")
	v.SetDefault("ocr.languages", "chi_sim+eng")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("browser.exec_path", "")
}

// Load reads path (optional; "" searches ./config.yaml) and the environment.
func Load(path string, opts ...Option) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Storage.Driver {
	case DriverFile:
	case DriverS3:
		if c.Storage.S3.Endpoint == "" || c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("storage.s3.endpoint and storage.s3.bucket are required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of s3, file", c.Storage.Driver))
	}
	for name, d := range map[string]time.Duration{
		"tool": c.Timeouts.Tool, "process": c.Timeouts.Process,
		"download": c.Timeouts.Download, "upload": c.Timeouts.Upload,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("timeouts.%s must not be negative", name))
		}
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	if c.Workspace.Root == "" {
		errs = append(errs, errors.New("workspace.root is required"))
	}
	return errors.Join(errs...)
}

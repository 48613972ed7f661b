// Package config loads amendo configuration from defaults, an optional
// YAML file, and environment variable overrides, in that priority order.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("amendo.yaml").
//	    WithEnvPrefix("AMENDO").
//	    Load()
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete amendo configuration.
type Config struct {
	LLM    LLMConfig    `yaml:"llm" env:"LLM"`
	Retry  RetryConfig  `yaml:"retry" env:"RETRY"`
	Repair RepairConfig `yaml:"repair" env:"REPAIR"`
	Cache  CacheConfig  `yaml:"cache" env:"CACHE"`
	Redis  RedisConfig  `yaml:"redis" env:"REDIS"`
	Speech SpeechConfig `yaml:"speech" env:"SPEECH"`
	Video  VideoConfig  `yaml:"video" env:"VIDEO"`
	Log    LogConfig    `yaml:"log" env:"LOG"`
}

// LLMConfig configures text generation routing.
type LLMConfig struct {
	// Model used when the caller does not specify one.
	DefaultModel string `yaml:"default_model" env:"DEFAULT_MODEL"`
	// Provider to fall back to when no registered provider matches a model.
	FallbackProvider string `yaml:"fallback_provider" env:"FALLBACK_PROVIDER"`
	// Per-provider request rate limit; zero disables limiting.
	RateLimitPerSecond float64       `yaml:"rate_limit_per_second" env:"RATE_LIMIT_PER_SECOND"`
	RateLimitBurst     int           `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	Timeout            time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// RetryConfig configures the transport retry policy. This is about getting
// a response at all; the repair loop's attempt budget is configured
// separately under RepairConfig.
type RetryConfig struct {
	MaxRetries   int           `yaml:"max_retries" env:"MAX_RETRIES"`
	InitialDelay time.Duration `yaml:"initial_delay" env:"INITIAL_DELAY"`
	MaxDelay     time.Duration `yaml:"max_delay" env:"MAX_DELAY"`
	Multiplier   float64       `yaml:"multiplier" env:"MULTIPLIER"`
	Jitter       bool          `yaml:"jitter" env:"JITTER"`
}

// RepairConfig configures the structured output healing loop.
type RepairConfig struct {
	// Healing rounds per document; total validation passes are MaxRetries+1.
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// Output-token ceiling for healing calls.
	HealMaxTokens int `yaml:"heal_max_tokens" env:"HEAL_MAX_TOKENS"`
	// Concurrent repair sessions in batch operations; zero means unbounded.
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
}

// CacheConfig configures the deterministic response cache.
type CacheConfig struct {
	// Enabled turns on caching of temperature-zero generations.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Backend: memory, redis, or two-level.
	Backend  string        `yaml:"backend" env:"BACKEND"`
	Capacity int           `yaml:"capacity" env:"CAPACITY"`
	TTL      time.Duration `yaml:"ttl" env:"TTL"`
}

// RedisConfig configures the Redis connection used by the redis and
// two-level cache backends.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	PoolSize int    `yaml:"pool_size" env:"POOL_SIZE"`
}

// SpeechConfig configures synthesis and transcription defaults.
type SpeechConfig struct {
	DefaultSynthesizer string `yaml:"default_synthesizer" env:"DEFAULT_SYNTHESIZER"`
	DefaultTranscriber string `yaml:"default_transcriber" env:"DEFAULT_TRANSCRIBER"`
	DefaultVoice       string `yaml:"default_voice" env:"DEFAULT_VOICE"`
}

// VideoConfig configures video generation defaults.
type VideoConfig struct {
	DefaultProvider string        `yaml:"default_provider" env:"DEFAULT_PROVIDER"`
	PollInterval    time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json or console.
	Format       string   `yaml:"format" env:"FORMAT"`
	OutputPaths  []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Timeout: 2 * time.Minute,
		},
		Retry: RetryConfig{
			MaxRetries:   3,
			InitialDelay: 2 * time.Second,
			MaxDelay:     2 * time.Minute,
			Multiplier:   2.0,
			Jitter:       true,
		},
		Repair: RepairConfig{
			MaxRetries:    3,
			HealMaxTokens: 40000,
			Concurrency:   4,
		},
		Cache: CacheConfig{
			Backend:  "memory",
			Capacity: 1024,
			TTL:      time.Hour,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Video: VideoConfig{
			PollInterval: 5 * time.Second,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stdout"},
		},
	}
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative")
	}
	if c.Repair.MaxRetries < 0 {
		return fmt.Errorf("repair.max_retries must not be negative")
	}
	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("retry.multiplier must be at least 1")
	}
	switch c.Cache.Backend {
	case "", "memory", "redis", "two-level":
	default:
		return fmt.Errorf("cache.backend %q is not one of memory, redis, two-level", c.Cache.Backend)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// Loader assembles a Config from defaults, file, and environment.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a Loader with the AMENDO environment prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "AMENDO"}
}

// WithConfigPath sets the YAML file to load. A missing file is not an
// error; defaults and environment still apply.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator appends a validation step run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves the configuration. Priority: defaults, then file, then
// environment.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}
	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}
		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}

	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

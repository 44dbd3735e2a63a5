// Package config loads library and CLI settings from the environment,
// an optional .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/sky-flux/flux-ffi/internal/engine/optimizer"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. FSRS_LOG_LEVEL.
	EnvPrefix = "FSRS"
	// ConfigFileEnv names an optional yaml, json or toml config file.
	ConfigFileEnv = "FSRS_CONFIG_FILE"

	defaultEnvironment      = "production"
	defaultLogLevel         = "warn"
	defaultRegistryCapacity = 1 << 20
)

// Config is the effective configuration.
type Config struct {
	Environment string                    `mapstructure:"env"`
	LogLevel    string                    `mapstructure:"log_level"`
	Registry    RegistryConfig            `mapstructure:"registry"`
	Optimizer   optimizer.OptimizerConfig `mapstructure:"optimizer"`
}

// RegistryConfig bounds the handle registry.
type RegistryConfig struct {
	// Capacity is the maximum number of live handles; 0 means unbounded.
	Capacity int `mapstructure:"capacity"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Load reads .env (if present), FSRS_* environment variables and the
// file named by FSRS_CONFIG_FILE (if set), in increasing precedence of
// environment over file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	v := newViper()
	if err := readConfigFile(v, os.Getenv(ConfigFileEnv)); err != nil {
		return Config{}, err
	}
	return decode(v)
}

// LoadEmbedded is Load for code running inside a host process. It reads
// .env without exporting anything to the process environment, and only
// FSRS_* keys from it are used. Real environment variables still win over
// .env values.
func LoadEmbedded() (Config, error) {
	dotenv, err := godotenv.Read()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	v := newViper()
	for _, key := range v.AllKeys() {
		name := envName(key)
		if os.Getenv(name) != "" {
			continue
		}
		if val, ok := dotenv[name]; ok {
			v.Set(key, val)
		}
	}

	path := os.Getenv(ConfigFileEnv)
	if strings.TrimSpace(path) == "" {
		path = dotenv[ConfigFileEnv]
	}
	if err := readConfigFile(v, path); err != nil {
		return Config{}, err
	}
	return decode(v)
}

// LoadFromPath reads the given config file with environment overrides
// but without consulting .env or FSRS_CONFIG_FILE.
func LoadFromPath(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return decode(v)
}

func readConfigFile(v *viper.Viper, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

// envName maps a viper key to its variable, e.g. registry.capacity to
// FSRS_REGISTRY_CAPACITY.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key so AutomaticEnv can see it on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", defaultEnvironment)
	v.SetDefault("log_level", defaultLogLevel)

	v.SetDefault("registry.capacity", defaultRegistryCapacity)

	v.SetDefault("optimizer.epochs", 5)
	v.SetDefault("optimizer.mini_batch_size", 512)
	v.SetDefault("optimizer.learning_rate", 0.04)
	v.SetDefault("optimizer.max_seq_len", 64)
	v.SetDefault("optimizer.min_items", 8)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := validate(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Environment {
	case "production", "development", "test":
	default:
		return fmt.Errorf("env must be one of: production, development, test, got %q", cfg.Environment)
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if cfg.Registry.Capacity < 0 {
		return fmt.Errorf("registry.capacity must not be negative, got %d", cfg.Registry.Capacity)
	}

	o := cfg.Optimizer
	if o.Epochs < 0 || o.MiniBatchSize < 0 || o.MaxSeqLen < 0 || o.MinItems < 0 {
		return fmt.Errorf("optimizer settings must not be negative")
	}
	if math.IsNaN(o.LearningRate) || math.IsInf(o.LearningRate, 0) || o.LearningRate < 0 {
		return fmt.Errorf("optimizer.learning_rate must be a non-negative number, got %v", o.LearningRate)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no --config flag is given and the file exists.
const DefaultFile = "stepper.yaml"

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

const (
	DefaultInterval   = time.Second
	DefaultPort       = 8080
	DefaultStorePath  = ".stepper/sessions"
	DefaultRedisAddr  = "localhost:6379"
	DefaultLessonsDir = "lessons"
)

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Playback PlaybackConfig `yaml:"playback"`
	Store    StoreConfig    `yaml:"store"`
	Server   ServerConfig   `yaml:"server"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PlaybackConfig struct {
	Interval time.Duration `yaml:"interval"`
	Speed    float64       `yaml:"speed"`
	AutoPlay bool          `yaml:"autoplay"`
}

// StoreConfig selects the session store. FallbackKeys decrypt sessions written
// before a key rotation; Redact lists regular expressions matched against scenario
// param names, whose values are masked before saving.
type StoreConfig struct {
	Backend       string      `yaml:"backend"`
	Path          string      `yaml:"path"`
	EncryptionKey string      `yaml:"encryption_key"`
	FallbackKeys  []string    `yaml:"fallback_keys,omitempty"`
	Redact        []string    `yaml:"redact,omitempty"`
	Redis         RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type ServerConfig struct {
	Port       int    `yaml:"port"`
	Metrics    bool   `yaml:"metrics"`
	LessonsDir string `yaml:"lessons_dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Playback: PlaybackConfig{
			Interval: DefaultInterval,
			Speed:    1,
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Path:    DefaultStorePath,
			Redis: RedisConfig{
				Addr:   DefaultRedisAddr,
				Prefix: "stepper:session:",
			},
		},
		Server: ServerConfig{
			Port:       DefaultPort,
			Metrics:    true,
			LessonsDir: DefaultLessonsDir,
		},
	}
}

// Load reads path over the defaults. An empty path reads DefaultFile when it
// exists and otherwise returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			return cfg, nil
		}
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from STEPPER_* variables. getenv is os.Getenv
// outside tests.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("STEPPER_LOG_LEVEL", &c.Log.Level)
	str("STEPPER_LOG_FORMAT", &c.Log.Format)
	str("STEPPER_STORE", &c.Store.Backend)
	str("STEPPER_STORE_PATH", &c.Store.Path)
	str("STEPPER_ENCRYPTION_KEY", &c.Store.EncryptionKey)
	str("STEPPER_REDIS_ADDR", &c.Store.Redis.Addr)
	str("STEPPER_REDIS_PASSWORD", &c.Store.Redis.Password)
	str("STEPPER_LESSONS_DIR", &c.Server.LessonsDir)

	if v := strings.TrimSpace(getenv("STEPPER_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STEPPER_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := strings.TrimSpace(getenv("STEPPER_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STEPPER_INTERVAL: %w", err)
		}
		c.Playback.Interval = d
	}
	return nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q (memory, file, redis)", c.Store.Backend))
	}
	if c.Store.Backend == BackendFile && c.Store.Path == "" {
		errs = append(errs, errors.New("store.path: required for the file backend"))
	}
	if c.Store.Backend == BackendRedis && c.Store.Redis.Addr == "" {
		errs = append(errs, errors.New("store.redis.addr: required for the redis backend"))
	}
	for _, p := range c.Store.Redact {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("store.redact: %w", err))
		}
	}
	if c.Playback.Interval <= 0 {
		errs = append(errs, fmt.Errorf("playback.interval: must be positive, got %s", c.Playback.Interval))
	}
	if c.Playback.Speed <= 0 {
		errs = append(errs, fmt.Errorf("playback.speed: must be positive, got %v", c.Playback.Speed))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: out of range: %d", c.Server.Port))
	}
	return errors.Join(errs...)
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// RemoteBackend selects the shared plan store.
type RemoteBackend string

const (
	RemoteNone     RemoteBackend = "none"
	RemoteRedis    RemoteBackend = "redis"
	RemotePostgres RemoteBackend = "postgres"
	RemoteSQLite   RemoteBackend = "sqlite"
)

var validBackends = map[RemoteBackend]bool{
	RemoteNone:     true,
	RemoteRedis:    true,
	RemotePostgres: true,
	RemoteSQLite:   true,
}

// RedisConfig holds the connection settings for the Redis remote.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RemoteConfig holds the remote store settings.
type RemoteConfig struct {
	Backend     RemoteBackend `yaml:"backend"`
	TimeoutMs   int           `yaml:"timeout_ms"`
	Redis       RedisConfig   `yaml:"redis"`
	PostgresDSN string        `yaml:"postgres_dsn"`
	SQLitePath  string        `yaml:"sqlite_path"`
}

// PlanningConfig tunes carryover and the day boundary.
type PlanningConfig struct {
	LookbackDays int    `yaml:"lookback_days"`
	MaxCarryover int    `yaml:"max_carryover"`
	Timezone     string `yaml:"timezone"`
}

type LogConfig struct {
	UseCases bool `yaml:"use_cases"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the complete runtime configuration.
type Config struct {
	User     string         `yaml:"user"`
	DBPath   string         `yaml:"db_path"`
	Remote   RemoteConfig   `yaml:"remote"`
	Planning PlanningConfig `yaml:"planning"`
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// Dir is the per-user state directory, ~/.dayplan. It falls back to a
// relative .dayplan when no home directory is known.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".dayplan"
	}
	return filepath.Join(home, ".dayplan")
}

// DefaultConfig returns a Config with sensible defaults. No remote store is
// configured by default.
func DefaultConfig() Config {
	dir := Dir()
	return Config{
		User:   "local",
		DBPath: filepath.Join(dir, "dayplan.db"),
		Remote: RemoteConfig{
			Backend:    RemoteNone,
			TimeoutMs:  5000,
			Redis:      RedisConfig{Addr: "localhost:6379"},
			SQLitePath: filepath.Join(dir, "remote.db"),
		},
		Planning: PlanningConfig{
			LookbackDays: 3,
			MaxCarryover: 3,
			Timezone:     "UTC",
		},
		HTTP: HTTPConfig{Addr: ":8080"},
	}
}

// Load builds the configuration from defaults, then the YAML file, then
// environment variables. Invalid values fall back to defaults. A missing
// file is only an error when DAYPLAN_CONFIG names it explicitly.
func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("DAYPLAN_CONFIG")
	explicit := path != ""
	if !explicit {
		path = filepath.Join(Dir(), "config.yaml")
	}
	if err := loadFile(&cfg, path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), err
		}
	}

	applyEnv(&cfg)
	cfg.sanitize()
	return cfg, nil
}

// loadFile decodes path over cfg, so keys the file leaves out keep their
// current values. Unknown keys are rejected.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DAYPLAN_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("DAYPLAN_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DAYPLAN_REMOTE"); v != "" {
		cfg.Remote.Backend = RemoteBackend(v)
	}
	if v := os.Getenv("DAYPLAN_REDIS_ADDR"); v != "" {
		cfg.Remote.Redis.Addr = v
	}
	if v := os.Getenv("DAYPLAN_REDIS_PASSWORD"); v != "" {
		cfg.Remote.Redis.Password = v
	}
	if v := os.Getenv("DAYPLAN_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Remote.Redis.DB = n
		}
	}
	if v := os.Getenv("DAYPLAN_POSTGRES_DSN"); v != "" {
		cfg.Remote.PostgresDSN = v
	}
	if v := os.Getenv("DAYPLAN_REMOTE_SQLITE_PATH"); v != "" {
		cfg.Remote.SQLitePath = v
	}
	applyPositiveIntEnv(&cfg.Remote.TimeoutMs, "DAYPLAN_REMOTE_TIMEOUT_MS")
	applyPositiveIntEnv(&cfg.Planning.LookbackDays, "DAYPLAN_LOOKBACK_DAYS")
	applyPositiveIntEnv(&cfg.Planning.MaxCarryover, "DAYPLAN_MAX_CARRYOVER")
	if v := os.Getenv("DAYPLAN_TIMEZONE"); v != "" {
		cfg.Planning.Timezone = v
	}
	if v := os.Getenv("DAYPLAN_LOG_USE_CASES"); v != "" {
		cfg.Log.UseCases, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("DAYPLAN_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
}

func applyPositiveIntEnv(dst *int, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	*dst = n
}

// sanitize replaces out-of-range values with their defaults.
func (c *Config) sanitize() {
	def := DefaultConfig()
	if c.User == "" {
		c.User = def.User
	}
	if !validBackends[c.Remote.Backend] {
		c.Remote.Backend = def.Remote.Backend
	}
	if c.Remote.TimeoutMs <= 0 {
		c.Remote.TimeoutMs = def.Remote.TimeoutMs
	}
	if c.Remote.Redis.DB < 0 {
		c.Remote.Redis.DB = 0
	}
	if c.Planning.LookbackDays <= 0 {
		c.Planning.LookbackDays = def.Planning.LookbackDays
	}
	if c.Planning.MaxCarryover <= 0 {
		c.Planning.MaxCarryover = def.Planning.MaxCarryover
	}
	if _, err := time.LoadLocation(c.Planning.Timezone); err != nil || c.Planning.Timezone == "" {
		c.Planning.Timezone = def.Planning.Timezone
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = def.HTTP.Addr
	}
}

// RemoteTimeout is the per-call deadline for remote store operations.
func (c Config) RemoteTimeout() time.Duration {
	return time.Duration(c.Remote.TimeoutMs) * time.Millisecond
}

// Location is the time zone that decides which calendar day "today" is.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Planning.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

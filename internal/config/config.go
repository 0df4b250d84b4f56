package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     Server     `yaml:"server" json:"server"`
	Storage    Storage    `yaml:"storage" json:"storage"`
	Recurrence Recurrence `yaml:"recurrence" json:"recurrence"`
	Logging    Logging    `yaml:"logging" json:"logging"`
}

type Server struct {
	Addr string `yaml:"addr" json:"addr"`
	// RateLimitPerSec caps API requests per client IP; 0 disables.
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" json:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst" json:"rate_limit_burst"`
}

type Storage struct {
	// Backend: "file" | "sqlite" | "memory"
	Backend    string `yaml:"backend" json:"backend"`
	DataDir    string `yaml:"data_dir" json:"data_dir"`
	SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`
	// BusyTimeout is a duration string ("5s"); applies to sqlite only.
	BusyTimeout string `yaml:"busy_timeout" json:"busy_timeout"`
}

// BusyTimeoutDuration parses the busy timeout, falling back to the
// default on empty or malformed values.
func (s Storage) BusyTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s.BusyTimeout))
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

type Recurrence struct {
	// SweepSchedule is a cron spec or descriptor for the periodic
	// materialization sweep.
	SweepSchedule string `yaml:"sweep_schedule" json:"sweep_schedule"`
	SweepOnStart  bool   `yaml:"sweep_on_start" json:"sweep_on_start"`
	Timezone      string `yaml:"timezone" json:"timezone"`
	// PreviewMax caps occurrence previews served by the API.
	PreviewMax int `yaml:"preview_max" json:"preview_max"`
}

type Logging struct {
	Level   string `yaml:"level" json:"level"`
	Console bool   `yaml:"console" json:"console"`
}

func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8484"
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 20
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/planner.db"
	}
	if c.Storage.BusyTimeout == "" {
		c.Storage.BusyTimeout = "5s"
	}
	if c.Recurrence.SweepSchedule == "" {
		c.Recurrence.SweepSchedule = "@hourly"
	}
	if c.Recurrence.PreviewMax <= 0 {
		c.Recurrence.PreviewMax = 10
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadOrDefault reads the config file when it exists and falls back to
// defaults when it does not.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if os.IsNotExist(err) {
		return Default(), nil
	}
	return nil, err
}

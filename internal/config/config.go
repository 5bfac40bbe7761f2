package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Import    ImportConfig    `yaml:"import"`
	Worker    WorkerConfig    `yaml:"worker"`
	Audit     AuditConfig     `yaml:"audit"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type ImportConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	RetentionDays  int   `yaml:"retention_days"`
	Disabled       bool  `yaml:"disabled"`
}

// Retention is the job/artifact retention window.
func (i ImportConfig) Retention() time.Duration {
	return time.Duration(i.RetentionDays) * 24 * time.Hour
}

type WorkerConfig struct {
	BatchSize     int    `yaml:"batch_size"`
	LeaseSeconds  int    `yaml:"lease_seconds"`
	PollSeconds   int    `yaml:"poll_seconds"`
	SweepSchedule string `yaml:"sweep_schedule"`
}

// Lease is how long a claimed job stays owned before it is reclaimable.
func (w WorkerConfig) Lease() time.Duration {
	return time.Duration(w.LeaseSeconds) * time.Second
}

// PollInterval is the pause between claim cycles.
func (w WorkerConfig) PollInterval() time.Duration {
	return time.Duration(w.PollSeconds) * time.Second
}

type AuditConfig struct {
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix PLANLIFT_ and underscore-separated paths:
//
//	PLANLIFT_SERVER_HOST, PLANLIFT_SERVER_PORT,
//	PLANLIFT_DB_HOST, PLANLIFT_DB_PORT, PLANLIFT_DB_NAME,
//	PLANLIFT_DB_USER, PLANLIFT_DB_PASSWORD, PLANLIFT_DB_SSLMODE,
//	PLANLIFT_AUTH_API_KEY, PLANLIFT_IMPORT_DISABLED
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PLANLIFT_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PLANLIFT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PLANLIFT_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("PLANLIFT_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("PLANLIFT_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("PLANLIFT_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("PLANLIFT_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("PLANLIFT_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("PLANLIFT_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("PLANLIFT_IMPORT_DISABLED"); v != "" {
		if disabled, err := strconv.ParseBool(v); err == nil {
			cfg.Import.Disabled = disabled
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Import.MaxUploadBytes == 0 {
		cfg.Import.MaxUploadBytes = 10 << 20
	}
	if cfg.Import.RetentionDays == 0 {
		cfg.Import.RetentionDays = 14
	}
	if cfg.Worker.BatchSize == 0 {
		cfg.Worker.BatchSize = 10
	}
	if cfg.Worker.LeaseSeconds == 0 {
		cfg.Worker.LeaseSeconds = 120
	}
	if cfg.Worker.PollSeconds == 0 {
		cfg.Worker.PollSeconds = 2
	}
	if cfg.Worker.SweepSchedule == "" {
		cfg.Worker.SweepSchedule = "@hourly"
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "planlift"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if len(c.Audit.KafkaBrokers) > 0 && c.Audit.KafkaTopic == "" {
		return fmt.Errorf("audit.kafka_topic is required when brokers are set")
	}
	return nil
}

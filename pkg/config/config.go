// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Share, Index, Search, Extraction, Postgres, Kafka, Redis).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Share      ShareConfig      `yaml:"share"`
	Index      IndexConfig      `yaml:"index"`
	Search     SearchConfig     `yaml:"search"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// ShareConfig describes the photo share mount that gets indexed.
type ShareConfig struct {
	RootPath   string   `yaml:"rootPath"`
	Extensions []string `yaml:"extensions"`
}

// IndexConfig controls the background index rebuild schedule, the warm-start
// snapshot file, and the on-demand rebuild cooldown.
type IndexConfig struct {
	RebuildInterval time.Duration `yaml:"rebuildInterval"`
	SnapshotFile    string        `yaml:"snapshotFile"`
	SynonymFile     string        `yaml:"synonymFile"`
	RebuildCooldown time.Duration `yaml:"rebuildCooldown"`
}

// SearchConfig controls per-keyword result selection and delivery size hints.
type SearchConfig struct {
	ResultsPerKeyword   int   `yaml:"resultsPerKeyword"`
	BroadQueryThreshold int   `yaml:"broadQueryThreshold"`
	MaxPhotoBytes       int64 `yaml:"maxPhotoBytes"`
	MaxDocumentBytes    int64 `yaml:"maxDocumentBytes"`
}

// ExtractionConfig points at the external keyword-extraction service.
type ExtractionConfig struct {
	URL      string        `yaml:"url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// PostgresConfig holds PostgreSQL connection parameters for the query and
// feedback log.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker settings for query analytics events.
type KafkaConfig struct {
	Brokers          []string `yaml:"brokers"`
	QueryEventsTopic string   `yaml:"queryEventsTopic"`
}

// RedisConfig holds Redis connection parameters for the extraction cache and
// rebuild cooldowns.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// DefaultExtensions is the image extension allow-list used when the config
// file does not override it. Matching is case-insensitive.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".bmp", ".tif"}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if cfg.Share.RootPath == "" {
		return nil, fmt.Errorf("share.rootPath is required (or set PI_SHARE_ROOT)")
	}
	return cfg, nil
}

// defaultConfig returns a Config with production-ready defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Share: ShareConfig{
			Extensions: DefaultExtensions,
		},
		Index: IndexConfig{
			RebuildInterval: 10 * time.Minute,
			SnapshotFile:    "index.json",
			RebuildCooldown: 60 * time.Second,
		},
		Search: SearchConfig{
			ResultsPerKeyword:   5,
			BroadQueryThreshold: 50,
			MaxPhotoBytes:       10 << 20,
			MaxDocumentBytes:    50 << 20,
		},
		Extraction: ExtractionConfig{
			Timeout:  15 * time.Second,
			CacheTTL: 10 * time.Minute,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "photoindex",
			User:            "photoindex",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:          []string{"localhost:9092"},
			QueryEventsTopic: "photo-query-events",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads PI_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PI_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PI_SHARE_ROOT"); v != "" {
		cfg.Share.RootPath = v
	}
	if v := os.Getenv("PI_INDEX_REBUILD_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Index.RebuildInterval = d
		}
	}
	if v := os.Getenv("PI_INDEX_SNAPSHOT_FILE"); v != "" {
		cfg.Index.SnapshotFile = v
	}
	if v := os.Getenv("PI_SEARCH_RESULTS_PER_KEYWORD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Search.ResultsPerKeyword = n
		}
	}
	if v := os.Getenv("PI_EXTRACTION_URL"); v != "" {
		cfg.Extraction.URL = v
	}
	if v := os.Getenv("PI_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("PI_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("PI_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("PI_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("PI_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("PI_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("PI_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("PI_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("PI_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PI_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PI_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

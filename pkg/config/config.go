// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Binning, Catalogs, Output, Postgres, Kafka, Redis, Worker,
// Logging, Metrics) and resolves per-axis bin-edge specifications into
// explicit edge sequences.
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
	Binning  BinningConfig  `yaml:"binning"`
	Catalogs CatalogsConfig `yaml:"catalogs"`
	Output   OutputConfig   `yaml:"output"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Worker   WorkerConfig   `yaml:"worker"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AxisConfig describes the binning of one axis. Either Edges is given
// explicitly, or a uniform grid is derived from Min/Max/Bins. Explicit edges
// win when both are present.
type AxisConfig struct {
	Edges []float64 `yaml:"edges"`
	Min   float64   `yaml:"min"`
	Max   float64   `yaml:"max"`
	Bins  int       `yaml:"bins"`
}

// Resolve returns the explicit edge sequence for the axis.
func (a AxisConfig) Resolve() ([]float64, error) {
	if len(a.Edges) > 0 {
		return a.Edges, nil
	}
	if a.Bins <= 0 {
		return nil, fmt.Errorf("axis needs explicit edges or bins > 0, got bins=%d", a.Bins)
	}
	if a.Max <= a.Min {
		return nil, fmt.Errorf("axis needs max > min, got [%g, %g]", a.Min, a.Max)
	}
	edges := make([]float64, a.Bins+1)
	width := (a.Max - a.Min) / float64(a.Bins)
	for i := range edges {
		edges[i] = a.Min + float64(i)*width
	}
	// Pin the last edge so the top of the range is not lost to rounding.
	edges[a.Bins] = a.Max
	return edges, nil
}

// BinningConfig holds the three axis configurations. RA and Dec compose the
// angular grid applied identically to both catalogs.
type BinningConfig struct {
	Z   AxisConfig `yaml:"z"`
	RA  AxisConfig `yaml:"ra"`
	Dec AxisConfig `yaml:"dec"`
}

// ColumnMapConfig maps logical catalog fields to source column names. WeightZ
// and WeightNoZ fall back to Weight when left empty.
type ColumnMapConfig struct {
	RA        string `yaml:"ra"`
	Dec       string `yaml:"dec"`
	Z         string `yaml:"z"`
	Weight    string `yaml:"weight"`
	WeightZ   string `yaml:"weightZ"`
	WeightNoZ string `yaml:"weightNoZ"`
}

// CatalogSourceConfig describes where one catalog is loaded from.
type CatalogSourceConfig struct {
	Source  string          `yaml:"source"` // "csv" or "postgres"
	Path    string          `yaml:"path"`   // csv file path
	Table   string          `yaml:"table"`  // postgres table name
	Columns ColumnMapConfig `yaml:"columns"`
}

// CatalogsConfig holds the random and observed catalog sources.
type CatalogsConfig struct {
	Random   CatalogSourceConfig `yaml:"random"`
	Observed CatalogSourceConfig `yaml:"observed"`
}

// OutputConfig controls where the result container is written.
type OutputConfig struct {
	Path      string `yaml:"path"`
	Overwrite bool   `yaml:"overwrite"`
}

// PostgresConfig holds PostgreSQL connection parameters.
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

// KafkaConfig holds Kafka broker and topic settings for the job worker.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	Jobs        string `yaml:"jobs"`
	Completions string `yaml:"completions"`
}

// RedisConfig holds Redis connection parameters for the job status store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// WorkerConfig controls the job worker's HTTP port and job bookkeeping.
type WorkerConfig struct {
	Port            int           `yaml:"port"`
	JobTTL          time.Duration `yaml:"jobTTL"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
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

// ValidationError holds per-field configuration failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	return strings.Join(parts, "; ")
}

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
	return cfg, nil
}

// Validate checks the catalog and output sections. Binning is validated
// separately when the axes are resolved into edges.
func (c *Config) Validate() error {
	errs := make(map[string]string)
	checkSource := func(name string, s CatalogSourceConfig) {
		switch s.Source {
		case "csv":
			if s.Path == "" {
				errs[name+".path"] = "csv source needs a file path"
			}
		case "postgres":
			if s.Table == "" {
				errs[name+".table"] = "postgres source needs a table name"
			}
		default:
			errs[name+".source"] = fmt.Sprintf("unknown source %q, want csv or postgres", s.Source)
		}
	}
	checkSource("catalogs.random", c.Catalogs.Random)
	checkSource("catalogs.observed", c.Catalogs.Observed)
	if c.Output.Path == "" {
		errs["output.path"] = "output path is required"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Catalogs: CatalogsConfig{
			Random:   CatalogSourceConfig{Source: "csv"},
			Observed: CatalogSourceConfig{Source: "csv"},
		},
		Output: OutputConfig{
			Path: "preprocess.ckt",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "corrkit",
			User:            "corrkit",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "corrkit-workers",
			Topics: KafkaTopics{
				Jobs:        "preprocess-jobs",
				Completions: "preprocess-complete",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
		},
		Worker: WorkerConfig{
			Port:            8080,
			JobTTL:          24 * time.Hour,
			ShutdownTimeout: 15 * time.Second,
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

// applyEnvOverrides reads CK_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CK_OUTPUT_PATH"); v != "" {
		cfg.Output.Path = v
	}
	if v := os.Getenv("CK_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("CK_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("CK_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("CK_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("CK_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("CK_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("CK_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CK_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CK_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CK_WORKER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Worker.Port = port
		}
	}
	if v := os.Getenv("CK_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CK_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CK_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	SeriesCSV        = "csv"
	SeriesSQLite     = "sqlite"
	SeriesClickHouse = "clickhouse"

	StateFile  = "file"
	StateRedis = "redis"

	SequenceNative = "native"
	SequenceRemote = "remote"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8000"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Log struct {
		Level      string `yaml:"level" default:"info"`
		Format     string `yaml:"format" default:"json"`
		Output     string `yaml:"output" default:"stdout"`
		MaxSizeMB  int    `yaml:"max_size_mb" default:"100"`
		MaxAgeDays int    `yaml:"max_age_days" default:"7"`
		Compress   bool   `yaml:"compress" default:"true"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Storage struct {
		SeriesBackend string `yaml:"series_backend" default:"csv"`
		StateBackend  string `yaml:"state_backend" default:"file"`
		// DatasetPattern is a fmt pattern taking the lower-case symbol.
		DatasetPattern string `yaml:"dataset_pattern" default:"dataset/%s_Feb.csv"`
		StateDir       string `yaml:"state_dir" default:"models/arima"`
	} `yaml:"storage"`
	SQLite struct {
		Path string `yaml:"path" default:"data/stockx.db"`
	} `yaml:"sqlite"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"stockx"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Addr      string `yaml:"addr" default:"localhost:6379"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		KeyPrefix string `yaml:"key_prefix" default:"stockx:arima:"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled           bool     `yaml:"enabled"`
		Brokers           []string `yaml:"brokers"`
		ObservationsTopic string   `yaml:"observations_topic" default:"stockx.observations"`
		PredictionsTopic  string   `yaml:"predictions_topic" default:"stockx.predictions"`
		RequiredAcks      int      `yaml:"required_acks" default:"-1"`
		Compression       string   `yaml:"compression" default:"snappy"`
		Producer          struct {
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string `yaml:"group_id" default:"stockx-predictor"`
			Workers    int    `yaml:"workers" default:"4"`
			BufferSize int    `yaml:"buffer_size" default:"256"`
			DLQTopic   string `yaml:"dlq_topic" default:"stockx.observations.dlq"`
			MinBytes   int    `yaml:"min_bytes" default:"1"`
			MaxBytes   int    `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Sequence struct {
		Backend   string        `yaml:"backend" default:"native"`
		ServerURL string        `yaml:"server_url"`
		Timeout   time.Duration `yaml:"timeout" default:"3s"`
	} `yaml:"sequence"`
	Instruments []Instrument `yaml:"instruments"`
}

// Instrument is one configured symbol with its model artifacts.
type Instrument struct {
	Symbol       string            `yaml:"symbol"`
	Window       int               `yaml:"window"`
	Features     []string          `yaml:"features"`
	Target       string            `yaml:"target" default:"close"`
	Derivations  map[string]string `yaml:"derivations"`
	Dataset      string            `yaml:"dataset"`
	Model        string            `yaml:"model"`
	Scaler       string            `yaml:"scaler"`
	TargetScaler string            `yaml:"target_scaler"`
	State        string            `yaml:"state"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for i := range c.Instruments {
		if err := defaults.Set(&c.Instruments[i]); err != nil {
			return nil, fmt.Errorf("instrument %d defaults: %w", i, err)
		}
		c.Instruments[i].Symbol = strings.ToLower(strings.TrimSpace(c.Instruments[i].Symbol))
		if len(c.Instruments[i].Features) == 0 {
			c.Instruments[i].Features = []string{"open", "high", "low", "close", "volume"}
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("STOCKX_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("SERIES_BACKEND"); v != "" {
		c.Storage.SeriesBackend = v
	}
	if v := os.Getenv("STATE_BACKEND"); v != "" {
		c.Storage.StateBackend = v
	}
	if v := os.Getenv("SEQUENCE_BACKEND"); v != "" {
		c.Sequence.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Storage.SeriesBackend {
	case SeriesCSV, SeriesSQLite, SeriesClickHouse:
	default:
		return fmt.Errorf("storage.series_backend must be 'csv', 'sqlite' or 'clickhouse', got '%s'", c.Storage.SeriesBackend)
	}
	switch c.Storage.StateBackend {
	case StateFile, StateRedis:
	default:
		return fmt.Errorf("storage.state_backend must be 'file' or 'redis', got '%s'", c.Storage.StateBackend)
	}
	switch c.Sequence.Backend {
	case SequenceNative:
	case SequenceRemote:
		if c.Sequence.ServerURL == "" {
			return fmt.Errorf("sequence.server_url is required for the remote backend")
		}
	default:
		return fmt.Errorf("sequence.backend must be 'native' or 'remote', got '%s'", c.Sequence.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("instruments cannot be empty")
	}

	seen := make(map[string]bool, len(c.Instruments))
	for _, in := range c.Instruments {
		if in.Symbol == "" {
			return fmt.Errorf("instrument symbol is required")
		}
		if seen[in.Symbol] {
			return fmt.Errorf("instrument %s configured twice", in.Symbol)
		}
		seen[in.Symbol] = true
		if in.Window <= 0 {
			return fmt.Errorf("instrument %s: window must be positive", in.Symbol)
		}
		if !contains(in.Features, in.Target) {
			return fmt.Errorf("instrument %s: target %q is not a feature", in.Symbol, in.Target)
		}
		if c.Sequence.Backend == SequenceNative && in.Model == "" {
			return fmt.Errorf("instrument %s: model is required", in.Symbol)
		}
		if in.Scaler == "" {
			return fmt.Errorf("instrument %s: scaler is required", in.Symbol)
		}
	}
	return nil
}

// DatasetPath returns the csv dataset location for an instrument.
func (c *Config) DatasetPath(in Instrument) string {
	if in.Dataset != "" {
		return in.Dataset
	}
	return fmt.Sprintf(c.Storage.DatasetPattern, in.Symbol)
}

// StatePath returns the statistical state file for an instrument.
func (c *Config) StatePath(in Instrument) string {
	if in.State != "" {
		return in.State
	}
	return fmt.Sprintf("%s/arima_%s.msgpack", strings.TrimRight(c.Storage.StateDir, "/"), in.Symbol)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

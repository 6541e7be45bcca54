package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// HTTP Server
	Port           string        `envconfig:"PORT" default:"8081"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	RateLimit      int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	// Backend selection
	DataBackend   string `envconfig:"DATA_BACKEND" default:"memory"`
	DataDirectory string `envconfig:"DATA_DIRECTORY" default:"./data"`
	SQLiteDBPath  string `envconfig:"SQLITE_DB_PATH" default:"./data/pos.db"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPrefix   string `envconfig:"REDIS_PREFIX" default:"pos"`

	// Persistence queue
	FlushInterval  time.Duration `envconfig:"FLUSH_INTERVAL" default:"500ms"`
	FlushBatchSize int           `envconfig:"FLUSH_BATCH_SIZE" default:"50"`
	FlushBuffer    int           `envconfig:"FLUSH_BUFFER" default:"1024"`

	// Point of sale policy
	AllowConcurrentRegisters bool   `envconfig:"POS_ALLOW_CONCURRENT_REGISTERS" default:"false"`
	Timezone                 string `envconfig:"POS_TIMEZONE" default:"America/Bogota"`

	// Logging
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// AMQP, optional for the server
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"pos"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" default:"ledger_events"`

	// Worker
	ReplicaDBPath       string        `envconfig:"REPLICA_DB_PATH" default:"./data/replica.db"`
	ExportBatchSize     int           `envconfig:"EXPORT_BATCH_SIZE" default:"10"`
	ExportInterval      time.Duration `envconfig:"EXPORT_INTERVAL" default:"30s"`
	GoogleSpreadsheetID string        `envconfig:"GOOGLE_SPREADSHEET_ID"`
	GoogleClosingsSheet string        `envconfig:"GOOGLE_CLOSINGS_SHEET_NAME" default:"Cierres"`
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Location resolves Timezone. Validate rejects unknown zones.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite", "redis"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "redis" && c.RedisAddr == "" {
		errors = append(errors, "Redis address cannot be empty when using redis backend")
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate persistence queue
	if c.FlushInterval < 10*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid flush interval %v: must be at least 10ms", c.FlushInterval))
	}
	if c.FlushBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid flush batch size %d: must be at least 1", c.FlushBatchSize))
	}
	if c.FlushBuffer < c.FlushBatchSize {
		errors = append(errors, fmt.Sprintf("invalid flush buffer %d: must be at least the batch size", c.FlushBuffer))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimit))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker checks the settings the replica worker needs on top of
// Validate.
func (c *Config) ValidateWorker() error {
	var errors []string

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required by the worker")
	}
	if c.ReplicaDBPath == "" {
		errors = append(errors, "replica database path cannot be empty")
	}
	if c.ExportBatchSize < 1 || c.ExportBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be between 1 and 1000", c.ExportBatchSize))
	}
	if c.ExportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 second", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("worker configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store backends
const (
	StoreBackendMongo  = "mongo"
	StoreBackendRedis  = "redis"
	StoreBackendMemory = "memory"
)

// Event bus backends
const (
	EventBackendMemory = "memory"
	EventBackendRedis  = "redis"
)

// Config holds all configuration for the introductions gateway
type Config struct {
	// Server configuration
	Address  string `env:"AXUM_ADDRESS,required,notEmpty"`
	Port     int    `env:"PORT,required,notEmpty"`
	GRPCPort int    `env:"GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Store configuration
	Store StoreConfig

	// Mongo configuration
	Mongo MongoConfig

	// Redis configuration
	Redis RedisConfig

	// Events configuration
	Events EventsConfig

	// Tracing configuration
	Tracing TracingConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// StoreConfig selects and bounds the store gateway
type StoreConfig struct {
	Backend             string        `env:"STORE_BACKEND" envDefault:"mongo"`
	Collection          string        `env:"STORE_COLLECTION" envDefault:"introductions"`
	OperationTimeout    time.Duration `env:"STORE_OPERATION_TIMEOUT" envDefault:"5s"`
	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL" envDefault:"30s"`
}

// MongoConfig holds MongoDB connection configuration
type MongoConfig struct {
	URI      string `env:"MONGO_DB_URI"`
	Database string `env:"MONGO_DB_NAME" envDefault:"personal"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"0"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// EventsConfig holds event bus configuration
type EventsConfig struct {
	Backend       string `env:"EVENT_BACKEND" envDefault:"memory"`
	Topic         string `env:"EVENT_TOPIC" envDefault:"introduction.events"`
	ConsumerGroup string `env:"EVENT_CONSUMER_GROUP" envDefault:"introductions"`
	StreamMaxLen  int64  `env:"EVENT_STREAM_MAX_LEN" envDefault:"10000"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	// Collector URL such as http://collector:4318; empty disables tracing
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"introductions"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ReadHeaderTimeout time.Duration `env:"TIMEOUT_READ_HEADER" envDefault:"10s"`
	ShutdownTimeout   time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Port)
	}
	// 0 disables the gRPC health server
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	switch c.Store.Backend {
	case StoreBackendMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGO_DB_URI is required for the mongo store backend")
		}
		if c.Mongo.Database == "" {
			return fmt.Errorf("mongo database name is required")
		}
	case StoreBackendRedis, StoreBackendMemory:
	default:
		return fmt.Errorf("unsupported store backend: %s", c.Store.Backend)
	}

	if c.Store.Collection == "" {
		return fmt.Errorf("store collection is required")
	}
	if c.Store.OperationTimeout <= 0 {
		return fmt.Errorf("store operation timeout must be positive")
	}
	if c.Store.HealthCheckInterval <= 0 {
		return fmt.Errorf("health check interval must be positive")
	}

	switch c.Events.Backend {
	case EventBackendMemory, EventBackendRedis:
	default:
		return fmt.Errorf("unsupported event backend: %s", c.Events.Backend)
	}
	if c.Events.StreamMaxLen < 0 {
		return fmt.Errorf("event stream max length must not be negative")
	}

	if c.UsesRedis() && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// UsesRedis reports whether any component needs a Redis client
func (c *Config) UsesRedis() bool {
	return c.Store.Backend == StoreBackendRedis || c.Events.Backend == EventBackendRedis
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.GRPCPort))
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("AXUM_ADDRESS", "127.0.0.1")
	t.Setenv("PORT", "3000")
	t.Setenv("MONGO_DB_URI", "mongodb://localhost:27017")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:3000", cfg.GetHTTPAddr())
	assert.Equal(t, "127.0.0.1:9090", cfg.GetGRPCAddr())
	assert.Equal(t, StoreBackendMongo, cfg.Store.Backend)
	assert.Equal(t, "introductions", cfg.Store.Collection)
	assert.Equal(t, 5*time.Second, cfg.Store.OperationTimeout)
	assert.Equal(t, "personal", cfg.Mongo.Database)
	assert.Equal(t, EventBackendMemory, cfg.Events.Backend)
	assert.EqualValues(t, 10000, cfg.Events.StreamMaxLen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.UsesRedis())
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"address", "AXUM_ADDRESS"},
		{"port", "PORT"},
		{"mongo uri", "MONGO_DB_URI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MemoryBackendNeedsNoURI(t *testing.T) {
	setRequired(t)
	t.Setenv("MONGO_DB_URI", "")
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreBackendMemory, cfg.Store.Backend)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Address:  "0.0.0.0",
			Port:     3000,
			GRPCPort: 9090,
			LogLevel: "info",
			Store: StoreConfig{
				Backend:             StoreBackendRedis,
				Collection:          "introductions",
				OperationTimeout:    time.Second,
				HealthCheckInterval: time.Second,
			},
			Redis:  RedisConfig{Addr: "localhost:6379"},
			Events: EventsConfig{Backend: EventBackendRedis},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"grpc disabled", func(c *Config) { c.GRPCPort = 0 }, false},
		{"port out of range", func(c *Config) { c.Port = 70000 }, true},
		{"unknown store backend", func(c *Config) { c.Store.Backend = "cassandra" }, true},
		{"unknown event backend", func(c *Config) { c.Events.Backend = "kafka" }, true},
		{"negative stream length", func(c *Config) { c.Events.StreamMaxLen = -1 }, true},
		{"zero timeout", func(c *Config) { c.Store.OperationTimeout = 0 }, true},
		{"redis without addr", func(c *Config) { c.Redis.Addr = "" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, true},
		{"empty collection", func(c *Config) { c.Store.Collection = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

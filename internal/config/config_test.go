package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Chain: ChainConfig{
			Transport:  "grpc",
			Endpoint:   "localhost:9090",
			MaxRetries: 3,
			Timeout:    30 * time.Second,
		},
		Sink:  SinkConfig{Kind: "log"},
		Watch: WatchConfig{PollInterval: 5 * time.Second},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown transport",
			mutate:  func(c *Config) { c.Chain.Transport = "carrier-pigeon" },
			wantErr: "unknown chain transport",
		},
		{
			name:    "missing endpoint",
			mutate:  func(c *Config) { c.Chain.Endpoint = "" },
			wantErr: "chain endpoint is required",
		},
		{
			name:    "unknown sink",
			mutate:  func(c *Config) { c.Sink.Kind = "kafka" },
			wantErr: "unknown sink",
		},
		{
			name:    "postgres sink without dsn",
			mutate:  func(c *Config) { c.Sink.Kind = "postgres" },
			wantErr: "postgres sink requires a DSN",
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Watch.PollInterval = 0 },
			wantErr: "poll interval must be positive",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromViper(t *testing.T) {
	v := viper.New()
	v.Set("chain-transport", "rest")
	v.Set("chain-endpoint", "http://localhost:8080")
	v.Set("chain-max-retries", 5)
	v.Set("chain-timeout", "10s")
	v.Set("sink", "postgres")
	v.Set("postgres-dsn", "postgres://tracker@localhost/tracker")
	v.Set("poll-interval", "2s")
	v.Set("metrics-address", ":9000")

	cfg := FromViper(v)
	assert.Equal(t, "rest", cfg.Chain.Transport)
	assert.Equal(t, "http://localhost:8080", cfg.Chain.Endpoint)
	assert.Equal(t, uint(5), cfg.Chain.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.Chain.Timeout)
	assert.Equal(t, "postgres", cfg.Sink.Kind)
	assert.Equal(t, 2*time.Second, cfg.Watch.PollInterval)
	assert.Equal(t, ":9000", cfg.Watch.MetricsAddress)
	assert.NoError(t, cfg.Validate())
}

package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ChainConfig selects and tunes the chain-data client.
type ChainConfig struct {
	Transport  string // "grpc" or "rest"
	Endpoint   string
	Insecure   bool
	MaxRetries uint
	Timeout    time.Duration
}

// SinkConfig selects the notification sink.
type SinkConfig struct {
	Kind        string // "log" or "postgres"
	PostgresDSN string
}

// WatchConfig tunes the live follower.
type WatchConfig struct {
	PollInterval   time.Duration
	MetricsAddress string // empty disables the metrics endpoint
}

// Config is the full runtime configuration of trackerd.
type Config struct {
	Chain ChainConfig
	Sink  SinkConfig
	Watch WatchConfig
}

// FromViper reads the configuration from bound flags and environment.
func FromViper(v *viper.Viper) Config {
	return Config{
		Chain: ChainConfig{
			Transport:  v.GetString("chain-transport"),
			Endpoint:   v.GetString("chain-endpoint"),
			Insecure:   v.GetBool("chain-insecure"),
			MaxRetries: v.GetUint("chain-max-retries"),
			Timeout:    v.GetDuration("chain-timeout"),
		},
		Sink: SinkConfig{
			Kind:        v.GetString("sink"),
			PostgresDSN: v.GetString("postgres-dsn"),
		},
		Watch: WatchConfig{
			PollInterval:   v.GetDuration("poll-interval"),
			MetricsAddress: v.GetString("metrics-address"),
		},
	}
}

// Validate rejects chain configurations the clients cannot act on.
func (c ChainConfig) Validate() error {
	switch c.Transport {
	case "grpc", "rest":
	default:
		return fmt.Errorf("unknown chain transport %q", c.Transport)
	}
	if c.Endpoint == "" {
		return fmt.Errorf("chain endpoint is required")
	}
	return nil
}

// Validate rejects sink configurations the commands cannot act on.
func (c SinkConfig) Validate() error {
	switch c.Kind {
	case "log":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres sink requires a DSN")
		}
	default:
		return fmt.Errorf("unknown sink %q", c.Kind)
	}
	return nil
}

// Validate rejects follower configurations the watch loop cannot act on.
func (c WatchConfig) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	return nil
}

// Validate checks the full configuration.
func (c Config) Validate() error {
	if err := c.Chain.Validate(); err != nil {
		return err
	}
	if err := c.Sink.Validate(); err != nil {
		return err
	}
	return c.Watch.Validate()
}

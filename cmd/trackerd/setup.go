package trackerd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/manifest-network/tracker/internal/chain"
	"github.com/manifest-network/tracker/internal/client"
	"github.com/manifest-network/tracker/internal/config"
	"github.com/manifest-network/tracker/internal/sink"
)

// buildChain creates the configured chain-data client. The returned closer
// is nil for transports without a connection to tear down.
func buildChain(cfg config.ChainConfig) (chain.API, chain.HeadSource, io.Closer, error) {
	switch cfg.Transport {
	case "grpc":
		c, err := client.Dial(cfg.Endpoint, cfg.Insecure)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to %s: %w", cfg.Endpoint, err)
		}
		g := chain.NewGRPC(c, cfg.MaxRetries)
		return g, g, c, nil
	case "rest":
		r := chain.NewREST(cfg.Endpoint, cfg.Timeout, cfg.MaxRetries)
		return r, r, nil, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown chain transport %q", cfg.Transport)
	}
}

func buildSink(ctx context.Context, cfg config.SinkConfig) (sink.Sink, error) {
	switch cfg.Kind {
	case "log":
		return sink.NewLog(slog.Default()), nil
	case "postgres":
		s, err := sink.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres sink: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown sink %q", cfg.Kind)
	}
}

package trackerd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/manifest-network/tracker/internal/chain"
	"github.com/manifest-network/tracker/internal/config"
	"github.com/manifest-network/tracker/internal/follower"
	"github.com/manifest-network/tracker/internal/metrics"
	"github.com/manifest-network/tracker/internal/reconciler"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the chain live and reconcile transaction lifecycles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromViper(viper.GetViper())
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		api, src, closer, err := buildChain(cfg.Chain)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close()
		}

		out, err := buildSink(ctx, cfg.Sink)
		if err != nil {
			return err
		}
		defer out.Close()

		reg := prometheus.NewRegistry()
		met := metrics.New(reg)
		rec := reconciler.New(
			chain.NewCached(api),
			out,
			reconciler.WithMetrics(met),
		)

		eg, ctx := errgroup.WithContext(ctx)

		if cfg.Watch.MetricsAddress != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			srv := &http.Server{Addr: cfg.Watch.MetricsAddress, Handler: mux}

			eg.Go(func() error {
				slog.Info("Serving metrics", "address", cfg.Watch.MetricsAddress)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			eg.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
		}

		eg.Go(func() error {
			return follower.Watch(ctx, src, rec, cfg.Watch.PollInterval, slog.Default())
		})

		return eg.Wait()
	},
}

func init() {
	watchCmd.Flags().Duration("poll-interval", 5*time.Second, "Chain polling interval")
	watchCmd.Flags().String("metrics-address", ":2112", "Prometheus listen address (empty to disable)")
	if err := viper.BindPFlags(watchCmd.Flags()); err != nil {
		panic(err)
	}
}

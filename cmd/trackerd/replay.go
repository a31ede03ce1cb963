package trackerd

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/tracker/internal/chain"
	"github.com/manifest-network/tracker/internal/config"
	"github.com/manifest-network/tracker/internal/follower"
	"github.com/manifest-network/tracker/internal/reconciler"
)

var replayCmd = &cobra.Command{
	Use:   "replay <journal>",
	Short: "Reconcile a recorded event journal",
	Long: `Replay applies a newline-delimited JSON journal of chain events
(new_transaction, new_block, finalized) in file order, issuing the same
chain-data lookups and notifications the live follower would.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromViper(viper.GetViper())
		if err := cfg.Chain.Validate(); err != nil {
			return err
		}
		if err := cfg.Sink.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		api, _, closer, err := buildChain(cfg.Chain)
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

		rec := reconciler.New(chain.NewCached(api), out)
		return follower.Replay(ctx, args[0], rec, slog.Default())
	},
}

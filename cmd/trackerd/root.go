// Package trackerd wires the tracker's commands, flags, and environment.
package trackerd

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "trackerd",
	Short: "Track transaction lifecycles across a chain event stream",
	Long: `trackerd follows a chain-data service, correlates new transactions,
new blocks, and finalizations, and reports exactly once when each
transaction settles and when its settling block is finalized.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(viper.GetString("log-level"))
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("log-level", "info", "Log level (debug|info|warn|error)")
	pf.String("chain-transport", "grpc", "Chain-data transport (grpc|rest)")
	pf.String("chain-endpoint", "", "Chain-data service address")
	pf.Bool("chain-insecure", false, "Disable TLS towards the chain-data service")
	pf.Uint("chain-max-retries", 3, "Retries per chain-data lookup")
	pf.Duration("chain-timeout", 30*time.Second, "Per-request timeout for the REST transport")
	pf.String("sink", "log", "Notification sink (log|postgres)")
	pf.String("postgres-dsn", "", "Postgres DSN for the postgres sink")

	if err := viper.BindPFlags(pf); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("TRACKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(replayCmd)
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

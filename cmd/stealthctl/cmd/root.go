package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shakesco/shakesco-private/internal/config"
)

var (
	cfg     *config.Config
	logger  *slog.Logger
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "stealthctl",
	Short: "Stealth address protocol client",
	Long: `stealthctl derives stealth keys from a wallet signature, publishes
them to the on-chain key registry, prepares stealth transfers, and
scans announcements for incoming funds.

Configuration is read from stealthctl.yaml (current directory,
~/.config/stealthctl, or /etc/stealthctl) and STEALTH_* environment
variables. Flags override both.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		var err error
		cfg, err = config.Load()
		return err
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("rpc", "", "chain RPC endpoint (overrides config)")
	rootCmd.PersistentFlags().String("registry", "", "key registry contract address (overrides config)")
	rootCmd.PersistentFlags().String("announcer", "", "announcer contract address (overrides config)")
}

// chainSettings resolves the chain connection settings, letting flags
// override the loaded config.
func chainSettings(cmd *cobra.Command) config.Chain {
	chain := cfg.Chain
	if v, _ := cmd.Flags().GetString("rpc"); v != "" {
		chain.RPCURL = v
	}
	if v, _ := cmd.Flags().GetString("registry"); v != "" {
		chain.Registry = v
	}
	if v, _ := cmd.Flags().GetString("announcer"); v != "" {
		chain.Announcer = v
	}
	return chain
}

package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "poolwatch",
		Short:        "Base pool and token event watcher",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Continuously watch a contract for transfer and swap events",
		RunE:  runWatch,
	}

	watchCmd.Flags().String("rpc", "", "Base RPC URL")
	watchCmd.Flags().String("contract", "", "watched contract address (pool or token)")
	watchCmd.Flags().Duration("poll-interval", 12*time.Second, "delay between poll cycles")
	watchCmd.Flags().Uint64("span", 1000, "maximum blocks per window")
	watchCmd.Flags().Int("max-retries", 3, "maximum retry attempts per RPC step")
	watchCmd.Flags().Duration("retry-backoff", 2*time.Second, "initial retry backoff")
	watchCmd.Flags().String("explorer-url", "", "Etherscan-family API base URL for verified ABIs")
	watchCmd.Flags().String("explorer-api-key", "", "explorer API key")
	watchCmd.Flags().String("tx-base-url", "https://basescan.org", "explorer base URL for transaction links")
	watchCmd.Flags().String("telegram-token", "", "Telegram bot token (empty disables Telegram)")
	watchCmd.Flags().String("telegram-channel", "@base_tokenbot", "Telegram channel username")
	watchCmd.Flags().Bool("telegram-dry-run", false, "log Telegram messages instead of sending")
	watchCmd.Flags().String("checkpoint", "", "checkpoint file path (empty disables file checkpointing)")
	watchCmd.Flags().String("pg-dsn", "", "Postgres DSN for event storage and scan position")
	watchCmd.Flags().String("out", "", "JSONL archive path (empty disables archiving)")
	watchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(watchCmd)

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a fixed block range once and exit",
		RunE:  runScan,
	}

	scanCmd.Flags().String("rpc", "", "Base RPC URL")
	scanCmd.Flags().String("contract", "", "watched contract address (pool or token)")
	scanCmd.Flags().Uint64("from", 0, "start block (inclusive), defaults to span blocks before to")
	scanCmd.Flags().Uint64("to", 0, "end block (inclusive), defaults to the chain head")
	scanCmd.Flags().Uint64("span", 1000, "maximum blocks per window")
	scanCmd.Flags().Int("max-retries", 3, "maximum retry attempts per RPC step")
	scanCmd.Flags().Duration("retry-backoff", 2*time.Second, "initial retry backoff")
	scanCmd.Flags().String("explorer-url", "", "Etherscan-family API base URL for verified ABIs")
	scanCmd.Flags().String("explorer-api-key", "", "explorer API key")
	scanCmd.Flags().String("tx-base-url", "https://basescan.org", "explorer base URL for transaction links")
	scanCmd.Flags().String("out", "", "JSONL archive path (empty disables archiving)")
	scanCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(scanCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

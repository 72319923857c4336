package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolwatch/internal/chain"
	"poolwatch/internal/config"
	"poolwatch/internal/notify"
	"poolwatch/internal/scanner"
	"poolwatch/internal/storage"
)

func runScan(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadScan(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.Contract) {
		return fmt.Errorf("contract address is required")
	}
	contract := common.HexToAddress(cfg.Contract)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	pipeline, err := buildPipeline(ctx, pipelineConfig{
		Contract:       contract,
		ExplorerURL:    cfg.ExplorerURL,
		ExplorerAPIKey: cfg.ExplorerAPIKey,
	}, chainClient, logger)
	if err != nil {
		return err
	}

	sink := notify.Sink(notify.NewConsoleSink(nil))
	if cfg.Out != "" {
		sink = notify.NewFanOutSink(logger, sink, storage.NewJsonlArchive(cfg.Out))
	}

	from, to, err := resolveScanRange(ctx, cfg, cmd.Flags().Changed("from"), cmd.Flags().Changed("to"), chainClient)
	if err != nil {
		return err
	}

	loop := scanner.NewLoop(scanner.LoopConfig{
		Contract: contract,
		Span:     cfg.Span,
		Retry: scanner.RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryBackoff,
			Retryable:   chain.IsRetryable,
		},
	}, chainClient, pipeline, sink, nil, logger)

	logger.Info("scan start",
		zap.String("contract", contract.Hex()),
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Uint64("span", cfg.Span),
	)

	for start := from; start <= to; {
		end := start + cfg.Span - 1
		if end > to || end < start {
			end = to
		}
		if err := loop.ScanWindow(ctx, scanner.BlockRange{From: start, To: end}); err != nil {
			return err
		}
		if end == to {
			break
		}
		start = end + 1
	}

	logger.Info("scan complete", zap.Uint64("from", from), zap.Uint64("to", to))
	return nil
}

// resolveScanRange fills the defaults: an unset to falls back to the
// chain head, an unset from to span blocks before to, clamped at
// genesis. fromSet and toSet distinguish an explicit 0 (scan from or to
// the genesis block) from an omitted flag.
func resolveScanRange(ctx context.Context, cfg config.ScanConfig, fromSet, toSet bool, chainClient *chain.Client) (uint64, uint64, error) {
	to := cfg.ToBlock
	if to == 0 && !toSet {
		latest, err := chainClient.LatestBlock(ctx)
		if err != nil {
			return 0, 0, fmt.Errorf("latest block: %w", err)
		}
		to = latest
	}

	from := cfg.FromBlock
	if from == 0 && !fromSet {
		if to > cfg.Span {
			from = to - cfg.Span
		}
	}
	if from > to {
		return 0, 0, fmt.Errorf("%w: from %d exceeds to %d", scanner.ErrInvalidRange, from, to)
	}
	return from, to, nil
}

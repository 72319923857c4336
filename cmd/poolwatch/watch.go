package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolwatch/internal/chain"
	"poolwatch/internal/config"
	"poolwatch/internal/events"
	"poolwatch/internal/explorer"
	"poolwatch/internal/notify"
	"poolwatch/internal/scanner"
	"poolwatch/internal/storage"
	"poolwatch/internal/storage/postgres"
	"poolwatch/internal/token"
)

func runWatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWatch(cfgFile, cmd.Flags())
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
	sinks := []notify.Sink{sink}

	if cfg.TelegramToken != "" {
		telegram, err := notify.NewTelegramSink(cfg.TelegramToken, cfg.TelegramChannel, cfg.TxBaseURL, cfg.TelegramDryRun, logger)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		sinks = append(sinks, telegram)
	}
	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlArchive(cfg.Out))
	}

	var position scanner.PositionStore
	if cfg.PgDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
		position = store.PositionFor(contract.Hex())
	} else if cfg.Checkpoint != "" {
		position = scanner.NewCheckpointStore(cfg.Checkpoint, cfg.CheckpointEnabled)
	}

	if len(sinks) > 1 {
		sink = notify.NewFanOutSink(logger, sinks...)
	}

	loop := scanner.NewLoop(scanner.LoopConfig{
		Contract: contract,
		Interval: cfg.PollInterval,
		Span:     cfg.Span,
		Retry: scanner.RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryBackoff,
			Retryable:   chain.IsRetryable,
		},
	}, chainClient, pipeline, sink, position, logger)

	logger.Info("watch start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("contract", contract.Hex()),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Uint64("span", cfg.Span),
		zap.Bool("telegram", cfg.TelegramToken != ""),
		zap.Bool("postgres", cfg.PgDSN != ""),
		zap.String("out", cfg.Out),
	)

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("watch stopped")
	return nil
}

type pipelineConfig struct {
	Contract       common.Address
	ExplorerURL    string
	ExplorerAPIKey string
}

// buildPipeline assembles the shared decode path: contract ABI (explorer
// first, built-in pool ABI as fallback), token metadata cache, swap
// classifier, and the log processor over them.
func buildPipeline(ctx context.Context, cfg pipelineConfig, chainClient *chain.Client, logger *zap.Logger) (*events.Pipeline, error) {
	contractABI, err := resolveContractABI(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	provider := token.NewProvider(chainClient, logger)
	cache := token.NewCache(provider)

	token0, token1, err := provider.PoolTokens(ctx, cfg.Contract)
	if err != nil {
		logger.Warn("contract is not a pool, swap classification limited to transfers",
			zap.String("contract", cfg.Contract.Hex()),
			zap.Error(err),
		)
	} else {
		logger.Info("pool pair resolved",
			zap.String("token0", token0.Hex()),
			zap.String("token1", token1.Hex()),
		)
	}

	classifier := events.NewClassifier(contractABI, logger)
	return events.NewPipeline(cfg.Contract, token0, token1, classifier, cache, logger), nil
}

func resolveContractABI(ctx context.Context, cfg pipelineConfig, logger *zap.Logger) (abi.ABI, error) {
	if cfg.ExplorerURL != "" {
		client := explorer.NewClient(cfg.ExplorerURL, cfg.ExplorerAPIKey, logger)
		fetched, err := client.FetchContractABI(ctx, cfg.Contract)
		if err == nil {
			return fetched, nil
		}
		logger.Warn("explorer abi unavailable, using built-in pool abi",
			zap.String("contract", cfg.Contract.Hex()),
			zap.Error(err),
		)
	}
	return events.PoolABI()
}

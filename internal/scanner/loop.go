package scanner

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"poolwatch/internal/model"
)

// LogSource is the ledger surface the loop polls.
type LogSource interface {
	LatestBlock(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, address common.Address, topic0 []common.Hash, fromBlock, toBlock uint64) ([]types.Log, error)
}

// Processor decodes a window's raw logs into ordered outcomes.
type Processor interface {
	Topics() []common.Hash
	Process(ctx context.Context, logs []types.Log) []model.Outcome
}

// Sink receives decoded outcomes in order.
type Sink interface {
	Notify(ctx context.Context, outcome model.Outcome) error
}

// LoopConfig holds runtime settings for the poll loop.
type LoopConfig struct {
	Contract common.Address
	Interval time.Duration
	Span     uint64
	Retry    RetryPolicy
}

// Loop scans the chain one window at a time: fetch, decode, notify,
// advance, sleep. Exactly one cycle is ever in flight and cancellation
// is sampled at the two sleep points (retry backoff and the inter-cycle
// interval), so a cancel issued mid-fetch takes effect at the next
// boundary rather than instantaneously.
type Loop struct {
	cfg      LoopConfig
	source   LogSource
	proc     Processor
	sink     Sink
	tracker  *RangeTracker
	position PositionStore
	logger   *zap.Logger
}

// NewLoop builds a poll loop. position may be nil; the scan position
// then lives only in memory.
func NewLoop(cfg LoopConfig, source LogSource, proc Processor, sink Sink, position PositionStore, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 12 * time.Second
	}
	return &Loop{
		cfg:      cfg,
		source:   source,
		proc:     proc,
		sink:     sink,
		tracker:  NewRangeTracker(cfg.Span),
		position: position,
		logger:   logger,
	}
}

// Tracker exposes the loop's range tracker for seeding and inspection.
func (l *Loop) Tracker() *RangeTracker { return l.tracker }

// Run polls until the context is cancelled. A range regression is the
// only error that stops the loop; everything else is surfaced to the
// operator and the same window is retried next cycle.
func (l *Loop) Run(ctx context.Context) error {
	if l.position != nil {
		last, ok, err := l.position.LoadPosition()
		if err != nil {
			return err
		}
		if ok {
			l.tracker.Seed(last)
			l.logger.Info("resume from persisted position", zap.Uint64("last_scanned", last))
		}
	}

	for {
		if err := l.runCycle(ctx); err != nil {
			if errors.Is(err, ErrInvalidRange) || errors.Is(err, context.Canceled) {
				return err
			}
			l.logger.Error("cycle failed, window deferred to next tick", zap.Error(err))
		}

		timer := time.NewTimer(l.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Loop) runCycle(ctx context.Context) error {
	latest, err := l.latestWithRetry(ctx)
	if err != nil {
		return err
	}

	window, err := l.tracker.NextWindow(latest)
	if err != nil {
		if errors.Is(err, ErrNoNewBlocks) {
			l.logger.Debug("chain head unchanged", zap.Uint64("latest", latest))
			return nil
		}
		return err
	}

	if err := l.ScanWindow(ctx, window); err != nil {
		return err
	}

	l.tracker.Advance(window.To)
	if l.position != nil {
		if err := l.position.SavePosition(window.To); err != nil {
			l.logger.Warn("position save failed", zap.Error(err))
		}
	}

	return nil
}

// ScanWindow fetches, decodes, and delivers one window without touching
// the scan position. The one-shot scan command uses it directly.
func (l *Loop) ScanWindow(ctx context.Context, window BlockRange) error {
	l.logger.Info("fetch logs", zap.Uint64("from", window.From), zap.Uint64("to", window.To))

	logs, err := l.fetchLogsWithRetry(ctx, window)
	if err != nil {
		return err
	}

	outcomes := l.proc.Process(ctx, logs)

	var delivered, failed int
	for _, outcome := range outcomes {
		if err := l.sink.Notify(ctx, outcome); err != nil {
			failed++
			l.logger.Warn("sink delivery failed", zap.Error(err))
			continue
		}
		delivered++
	}

	l.logger.Info("window complete",
		zap.Uint64("from", window.From),
		zap.Uint64("to", window.To),
		zap.Int("logs", len(logs)),
		zap.Int("delivered", delivered),
		zap.Int("sink_failures", failed),
	)
	return nil
}

func (l *Loop) latestWithRetry(ctx context.Context) (uint64, error) {
	var latest uint64
	err := withRetry(ctx, l.cfg.Retry, func(ctx context.Context) error {
		var err error
		latest, err = l.source.LatestBlock(ctx)
		if err != nil {
			l.logger.Warn("latest block fetch failed", zap.Error(err))
		}
		return err
	})
	return latest, err
}

func (l *Loop) fetchLogsWithRetry(ctx context.Context, window BlockRange) ([]types.Log, error) {
	var logs []types.Log
	err := withRetry(ctx, l.cfg.Retry, func(ctx context.Context) error {
		var err error
		logs, err = l.source.FilterLogs(ctx, l.cfg.Contract, l.proc.Topics(), window.From, window.To)
		if err != nil {
			l.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", window.From), zap.Uint64("to", window.To))
		}
		return err
	})
	return logs, err
}

package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"poolwatch/internal/model"
)

type fakeSource struct {
	latest      uint64
	logs        []types.Log
	latestErrs  int
	filterErrs  int
	filterCalls int
}

func (f *fakeSource) LatestBlock(context.Context) (uint64, error) {
	if f.latestErrs > 0 {
		f.latestErrs--
		return 0, errTransient
	}
	return f.latest, nil
}

func (f *fakeSource) FilterLogs(_ context.Context, _ common.Address, _ []common.Hash, from, to uint64) ([]types.Log, error) {
	f.filterCalls++
	if f.filterErrs > 0 {
		f.filterErrs--
		return nil, errTransient
	}
	var out []types.Log
	for _, log := range f.logs {
		if log.BlockNumber >= from && log.BlockNumber <= to {
			out = append(out, log)
		}
	}
	return out, nil
}

type fakeProc struct{}

func (fakeProc) Topics() []common.Hash { return nil }

func (fakeProc) Process(_ context.Context, logs []types.Log) []model.Outcome {
	outcomes := make([]model.Outcome, 0, len(logs))
	for _, log := range logs {
		outcomes = append(outcomes, model.TransferOutcome(&model.TransferEvent{
			TxHash:      log.TxHash.Hex(),
			BlockNumber: log.BlockNumber,
			LogIndex:    uint64(log.Index),
		}))
	}
	return outcomes
}

type fakeSink struct {
	outcomes []model.Outcome
	fail     bool
}

func (f *fakeSink) Notify(_ context.Context, outcome model.Outcome) error {
	if f.fail {
		return errors.New("sink down")
	}
	f.outcomes = append(f.outcomes, outcome)
	return nil
}

type memPosition struct {
	last  uint64
	saved bool
}

func (m *memPosition) LoadPosition() (uint64, bool, error) { return m.last, m.saved, nil }

func (m *memPosition) SavePosition(last uint64) error {
	m.last = last
	m.saved = true
	return nil
}

func testPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Retryable: func(error) bool { return true }}
}

func TestRunCycleDeliversWindowAndAdvances(t *testing.T) {
	source := &fakeSource{
		latest: 105,
		logs: []types.Log{
			{BlockNumber: 103, TxHash: common.HexToHash("0xabc"), Index: 0},
		},
	}
	sink := &fakeSink{}
	position := &memPosition{}

	loop := NewLoop(LoopConfig{Span: 1000, Retry: testPolicy()}, source, fakeProc{}, sink, position, zap.NewNop())
	loop.Tracker().Seed(100)

	if err := loop.runCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sink.outcomes) != 1 {
		t.Fatalf("outcomes = %d, want 1", len(sink.outcomes))
	}
	if sink.outcomes[0].Transfer == nil || sink.outcomes[0].Transfer.BlockNumber != 103 {
		t.Fatalf("unexpected outcome: %+v", sink.outcomes[0])
	}

	last, ok := loop.Tracker().LastScanned()
	if !ok || last != 105 {
		t.Fatalf("position = %d ok=%v, want 105", last, ok)
	}
	if !position.saved || position.last != 105 {
		t.Fatalf("persisted position = %+v, want 105", position)
	}
}

func TestRunCycleRetriesTransientFetch(t *testing.T) {
	source := &fakeSource{latest: 105, filterErrs: 2}
	sink := &fakeSink{}

	loop := NewLoop(LoopConfig{Span: 1000, Retry: testPolicy()}, source, fakeProc{}, sink, nil, zap.NewNop())
	loop.Tracker().Seed(100)

	if err := loop.runCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.filterCalls != 3 {
		t.Fatalf("filter calls = %d, want 3", source.filterCalls)
	}
}

func TestRunCycleKeepsWindowOnExhaustedRetries(t *testing.T) {
	source := &fakeSource{latest: 105, filterErrs: 10}
	sink := &fakeSink{}
	position := &memPosition{}

	loop := NewLoop(LoopConfig{Span: 1000, Retry: testPolicy()}, source, fakeProc{}, sink, position, zap.NewNop())
	loop.Tracker().Seed(100)

	if err := loop.runCycle(context.Background()); !errors.Is(err, errTransient) {
		t.Fatalf("unexpected error: %v", err)
	}

	last, _ := loop.Tracker().LastScanned()
	if last != 100 {
		t.Fatalf("position moved to %d on failed window", last)
	}
	if position.saved {
		t.Fatalf("position persisted on failed window")
	}

	// The retried cycle re-issues the same window.
	source.filterErrs = 0
	if err := loop.runCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last, _ = loop.Tracker().LastScanned()
	if last != 105 {
		t.Fatalf("position = %d, want 105", last)
	}
}

func TestRunCycleSinkFailureStillAdvances(t *testing.T) {
	source := &fakeSource{
		latest: 105,
		logs:   []types.Log{{BlockNumber: 101, TxHash: common.HexToHash("0x1")}},
	}
	sink := &fakeSink{fail: true}

	loop := NewLoop(LoopConfig{Span: 1000, Retry: testPolicy()}, source, fakeProc{}, sink, nil, zap.NewNop())
	loop.Tracker().Seed(100)

	if err := loop.runCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last, _ := loop.Tracker().LastScanned()
	if last != 105 {
		t.Fatalf("position = %d, want 105", last)
	}
}

func TestRunCycleSkipsWhenHeadUnchanged(t *testing.T) {
	source := &fakeSource{latest: 100}
	sink := &fakeSink{}

	loop := NewLoop(LoopConfig{Span: 1000, Retry: testPolicy()}, source, fakeProc{}, sink, nil, zap.NewNop())
	loop.Tracker().Seed(100)

	if err := loop.runCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.filterCalls != 0 {
		t.Fatalf("fetched logs despite unchanged head")
	}
	if len(sink.outcomes) != 0 {
		t.Fatalf("delivered outcomes despite unchanged head")
	}
}

func TestRunStopsOnRangeRegression(t *testing.T) {
	source := &fakeSource{latest: 50}
	sink := &fakeSink{}
	position := &memPosition{last: 100, saved: true}

	loop := NewLoop(LoopConfig{Span: 1000, Interval: time.Millisecond, Retry: testPolicy()}, source, fakeProc{}, sink, position, zap.NewNop())

	err := loop.Run(context.Background())
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("unexpected error: %v", err)
	}
}

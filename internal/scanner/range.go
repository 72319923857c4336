package scanner

import (
	"errors"
	"fmt"
)

// DefaultSpan is the lookback used for the very first window when no
// prior scan position exists.
const DefaultSpan = 1000

// ErrInvalidRange signals that the chain head moved behind the last
// scanned block. The source of truth regressed, which the tracker
// refuses to paper over: callers must treat this as fatal.
var ErrInvalidRange = errors.New("latest block behind scan position")

// ErrNoNewBlocks signals that the chain head has not advanced past the
// last scanned block. Not a failure: the caller should simply wait.
var ErrNoNewBlocks = errors.New("no new blocks")

// BlockRange is an inclusive block window. From <= To always holds.
type BlockRange struct {
	From uint64
	To   uint64
}

// RangeTracker computes the next block window to scan. Successive
// accepted windows tile the block line with no gap and no overlap, and
// the position only moves on Advance, so a failed window is re-issued
// unchanged on the next call.
type RangeTracker struct {
	span    uint64
	last    uint64
	hasLast bool
}

// NewRangeTracker builds a tracker with the given first-window span.
// A zero span falls back to DefaultSpan.
func NewRangeTracker(span uint64) *RangeTracker {
	if span == 0 {
		span = DefaultSpan
	}
	return &RangeTracker{span: span}
}

// Seed resumes the tracker from an externally persisted position.
func (t *RangeTracker) Seed(lastScanned uint64) {
	t.last = lastScanned
	t.hasLast = true
}

// LastScanned returns the current position, if any window was accepted.
func (t *RangeTracker) LastScanned() (uint64, bool) {
	return t.last, t.hasLast
}

// NextWindow returns the window to scan given the current chain head.
// Without a prior position it looks back span blocks. Calling it again
// without an intervening Advance returns the same window.
func (t *RangeTracker) NextWindow(latest uint64) (BlockRange, error) {
	if !t.hasLast {
		from := uint64(0)
		if latest > t.span {
			from = latest - t.span
		}
		return BlockRange{From: from, To: latest}, nil
	}

	if latest < t.last {
		return BlockRange{}, fmt.Errorf("%w: latest %d < last scanned %d", ErrInvalidRange, latest, t.last)
	}
	if latest == t.last {
		return BlockRange{}, ErrNoNewBlocks
	}

	return BlockRange{From: t.last + 1, To: latest}, nil
}

// Advance records a fully processed window. Call it only after every log
// in the window has been handled.
func (t *RangeTracker) Advance(to uint64) {
	t.last = to
	t.hasLast = true
}

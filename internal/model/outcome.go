package model

// Outcome is one entry of a decoded window: either a successful event or
// a per-log decode failure. Exactly one field is non-nil. Outcomes keep
// the original (block number, log index) order so partial progress on a
// bad log is never lost.
type Outcome struct {
	Transfer *TransferEvent `json:"transfer,omitempty"`
	Swap     *SwapEvent     `json:"swap,omitempty"`
	Err      *DecodeError   `json:"error,omitempty"`
}

func TransferOutcome(ev *TransferEvent) Outcome { return Outcome{Transfer: ev} }

func SwapOutcome(ev *SwapEvent) Outcome { return Outcome{Swap: ev} }

func ErrOutcome(e *DecodeError) Outcome { return Outcome{Err: e} }

// IsErr reports whether the outcome is a decode failure.
func (o Outcome) IsErr() bool { return o.Err != nil }

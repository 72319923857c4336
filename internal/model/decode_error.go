package model

// DecodeError records a per-log decode failure. It always carries the
// originating transaction hash so operators can cross-reference the raw
// log; it never aborts the batch it came from.
type DecodeError struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number,omitempty"`
	LogIndex    uint64 `json:"log_index,omitempty"`
	Address     string `json:"address,omitempty"`
	Topic0      string `json:"topic0,omitempty"`
	Reason      string `json:"reason"`
}

package model

import "math/big"

// SwapSchema identifies which of the two incompatible swap encodings a log used.
type SwapSchema string

const (
	SchemaTwoAmount  SwapSchema = "two_amount"
	SchemaFourAmount SwapSchema = "four_amount"
)

// SwapDirection is the inferred trade direction of a swap.
type SwapDirection string

const (
	DirectionBuy            SwapDirection = "buy"
	DirectionSell           SwapDirection = "sell"
	DirectionToken0ToToken1 SwapDirection = "token0_to_token1"
	DirectionToken1ToToken0 SwapDirection = "token1_to_token0"
)

// TransferEvent is a decoded ERC-20 value movement between two addresses.
type TransferEvent struct {
	TxHash      string   `json:"tx_hash"`
	BlockHash   string   `json:"block_hash"`
	BlockNumber uint64   `json:"block_number"`
	LogIndex    uint64   `json:"log_index"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Value       *big.Int `json:"-"`
	ValueString string   `json:"value"`
	ValueScaled string   `json:"value_scaled,omitempty"`
}

// SwapEvent is a decoded liquidity-pool trade.
//
// Amount0/Amount1 are set for the two-amount schema and carry the pool's
// signed convention. Amount0In through Amount1Out are set for the
// four-amount schema and are always non-negative. All amounts are exact
// decimal strings scaled by the owning token's decimals.
type SwapEvent struct {
	TxHash      string        `json:"tx_hash"`
	BlockHash   string        `json:"block_hash"`
	BlockNumber uint64        `json:"block_number"`
	LogIndex    uint64        `json:"log_index"`
	Sender      string        `json:"sender"`
	Recipient   string        `json:"recipient"`
	Schema      SwapSchema    `json:"schema"`
	Direction   SwapDirection `json:"direction"`
	Amount0     string        `json:"amount0,omitempty"`
	Amount1     string        `json:"amount1,omitempty"`
	Amount0In   string        `json:"amount0_in,omitempty"`
	Amount1In   string        `json:"amount1_in,omitempty"`
	Amount0Out  string        `json:"amount0_out,omitempty"`
	Amount1Out  string        `json:"amount1_out,omitempty"`
	Token0Name  string        `json:"token0_name"`
	Token1Name  string        `json:"token1_name"`
}

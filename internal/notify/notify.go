package notify

import (
	"context"
	"fmt"

	"poolwatch/internal/model"
)

// Sink receives decoded outcomes in window order. Sink failures are
// best-effort: the poll loop logs them and moves on, so implementations
// must not assume redelivery.
type Sink interface {
	Notify(ctx context.Context, outcome model.Outcome) error
}

// FormatMessage renders an outcome as the HTML notification body:
// a single amount line for swaps, a short error line for decode
// failures, and a from/to line for transfers, each with an explorer
// transaction link.
func FormatMessage(outcome model.Outcome, txBaseURL string) string {
	switch {
	case outcome.Err != nil:
		return fmt.Sprintf("Error decoding event: %s (Transaction: %s)", outcome.Err.Reason, outcome.Err.TxHash)
	case outcome.Swap != nil:
		return formatSwap(outcome.Swap, txBaseURL)
	case outcome.Transfer != nil:
		return formatTransfer(outcome.Transfer, txBaseURL)
	default:
		return ""
	}
}

func formatSwap(swap *model.SwapEvent, txBaseURL string) string {
	var line string
	if swap.Schema == model.SchemaTwoAmount {
		line = fmt.Sprintf("%s %s → %s %s", swap.Amount0, swap.Token0Name, swap.Amount1, swap.Token1Name)
	} else if swap.Direction == model.DirectionToken0ToToken1 {
		line = fmt.Sprintf("%s %s → %s %s", swap.Amount0In, swap.Token0Name, swap.Amount1Out, swap.Token1Name)
	} else {
		line = fmt.Sprintf("%s %s → %s %s", swap.Amount1In, swap.Token1Name, swap.Amount0Out, swap.Token0Name)
	}
	return line + "\n" + txLink(txBaseURL, swap.TxHash)
}

func formatTransfer(transfer *model.TransferEvent, txBaseURL string) string {
	value := transfer.ValueScaled
	if value == "" {
		value = transfer.ValueString
	}
	line := fmt.Sprintf("%s: %s → %s", value, transfer.From, transfer.To)
	return line + "\n" + txLink(txBaseURL, transfer.TxHash)
}

func txLink(txBaseURL, txHash string) string {
	return fmt.Sprintf("tx: <a href='%s/tx/%s'>View</a>", txBaseURL, txHash)
}

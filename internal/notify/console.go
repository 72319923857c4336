package notify

import (
	"context"
	"fmt"
	"io"
	"os"

	"poolwatch/internal/model"
)

const consoleDivider = "--------------------------------------"

// ConsoleSink prints event details to a writer, block by block, in the
// same layout the watcher has always printed.
type ConsoleSink struct {
	out io.Writer
}

func NewConsoleSink(out io.Writer) *ConsoleSink {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleSink{out: out}
}

func (s *ConsoleSink) Notify(_ context.Context, outcome model.Outcome) error {
	switch {
	case outcome.Err != nil:
		fmt.Fprintf(s.out, "\nDecode Error:\n%s\nError decoding event: %s (Transaction: %s)\n%s\n",
			consoleDivider, outcome.Err.Reason, outcome.Err.TxHash, consoleDivider)
	case outcome.Transfer != nil:
		s.printTransfer(outcome.Transfer)
	case outcome.Swap != nil:
		s.printSwap(outcome.Swap)
	}
	return nil
}

func (s *ConsoleSink) printTransfer(transfer *model.TransferEvent) {
	value := transfer.ValueScaled
	if value == "" {
		value = transfer.ValueString
	}
	fmt.Fprintf(s.out, "\nTransfer Event Details:\n%s\n", consoleDivider)
	fmt.Fprintf(s.out, "Transaction Hash: %s\n", transfer.TxHash)
	fmt.Fprintf(s.out, "From: %s\n", transfer.From)
	fmt.Fprintf(s.out, "To: %s\n", transfer.To)
	fmt.Fprintf(s.out, "Value: %s\n", value)
	fmt.Fprintf(s.out, "%s\n", consoleDivider)
}

func (s *ConsoleSink) printSwap(swap *model.SwapEvent) {
	fmt.Fprintf(s.out, "\nSwap Event Details:\n%s\n", consoleDivider)
	fmt.Fprintf(s.out, "Transaction Hash: %s\n", swap.TxHash)
	fmt.Fprintf(s.out, "Direction: %s\n", swap.Direction)
	if swap.Schema == model.SchemaTwoAmount {
		fmt.Fprintf(s.out, "%s %s → %s %s\n", swap.Amount0, swap.Token0Name, swap.Amount1, swap.Token1Name)
	} else if swap.Direction == model.DirectionToken0ToToken1 {
		fmt.Fprintf(s.out, "%s %s → %s %s\n", swap.Amount0In, swap.Token0Name, swap.Amount1Out, swap.Token1Name)
	} else {
		fmt.Fprintf(s.out, "%s %s → %s %s\n", swap.Amount1In, swap.Token1Name, swap.Amount0Out, swap.Token0Name)
	}
	fmt.Fprintf(s.out, "%s\n", consoleDivider)
}

package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"poolwatch/internal/model"
)

const testTxBase = "https://basescan.org"

func buySwap() *model.SwapEvent {
	return &model.SwapEvent{
		TxHash:     "0xabc",
		Schema:     model.SchemaTwoAmount,
		Direction:  model.DirectionBuy,
		Amount0:    "-5",
		Amount1:    "1000",
		Token0Name: "Wrapped Ether",
		Token1Name: "Token",
	}
}

func TestFormatMessageSwapTwoAmount(t *testing.T) {
	got := FormatMessage(model.SwapOutcome(buySwap()), testTxBase)

	want := "-5 Wrapped Ether → 1000 Token\ntx: <a href='https://basescan.org/tx/0xabc'>View</a>"
	if got != want {
		t.Fatalf("message mismatch:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatMessageSwapFourAmount(t *testing.T) {
	swap := &model.SwapEvent{
		TxHash:     "0xdef",
		Schema:     model.SchemaFourAmount,
		Direction:  model.DirectionToken1ToToken0,
		Amount0In:  "0",
		Amount1In:  "700",
		Amount0Out: "2",
		Amount1Out: "0",
		Token0Name: "Wrapped Ether",
		Token1Name: "Token",
	}

	got := FormatMessage(model.SwapOutcome(swap), testTxBase)
	if !strings.HasPrefix(got, "700 Token → 2 Wrapped Ether") {
		t.Fatalf("message mismatch: %s", got)
	}
}

func TestFormatMessageTransferFallsBackToRaw(t *testing.T) {
	transfer := &model.TransferEvent{
		TxHash:      "0x123",
		From:        "0xfrom",
		To:          "0xto",
		ValueString: "1500000000000000000",
	}

	got := FormatMessage(model.TransferOutcome(transfer), testTxBase)
	if !strings.HasPrefix(got, "1500000000000000000: 0xfrom → 0xto") {
		t.Fatalf("message mismatch: %s", got)
	}
}

func TestFormatMessageDecodeError(t *testing.T) {
	outcome := model.ErrOutcome(&model.DecodeError{TxHash: "0x999", Reason: "expected 3 topics, got 2"})

	got := FormatMessage(outcome, testTxBase)
	want := "Error decoding event: expected 3 topics, got 2 (Transaction: 0x999)"
	if got != want {
		t.Fatalf("message mismatch: %s", got)
	}
}

func TestConsoleSinkPrintsSwap(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)

	if err := sink.Notify(context.Background(), model.SwapOutcome(buySwap())); err != nil {
		t.Fatalf("notify: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Swap Event Details", "0xabc", "buy", "-5 Wrapped Ether → 1000 Token"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

type failingSink struct{ calls int }

func (s *failingSink) Notify(context.Context, model.Outcome) error {
	s.calls++
	return errors.New("down")
}

func TestFanOutSinkSwallowsChildFailures(t *testing.T) {
	first := &failingSink{}
	second := &failingSink{}
	sink := NewFanOutSink(nil, first, second)

	if err := sink.Notify(context.Background(), model.SwapOutcome(buySwap())); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("calls = %d/%d, want 1/1", first.calls, second.calls)
	}
}

package main

import (
	"context"
	"errors"
	"testing"

	"poolwatch/internal/config"
	"poolwatch/internal/scanner"
)

func TestResolveScanRangeDefaultsFromToLookback(t *testing.T) {
	cfg := config.ScanConfig{ToBlock: 5000, Span: 1000}

	from, to, err := resolveScanRange(context.Background(), cfg, false, true, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if from != 4000 || to != 5000 {
		t.Fatalf("range = [%d,%d], want [4000,5000]", from, to)
	}
}

func TestResolveScanRangeClampsAtGenesis(t *testing.T) {
	cfg := config.ScanConfig{ToBlock: 500, Span: 1000}

	from, to, err := resolveScanRange(context.Background(), cfg, false, true, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if from != 0 || to != 500 {
		t.Fatalf("range = [%d,%d], want [0,500]", from, to)
	}
}

func TestResolveScanRangeExplicitGenesis(t *testing.T) {
	cfg := config.ScanConfig{FromBlock: 0, ToBlock: 5000, Span: 1000}

	from, to, err := resolveScanRange(context.Background(), cfg, true, true, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if from != 0 || to != 5000 {
		t.Fatalf("range = [%d,%d], want [0,5000]", from, to)
	}
}

func TestResolveScanRangeExplicitGenesisWindow(t *testing.T) {
	cfg := config.ScanConfig{FromBlock: 0, ToBlock: 0, Span: 1000}

	from, to, err := resolveScanRange(context.Background(), cfg, true, true, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if from != 0 || to != 0 {
		t.Fatalf("range = [%d,%d], want [0,0]", from, to)
	}
}

func TestResolveScanRangeInverted(t *testing.T) {
	cfg := config.ScanConfig{FromBlock: 100, ToBlock: 50, Span: 1000}

	_, _, err := resolveScanRange(context.Background(), cfg, true, true, nil)
	if !errors.Is(err, scanner.ErrInvalidRange) {
		t.Fatalf("unexpected error: %v", err)
	}
}

package token

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolwatch/internal/model"
)

// selectorCaller answers eth_call by the 4-byte method selector.
type selectorCaller struct {
	responses map[string][]byte
}

func (c *selectorCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if len(msg.Data) < 4 {
		return nil, errors.New("short calldata")
	}
	resp, ok := c.responses[hex.EncodeToString(msg.Data[:4])]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return resp, nil
}

func newSelectorCaller(t *testing.T) *selectorCaller {
	t.Helper()
	return &selectorCaller{responses: make(map[string][]byte)}
}

func (c *selectorCaller) respond(t *testing.T, selector []byte, data []byte, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("pack response: %v", err)
	}
	c.responses[hex.EncodeToString(selector)] = data
}

func TestProviderLoad(t *testing.T) {
	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}

	caller := newSelectorCaller(t)
	decimalsOut, err := stringABI.Methods["decimals"].Outputs.Pack(uint8(18))
	caller.respond(t, stringABI.Methods["decimals"].ID, decimalsOut, err)
	symbolOut, err := stringABI.Methods["symbol"].Outputs.Pack("WETH")
	caller.respond(t, stringABI.Methods["symbol"].ID, symbolOut, err)
	nameOut, err := stringABI.Methods["name"].Outputs.Pack("Wrapped Ether")
	caller.respond(t, stringABI.Methods["name"].ID, nameOut, err)

	provider := NewProvider(caller, zap.NewNop())
	addr := common.HexToAddress("0x4200000000000000000000000000000000000006")

	meta, err := provider.Load(context.Background(), addr)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.Address != addr.Hex() {
		t.Fatalf("address = %s", meta.Address)
	}
	if meta.Decimals != 18 || meta.Symbol != "WETH" || meta.Name != "Wrapped Ether" {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestProviderLoadDecimalsRequired(t *testing.T) {
	provider := NewProvider(newSelectorCaller(t), zap.NewNop())

	_, err := provider.Load(context.Background(), common.HexToAddress("0x1"))
	if !errors.Is(err, model.ErrMetadataUnavailable) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProviderLoadSymbolBestEffort(t *testing.T) {
	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}

	caller := newSelectorCaller(t)
	decimalsOut, err := stringABI.Methods["decimals"].Outputs.Pack(uint8(6))
	caller.respond(t, stringABI.Methods["decimals"].ID, decimalsOut, err)

	provider := NewProvider(caller, zap.NewNop())

	meta, err := provider.Load(context.Background(), common.HexToAddress("0x2"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.Decimals != 6 {
		t.Fatalf("decimals = %d", meta.Decimals)
	}
	if meta.Symbol != "" || meta.Name != "" {
		t.Fatalf("expected empty symbol and name, got %+v", meta)
	}
}

func TestAsUint8RejectsOutOfRange(t *testing.T) {
	good := []interface{}{uint8(18), uint16(255), uint32(6), uint64(0), big.NewInt(18)}
	for _, v := range good {
		if _, err := asUint8(v); err != nil {
			t.Fatalf("asUint8(%v): %v", v, err)
		}
	}

	bad := []interface{}{uint16(256), uint32(300), uint64(1 << 40), big.NewInt(1000), new(big.Int).Lsh(big.NewInt(1), 70), "18"}
	for _, v := range bad {
		if _, err := asUint8(v); err == nil {
			t.Fatalf("asUint8(%v): expected error", v)
		}
	}
}

func TestProviderBalanceOf(t *testing.T) {
	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}

	want := new(big.Int).Mul(big.NewInt(42), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	caller := newSelectorCaller(t)
	balanceOut, err := stringABI.Methods["balanceOf"].Outputs.Pack(want)
	caller.respond(t, stringABI.Methods["balanceOf"].ID, balanceOut, err)

	provider := NewProvider(caller, zap.NewNop())

	got, err := provider.BalanceOf(context.Background(), common.HexToAddress("0x1"), common.HexToAddress("0x2"), nil)
	if err != nil {
		t.Fatalf("balanceOf: %v", err)
	}
	if got.Cmp(want) != 0 {
		t.Fatalf("balance = %s, want %s", got, want)
	}
}

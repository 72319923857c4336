package token

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolwatch/internal/events"
	"poolwatch/internal/model"
)

// ContractCaller is the eth_call surface the provider needs.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Provider loads ERC-20 metadata and balances via eth_call.
type Provider struct {
	caller ContractCaller
	logger *zap.Logger
}

func NewProvider(caller ContractCaller, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{caller: caller, logger: logger}
}

// Load fetches decimals, symbol, and name for a token. Decimals are
// required; symbol and name are best-effort with a bytes32 fallback for
// tokens that predate the string ABI.
func (p *Provider) Load(ctx context.Context, token common.Address) (model.TokenMetadata, error) {
	meta := model.TokenMetadata{Address: token.Hex()}

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := p.call(ctx, token, stringABI, "decimals", nil)
	if err != nil {
		return meta, fmt.Errorf("%w: decimals for %s: %v", model.ErrMetadataUnavailable, token.Hex(), err)
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, fmt.Errorf("%w: decimals for %s: %v", model.ErrMetadataUnavailable, token.Hex(), err)
	}
	meta.Decimals = decimals

	if values, err := p.call(ctx, token, stringABI, "symbol", nil); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := p.call(ctx, token, bytes32ABI, "symbol", nil); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else {
		p.logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := p.call(ctx, token, stringABI, "name", nil); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := p.call(ctx, token, bytes32ABI, "name", nil); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else {
		p.logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

// BalanceOf fetches a holder's raw token balance at the given block
// (nil means latest).
func (p *Provider) BalanceOf(ctx context.Context, token, holder common.Address, block *big.Int) (*big.Int, error) {
	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 string abi: %w", err)
	}

	values, err := p.call(ctx, token, stringABI, "balanceOf", block, holder)
	if err != nil {
		return nil, fmt.Errorf("balanceOf %s for %s: %w", token.Hex(), holder.Hex(), err)
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf %s: unexpected type %T", token.Hex(), values[0])
	}
	return new(big.Int).Set(balance), nil
}

// PoolTokens resolves the pair behind a pool contract via its
// token0()/token1() accessors.
func (p *Provider) PoolTokens(ctx context.Context, pool common.Address) (common.Address, common.Address, error) {
	poolABI, err := events.PoolABI()
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := p.call(ctx, pool, poolABI, "token0", nil)
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("%w: token0 of %s: %v", model.ErrMetadataUnavailable, pool.Hex(), err)
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token0: %w", err)
	}

	values, err = p.call(ctx, pool, poolABI, "token1", nil)
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("%w: token1 of %s: %v", model.ErrMetadataUnavailable, pool.Hex(), err)
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token1: %w", err)
	}

	return token0, token1, nil
}

func (p *Provider) call(ctx context.Context, target common.Address, parsed abi.ABI, method string, block *big.Int, callArgs ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, callArgs...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &target, Data: data}
	resp, err := p.caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		if v > 255 {
			return 0, fmt.Errorf("value %d out of uint8 range", v)
		}
		return uint8(v), nil
	case uint32:
		if v > 255 {
			return 0, fmt.Errorf("value %d out of uint8 range", v)
		}
		return uint8(v), nil
	case uint64:
		if v > 255 {
			return 0, fmt.Errorf("value %d out of uint8 range", v)
		}
		return uint8(v), nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("value %s out of uint8 range", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

package events

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"poolwatch/internal/amount"
	"poolwatch/internal/model"
)

// wrappedNativeNames identifies the wrapped-native-asset token purely by
// display name, matched case-insensitively against name and symbol.
var wrappedNativeNames = map[string]struct{}{
	"weth":          {},
	"wrapped ether": {},
}

func isWrappedNative(meta model.TokenMetadata) bool {
	if _, ok := wrappedNativeNames[strings.ToLower(meta.Name)]; ok {
		return true
	}
	_, ok := wrappedNativeNames[strings.ToLower(meta.Symbol)]
	return ok
}

// detectSchema chooses the swap encoding once per log from the decoded
// argument names. The two encodings are mutually exclusive.
func detectSchema(args map[string]interface{}) (model.SwapSchema, bool) {
	if hasArgs(args, "amount0", "amount1") {
		return model.SchemaTwoAmount, true
	}
	if hasArgs(args, "amount0In", "amount1In", "amount0Out", "amount1Out") {
		return model.SchemaFourAmount, true
	}
	return "", false
}

func hasArgs(args map[string]interface{}, names ...string) bool {
	for _, name := range names {
		if _, ok := args[name]; !ok {
			return false
		}
	}
	return true
}

// Classifier disambiguates the two swap log schemas and computes signed,
// human-scaled amounts and trade direction.
type Classifier struct {
	contractABI abi.ABI
	logger      *zap.Logger
}

// NewClassifier builds a classifier over the watched contract's ABI,
// either explorer-fetched or the built-in PoolABI.
func NewClassifier(contractABI abi.ABI, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{contractABI: contractABI, logger: logger}
}

// SwapTopics returns the topic0 hashes of every ABI event whose argument
// set matches one of the swap schemas.
func (c *Classifier) SwapTopics() []common.Hash {
	topics := make([]common.Hash, 0, 2)
	for _, event := range c.contractABI.Events {
		names := make(map[string]interface{}, len(event.Inputs))
		for _, input := range event.Inputs {
			names[input.Name] = struct{}{}
		}
		if _, ok := detectSchema(names); ok {
			topics = append(topics, event.ID)
		}
	}
	return topics
}

// CanClassify reports whether the topic0 belongs to a known swap event.
func (c *Classifier) CanClassify(topic0 common.Hash) bool {
	for _, id := range c.SwapTopics() {
		if id == topic0 {
			return true
		}
	}
	return false
}

// Classify turns a raw swap log into a SwapEvent. A malformed log yields
// a DecodeError for that log only. Logs whose pair has no wrapped-native
// side under the two-amount schema are skipped, not errors: both return
// values are nil.
func (c *Classifier) Classify(log types.Log, token0, token1 model.TokenMetadata) (*model.SwapEvent, *model.DecodeError) {
	if len(log.Topics) == 0 {
		return nil, decodeFailure(log, "missing topic0")
	}

	event, err := c.contractABI.EventByID(log.Topics[0])
	if err != nil {
		return nil, decodeFailure(log, fmt.Sprintf("unknown event: %v", err))
	}

	args, decErr := c.decodeArguments(log, event)
	if decErr != nil {
		return nil, decErr
	}

	schema, ok := detectSchema(args)
	if !ok {
		c.logger.Debug("unrecognized swap schema",
			zap.String("event", event.Name),
			zap.String("tx_hash", log.TxHash.Hex()),
		)
		return nil, nil
	}

	switch schema {
	case model.SchemaTwoAmount:
		return c.classifyTwoAmount(log, args, token0, token1)
	default:
		return c.classifyFourAmount(log, args, token0, token1)
	}
}

func (c *Classifier) decodeArguments(log types.Log, event *abi.Event) (map[string]interface{}, *model.DecodeError) {
	indexed := indexedArguments(event.Inputs)
	if len(log.Topics)-1 != len(indexed) {
		return nil, decodeFailure(log, fmt.Sprintf("expected %d topics, got %d", len(indexed)+1, len(log.Topics)))
	}

	args := make(map[string]interface{})
	if err := abi.ParseTopicsIntoMap(args, indexed, log.Topics[1:]); err != nil {
		return nil, decodeFailure(log, fmt.Sprintf("parse topics: %v", err))
	}
	if err := event.Inputs.UnpackIntoMap(args, log.Data); err != nil {
		return nil, decodeFailure(log, fmt.Sprintf("unpack data: %v", err))
	}
	return args, nil
}

func (c *Classifier) classifyTwoAmount(log types.Log, args map[string]interface{}, token0, token1 model.TokenMetadata) (*model.SwapEvent, *model.DecodeError) {
	amount0, err := argBigInt(args, "amount0")
	if err != nil {
		return nil, decodeFailure(log, err.Error())
	}
	amount1, err := argBigInt(args, "amount1")
	if err != nil {
		return nil, decodeFailure(log, err.Error())
	}

	// Direction comes from the wrapped side's sign: a negative pool
	// amount is the asset leaving the pool to the buyer. Displayed
	// amounts keep the pool-perspective signs.
	var direction model.SwapDirection
	switch {
	case isWrappedNative(token0):
		if amount0.Sign() < 0 {
			direction = model.DirectionBuy
		} else {
			direction = model.DirectionSell
		}
	case isWrappedNative(token1):
		if amount1.Sign() < 0 {
			direction = model.DirectionBuy
		} else {
			direction = model.DirectionSell
		}
	default:
		c.logger.Info("pair has no wrapped-native side, skipping",
			zap.String("token0", token0.Address),
			zap.String("token1", token1.Address),
			zap.String("tx_hash", log.TxHash.Hex()),
		)
		return nil, nil
	}

	return &model.SwapEvent{
		TxHash:      log.TxHash.Hex(),
		BlockHash:   log.BlockHash.Hex(),
		BlockNumber: log.BlockNumber,
		LogIndex:    uint64(log.Index),
		Sender:      argAddress(args, "sender"),
		Recipient:   firstAddress(args, "recipient", "to"),
		Schema:      model.SchemaTwoAmount,
		Direction:   direction,
		Amount0:     amount.Scale(amount0, token0.Decimals),
		Amount1:     amount.Scale(amount1, token1.Decimals),
		Token0Name:  displayName(token0),
		Token1Name:  displayName(token1),
	}, nil
}

func (c *Classifier) classifyFourAmount(log types.Log, args map[string]interface{}, token0, token1 model.TokenMetadata) (*model.SwapEvent, *model.DecodeError) {
	amount0In, err := argBigInt(args, "amount0In")
	if err != nil {
		return nil, decodeFailure(log, err.Error())
	}
	amount1In, err := argBigInt(args, "amount1In")
	if err != nil {
		return nil, decodeFailure(log, err.Error())
	}
	amount0Out, err := argBigInt(args, "amount0Out")
	if err != nil {
		return nil, decodeFailure(log, err.Error())
	}
	amount1Out, err := argBigInt(args, "amount1Out")
	if err != nil {
		return nil, decodeFailure(log, err.Error())
	}

	direction := model.DirectionToken1ToToken0
	if amount0In.Sign() > 0 && amount1Out.Sign() > 0 {
		direction = model.DirectionToken0ToToken1
	}

	return &model.SwapEvent{
		TxHash:      log.TxHash.Hex(),
		BlockHash:   log.BlockHash.Hex(),
		BlockNumber: log.BlockNumber,
		LogIndex:    uint64(log.Index),
		Sender:      argAddress(args, "sender"),
		Recipient:   firstAddress(args, "recipient", "to"),
		Schema:      model.SchemaFourAmount,
		Direction:   direction,
		Amount0In:   amount.Scale(amount0In, token0.Decimals),
		Amount1In:   amount.Scale(amount1In, token1.Decimals),
		Amount0Out:  amount.Scale(amount0Out, token0.Decimals),
		Amount1Out:  amount.Scale(amount1Out, token1.Decimals),
		Token0Name:  displayName(token0),
		Token1Name:  displayName(token1),
	}, nil
}

func displayName(meta model.TokenMetadata) string {
	if meta.Name != "" {
		return meta.Name
	}
	if meta.Symbol != "" {
		return meta.Symbol
	}
	return meta.Address
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func argBigInt(args map[string]interface{}, name string) (*big.Int, error) {
	value, ok := args[name]
	if !ok {
		return nil, fmt.Errorf("missing argument %s", name)
	}
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("argument %s has non-numeric type %T", name, value)
	}
}

func argAddress(args map[string]interface{}, name string) string {
	switch v := args[name].(type) {
	case common.Address:
		return v.Hex()
	case *common.Address:
		return v.Hex()
	default:
		return ""
	}
}

func firstAddress(args map[string]interface{}, names ...string) string {
	for _, name := range names {
		if addr := argAddress(args, name); addr != "" {
			return addr
		}
	}
	return ""
}

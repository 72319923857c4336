package events

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"poolwatch/internal/model"
)

// TransferTopic is the keccak256 hash of Transfer(address,address,uint256).
var TransferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// DecodeTransfer turns a raw log into a TransferEvent. Malformed logs
// yield a DecodeError carrying the transaction hash instead of an error,
// so a bad log never aborts its batch. Transfers where either party is
// the watched contract itself are suppressed: both return values are nil.
func DecodeTransfer(log types.Log, watched common.Address) (*model.TransferEvent, *model.DecodeError) {
	if len(log.Topics) != 3 {
		return nil, decodeFailure(log, fmt.Sprintf("expected 3 topics, got %d", len(log.Topics)))
	}
	if log.Topics[0] != TransferTopic {
		return nil, decodeFailure(log, fmt.Sprintf("topic0 %s is not a Transfer", log.Topics[0].Hex()))
	}
	if len(log.Data) != 32 {
		return nil, decodeFailure(log, fmt.Sprintf("expected 32 data bytes, got %d", len(log.Data)))
	}

	// Addresses live in the low 20 bytes of the padded topic words.
	from := common.BytesToAddress(log.Topics[1].Bytes())
	to := common.BytesToAddress(log.Topics[2].Bytes())

	if from == watched || to == watched {
		return nil, nil
	}

	value := new(big.Int).SetBytes(log.Data)

	return &model.TransferEvent{
		TxHash:      log.TxHash.Hex(),
		BlockHash:   log.BlockHash.Hex(),
		BlockNumber: log.BlockNumber,
		LogIndex:    uint64(log.Index),
		From:        from.Hex(),
		To:          to.Hex(),
		Value:       value,
		ValueString: value.String(),
	}, nil
}

func decodeFailure(log types.Log, reason string) *model.DecodeError {
	topic0 := ""
	if len(log.Topics) > 0 {
		topic0 = log.Topics[0].Hex()
	}
	return &model.DecodeError{
		TxHash:      log.TxHash.Hex(),
		BlockNumber: log.BlockNumber,
		LogIndex:    uint64(log.Index),
		Address:     log.Address.Hex(),
		Topic0:      topic0,
		Reason:      reason,
	}
}

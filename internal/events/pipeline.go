package events

import (
	"context"
	"errors"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"poolwatch/internal/amount"
	"poolwatch/internal/model"
)

// MetadataSource resolves cached token metadata by address.
type MetadataSource interface {
	Get(ctx context.Context, token common.Address) (model.TokenMetadata, error)
}

// Pipeline routes a window's raw logs through the transfer decoder and
// the swap classifier, producing one ordered outcome sequence that mixes
// successful events and per-log decode errors.
type Pipeline struct {
	watched    common.Address
	token0     common.Address
	token1     common.Address
	classifier *Classifier
	meta       MetadataSource
	logger     *zap.Logger
}

// NewPipeline wires the decode path for one watched contract. token0 and
// token1 are the pool's pair, resolved once at startup; they may be zero
// when the contract is a plain token rather than a pool.
func NewPipeline(watched, token0, token1 common.Address, classifier *Classifier, meta MetadataSource, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		watched:    watched,
		token0:     token0,
		token1:     token1,
		classifier: classifier,
		meta:       meta,
		logger:     logger,
	}
}

// Topics returns the topic0 filter for the fetch: the Transfer signature
// plus every swap event the classifier recognizes.
func (p *Pipeline) Topics() []common.Hash {
	topics := []common.Hash{TransferTopic}
	if p.classifier != nil {
		topics = append(topics, p.classifier.SwapTopics()...)
	}
	return topics
}

// Process decodes the logs in ascending (blockNumber, logIndex) order.
// Decode failures become DecodeError outcomes in place; they never stop
// the remaining logs from decoding.
func (p *Pipeline) Process(ctx context.Context, logs []types.Log) []model.Outcome {
	ordered := make([]types.Log, len(logs))
	copy(ordered, logs)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].BlockNumber != ordered[j].BlockNumber {
			return ordered[i].BlockNumber < ordered[j].BlockNumber
		}
		return ordered[i].Index < ordered[j].Index
	})

	outcomes := make([]model.Outcome, 0, len(ordered))
	for _, log := range ordered {
		if len(log.Topics) == 0 {
			outcomes = append(outcomes, model.ErrOutcome(decodeFailure(log, "missing topic0")))
			continue
		}

		switch {
		case log.Topics[0] == TransferTopic:
			if outcome, ok := p.processTransfer(ctx, log); ok {
				outcomes = append(outcomes, outcome)
			}
		case p.classifier != nil && p.classifier.CanClassify(log.Topics[0]):
			if outcome, ok := p.processSwap(ctx, log); ok {
				outcomes = append(outcomes, outcome)
			}
		default:
			p.logger.Debug("unhandled topic0", zap.String("topic0", log.Topics[0].Hex()))
		}
	}
	return outcomes
}

func (p *Pipeline) processTransfer(ctx context.Context, log types.Log) (model.Outcome, bool) {
	event, decErr := DecodeTransfer(log, p.watched)
	if decErr != nil {
		return model.ErrOutcome(decErr), true
	}
	if event == nil {
		return model.Outcome{}, false
	}

	// Scaling is display-only; a metadata miss keeps the exact raw value.
	if meta, err := p.meta.Get(ctx, log.Address); err == nil {
		event.ValueScaled = amount.Scale(event.Value, meta.Decimals)
	} else {
		p.logger.Warn("token metadata unavailable, emitting raw value",
			zap.String("token", log.Address.Hex()),
			zap.Error(err),
		)
	}
	return model.TransferOutcome(event), true
}

func (p *Pipeline) processSwap(ctx context.Context, log types.Log) (model.Outcome, bool) {
	meta0, err := p.meta.Get(ctx, p.token0)
	if err != nil {
		return p.metadataFailure(log, err), true
	}
	meta1, err := p.meta.Get(ctx, p.token1)
	if err != nil {
		return p.metadataFailure(log, err), true
	}

	event, decErr := p.classifier.Classify(log, meta0, meta1)
	if decErr != nil {
		return model.ErrOutcome(decErr), true
	}
	if event == nil {
		return model.Outcome{}, false
	}
	return model.SwapOutcome(event), true
}

func (p *Pipeline) metadataFailure(log types.Log, err error) model.Outcome {
	reason := err.Error()
	if !errors.Is(err, model.ErrMetadataUnavailable) {
		reason = model.ErrMetadataUnavailable.Error() + ": " + reason
	}
	return model.ErrOutcome(decodeFailure(log, reason))
}

package notify

import (
	"context"

	"go.uber.org/zap"

	"poolwatch/internal/model"
)

// FanOutSink delivers each outcome to every child sink. Child failures
// are logged and swallowed so one broken channel never starves another.
type FanOutSink struct {
	sinks  []Sink
	logger *zap.Logger
}

func NewFanOutSink(logger *zap.Logger, sinks ...Sink) *FanOutSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FanOutSink{sinks: sinks, logger: logger}
}

func (s *FanOutSink) Notify(ctx context.Context, outcome model.Outcome) error {
	for _, sink := range s.sinks {
		if err := sink.Notify(ctx, outcome); err != nil {
			s.logger.Warn("sink delivery failed", zap.Error(err))
		}
	}
	return nil
}

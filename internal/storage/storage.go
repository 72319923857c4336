package storage

import (
	"context"

	"poolwatch/internal/model"
)

// Archive persists decoded outcomes in batches. The JSONL archive and
// the Postgres store both satisfy it.
type Archive interface {
	PutOutcomes(ctx context.Context, outcomes []model.Outcome) error
}

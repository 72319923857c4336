package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolwatch/internal/model"
	"poolwatch/internal/storage"
)

// Store provides Postgres persistence for decoded events and, for
// deployments that opt in, a durable scan position.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Archive = (*Store)(nil)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutOutcomes persists a batch of decoded outcomes. Transfers and swaps
// land in their own tables keyed by (tx_hash, log_index); decode errors
// land in decode_errors for operator cross-referencing.
func (s *Store) PutOutcomes(ctx context.Context, outcomes []model.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, outcome := range outcomes {
		switch {
		case outcome.Transfer != nil:
			t := outcome.Transfer
			batch.Queue(`
				INSERT INTO transfers (
					tx_hash, log_index, block_hash, block_number, from_address, to_address, value, value_scaled, created_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
				ON CONFLICT (tx_hash, log_index) DO NOTHING
			`, t.TxHash, int64(t.LogIndex), t.BlockHash, int64(t.BlockNumber), t.From, t.To, t.ValueString, t.ValueScaled)
		case outcome.Swap != nil:
			sw := outcome.Swap
			batch.Queue(`
				INSERT INTO swaps (
					tx_hash, log_index, block_hash, block_number, sender, recipient, schema, direction,
					amount0, amount1, amount0_in, amount1_in, amount0_out, amount1_out,
					token0_name, token1_name, created_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now())
				ON CONFLICT (tx_hash, log_index) DO NOTHING
			`, sw.TxHash, int64(sw.LogIndex), sw.BlockHash, int64(sw.BlockNumber), sw.Sender, sw.Recipient,
				string(sw.Schema), string(sw.Direction),
				sw.Amount0, sw.Amount1, sw.Amount0In, sw.Amount1In, sw.Amount0Out, sw.Amount1Out,
				sw.Token0Name, sw.Token1Name)
		case outcome.Err != nil:
			e := outcome.Err
			batch.Queue(`
				INSERT INTO decode_errors (tx_hash, log_index, block_number, address, topic0, reason, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, now())
			`, e.TxHash, int64(e.LogIndex), int64(e.BlockNumber), e.Address, e.Topic0, e.Reason)
		}
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert outcome %d: %w", i, err)
		}
	}
	return nil
}

// Notify persists a single outcome, satisfying the sink contract.
func (s *Store) Notify(ctx context.Context, outcome model.Outcome) error {
	return s.PutOutcomes(ctx, []model.Outcome{outcome})
}

// SaveScanPosition upserts the last fully scanned block for a contract.
func (s *Store) SaveScanPosition(ctx context.Context, contract string, lastScanned uint64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scan_positions (contract, last_scanned_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (contract)
		DO UPDATE SET last_scanned_block = EXCLUDED.last_scanned_block, updated_at = now()
	`, contract, int64(lastScanned))
	if err != nil {
		return fmt.Errorf("save scan position: %w", err)
	}
	return nil
}

// LoadScanPosition returns the persisted position for a contract, if any.
func (s *Store) LoadScanPosition(ctx context.Context, contract string) (uint64, bool, error) {
	var last int64
	err := s.pool.QueryRow(ctx, `
		SELECT last_scanned_block FROM scan_positions WHERE contract = $1
	`, contract).Scan(&last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("load scan position: %w", err)
	}
	return uint64(last), true, nil
}

// PositionStore narrows the store to a single contract's scan position
// so the poll loop can persist progress without knowing about Postgres.
type PositionStore struct {
	store    *Store
	contract string
}

func (s *Store) PositionFor(contract string) *PositionStore {
	return &PositionStore{store: s, contract: contract}
}

func (p *PositionStore) LoadPosition() (uint64, bool, error) {
	return p.store.LoadScanPosition(context.Background(), p.contract)
}

func (p *PositionStore) SavePosition(lastScanned uint64) error {
	return p.store.SaveScanPosition(context.Background(), p.contract, lastScanned)
}

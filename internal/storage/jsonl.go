package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"poolwatch/internal/model"
)

// JsonlArchive appends decoded outcomes to a JSONL file. It doubles as a
// sink so the scan command can archive while it prints.
type JsonlArchive struct {
	path string
	mu   sync.Mutex
}

var _ Archive = (*JsonlArchive)(nil)

func NewJsonlArchive(path string) *JsonlArchive {
	return &JsonlArchive{path: path}
}

// PutOutcomes appends a batch of outcomes as JSON lines.
func (a *JsonlArchive) PutOutcomes(_ context.Context, outcomes []model.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	dir := filepath.Dir(a.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, outcome := range outcomes {
		line, err := json.Marshal(outcome)
		if err != nil {
			return fmt.Errorf("marshal outcome: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write outcome: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

// Notify appends a single outcome, satisfying the sink contract.
func (a *JsonlArchive) Notify(ctx context.Context, outcome model.Outcome) error {
	return a.PutOutcomes(ctx, []model.Outcome{outcome})
}

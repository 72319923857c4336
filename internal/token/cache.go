package token

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/singleflight"

	"poolwatch/internal/model"
)

// Loader loads token metadata on a cache miss.
type Loader interface {
	Load(ctx context.Context, token common.Address) (model.TokenMetadata, error)
}

// Cache memoizes token metadata for the process lifetime. Concurrent
// callers asking for the same uncached address share a single load;
// failed loads are not cached, so the next caller retries.
type Cache struct {
	loader Loader
	group  singleflight.Group

	mu   sync.RWMutex
	data map[common.Address]model.TokenMetadata
}

func NewCache(loader Loader) *Cache {
	return &Cache{
		loader: loader,
		data:   make(map[common.Address]model.TokenMetadata),
	}
}

// Get returns the token's metadata, loading it once on first use.
func (c *Cache) Get(ctx context.Context, token common.Address) (model.TokenMetadata, error) {
	c.mu.RLock()
	meta, ok := c.data[token]
	c.mu.RUnlock()
	if ok {
		return meta, nil
	}

	value, err, _ := c.group.Do(token.Hex(), func() (interface{}, error) {
		loaded, err := c.loader.Load(ctx, token)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.data[token] = loaded
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return model.TokenMetadata{}, err
	}
	return value.(model.TokenMetadata), nil
}

// Put seeds the cache, used by tests and warm starts.
func (c *Cache) Put(meta model.TokenMetadata) {
	c.mu.Lock()
	c.data[common.HexToAddress(meta.Address)] = meta
	c.mu.Unlock()
}

package model

import "errors"

// ErrMetadataUnavailable signals that contract or token metadata could
// not be loaded, either because the explorer does not know the contract
// or because the on-chain lookups failed. It aborts classification for
// the log that needed the metadata, never the whole batch.
var ErrMetadataUnavailable = errors.New("metadata unavailable")

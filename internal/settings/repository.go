// Package settings is a key-value repository over the local sqlite store.
// It holds the vault's persisted records and non-secret extension settings.
package settings

import (
	"context"
)

type Repository interface {
	// Get returns the stored value, or nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

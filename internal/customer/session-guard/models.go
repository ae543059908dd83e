// internal/customer/session-guard/models.go
package sessionguard

import (
	"context"
	"errors"
)

const (
	DefaultKey       = "customerSession"
	DefaultLoginPath = "/customer-login"
)

// ErrNotFound is returned by a Store when nothing is persisted under a key.
var ErrNotFound = errors.New("session not found")

// Store persists the session blob under a fixed key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no content exists under a key.
var ErrNotFound = errors.New("content not found")

// ErrInvalidKey is returned for keys that could escape the store namespace.
var ErrInvalidKey = errors.New("invalid content key")

// Store is a flat key -> bytes content store. Writes to an existing key replace it.
// There is no locking: a concurrent Save and Load of one key may observe either version.
type Store interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Key returns the storage key of a user's dataset: user_<id>_<filename>.
func Key(userID uint, filename string) string {
	return fmt.Sprintf("user_%d_%s", userID, filename)
}

// checkKey rejects empty keys and anything that is not a single flat path element.
func checkKey(key string) error {
	if key == "" || key == "." || key == ".." {
		return ErrInvalidKey
	}
	if strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return ErrInvalidKey
	}
	return nil
}

// Config selects and configures a Store backend.
type Config struct {
	Mode   string // "local" (default) or "gcs"
	Dir    string // local directory
	Bucket string // gcs bucket
	Prefix string // gcs object prefix
}

// New builds the Store selected by cfg.Mode.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", "local", "file":
		return NewFileStore(cfg.Dir)
	case "gcs":
		return NewGCSStore(ctx, cfg.Bucket, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unsupported storage mode %q", cfg.Mode)
	}
}

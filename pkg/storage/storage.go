// Package storage persists answer audio as opaque blobs addressed by key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/JaimeStill/speakeval/pkg/lifecycle"
)

var (
	ErrNotFound         = errors.New("storage: key not found")
	ErrPermissionDenied = errors.New("storage: permission denied")
	ErrInvalidKey       = errors.New("storage: invalid key")
)

// System stores and retrieves blobs by slash-separated key.
type System interface {
	Start(lc *lifecycle.Coordinator) error
	Store(ctx context.Context, key string, data []byte) error
	Retrieve(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Validate(ctx context.Context, key string) (bool, error)
}

// New builds the backend selected by cfg.Backend. An empty backend means
// filesystem.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	switch cfg.Backend {
	case "", BackendFilesystem:
		return NewFilesystem(cfg, logger)
	case BackendS3:
		return NewS3(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// cleanKey normalizes a key and rejects empty, absolute or escaping keys.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

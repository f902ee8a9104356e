package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JaimeStill/speakeval/pkg/lifecycle"
)

type filesystem struct {
	basePath string
	logger   *slog.Logger
}

// NewFilesystem stores blobs as files under cfg.BasePath.
func NewFilesystem(cfg *Config, logger *slog.Logger) (System, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("base_path required")
	}
	abs, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base_path: %w", err)
	}
	return &filesystem{
		basePath: abs,
		logger:   logger.With("system", "storage", "backend", "filesystem"),
	}, nil
}

func (f *filesystem) Start(lc *lifecycle.Coordinator) error {
	f.logger.Info("starting storage", "base_path", f.basePath)
	if err := os.MkdirAll(f.basePath, 0o755); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}
	return nil
}

func (f *filesystem) Store(ctx context.Context, key string, data []byte) error {
	full, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return mapFSError(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return mapFSError(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return mapFSError(err)
	}
	if err := tmp.Close(); err != nil {
		return mapFSError(err)
	}
	return mapFSError(os.Rename(tmp.Name(), full))
}

func (f *filesystem) Retrieve(ctx context.Context, key string) ([]byte, error) {
	full, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, mapFSError(err)
	}
	return data, nil
}

// Delete removes the blob and any directories it leaves empty.
func (f *filesystem) Delete(ctx context.Context, key string) error {
	full, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return mapFSError(err)
	}

	for dir := filepath.Dir(full); dir != f.basePath; dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			break
		}
	}
	return nil
}

func (f *filesystem) Validate(ctx context.Context, key string) (bool, error) {
	full, err := f.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, mapFSError(err)
	}
	return true, nil
}

func (f *filesystem) path(key string) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(f.basePath, filepath.FromSlash(clean)), nil
}

func mapFSError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	}
	return err
}

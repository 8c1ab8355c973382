package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// FileStore keeps the configuration in a JSON document next to a lock file,
// so the settings tool and the daemon can share it safely.
type FileStore struct {
	path     string
	lockPath string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:     path,
		lockPath: path + ".lock",
	}
}

func (s *FileStore) Load(ctx context.Context) (Configuration, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return Configuration{}, nil
	}

	lock := flock.New(s.lockPath)
	locked, err := lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return Configuration{}, fmt.Errorf("error locking settings file: %w", err)
	}
	if !locked {
		return Configuration{}, fmt.Errorf("settings file %s is locked", s.path)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Configuration{}, nil
	}
	if err != nil {
		return Configuration{}, fmt.Errorf("failed to read settings file %s: %w", s.path, err)
	}

	var cfg Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Configuration{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	return cfg, nil
}

func (s *FileStore) Save(ctx context.Context, cfg Configuration) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	lock := flock.New(s.lockPath)
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("error locking settings file: %w", err)
	}
	if !locked {
		return fmt.Errorf("settings file %s is locked", s.path)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary settings file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary settings file: %w", err)
	}

	return os.Rename(tmp.Name(), s.path)
}

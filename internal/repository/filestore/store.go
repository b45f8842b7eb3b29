// Package filestore keeps the board as one named JSON blob on local disk,
// the server-side counterpart of the widget's browser storage.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type Store struct {
	dir  string
	path string

	mu sync.Mutex
}

func New(dir, key string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll -> %w", err)
	}

	return &Store{
		dir:  dir,
		path: filepath.Join(dir, key+".json"),
	}, nil
}

func (s *Store) Path() string {
	return s.path
}

// Load returns nil without error when the blob does not exist.
func (s *Store) Load(_ context.Context) ([]byte, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("os.ReadFile -> %w", err)
	}

	return raw, nil
}

// Save replaces the blob atomically through a temp file and rename.
func (s *Store) Save(_ context.Context, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".fundraiser-*.tmp")
	if err != nil {
		return fmt.Errorf("os.CreateTemp -> %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("tmp.Write -> %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("tmp.Sync -> %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("tmp.Close -> %w", err)
	}

	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("os.Rename -> %w", err)
	}

	return nil
}

// Subscribe watches the directory and calls onChange with the new contents
// whenever the blob is written or replaced, including by other processes.
func (s *Store) Subscribe(ctx context.Context, onChange func([]byte)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify.NewWatcher -> %w", err)
	}
	if err = watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watcher.Add -> %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(e.Name) != filepath.Clean(s.path) || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				raw, err := s.Load(ctx)
				if err != nil {
					zap.L().Warn("filestore reload failed", zap.String("path", s.path), zap.Error(err))
					continue
				}
				if len(raw) > 0 {
					onChange(raw)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				zap.L().Warn("filestore watcher error", zap.Error(err))
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

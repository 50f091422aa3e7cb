package json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/BYEONGHWALEE-dev/cloud-service/lock"
	"github.com/BYEONGHWALEE-dev/cloud-service/storage"
	"github.com/BYEONGHWALEE-dev/cloud-service/utils"
)

// compile-time interface check.
var _ storage.Store[struct{}] = (*Store[struct{}])(nil)

// Store persists T as one JSON file, serialized by locker.
type Store[T any] struct {
	path   string
	locker lock.Locker
}

// New creates a store backed by path. locker must guard path across processes.
func New[T any](path string, locker lock.Locker) *Store[T] {
	return &Store[T]{path: path, locker: locker}
}

// Path returns the backing file.
func (s *Store[T]) Path() string { return s.path }

// With implements storage.Store.
func (s *Store[T]) With(ctx context.Context, fn func(*T) error) error {
	return lock.WithLock(ctx, s.locker, func() error {
		doc, err := s.load()
		if err != nil {
			return err
		}
		return fn(doc)
	})
}

// Update implements storage.Store.
func (s *Store[T]) Update(ctx context.Context, fn func(*T) error) error {
	return lock.WithLock(ctx, s.locker, func() error {
		doc, err := s.load()
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		return utils.AtomicWriteJSON(s.path, doc)
	})
}

func (s *Store[T]) load() (*T, error) {
	doc := new(T)
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	case len(data) > 0:
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.path, err)
		}
	}
	if i, ok := any(doc).(storage.Initer); ok {
		i.Init()
	}
	return doc, nil
}

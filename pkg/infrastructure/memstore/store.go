// Package memstore is the in-memory storage backend. All tables registered
// on a Store share one lock, and a transaction holds it for its whole run,
// restoring every table on error. Each transaction copies every table, so
// it suits a single instance with modest data and tests, not production
// volumes.
package memstore

import (
	"context"
	"sync"
)

type txKeyType struct{}

var txKey = txKeyType{}

type snapshotter interface {
	snapshot() (restore func())
}

type Store struct {
	mu     sync.RWMutex
	tables []snapshotter
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) register(t snapshotter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = append(s.tables, t)
}

func inTx(ctx context.Context, s *Store) bool {
	owner, ok := ctx.Value(txKey).(*Store)
	return ok && owner == s
}

// WithinTx implements application.UnitOfWork.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx, s) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restores := make([]func(), 0, len(s.tables))
	for _, t := range s.tables {
		restores = append(restores, t.snapshot())
	}

	if err := fn(context.WithValue(ctx, txKey, s)); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// Write runs fn under the write lock unless ctx already holds it.
func (s *Store) Write(ctx context.Context, fn func() error) error {
	if inTx(ctx, s) {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// Read runs fn under the read lock unless ctx already holds the write lock.
func (s *Store) Read(ctx context.Context, fn func() error) error {
	if inTx(ctx, s) {
		return fn()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}

// Package memstore keeps ledger state in process memory. Nothing survives a
// restart; used for throwaway simulations and tests.
package memstore

import (
	"context"
	"sync"

	"gridsim/internal/store"
	"gridsim/internal/types"
)

type Store struct {
	mu    sync.Mutex
	state *types.LedgerState
	saves int
	// failSave, when set, is returned by Save instead of storing.
	failSave error
}

func New() *Store {
	return &Store{}
}

var _ store.StateStore = (*Store)(nil)

func (s *Store) Load(context.Context) (types.LedgerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return types.LedgerState{}, store.ErrStateNotFound
	}
	return s.state.Clone(), nil
}

func (s *Store) Save(_ context.Context, state types.LedgerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	cp := state.Clone()
	s.state = &cp
	s.saves++
	return nil
}

// Saves reports how many Save calls succeeded.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *Store) SetFailSave(err error) {
	s.mu.Lock()
	s.failSave = err
	s.mu.Unlock()
}

func (s *Store) Close() error { return nil }

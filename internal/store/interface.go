package store

import (
	"context"
	"errors"

	"gridsim/internal/types"
)

// ErrStateNotFound is returned by Load when nothing has been persisted yet.
var ErrStateNotFound = errors.New("ledger state not found")

// StateStore persists the whole ledger state as one unit.
type StateStore interface {
	// Load returns ErrStateNotFound when no state exists; any other error
	// means the stored state is unreadable.
	Load(ctx context.Context) (types.LedgerState, error)
	// Save replaces the stored state atomically.
	Save(ctx context.Context, state types.LedgerState) error
	Close() error
}

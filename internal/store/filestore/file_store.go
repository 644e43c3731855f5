// Package filestore persists ledger state as a single JSON document that is
// replaced atomically on every save.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gridsim/internal/store"
	"gridsim/internal/types"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const stateSchema = `{
  "type": "object",
  "required": ["balances"],
  "properties": {
    "balances": {
      "type": "object",
      "additionalProperties": {"type": "number", "minimum": 0}
    },
    "orders": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id", "market", "side", "price", "quantity"],
        "properties": {
          "side": {"enum": ["buy", "sell"]},
          "price": {"type": "number", "exclusiveMinimum": 0},
          "quantity": {"type": "number", "exclusiveMinimum": 0}
        }
      }
    },
    "trades": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["order_id", "market", "side", "price", "quantity"],
        "properties": {
          "side": {"enum": ["buy", "sell"]}
        }
      }
    }
  }
}`

type Store struct {
	path   string
	schema *jsonschema.Schema
	mu     sync.Mutex
}

var _ store.StateStore = (*Store)(nil)

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("filestore: state path cannot be empty")
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("ledger_state.json", strings.NewReader(stateSchema)); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile("ledger_state.json")
	if err != nil {
		return nil, fmt.Errorf("filestore: compile schema: %w", err)
	}
	return &Store{path: path, schema: schema}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load(context.Context) (types.LedgerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return types.LedgerState{}, store.ErrStateNotFound
	}
	if err != nil {
		return types.LedgerState{}, fmt.Errorf("read state file: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return types.LedgerState{}, fmt.Errorf("decode state file %s: %w", s.path, err)
	}
	if err := s.schema.Validate(doc); err != nil {
		return types.LedgerState{}, fmt.Errorf("state file %s failed validation: %w", s.path, err)
	}
	var state types.LedgerState
	if err := json.Unmarshal(raw, &state); err != nil {
		return types.LedgerState{}, fmt.Errorf("decode state file %s: %w", s.path, err)
	}
	if state.Orders == nil {
		state.Orders = []types.Order{}
	}
	if state.Trades == nil {
		state.Trades = []types.Trade{}
	}
	return state, nil
}

// Save writes to a temp file in the same directory, syncs it and renames it
// over the previous state, so readers see either the old or the new file.
func (s *Store) Save(_ context.Context, state types.LedgerState) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	closed := false
	defer func() {
		if !closed {
			tmp.Close()
		}
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err = enc.Encode(state); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync state file: %w", err)
	}
	closed = true
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }

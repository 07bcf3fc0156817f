package memory

import (
	"context"
	"strings"
	"sync"

	"subscription-ledger/internal/domain"
	"subscription-ledger/internal/domain/ports/repository"
)

// Store is the in-memory Entity Store: one record per deterministic address.
// A single mutex provides the single-writer-per-address guarantee the ledger
// logic assumes; transactions stage writes and apply them on commit so a
// failed multi-record operation leaves nothing behind.
type Store struct {
	mu      sync.Mutex
	records map[string]any
}

func NewStore() *Store {
	return &Store{records: make(map[string]any)}
}

// Tx stages writes for one transaction. It is only valid while the manager
// holds the store lock.
type Tx struct {
	store   *Store
	pending map[string]any
}

func (t *Tx) get(addr string) (any, bool) {
	if v, ok := t.pending[addr]; ok {
		return v, true
	}
	v, ok := t.store.records[addr]
	return v, ok
}

func (t *Tx) put(addr string, v any) { t.pending[addr] = v }

func (t *Tx) each(prefix string, fn func(addr string, v any)) {
	for addr, v := range t.store.records {
		if !strings.HasPrefix(addr, prefix) {
			continue
		}
		if _, shadowed := t.pending[addr]; shadowed {
			continue
		}
		fn(addr, v)
	}
	for addr, v := range t.pending {
		if strings.HasPrefix(addr, prefix) {
			fn(addr, v)
		}
	}
}

// accessor is the uniform record view repos operate on, transactional or not.
type accessor struct {
	get  func(addr string) (any, bool)
	put  func(addr string, v any)
	each func(prefix string, fn func(addr string, v any))
}

// access dispatches on the tx handle: a *Tx runs against the staged overlay
// under the lock the manager already holds, nil locks the store for the
// single operation.
func (s *Store) access(tx repository.Tx, fn func(a accessor) error) error {
	switch t := tx.(type) {
	case *Tx:
		return fn(accessor{get: t.get, put: t.put, each: t.each})
	case nil:
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(accessor{
			get: func(addr string) (any, bool) {
				v, ok := s.records[addr]
				return v, ok
			},
			put: func(addr string, v any) { s.records[addr] = v },
			each: func(prefix string, fn func(addr string, v any)) {
				for addr, v := range s.records {
					if strings.HasPrefix(addr, prefix) {
						fn(addr, v)
					}
				}
			},
		})
	default:
		return domain.ErrInvalidExecContext
	}
}

// Ensure compile-time conformance
var _ repository.TransactionManager = (*TxManager)(nil)

// TxManager implements repository.TransactionManager for the memory store.
type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// WithTx runs fn against a staged overlay of the store and applies all
// writes atomically on success. Any error discards the staged writes.
func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	tx := &Tx{store: m.store, pending: make(map[string]any)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for addr, v := range tx.pending {
		m.store.records[addr] = v
	}
	return nil
}

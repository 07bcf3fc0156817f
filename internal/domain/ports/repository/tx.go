package repository

import "context"

// Tx is an opaque transaction handle threaded through repository calls. The
// concrete type is infra-defined (pgx.Tx for Postgres, the memory store's
// own handle for the in-memory backend). Repositories accept a nil Tx for
// the non-transactional path.
type Tx interface{}

// TransactionManager executes a function inside a single all-or-nothing
// commit boundary. Every mutation performed through the supplied Tx becomes
// visible atomically on commit; any error from fn rolls the whole
// transaction back. Multi-record ledger operations rely on this to never
// leave partial state behind.
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

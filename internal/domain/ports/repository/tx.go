package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// TransactionManager executes a function inside a database transaction,
// passing the underlying handle via `tx`.
//
// Repositories accept the handle as `Tx` and detect it implementation-side,
// so use-case interfaces stay free of driver types. A nil handle means the
// non-transactional pool path. The concrete type is infra-defined
// (pgx.Tx for Postgres).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

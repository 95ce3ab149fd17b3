package repositories

import "context"

// TxFn is a function executed within a transaction. Repositories called with
// the supplied context automatically participate in the transaction.
type TxFn func(ctx context.Context) error

// TransactionManager runs functions within a database transaction. If the
// function returns an error the transaction is rolled back and none of its
// writes are observable.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}

package domain

import "context"

// TxManager runs a function inside a single storage transaction. The tx
// handle is opaque to services; repositories accept it on their *Tx methods.
// Rollback happens automatically when fn returns an error.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx any) error) error
	// IsRetryable reports whether err is a transient storage conflict
	// (serialization failure, deadlock) worth one retry.
	IsRetryable(err error) bool
}

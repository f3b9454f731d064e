package persistence

import "context"

// LockOwnerKey takes a transaction-scoped advisory lock on namespace:ownerID
// in the ambient Postgres transaction. Concurrent holders of the same key
// queue until the first transaction ends.
func LockOwnerKey(ctx context.Context, namespace, ownerID string) error {
	if ownerID == "" {
		return ErrMissingOwner
	}
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}
	_, err := info.Tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, namespace+":"+ownerID)
	return err
}

// RequireSQLiteTx checks that ctx carries a SQLite transaction. The
// database runs on a single connection, so an open transaction already
// excludes every other writer.
func RequireSQLiteTx(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return ErrMissingOwner
	}
	if _, ok := SQLiteTxInfoFromContext(ctx); !ok {
		return ErrNoTransaction
	}
	return nil
}

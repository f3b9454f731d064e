package persistence

import (
	"context"
	"errors"
	"fmt"
)

// OwnerSetting is the session setting the row-level security policies read.
const OwnerSetting = "app.user_id"

// ErrMissingOwner is returned when an owner-scoped call has no owner.
var ErrMissingOwner = errors.New("owner identifier is required")

// ScopeToOwner sets the RLS owner for the rest of the current transaction.
func ScopeToOwner(ctx context.Context, exec DBExecutor, ownerID string) error {
	if ownerID == "" {
		return ErrMissingOwner
	}
	if _, err := exec.Exec(ctx, "SELECT set_config('"+OwnerSetting+"', $1, true)", ownerID); err != nil {
		return fmt.Errorf("scope session to owner: %w", err)
	}
	return nil
}

// InOwnerScope runs fn on a transaction scoped to ownerID.
// The ambient unit-of-work transaction is reused when ctx carries one;
// otherwise a short transaction is opened and committed around fn.
func InOwnerScope(ctx context.Context, pool TxBeginner, ownerID string, fn func(exec DBExecutor) error) error {
	if info, ok := TxInfoFromContext(ctx); ok {
		if err := ScopeToOwner(ctx, info.Tx, ownerID); err != nil {
			return err
		}
		return fn(info.Tx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := ScopeToOwner(ctx, tx, ownerID); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

package db

import (
	"context"
	"fmt"
)

// WithTryLock runs fn while holding a session advisory lock on a dedicated
// connection. It returns ran=false without calling fn if the lock is taken.
func (db *DB) WithTryLock(ctx context.Context, lockID int64, fn func(ctx context.Context) error) (bool, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var acquired bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&acquired); err != nil {
		return false, fmt.Errorf("try acquire advisory lock: %w", err)
	}

	if !acquired {
		return false, nil
	}

	defer func() {
		//nolint:errcheck // unlock is best-effort, lock is released when the session ends
		_, _ = conn.Exec(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", lockID)
	}()

	return true, fn(ctx)
}

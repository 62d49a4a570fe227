package httpapi

import (
	"context"
	"fmt"

	"github.com/stigctl/engine/store"
)

// withRead runs fn against a fresh transaction, committing it when fn
// succeeds and rolling it back when fn returns an error. Reads don't
// mutate state, but every Store method still expects to run inside a Tx.
func withRead(ctx context.Context, beginner store.Beginner, fn func(store.Tx) error) error {
	tx, err := beginner.Begin(ctx)
	if err != nil {
		return fmt.Errorf("httpapi: begin read transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

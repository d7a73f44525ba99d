package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dkoval/sitesearch/internal/apperr"
)

const maxRetryAttempts = 3

var retryBaseDelay = time.Second

// isLockConflict reports whether err looks like a sqlite busy/locked
// error, the case this repo's retry policy exists for.
func isLockConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

// withRetryTx runs fn inside a transaction, retrying on lock conflicts
// with delay*attempt backoff up to maxRetryAttempts.
func (s *Store) withRetryTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxRetryAttempts; attempt++ {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}

		if err := fn(tx); err != nil {
			tx.Rollback()
			if !isLockConflict(err) {
				return err
			}
			lastErr = apperr.NewTransientStoreError(err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBaseDelay * time.Duration(attempt)):
			}
			continue
		}

		if err := tx.Commit(); err != nil {
			if !isLockConflict(err) {
				return err
			}
			lastErr = apperr.NewTransientStoreError(err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBaseDelay * time.Duration(attempt)):
			}
			continue
		}

		return nil
	}
	return lastErr
}

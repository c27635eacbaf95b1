package game

import (
	game_constants "Lotero/constants/game"
	"Lotero/utils/logger"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Postgres error codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"
	pgUniqueViolation      = "23505"
)

// isTransientError reports whether the storage error is a lock
// contention condition worth retrying. Business-rule failures never
// classify as transient.
func isTransientError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgDeadlockDetected || pqErr.Code == pgSerializationFailure
	}
	return false
}

// isUniqueViolation reports whether the error is a unique-constraint
// violation, used by the room-code allocator and the duplicate guards.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	return false
}

// withRetry runs op, retrying only transient storage conflicts up to
// MaxTxRetries times with linearly increasing backoff (50ms, 100ms,
// 150ms). The last error is surfaced once retries are exhausted.
func withRetry(op func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = op()
		if err == nil || !isTransientError(err) {
			return err
		}
		if attempt >= game_constants.MaxTxRetries {
			return err
		}
		backoff := game_constants.RetryBackoffStep * time.Duration(attempt+1)
		logger.Infof("Transient storage conflict, retrying in %s (attempt %d/%d): %v",
			backoff, attempt+1, game_constants.MaxTxRetries, err)
		time.Sleep(backoff)
	}
}

package adminops

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const defaultMaxAttempts = 3

// ErrRetryExhausted wraps the last transient error after the attempt bound is
// hit. Callers can distinguish exhausted contention from other internal
// failures, but it still maps to a 500-class response.
var ErrRetryExhausted = errors.New("transaction retries exhausted")

// runTx executes fn in a transaction, retrying the whole function from fresh
// state on classified-retryable backend errors. There is no backoff beyond the
// fixed attempt count; retries are local to this one request.
func (s *Service) runTx(ctx context.Context, fn func(Tx) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := s.store.WithTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
		s.logger.Warn("retrying transaction after transient failure",
			"attempt", attempt, "max_attempts", s.maxAttempts, "error", err)
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, s.maxAttempts, lastErr)
}

// isRetryable classifies serialization failures, deadlocks and connection
// faults as retryable. Everything else rethrows immediately.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		}
		// Class 08: connection exceptions.
		return strings.HasPrefix(pgErr.Code, "08")
	}
	return pgconn.SafeToRetry(err)
}

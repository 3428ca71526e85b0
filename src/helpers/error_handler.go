package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quote-observer/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

// ErrNoData is returned by a provider when the upstream payload has no usable close value.
var ErrNoData = errors.New("no usable quote data")

type QuoteObserverError struct {
	Message string
	Cause   error
}

func (e *QuoteObserverError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *QuoteObserverError) Unwrap() error {
	return e.Cause
}

// Distinct error kinds so callers can branch with errors.As.
type ConfigurationError struct{ QuoteObserverError }
type ValidationError struct{ QuoteObserverError }
type UpstreamError struct{ QuoteObserverError }
type DurabilityError struct{ QuoteObserverError }
type LoadError struct{ QuoteObserverError }
type QueryError struct{ QuoteObserverError }

// -----------------------------------------------------------------------------

func NewConfigurationError(message string, cause error) error {
	return &ConfigurationError{QuoteObserverError{Message: message, Cause: cause}}
}

func NewValidationError(message string) error {
	return &ValidationError{QuoteObserverError{Message: message}}
}

func NewUpstreamError(symbol string, cause error) error {
	return &UpstreamError{QuoteObserverError{Message: fmt.Sprintf("fetch %s failed", symbol), Cause: cause}}
}

func NewDurabilityError(op string, cause error) error {
	return &DurabilityError{QuoteObserverError{Message: op + " failed", Cause: cause}}
}

func NewLoadError(path string, cause error) error {
	return &LoadError{QuoteObserverError{Message: fmt.Sprintf("load %s failed", path), Cause: cause}}
}

func NewQueryError(op string, cause error) error {
	return &QueryError{QuoteObserverError{Message: op + " failed", Cause: cause}}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn up to attempts times, doubling baseDelay between tries.
// It stops early when ctx is done or fn returns a non-retryable error.
func RetryWithBackoff[T any](ctx context.Context, log *logger.Logger, operation string, attempts int, baseDelay time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if errors.Is(err, ErrNoData) || attempt == attempts-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		if log != nil {
			log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, attempts, operation, err, delay)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, fmt.Errorf("%s: %w (last error: %v)", operation, ctx.Err(), lastErr)
		}
	}

	return zero, lastErr
}

package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrChainNotFound      = errors.New("chain not found")
	ErrTokenNotSupported  = errors.New("token not supported on chain")
	ErrInvalidConfig      = errors.New("invalid chain configuration")
	ErrChainExists        = errors.New("chain already exists in registry")
	ErrFactoryNotProvided = errors.New("chain factory not provided")
	ErrInvalidChainType   = errors.New("invalid chain type")
	ErrNotImplemented     = errors.New("functionality not implemented")
	ErrDatabaseConnect    = errors.New("failed to connect to database")

	// ErrRouteUnavailable marks a settlement path that cannot be used right
	// now. It licenses fallback to the next path and is never surfaced as a
	// terminal failure on its own.
	ErrRouteUnavailable = errors.New("settlement path unavailable")

	// ErrRequestInFlight marks a duplicate request for a key (voucher code
	// or payer address) that already has an active settlement.
	ErrRequestInFlight = errors.New("request for this key is already in flight")

	// ErrQueueFull marks a request rejected because the settlement work
	// queue is at capacity.
	ErrQueueFull = errors.New("settlement queue is full")
)

// ValidationError reports malformed or missing input, rejected before any
// external call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// QuoteError reports that the aggregator has no viable route, carrying the
// aggregator's reported reason.
type QuoteError struct {
	Reason string
}

func (e *QuoteError) Error() string {
	return "no aggregator route: " + e.Reason
}

// IsQuote reports whether err is a QuoteError.
func IsQuote(err error) bool {
	var q *QuoteError
	return errors.As(err, &q)
}

// ChainError reports an on-chain rejection of a submitted operation.
type ChainError struct {
	TxHash string
	Reason string
}

func (e *ChainError) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("chain rejected operation (tx %s): %s", e.TxHash, e.Reason)
	}
	return "chain rejected operation: " + e.Reason
}

// TimeoutError reports that a confirmation wait timed out. The on-chain
// outcome at that point is unknown; callers must treat it as indeterminate
// and never retry automatically.
type TimeoutError struct {
	TxHash string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("confirmation timed out, on-chain outcome unknown (tx %s)", e.TxHash)
}

// IsTimeout reports whether err is a TimeoutError.
func IsTimeout(err error) bool {
	var t *TimeoutError
	return errors.As(err, &t)
}

// RouteExhaustedError reports that every applicable settlement path failed.
type RouteExhaustedError struct {
	Last error
}

func (e *RouteExhaustedError) Error() string {
	if e.Last != nil {
		return "all settlement paths failed: " + e.Last.Error()
	}
	return "all settlement paths failed"
}

func (e *RouteExhaustedError) Unwrap() error {
	return e.Last
}

// IsRouteUnavailable reports whether err marks an unusable path that should
// trigger fallback rather than failure.
func IsRouteUnavailable(err error) bool {
	return errors.Is(err, ErrRouteUnavailable)
}

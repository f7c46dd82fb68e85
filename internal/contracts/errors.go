package contracts

import (
	"errors"
	"fmt"
)

// Valuation error taxonomy
// ⭐ SSOT: 에러 분류는 여기서만 정의
var (
	// ErrUnknownSource: requested provider name is not registered
	ErrUnknownSource = errors.New("unknown data source")

	// ErrDuplicateSource: a provider with the same name is already registered
	ErrDuplicateSource = errors.New("data source already registered")

	// ErrDataUnavailable: a required input figure is absent
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInvalidDCFParameters: DCF parameters out of range (r <= g_t etc.)
	ErrInvalidDCFParameters = errors.New("invalid DCF parameters")

	// ErrMissingShareCount: per-share conversion impossible
	ErrMissingShareCount = errors.New("shares outstanding unavailable")

	// ErrUnscoreable: no ratio available to build a composite score
	ErrUnscoreable = errors.New("unscoreable")

	// ErrProviderFailure matches every *ProviderError via errors.Is
	ErrProviderFailure = errors.New("provider failure")
)

// ProviderErrorKind distinguishes provider failures so callers can decide on retries
type ProviderErrorKind string

const (
	ProviderNotFound    ProviderErrorKind = "not_found"
	ProviderTransient   ProviderErrorKind = "transient"
	ProviderRateLimited ProviderErrorKind = "rate_limited"
	ProviderParse       ProviderErrorKind = "parse"
)

// ProviderError is returned by DataSource implementations
type ProviderError struct {
	Source string
	Ticker string
	Op     string // "quote" or "fundamentals"
	Kind   ProviderErrorKind
	Err    error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s %s: %s", e.Source, e.Op, e.Ticker, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrProviderFailure) true for any provider error
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderFailure
}

// Retryable reports whether retrying later may succeed
func (e *ProviderError) Retryable() bool {
	return e.Kind == ProviderTransient || e.Kind == ProviderRateLimited
}

// NewProviderError builds a ProviderError
func NewProviderError(source, op, ticker string, kind ProviderErrorKind, err error) *ProviderError {
	return &ProviderError{Source: source, Op: op, Ticker: ticker, Kind: kind, Err: err}
}

// ProviderErrorKindOf extracts the kind, or "" when err is not a provider error
func ProviderErrorKindOf(err error) ProviderErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// Package external holds the market data providers. This file maps transport
// failures onto the provider error taxonomy shared by all of them.
package external

import (
	"errors"
	"net/http"

	"github.com/wonny/volur/internal/contracts"
	"github.com/wonny/volur/pkg/httputil"
)

// Classify wraps err as a *contracts.ProviderError
//
//	404 and other 4xx   → not found
//	429                 → rate limited
//	5xx, network, ctx   → transient
//	undecodable body    → parse
func Classify(source, op, ticker string, err error) error {
	if err == nil {
		return nil
	}

	var pe *contracts.ProviderError
	if errors.As(err, &pe) {
		return err
	}

	return contracts.NewProviderError(source, op, ticker, kindOf(err), err)
}

func kindOf(err error) contracts.ProviderErrorKind {
	var se *httputil.StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusTooManyRequests:
			return contracts.ProviderRateLimited
		case se.StatusCode >= 500:
			return contracts.ProviderTransient
		default:
			return contracts.ProviderNotFound
		}
	}

	var de *httputil.DecodeError
	if errors.As(err, &de) {
		return contracts.ProviderParse
	}

	return contracts.ProviderTransient
}

// NotFound builds a not-found provider error with a message
func NotFound(source, op, ticker, msg string) error {
	return contracts.NewProviderError(source, op, ticker, contracts.ProviderNotFound, errors.New(msg))
}

// ParseFailure builds a parse provider error with a message
func ParseFailure(source, op, ticker, msg string) error {
	return contracts.NewProviderError(source, op, ticker, contracts.ProviderParse, errors.New(msg))
}

package contracts

import "context"

// DataSource is the capability every market data provider implements
// ⭐ SSOT: 데이터 소스 인터페이스는 여기서만 정의
//
// Implementations report failures as *ProviderError so the caller can tell
// "not found" from "transient" from "rate limited". Timeouts are the
// implementation's responsibility.
type DataSource interface {
	// Name identifies the provider for registry lookup and cache namespacing
	Name() string

	// GetQuote returns the current quote for a ticker
	GetQuote(ctx context.Context, ticker string) (Quote, error)

	// GetFundamentals returns the latest fundamentals for a ticker
	GetFundamentals(ctx context.Context, ticker string) (Fundamentals, error)
}

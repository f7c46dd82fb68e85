package cache

import (
	"fmt"
	"strings"

	"github.com/wonny/volur/internal/contracts"
)

// Kind is the type of payload stored under a key
type Kind string

const (
	KindQuote        Kind = "quote"
	KindFundamentals Kind = "fundamentals"
)

// Key identifies one cached payload
// Keys are namespaced per provider so two sources never share an entry.
type Key struct {
	Source string
	Ticker string
	Kind   Kind
}

// NewKey normalizes the source name and ticker
func NewKey(source, ticker string, kind Kind) Key {
	return Key{
		Source: strings.ToLower(strings.TrimSpace(source)),
		Ticker: contracts.NormalizeTicker(ticker),
		Kind:   kind,
	}
}

// QuoteKey is the key for a source's quote of ticker
func QuoteKey(source, ticker string) Key {
	return NewKey(source, ticker, KindQuote)
}

// FundamentalsKey is the key for a source's fundamentals of ticker
func FundamentalsKey(source, ticker string) Key {
	return NewKey(source, ticker, KindFundamentals)
}

// String renders {source}:{TICKER}:{kind}
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Source, k.Ticker, k.Kind)
}

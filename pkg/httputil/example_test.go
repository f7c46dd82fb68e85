package httputil_test

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/volur/pkg/httputil"
	"github.com/wonny/volur/pkg/logger"
)

// Example_provider shows how a data provider configures its client
func Example_provider() {
	client := httputil.NewWithTimeout(logger.Nop(), 10*time.Second).
		WithRetry(2, 500*time.Millisecond).
		WithLimiter(rate.NewLimiter(rate.Limit(5), 1)).
		WithHeader("X-Finnhub-Token", "demo")

	var quote struct {
		Current float64 `json:"c"`
	}
	if err := client.GetJSON(context.Background(), "https://finnhub.io/api/v1/quote?symbol=AAPL", &quote); err != nil {
		fmt.Printf("quote failed: %v\n", err)
		return
	}
	fmt.Printf("AAPL %.2f\n", quote.Current)
}

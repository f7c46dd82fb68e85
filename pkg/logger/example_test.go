package logger_test

import (
	"errors"

	"github.com/wonny/volur/pkg/config"
	"github.com/wonny/volur/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := logger.New(cfg)

	log.Info("Valuation started")
	log.Infof("Analyzing %d tickers", 3)
}

// Example_withTicker demonstrates per-ticker structured logging
func Example_withTicker() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	tickerLog := log.WithTicker("yfinance", "AAPL")
	tickerLog.WithField("score", 72.5).Info("Valuation completed")

	err := errors.New("rate limited")
	tickerLog.WithError(err).Warn("Quote fetch failed")
}

// Package engine orchestrates one valuation: resolve the source, fetch quote
// and fundamentals through the cache, then run ratios, DCF and the scorer.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/volur/internal/cache"
	"github.com/wonny/volur/internal/contracts"
	"github.com/wonny/volur/internal/source"
	"github.com/wonny/volur/internal/valuation"
	"github.com/wonny/volur/pkg/logger"
)

const reasonCancelled = "cancelled"

// Engine is the single entry point used by the CLI, the API and the scheduler
// ⭐ SSOT: 밸류에이션 파이프라인은 여기서만 조립
type Engine struct {
	registry *source.Registry
	cache    *cache.Cache
	scorer   *valuation.Scorer
	logger   *logger.Logger
	workers  int
	now      func() time.Time
}

// New creates an engine. workers bounds AnalyzeMany parallelism.
func New(reg *source.Registry, c *cache.Cache, log *logger.Logger, workers int) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		registry: reg,
		cache:    c,
		scorer:   valuation.NewScorer(log),
		logger:   log.WithField("module", "engine"),
		workers:  workers,
		now:      time.Now,
	}
}

// WithScorer replaces the scorer (custom bands)
func (e *Engine) WithScorer(s *valuation.Scorer) *Engine {
	e.scorer = s
	return e
}

// RegisterSource adds a provider to the engine's registry
func (e *Engine) RegisterSource(src contracts.DataSource) error {
	return e.registry.Register(src)
}

// GetSource resolves a provider by name
func (e *Engine) GetSource(name string) (contracts.DataSource, error) {
	return e.registry.Get(name)
}

// Sources lists registered provider names
func (e *Engine) Sources() []string {
	return e.registry.Names()
}

// Cache exposes the provider cache (stats, clear)
func (e *Engine) Cache() *cache.Cache {
	return e.cache
}

// Analyze values one ticker. It never returns an error: every failure is
// reported through the result's Status and Reasons. Cancellation is only
// observed before the ticker starts; a started ticker runs to completion.
func (e *Engine) Analyze(ctx context.Context, sourceName, ticker string, params contracts.DCFParams, weights contracts.ScoringWeights) contracts.ValuationResult {
	t := contracts.NormalizeTicker(ticker)
	result := contracts.ValuationResult{
		Ticker:     t,
		Source:     sourceName,
		AnalyzedAt: e.now().UTC(),
	}
	log := e.logger.WithTicker(sourceName, t)

	if t == "" {
		return fail(result, "empty ticker")
	}
	if ctx.Err() != nil {
		return fail(result, reasonCancelled)
	}
	ctx = context.WithoutCancel(ctx)

	src, err := e.registry.Get(sourceName)
	if err != nil {
		return fail(result, err.Error())
	}
	result.Source = src.Name()

	quote, err := e.fetchQuote(ctx, src, t)
	if err != nil {
		log.WithError(err).Warn("Quote fetch failed")
		return fail(result, "quote: "+err.Error())
	}
	if !quote.Price.IsPositive() {
		return fail(result, fmt.Sprintf("quote: non-positive price %s", quote.Price.String()))
	}
	result.Price.Decimal = quote.Price
	result.Price.Valid = true

	fund, err := e.fetchFundamentals(ctx, src, t)
	if err != nil {
		log.WithError(err).Warn("Fundamentals fetch failed")
		return fail(result, "fundamentals: "+err.Error())
	}

	// Ratios
	result.Ratios = valuation.Snapshot(quote, fund)
	if missing := result.Ratios.Missing(); len(missing) > 0 {
		result.Reasons = append(result.Reasons, "ratios unavailable: "+strings.Join(missing, ", "))
	}

	// DCF
	dcf, err := valuation.DCF(fund.FreeCashFlow, valuation.ShareCount(quote, fund), params)
	hasEquity := err == nil || errors.Is(err, contracts.ErrMissingShareCount)
	if hasEquity {
		result.EquityValue = contracts.Some(dcf.EquityValue)
		result.IntrinsicValue = dcf.PerShare
	}
	if err != nil {
		result.Reasons = append(result.Reasons, err.Error())
	}
	if hasEquity && dcf.NegativeBase {
		result.Warnings = append(result.Warnings, "free cash flow is not positive; intrinsic value projects the cash burn")
	}
	result.MarginOfSafety = valuation.MarginOfSafety(quote.PriceFloat(), result.IntrinsicValue)

	// Score
	score, err := e.scorer.Score(result.Ratios, weights)
	if err != nil {
		result.Reasons = append(result.Reasons, "score: "+err.Error())
	} else {
		result.Score = contracts.Some(score.Score)
		result.Rating = valuation.Interpret(score.Score)
	}

	result.Status = contracts.StatusSuccess
	if len(result.Reasons) > 0 {
		result.Status = contracts.StatusPartialFailure
	}

	log.WithFields(map[string]interface{}{
		"status":          result.Status,
		"intrinsic_value": result.IntrinsicValue.String(),
		"score":           result.Score.String(),
	}).Debug("Valuation completed")

	return result
}

// AnalyzeMany values every ticker independently with bounded parallelism.
// Results keep the input order. Cancellation is checked before each ticker
// starts; tickers not started report Failure with reason "cancelled".
func (e *Engine) AnalyzeMany(ctx context.Context, sourceName string, tickers []string, params contracts.DCFParams, weights contracts.ScoringWeights) []contracts.ValuationResult {
	results := make([]contracts.ValuationResult, len(tickers))

	e.logger.WithFields(map[string]interface{}{
		"source":  sourceName,
		"tickers": len(tickers),
		"workers": e.workers,
	}).Info("Starting batch valuation")

	// errgroup without WithContext: one ticker's failure must not cancel the rest
	var g errgroup.Group
	g.SetLimit(e.workers)

	for i, ticker := range tickers {
		if ctx.Err() != nil {
			results[i] = e.cancelled(sourceName, ticker)
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = e.cancelled(sourceName, ticker)
				return nil
			}
			results[i] = e.Analyze(ctx, sourceName, ticker, params, weights)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summarize(results)
	e.logger.WithFields(map[string]interface{}{
		"success":         summary.Success,
		"partial_failure": summary.PartialFailure,
		"failure":         summary.Failure,
	}).Info("Batch valuation completed")

	return results
}

// WarmReport summarizes a Warm run
type WarmReport struct {
	Warmed int               `json:"warmed"`
	Failed map[string]string `json:"failed,omitempty"`
}

// Warm loads quote and fundamentals for each ticker into the cache.
// Fresh entries are left untouched.
func (e *Engine) Warm(ctx context.Context, sourceName string, tickers []string) (WarmReport, error) {
	report := WarmReport{Failed: make(map[string]string)}

	src, err := e.registry.Get(sourceName)
	if err != nil {
		return report, err
	}

	failures := make([]error, len(tickers))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, ticker := range tickers {
		if ctx.Err() != nil {
			failures[i] = ctx.Err()
			continue
		}
		g.Go(func() error {
			t := contracts.NormalizeTicker(ticker)
			if _, err := e.fetchQuote(ctx, src, t); err != nil {
				failures[i] = err
				return nil
			}
			_, failures[i] = e.fetchFundamentals(ctx, src, t)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range failures {
		if err != nil {
			report.Failed[contracts.NormalizeTicker(tickers[i])] = err.Error()
			continue
		}
		report.Warmed++
	}
	return report, ctx.Err()
}

func (e *Engine) fetchQuote(ctx context.Context, src contracts.DataSource, ticker string) (contracts.Quote, error) {
	var q contracts.Quote
	err := e.cache.GetOrFetch(ctx, cache.QuoteKey(src.Name(), ticker), &q, func(ctx context.Context) (interface{}, error) {
		return src.GetQuote(ctx, ticker)
	})
	return q, err
}

func (e *Engine) fetchFundamentals(ctx context.Context, src contracts.DataSource, ticker string) (contracts.Fundamentals, error) {
	var f contracts.Fundamentals
	err := e.cache.GetOrFetch(ctx, cache.FundamentalsKey(src.Name(), ticker), &f, func(ctx context.Context) (interface{}, error) {
		return src.GetFundamentals(ctx, ticker)
	})
	return f, err
}

func (e *Engine) cancelled(sourceName, ticker string) contracts.ValuationResult {
	return fail(contracts.ValuationResult{
		Ticker:     contracts.NormalizeTicker(ticker),
		Source:     sourceName,
		AnalyzedAt: e.now().UTC(),
	}, reasonCancelled)
}

func fail(r contracts.ValuationResult, reason string) contracts.ValuationResult {
	r.Status = contracts.StatusFailure
	r.Reasons = append(r.Reasons, reason)
	return r
}

// Summary counts results by status
type Summary struct {
	Total          int `json:"total"`
	Success        int `json:"success"`
	PartialFailure int `json:"partial_failure"`
	Failure        int `json:"failure"`
}

// Summarize counts results by status
func Summarize(results []contracts.ValuationResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case contracts.StatusSuccess:
			s.Success++
		case contracts.StatusPartialFailure:
			s.PartialFailure++
		default:
			s.Failure++
		}
	}
	return s
}

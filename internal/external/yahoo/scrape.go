package yahoo

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/volur/internal/contracts"
	"github.com/wonny/volur/internal/external"
)

// scrapeKeyStatistics parses the key-statistics HTML page
func (c *Client) scrapeKeyStatistics(ctx context.Context, ticker string) (contracts.Fundamentals, error) {
	page := fmt.Sprintf("%s/quote/%s/key-statistics/", c.htmlURL, url.PathEscape(ticker))

	body, err := c.httpClient.GetBody(ctx, page)
	if err != nil {
		return contracts.Fundamentals{}, external.Classify(Name, "fundamentals", ticker, err)
	}

	stats, err := parseKeyStatistics(body)
	if err != nil {
		return contracts.Fundamentals{}, external.ParseFailure(Name, "fundamentals", ticker, err.Error())
	}
	if len(stats) == 0 {
		return contracts.Fundamentals{}, external.NotFound(Name, "fundamentals", ticker, "no key statistics on page")
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"stats":  len(stats),
	}).Debug("Scraped key statistics")

	return contracts.Fundamentals{
		Ticker:            ticker,
		TrailingPE:        stats.get("Trailing P/E"),
		PriceToBook:       stats.get("Price/Book"),
		ROE:               stats.get("Return on Equity"),
		ROA:               stats.get("Return on Assets"),
		DebtToEquity:      stats.get("Total Debt/Equity"),
		FreeCashFlow:      stats.get("Levered Free Cash Flow"),
		SharesOutstanding: stats.get("Shares Outstanding"),
		Revenue:           stats.get("Revenue ("),
		OperatingMargin:   stats.get("Operating Margin"),
	}, nil
}

type statRow struct {
	label string
	value string
}

// keyStats holds the table rows in page order
type keyStats []statRow

// get returns the first row whose label starts with prefix; labels carry
// period suffixes like "(ttm)" and footnote markers
func (s keyStats) get(prefix string) contracts.Metric {
	for _, row := range s {
		if strings.HasPrefix(row.label, prefix) {
			return parseStatValue(row.value)
		}
	}
	return contracts.None()
}

func parseKeyStatistics(html []byte) (keyStats, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse key statistics: %w", err)
	}

	var stats keyStats
	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := strings.TrimSpace(cells.Eq(0).Text())
		value := strings.TrimSpace(cells.Eq(1).Text())
		if label == "" {
			return
		}
		stats = append(stats, statRow{label: label, value: value})
	})
	return stats, nil
}

var magnitudes = map[byte]float64{
	'k': 1e3, 'K': 1e3,
	'M': 1e6,
	'B': 1e9,
	'T': 1e12,
}

// parseStatValue reads "15.3%", "1.2B", "-340.5M", "2,104.00" and "N/A"
func parseStatValue(s string) contracts.Metric {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "N/A" || s == "--" || s == "-" {
		return contracts.None()
	}

	scale := 1.0
	switch last := s[len(s)-1]; {
	case last == '%':
		scale = 0.01
		s = s[:len(s)-1]
	case magnitudes[last] != 0:
		scale = magnitudes[last]
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return contracts.None()
	}
	return contracts.Some(v * scale)
}

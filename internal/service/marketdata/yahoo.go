package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	drepo "github.com/Kagemann/brondby-stock-tracker/internal/domain/repository"
	xhttp "github.com/Kagemann/brondby-stock-tracker/pkg/http"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client implements a QuoteSource backed by the Yahoo Finance chart API.
type Client struct {
	http    *xhttp.Client
	baseURL string
}

// New creates a new Yahoo Finance QuoteSource.
func New(baseURL string, timeout time.Duration) drepo.QuoteSource {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: baseURL,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch returns price points for the symbol covering the lookback window,
// oldest first. Bars with no close are skipped.
func (c *Client) Fetch(ctx context.Context, symbol string, lookback time.Duration) ([]models.PricePoint, error) {
	rng, interval := rangeFor(lookback)

	var out chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, symbol),
		Headers: map[string]string{
			"User-Agent": "brondby-stock-tracker/1.0",
		},
		QueryParams: map[string][]string{
			"range":    {rng},
			"interval": {interval},
		},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("fetch chart %s: %w", symbol, err)
	}
	if out.Chart.Error != nil {
		return nil, fmt.Errorf("chart %s: %s: %s", symbol, out.Chart.Error.Code, out.Chart.Error.Description)
	}
	if len(out.Chart.Result) == 0 || len(out.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart %s: empty result", symbol)
	}

	res := out.Chart.Result[0]
	quote := res.Indicators.Quote[0]
	cutoff := time.Now().Add(-lookback)

	points := make([]models.PricePoint, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		at := time.Unix(ts, 0).UTC()
		if at.Before(cutoff) {
			continue
		}
		var vol int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			vol = int64(*quote.Volume[i])
		}
		points = append(points, models.PricePoint{
			Timestamp: at,
			Price:     *quote.Close[i],
			Volume:    vol,
		})
	}
	return points, nil
}

// rangeFor maps a lookback window to the coarsest chart range and bar
// interval that still covers it.
func rangeFor(lookback time.Duration) (string, string) {
	switch {
	case lookback <= 24*time.Hour:
		return "1d", "5m"
	case lookback <= 5*24*time.Hour:
		return "5d", "15m"
	case lookback <= 30*24*time.Hour:
		return "1mo", "1h"
	default:
		return "3mo", "1d"
	}
}

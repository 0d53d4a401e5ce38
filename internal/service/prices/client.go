package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"SmartFlow/internal/domain/models"
	"SmartFlow/internal/domain/service"
	"SmartFlow/internal/service/cache"
	"SmartFlow/internal/service/ratelimit"
	xhttp "SmartFlow/pkg/http"
	applogger "SmartFlow/pkg/logger"
)

const limiterKey = "prices"

// Client fetches daily close series from a Yahoo-style chart endpoint.
// Responses are cached and requests are rate limited; a ticker with no
// chart data comes back as an empty series, not an error.
type Client struct {
	http       *xhttp.Client
	baseURL    string
	limiter    *ratelimit.Limiter
	rateBurst  float64
	ratePerSec float64
	cache      cache.BytesCache
	cacheTTL   time.Duration
	l          *applogger.Logger
}

type Option func(*Client)

func WithCache(c cache.BytesCache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		if ttl > 0 {
			cl.cacheTTL = ttl
		}
	}
}

func WithRateLimit(burst, perSec float64) Option {
	return func(cl *Client) {
		if burst > 0 {
			cl.rateBurst = burst
		}
		if perSec > 0 {
			cl.ratePerSec = perSec
		}
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(cl *Client) { cl.l = l }
}

func New(baseURL string, timeout time.Duration, opts ...Option) service.PriceProvider {
	c := &Client{
		http:       xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    ratelimit.New(),
		rateBurst:  5,
		ratePerSec: 2,
		cacheTTL:   15 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) DailyCloses(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error) {
	key := fmt.Sprintf("prices:%s:%s:%s", ticker, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if c.cache != nil {
		if b, ok, _ := c.cache.GetBytes(key); ok {
			var cached []models.PricePoint
			if err := json.Unmarshal(b, &cached); err == nil {
				return cached, nil
			}
		}
	}

	if err := c.limiter.Wait(ctx, limiterKey, c.rateBurst, c.ratePerSec); err != nil {
		return nil, err
	}

	var resp chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, ticker),
		QueryParams: map[string][]string{
			"period1":  {strconv.FormatInt(from.Unix(), 10)},
			"period2":  {strconv.FormatInt(to.Unix(), 10)},
			"interval": {"1d"},
		},
		Headers: map[string]string{"Accept": "application/json"},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", ticker, err)
	}
	if resp.Chart.Error != nil {
		// "Not Found" style errors mean an unknown or delisted symbol.
		if c.l != nil {
			c.l.Warn("chart error",
				applogger.String("ticker", ticker),
				applogger.String("code", resp.Chart.Error.Code))
		}
		return nil, nil
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	closes := result.Indicators.Quote[0].Close

	series := make([]models.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		series = append(series, models.PricePoint{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *closes[i],
		})
	}

	if c.cache != nil && len(series) > 0 {
		if b, err := json.Marshal(series); err == nil {
			_ = c.cache.SetBytes(key, b, c.cacheTTL)
		}
	}
	return series, nil
}

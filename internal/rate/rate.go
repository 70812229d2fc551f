// Package rate fetches the current USD/BRL exchange rate, used to convert
// Bitcoin's USD prices into BRL at collection time.
package rate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// FallbackUSDBRL is used when the rate cannot be fetched.
const FallbackUSDBRL = 5.2

const (
	pairSymbol           = "USDBRL=X"
	defaultChartEndpoint = "https://query2.finance.yahoo.com/v8/finance/chart/%s?interval=1d&period1=%s&period2=%s"
)

type Service struct {
	client        *http.Client
	chartEndpoint string
}

func NewService(opts ...Option) *Service {
	s := &Service{
		client:        &http.Client{Timeout: 10 * time.Second},
		chartEndpoint: defaultChartEndpoint,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type Option func(*Service)

func WithClient(c *http.Client) Option {
	return func(s *Service) { s.client = c }
}

func WithChartEndpoint(ep string) Option {
	return func(s *Service) { s.chartEndpoint = ep }
}

// chartResponse is the minimal Yahoo v8 chart API response structure.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// USDBRL returns the most recent USD/BRL daily close. Callers are expected
// to substitute FallbackUSDBRL when an error is returned.
func (s *Service) USDBRL(ctx context.Context) (float64, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -7)

	url := fmt.Sprintf(s.chartEndpoint, pairSymbol,
		strconv.FormatInt(from.Unix(), 10),
		strconv.FormatInt(to.Unix(), 10))

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	res, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("yahoo chart returned HTTP %d for %s", res.StatusCode, pairSymbol)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, err
	}

	var cr chartResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return 0, fmt.Errorf("parse chart response: %w", err)
	}

	if cr.Chart.Error != nil {
		return 0, fmt.Errorf("yahoo chart error: %s: %s", cr.Chart.Error.Code, cr.Chart.Error.Description)
	}

	if len(cr.Chart.Result) == 0 || len(cr.Chart.Result[0].Indicators.Quote) == 0 {
		return 0, fmt.Errorf("yahoo chart returned no data for %s", pairSymbol)
	}

	closes := cr.Chart.Result[0].Indicators.Quote[0].Close
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] > 0 {
			return closes[i], nil
		}
	}

	return 0, fmt.Errorf("no positive close for %s", pairSymbol)
}

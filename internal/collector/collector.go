// Package collector populates the price store from the upstream feeds.
// The Yahoo chart API is the primary source; for Bitcoin a CoinMarketCap
// page scrape serves as backup when the chart API yields nothing. All
// external failures degrade to "no data for this asset this cycle" and are
// logged; the next scheduled run is the only retry mechanism.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/luamAP/btc-project/internal/market"
	"github.com/luamAP/btc-project/internal/rate"
	"github.com/luamAP/btc-project/internal/scraper"
)

// ChartClient fetches daily history for a symbol.
type ChartClient interface {
	History(ctx context.Context, symbol string, from, to time.Time) ([]scraper.Bar, error)
}

// BackupSource yields a single current-day observation.
type BackupSource interface {
	CurrentPrice(ctx context.Context) (*scraper.Bar, error)
}

// RateSource yields the latest USD/BRL exchange rate.
type RateSource interface {
	USDBRL(ctx context.Context) (float64, error)
}

type Service struct {
	repo     market.Repository
	charts   ChartClient
	backup   BackupSource
	rates    RateSource
	basket   []string
	throttle time.Duration
}

func NewService(repo market.Repository, charts ChartClient, backup BackupSource, rates RateSource, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		charts:   charts,
		backup:   backup,
		rates:    rates,
		basket:   market.DefaultBasket,
		throttle: time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type Option func(*Service)

// WithBasket replaces the default equity basket.
func WithBasket(symbols []string) Option {
	return func(s *Service) { s.basket = symbols }
}

// WithThrottle sets the delay between per-symbol equity requests. This is
// rate-limiting politeness toward the upstream, not a retry policy.
func WithThrottle(d time.Duration) Option {
	return func(s *Service) { s.throttle = d }
}

// UpdateStats reports how many rows each asset class saved in one cycle.
type UpdateStats struct {
	BitcoinSaved int64 `json:"bitcoinSaved"`
	StockSaved   int64 `json:"stockSaved"`
}

// usdBRL returns the current exchange rate, substituting the fixed fallback
// when the upstream is unavailable.
func (s *Service) usdBRL(ctx context.Context) float64 {
	r, err := s.rates.USDBRL(ctx)
	if err != nil {
		slog.Warn("usd/brl rate unavailable, using fallback", "fallback", rate.FallbackUSDBRL, "error", err)
		return rate.FallbackUSDBRL
	}
	return r
}

// FetchBitcoin fetches BTC-USD daily history for the last `days` days and
// converts it to BRL using the latest exchange rate. Any failure, including
// an empty series, returns an error and no records.
func (s *Service) FetchBitcoin(ctx context.Context, days int) ([]market.BitcoinPrice, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -days)

	bars, err := s.charts.History(ctx, market.BitcoinSymbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch bitcoin history: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bitcoin data for the last %d days", days)
	}

	usdBRL := s.usdBRL(ctx)

	prices := make([]market.BitcoinPrice, len(bars))
	for i, b := range bars {
		prices[i] = market.BitcoinPrice{
			Date:     b.Date,
			PriceUSD: b.Close,
			PriceBRL: b.Close * usdBRL,
			Volume:   b.Volume,
		}
	}

	slog.Info("collected bitcoin records", "count", len(prices))
	return prices, nil
}

// scrapeBitcoinBackup builds a single current-day record from the backup
// source. Used only when the primary source returns no data.
func (s *Service) scrapeBitcoinBackup(ctx context.Context) (*market.BitcoinPrice, error) {
	bar, err := s.backup.CurrentPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("backup scrape: %w", err)
	}

	usdBRL := s.usdBRL(ctx)
	return &market.BitcoinPrice{
		Date:     bar.Date,
		PriceUSD: bar.Close,
		PriceBRL: bar.Close * usdBRL,
	}, nil
}

// FetchStocks fetches daily history for each symbol independently; a failure
// for one symbol never aborts the others. Requests are throttled with a
// fixed inter-symbol delay.
func (s *Service) FetchStocks(ctx context.Context, symbols []string, days int) []market.StockPrice {
	to := time.Now()
	from := to.AddDate(0, 0, -days)

	var records []market.StockPrice
	for i, symbol := range symbols {
		if i > 0 {
			select {
			case <-ctx.Done():
				return records
			case <-time.After(s.throttle):
			}
		}

		bars, err := s.charts.History(ctx, symbol, from, to)
		if err != nil {
			slog.Error("failed to collect stock data", "symbol", symbol, "error", err)
			continue
		}
		if len(bars) == 0 {
			slog.Warn("no data for symbol", "symbol", symbol)
			continue
		}

		for _, b := range bars {
			records = append(records, market.StockPrice{
				Date:   b.Date,
				Symbol: symbol,
				Price:  b.Close,
				Volume: b.Volume,
			})
		}
		slog.Info("collected stock records", "symbol", symbol, "count", len(bars))
	}

	return records
}

// UpdateAll runs one collection cycle over Bitcoin and the equity basket.
// There is no atomicity across assets; partial success is expected. This is
// the sole write path into the store.
func (s *Service) UpdateAll(ctx context.Context, days int) UpdateStats {
	slog.Info("starting data update", "days", days)
	var stats UpdateStats

	btc, err := s.FetchBitcoin(ctx, days)
	if err != nil {
		slog.Error("bitcoin fetch failed, trying backup scrape", "error", err)
		if scraped, berr := s.scrapeBitcoinBackup(ctx); berr != nil {
			slog.Error("bitcoin backup scrape failed", "error", berr)
		} else {
			btc = []market.BitcoinPrice{*scraped}
		}
	}
	if len(btc) > 0 {
		n, err := s.repo.SaveBitcoinPrices(ctx, btc)
		if err != nil {
			slog.Error("failed to save bitcoin prices", "error", err)
		} else {
			stats.BitcoinSaved = n
		}
	}

	stocks := s.FetchStocks(ctx, s.basket, days)
	if len(stocks) > 0 {
		n, err := s.repo.SaveStockPrices(ctx, stocks)
		if err != nil {
			slog.Error("failed to save stock prices", "error", err)
		} else {
			stats.StockSaved = n
		}
	}

	slog.Info("data update finished", "bitcoinSaved", stats.BitcoinSaved, "stockSaved", stats.StockSaved)
	return stats
}

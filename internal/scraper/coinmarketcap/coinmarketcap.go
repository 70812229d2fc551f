// Package coinmarketcap scrapes the current Bitcoin price in USD from the
// public CoinMarketCap currency page. It is a backup source only: it yields a
// single current-day observation, and the page markup may change without
// notice.
package coinmarketcap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/luamAP/btc-project/internal/scraper"
)

const (
	defaultPageURL = "https://coinmarketcap.com/currencies/bitcoin/"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// priceRe matches the first dollar-denominated price in the page body,
// e.g. "$104,532.18".
var priceRe = regexp.MustCompile(`\$([0-9][0-9,]*(?:\.[0-9]+)?)`)

type Scraper struct {
	client  *http.Client
	pageURL string
}

func New(opts ...Option) *Scraper {
	s := &Scraper{
		client:  &http.Client{Timeout: 10 * time.Second},
		pageURL: defaultPageURL,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type Option func(*Scraper)

func WithClient(c *http.Client) Option {
	return func(s *Scraper) { s.client = c }
}

func WithPageURL(u string) Option {
	return func(s *Scraper) { s.pageURL = u }
}

// CurrentPrice returns today's Bitcoin price in USD as a single bar.
func (s *Scraper) CurrentPrice(ctx context.Context) (*scraper.Bar, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coinmarketcap returned HTTP %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}

	m := priceRe.FindSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("no price found in page")
	}

	price, err := strconv.ParseFloat(strings.ReplaceAll(string(m[1]), ",", ""), 64)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", m[1], err)
	}

	return &scraper.Bar{
		Date:  time.Now().UTC().Truncate(24 * time.Hour),
		Close: price,
	}, nil
}

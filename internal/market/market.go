// Package market defines the price records cached locally and the
// repository contract for reading and writing them.
package market

import (
	"context"
	"time"
)

// BitcoinSymbol is the Yahoo Finance ticker used for Bitcoin history.
const BitcoinSymbol = "BTC-USD"

// DefaultBasket is the fixed set of Brazilian equities/ETFs collected
// alongside Bitcoin.
var DefaultBasket = []string{"PETR4.SA", "ITUB4.SA", "VALE3.SA", "BOVA11.SA", "BBAS3.SA"}

// BitcoinPrice is a daily Bitcoin snapshot, keyed by date. Prices are kept
// in both BRL and USD; the BRL value is derived at collection time from the
// USD close and the USD/BRL rate of that cycle.
type BitcoinPrice struct {
	Date      time.Time `json:"date"`
	PriceBRL  float64   `json:"priceBrl"`
	PriceUSD  float64   `json:"priceUsd"`
	Volume    float64   `json:"volume"`
	MarketCap float64   `json:"marketCap,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StockPrice is a daily close for a single equity symbol, keyed by
// (date, symbol).
type StockPrice struct {
	Date      time.Time `json:"date"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IndexPrice is a daily value for a market index (Ibovespa, IFIX, ...),
// keyed by (date, name). The table exists in the schema but no collection
// flow writes to it yet.
type IndexPrice struct {
	Date      time.Time `json:"date"`
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary describes the current contents of the store.
type Summary struct {
	BitcoinRecords int64         `json:"bitcoinRecords"`
	StockRecords   int64         `json:"stockRecords"`
	UniqueSymbols  int64         `json:"uniqueSymbols"`
	LatestBitcoin  *BitcoinPrice `json:"latestBitcoin,omitempty"`
}

// Repository is the persistence contract for price records. Save methods
// upsert by primary key (last write wins). Lookup methods return (nil, nil)
// when no matching row exists; a miss is not an error.
type Repository interface {
	SaveBitcoinPrices(ctx context.Context, prices []BitcoinPrice) (int64, error)
	SaveStockPrices(ctx context.Context, prices []StockPrice) (int64, error)
	SaveIndexPrices(ctx context.Context, prices []IndexPrice) (int64, error)

	BitcoinPriceOn(ctx context.Context, date time.Time) (*BitcoinPrice, error)
	LatestBitcoinPrice(ctx context.Context) (*BitcoinPrice, error)
	StockPriceOn(ctx context.Context, symbol string, date time.Time) (*StockPrice, error)
	LatestStockPrice(ctx context.Context, symbol string) (*StockPrice, error)

	Summary(ctx context.Context) (*Summary, error)
}

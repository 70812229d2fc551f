// Package compare computes hypothetical investment returns for Bitcoin and
// the fixed equity basket out of the locally cached prices.
package compare

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luamAP/btc-project/internal/market"
)

// Asset pairs a display name with the symbol looked up in the store.
type Asset struct {
	Name   string
	Symbol string
}

// DefaultAssets is the basket shown alongside Bitcoin in comparisons.
var DefaultAssets = []Asset{
	{Name: "Ibovespa (BOVA11)", Symbol: "BOVA11.SA"},
	{Name: "Petrobras (PETR4)", Symbol: "PETR4.SA"},
	{Name: "Itaú (ITUB4)", Symbol: "ITUB4.SA"},
	{Name: "Vale (VALE3)", Symbol: "VALE3.SA"},
}

// BitcoinName is the display name used for Bitcoin in comparison results.
const BitcoinName = "Bitcoin"

var hundred = decimal.NewFromInt(100)

// InvestmentResult describes the outcome of buying at the start price and
// valuing the position at the end price. Amounts are in BRL.
type InvestmentResult struct {
	InitialAmount    decimal.Decimal `json:"initial_amount"`
	SharesBought     decimal.Decimal `json:"shares_bought"`
	FinalValue       decimal.Decimal `json:"final_value"`
	ProfitLoss       decimal.Decimal `json:"profit_loss"`
	ReturnPercentage decimal.Decimal `json:"return_percentage"`
}

// CalculateReturn computes the investment outcome. It returns nil when the
// result is undefined: non-positive amount or non-positive start price.
func CalculateReturn(amount, startPrice, endPrice decimal.Decimal) *InvestmentResult {
	if !amount.IsPositive() || !startPrice.IsPositive() {
		return nil
	}

	shares := amount.Div(startPrice)
	final := shares.Mul(endPrice)
	profit := final.Sub(amount)

	return &InvestmentResult{
		InitialAmount:    amount,
		SharesBought:     shares,
		FinalValue:       final,
		ProfitLoss:       profit,
		ReturnPercentage: profit.Div(amount).Mul(hundred),
	}
}

type Service struct {
	repo   market.Repository
	assets []Asset
}

func NewService(repo market.Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		assets: DefaultAssets,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type Option func(*Service)

// WithAssets replaces the default comparison basket.
func WithAssets(assets []Asset) Option {
	return func(s *Service) { s.assets = assets }
}

// Compare computes results for Bitcoin and each basket asset independently.
// The start price is the exact-date price at startDate; the end price is the
// most recent known price, regardless of endDate. Assets with a missing
// start or end price are omitted from the result map; an empty map is a
// valid outcome, left for the caller to interpret.
func (s *Service) Compare(ctx context.Context, amount decimal.Decimal, startDate, endDate time.Time) (map[string]InvestmentResult, error) {
	results := make(map[string]InvestmentResult)

	btcStart, err := s.repo.BitcoinPriceOn(ctx, startDate)
	if err != nil {
		return nil, err
	}
	btcEnd, err := s.repo.LatestBitcoinPrice(ctx)
	if err != nil {
		return nil, err
	}
	if btcStart != nil && btcEnd != nil {
		if r := CalculateReturn(amount, decimal.NewFromFloat(btcStart.PriceBRL), decimal.NewFromFloat(btcEnd.PriceBRL)); r != nil {
			results[BitcoinName] = *r
		}
	}

	for _, asset := range s.assets {
		start, err := s.repo.StockPriceOn(ctx, asset.Symbol, startDate)
		if err != nil {
			return nil, err
		}
		end, err := s.repo.LatestStockPrice(ctx, asset.Symbol)
		if err != nil {
			return nil, err
		}
		if start == nil || end == nil {
			continue
		}

		if r := CalculateReturn(amount, decimal.NewFromFloat(start.Price), decimal.NewFromFloat(end.Price)); r != nil {
			results[asset.Name] = *r
		}
	}

	return results, nil
}

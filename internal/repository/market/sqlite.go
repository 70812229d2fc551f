package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/luamAP/btc-project/internal/market"
)

const dateFormat = "2006-01-02"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveBitcoinPrices upserts bitcoin rows by date. A later write for the same
// date overwrites the earlier one and refreshes updated_at.
func (r *Repository) SaveBitcoinPrices(ctx context.Context, prices []domain.BitcoinPrice) (int64, error) {
	if len(prices) == 0 {
		return 0, nil
	}

	const batchSize = 500
	var total int64

	for i := 0; i < len(prices); i += batchSize {
		end := min(i+batchSize, len(prices))
		batch := prices[i:end]

		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*5)
		for j, p := range batch {
			placeholders[j] = "(?, ?, ?, ?, ?)"
			args = append(args, p.Date.Format(dateFormat), p.PriceBRL, p.PriceUSD, p.Volume, p.MarketCap)
		}

		query := fmt.Sprintf( //nolint:gosec // placeholders are not user input
			"INSERT OR REPLACE INTO bitcoin_prices (date, price_brl, price_usd, volume, market_cap) VALUES %s",
			strings.Join(placeholders, ", "),
		)

		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("save bitcoin prices: %w", err)
		}

		n, _ := res.RowsAffected()
		total += n
	}

	return total, nil
}

// SaveStockPrices upserts equity rows by (date, symbol).
func (r *Repository) SaveStockPrices(ctx context.Context, prices []domain.StockPrice) (int64, error) {
	if len(prices) == 0 {
		return 0, nil
	}

	const batchSize = 500
	var total int64

	for i := 0; i < len(prices); i += batchSize {
		end := min(i+batchSize, len(prices))
		batch := prices[i:end]

		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*4)
		for j, p := range batch {
			placeholders[j] = "(?, ?, ?, ?)"
			args = append(args, p.Date.Format(dateFormat), p.Symbol, p.Price, p.Volume)
		}

		query := fmt.Sprintf( //nolint:gosec // placeholders are not user input
			"INSERT OR REPLACE INTO stock_prices (date, symbol, price, volume) VALUES %s",
			strings.Join(placeholders, ", "),
		)

		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("save stock prices: %w", err)
		}

		n, _ := res.RowsAffected()
		total += n
	}

	return total, nil
}

// SaveIndexPrices upserts index rows by (date, index_name).
func (r *Repository) SaveIndexPrices(ctx context.Context, prices []domain.IndexPrice) (int64, error) {
	if len(prices) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(prices))
	args := make([]any, 0, len(prices)*3)
	for j, p := range prices {
		placeholders[j] = "(?, ?, ?)"
		args = append(args, p.Date.Format(dateFormat), p.Name, p.Value)
	}

	query := fmt.Sprintf( //nolint:gosec // placeholders are not user input
		"INSERT OR REPLACE INTO index_prices (date, index_name, value) VALUES %s",
		strings.Join(placeholders, ", "),
	)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("save index prices: %w", err)
	}

	n, _ := res.RowsAffected()
	return n, nil
}

func (r *Repository) BitcoinPriceOn(ctx context.Context, date time.Time) (*domain.BitcoinPrice, error) {
	const query = `SELECT date, price_brl, price_usd, volume, market_cap, updated_at
		FROM bitcoin_prices WHERE date = ?`
	return r.scanBitcoin(r.db.QueryRowContext(ctx, query, date.Format(dateFormat)))
}

func (r *Repository) LatestBitcoinPrice(ctx context.Context) (*domain.BitcoinPrice, error) {
	const query = `SELECT date, price_brl, price_usd, volume, market_cap, updated_at
		FROM bitcoin_prices ORDER BY date DESC LIMIT 1`
	return r.scanBitcoin(r.db.QueryRowContext(ctx, query))
}

func (r *Repository) scanBitcoin(row *sql.Row) (*domain.BitcoinPrice, error) {
	p := &domain.BitcoinPrice{}
	var dateStr, updatedStr string

	err := row.Scan(&dateStr, &p.PriceBRL, &p.PriceUSD, &p.Volume, &p.MarketCap, &updatedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan bitcoin price: %w", err)
	}

	p.Date, _ = time.Parse(dateFormat, dateStr)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
	return p, nil
}

func (r *Repository) StockPriceOn(ctx context.Context, symbol string, date time.Time) (*domain.StockPrice, error) {
	const query = `SELECT date, symbol, price, volume, updated_at
		FROM stock_prices WHERE symbol = ? AND date = ?`
	return r.scanStock(r.db.QueryRowContext(ctx, query, symbol, date.Format(dateFormat)))
}

func (r *Repository) LatestStockPrice(ctx context.Context, symbol string) (*domain.StockPrice, error) {
	const query = `SELECT date, symbol, price, volume, updated_at
		FROM stock_prices WHERE symbol = ? ORDER BY date DESC LIMIT 1`
	return r.scanStock(r.db.QueryRowContext(ctx, query, symbol))
}

func (r *Repository) scanStock(row *sql.Row) (*domain.StockPrice, error) {
	p := &domain.StockPrice{}
	var dateStr, updatedStr string

	err := row.Scan(&dateStr, &p.Symbol, &p.Price, &p.Volume, &updatedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan stock price: %w", err)
	}

	p.Date, _ = time.Parse(dateFormat, dateStr)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
	return p, nil
}

func (r *Repository) Summary(ctx context.Context) (*domain.Summary, error) {
	s := &domain.Summary{}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bitcoin_prices`).Scan(&s.BitcoinRecords); err != nil {
		return nil, fmt.Errorf("count bitcoin prices: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT symbol) FROM stock_prices`).Scan(&s.StockRecords, &s.UniqueSymbols); err != nil {
		return nil, fmt.Errorf("count stock prices: %w", err)
	}

	latest, err := r.LatestBitcoinPrice(ctx)
	if err != nil {
		return nil, err
	}
	s.LatestBitcoin = latest

	return s, nil
}

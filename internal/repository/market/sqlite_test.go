package market

import (
	"context"
	"testing"
	"time"

	domain "github.com/luamAP/btc-project/internal/market"
	"github.com/luamAP/btc-project/internal/platform/sqlite"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSaveStockPrices_And_Lookup(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	prices := []domain.StockPrice{
		{Date: date(2024, 5, 29), Symbol: "PETR4.SA", Price: 38.10, Volume: 1000},
		{Date: date(2024, 5, 30), Symbol: "PETR4.SA", Price: 38.30, Volume: 1200},
		{Date: date(2024, 5, 31), Symbol: "PETR4.SA", Price: 38.50, Volume: 900},
	}

	n, err := repo.SaveStockPrices(ctx, prices)
	if err != nil {
		t.Fatalf("save stock prices: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 rows saved, got %d", n)
	}

	got, err := repo.StockPriceOn(ctx, "PETR4.SA", date(2024, 5, 30))
	if err != nil {
		t.Fatalf("price on date: %v", err)
	}
	if got == nil {
		t.Fatal("expected a price, got nil")
	}
	if got.Price != 38.30 {
		t.Errorf("expected 38.30, got %f", got.Price)
	}
}

func TestSaveStockPrices_UpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	first := []domain.StockPrice{{Date: date(2024, 5, 31), Symbol: "PETR4.SA", Price: 38.50}}
	if _, err := repo.SaveStockPrices(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	// Same key again with a different price: last write wins, still one row.
	second := []domain.StockPrice{{Date: date(2024, 5, 31), Symbol: "PETR4.SA", Price: 39.00}}
	if _, err := repo.SaveStockPrices(ctx, second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := repo.StockPriceOn(ctx, "PETR4.SA", date(2024, 5, 31))
	if err != nil {
		t.Fatalf("price on date: %v", err)
	}
	if got.Price != 39.00 {
		t.Errorf("expected overwritten price 39.00, got %f", got.Price)
	}

	s, err := repo.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.StockRecords != 1 {
		t.Errorf("expected 1 stock row after upsert, got %d", s.StockRecords)
	}
}

func TestLatestStockPrice_ReturnsMaxDate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	prices := []domain.StockPrice{
		{Date: date(2024, 5, 31), Symbol: "VALE3.SA", Price: 65.20},
		{Date: date(2025, 6, 12), Symbol: "VALE3.SA", Price: 71.80},
		{Date: date(2024, 12, 1), Symbol: "VALE3.SA", Price: 68.00},
	}
	if _, err := repo.SaveStockPrices(ctx, prices); err != nil {
		t.Fatal(err)
	}

	got, err := repo.LatestStockPrice(ctx, "VALE3.SA")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got == nil {
		t.Fatal("expected a price, got nil")
	}
	if !got.Date.Equal(date(2025, 6, 12)) {
		t.Errorf("expected latest date 2025-06-12, got %s", got.Date.Format("2006-01-02"))
	}
	if got.Price != 71.80 {
		t.Errorf("expected 71.80, got %f", got.Price)
	}
}

func TestStockPrice_MissReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	got, err := repo.LatestStockPrice(ctx, "ITUB4.SA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil on empty store, got %+v", got)
	}

	got, err = repo.StockPriceOn(ctx, "ITUB4.SA", date(2024, 5, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil on missing date, got %+v", got)
	}
}

func TestSaveBitcoinPrices_And_Lookup(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	prices := []domain.BitcoinPrice{
		{Date: date(2024, 5, 31), PriceBRL: 354371.40, PriceUSD: 68148.35, Volume: 1e9},
		{Date: date(2025, 6, 12), PriceBRL: 592207.00, PriceUSD: 113885.96, Volume: 2e9},
	}

	n, err := repo.SaveBitcoinPrices(ctx, prices)
	if err != nil {
		t.Fatalf("save bitcoin prices: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows saved, got %d", n)
	}

	exact, err := repo.BitcoinPriceOn(ctx, date(2024, 5, 31))
	if err != nil {
		t.Fatalf("price on date: %v", err)
	}
	if exact == nil || exact.PriceBRL != 354371.40 {
		t.Errorf("expected 354371.40 BRL on 2024-05-31, got %+v", exact)
	}

	latest, err := repo.LatestBitcoinPrice(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || !latest.Date.Equal(date(2025, 6, 12)) {
		t.Errorf("expected latest 2025-06-12, got %+v", latest)
	}
	if latest.UpdatedAt.IsZero() {
		t.Error("expected updated_at to be set")
	}
}

func TestSaveIndexPrices(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	prices := []domain.IndexPrice{
		{Date: date(2024, 5, 31), Name: "IBOV", Value: 122098.0},
		{Date: date(2024, 5, 31), Name: "IFIX", Value: 3390.0},
	}

	n, err := repo.SaveIndexPrices(ctx, prices)
	if err != nil {
		t.Fatalf("save index prices: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows saved, got %d", n)
	}

	// Upsert on the same key overwrites.
	if _, err := repo.SaveIndexPrices(ctx, []domain.IndexPrice{{Date: date(2024, 5, 31), Name: "IBOV", Value: 123000.0}}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	var count int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM index_prices WHERE index_name = 'IBOV'`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 IBOV row after upsert, got %d", count)
	}
}

func TestSummary(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	empty, err := repo.Summary(ctx)
	if err != nil {
		t.Fatalf("summary on empty store: %v", err)
	}
	if empty.BitcoinRecords != 0 || empty.StockRecords != 0 || empty.LatestBitcoin != nil {
		t.Errorf("expected empty summary, got %+v", empty)
	}

	if _, err := repo.SaveBitcoinPrices(ctx, []domain.BitcoinPrice{
		{Date: date(2025, 6, 12), PriceBRL: 592207.00, PriceUSD: 113885.96},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.SaveStockPrices(ctx, []domain.StockPrice{
		{Date: date(2025, 6, 12), Symbol: "PETR4.SA", Price: 42.30},
		{Date: date(2025, 6, 12), Symbol: "ITUB4.SA", Price: 35.90},
		{Date: date(2025, 6, 11), Symbol: "ITUB4.SA", Price: 35.70},
	}); err != nil {
		t.Fatal(err)
	}

	s, err := repo.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.BitcoinRecords != 1 {
		t.Errorf("expected 1 bitcoin record, got %d", s.BitcoinRecords)
	}
	if s.StockRecords != 3 {
		t.Errorf("expected 3 stock records, got %d", s.StockRecords)
	}
	if s.UniqueSymbols != 2 {
		t.Errorf("expected 2 unique symbols, got %d", s.UniqueSymbols)
	}
	if s.LatestBitcoin == nil || s.LatestBitcoin.PriceBRL != 592207.00 {
		t.Errorf("expected latest bitcoin 592207.00, got %+v", s.LatestBitcoin)
	}
}

func TestSavePrices_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	if n, err := repo.SaveBitcoinPrices(ctx, nil); err != nil || n != 0 {
		t.Errorf("expected (0, nil), got (%d, %v)", n, err)
	}
	if n, err := repo.SaveStockPrices(ctx, nil); err != nil || n != 0 {
		t.Errorf("expected (0, nil), got (%d, %v)", n, err)
	}
	if n, err := repo.SaveIndexPrices(ctx, nil); err != nil || n != 0 {
		t.Errorf("expected (0, nil), got (%d, %v)", n, err)
	}
}

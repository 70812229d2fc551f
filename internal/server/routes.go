package server

import (
	"net/http"

	"github.com/luamAP/btc-project/internal/collector"
	"github.com/luamAP/btc-project/internal/compare"
	"github.com/luamAP/btc-project/internal/market"
)

// NewHandler creates the full HTTP handler with routes and middleware.
// Exported for use in tests (e.g., httptest.NewServer).
func NewHandler(repo market.Repository, compareSvc *compare.Service, collectorSvc *collector.Service, defaultDays int) http.Handler {
	return newMux(repo, compareSvc, collectorSvc, defaultDays)
}

func newMux(repo market.Repository, compareSvc *compare.Service, collectorSvc *collector.Service, defaultDays int) http.Handler {
	h := &handler{
		repo:         repo,
		compareSvc:   compareSvc,
		collectorSvc: collectorSvc,
		defaultDays:  defaultDays,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /api/v1/compare", h.compare)
	mux.HandleFunc("GET /api/v1/bitcoin-price", h.bitcoinPrice)
	mux.HandleFunc("GET /api/v1/summary", h.summary)
	mux.HandleFunc("POST /api/v1/update", h.update)

	// Apply middleware stack: recovery -> requestID -> logging
	var handler http.Handler = mux
	handler = logging(handler)
	handler = requestID(handler)
	handler = recovery(handler)

	return handler
}

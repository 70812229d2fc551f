package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luamAP/btc-project/internal/apperror"
	"github.com/luamAP/btc-project/internal/collector"
	"github.com/luamAP/btc-project/internal/compare"
	"github.com/luamAP/btc-project/internal/market"
)

const dateFormat = "2006-01-02"

type handler struct {
	repo         market.Repository
	compareSvc   *compare.Service
	collectorSvc *collector.Service
	defaultDays  int
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type compareRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
}

// Validate parses the request's date strings and checks the amount, returning
// the parsed dates on success.
func (r compareRequest) Validate() (startDate, endDate time.Time, appErr *apperror.AppError) {
	if !r.Amount.IsPositive() {
		return startDate, endDate, apperror.New(apperror.BadRequest, "amount must be a positive number")
	}

	startDate, err := time.Parse(dateFormat, r.StartDate)
	if err != nil {
		return startDate, endDate, apperror.New(apperror.BadRequest, "invalid start_date format, expected YYYY-MM-DD")
	}
	endDate, err = time.Parse(dateFormat, r.EndDate)
	if err != nil {
		return startDate, endDate, apperror.New(apperror.BadRequest, "invalid end_date format, expected YYYY-MM-DD")
	}
	if endDate.Before(startDate) {
		return startDate, endDate, apperror.New(apperror.BadRequest, "end_date must not be before start_date")
	}
	return startDate, endDate, nil
}

type compareResponse struct {
	Success bool                                `json:"success"`
	Results map[string]compare.InvestmentResult `json:"results"`
}

func (h *handler) compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	startDate, endDate, appErr := req.Validate()
	if appErr != nil {
		writeError(w, appErr.HTTPStatus(), appErr.Message())
		return
	}

	results, err := h.compareSvc.Compare(r.Context(), req.Amount, startDate, endDate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(results) == 0 {
		appErr := apperror.New(apperror.NoData, "no data available for the requested period")
		writeError(w, appErr.HTTPStatus(), appErr.Message())
		return
	}

	writeJSON(w, http.StatusOK, compareResponse{Success: true, Results: results})
}

type bitcoinPriceResponse struct {
	Success  bool    `json:"success"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Date     string  `json:"date"`
}

func (h *handler) bitcoinPrice(w http.ResponseWriter, r *http.Request) {
	latest, err := h.repo.LatestBitcoinPrice(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if latest == nil {
		writeError(w, http.StatusNotFound, "no bitcoin price available")
		return
	}

	writeJSON(w, http.StatusOK, bitcoinPriceResponse{
		Success:  true,
		Price:    latest.PriceBRL,
		Currency: "BRL",
		Date:     latest.Date.Format(dateFormat),
	})
}

type summaryResponse struct {
	Success bool            `json:"success"`
	Summary *market.Summary `json:"summary"`
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.Summary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Success: true, Summary: s})
}

type updateResponse struct {
	Success bool                  `json:"success"`
	Stats   collector.UpdateStats `json:"stats"`
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	days := h.defaultDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}

	stats := h.collectorSvc.UpdateAll(r.Context(), days)
	writeJSON(w, http.StatusOK, updateResponse{Success: true, Stats: stats})
}

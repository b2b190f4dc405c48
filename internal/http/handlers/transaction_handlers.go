package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/rogerio-castellano/business-ledger/internal/ledger"
	models "github.com/rogerio-castellano/business-ledger/internal/models"
	repo "github.com/rogerio-castellano/business-ledger/internal/repo"
)

const statsCacheKey = "transactions:stats"
const statsCacheTTL = 30 * time.Second

// CreateTransactionHandler godoc
// @Summary Record a transaction
// @Description Records a sale, income, expense or transfer. Sales decrement
// @Description product stock atomically per line item; the whole request is
// @Description rejected when stock is insufficient.
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param transaction body TransactionRequest true "Transaction to record"
// @Success 201 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 401 {string} string "Unauthorized"
// @Router /transactions [post]
func CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := readJSON(w, r, &req); err != nil {
		_ = writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid input"})
		return
	}

	userID, err := UserIDFromRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	items := make([]ledger.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = ledger.ItemRequest{
			ProductID: it.Product,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Name:      it.Name,
		}
	}

	created, err := ledgerService.RecordTransaction(r.Context(), ledger.RecordRequest{
		Type:          models.TransactionType(req.Type),
		Amount:        req.Amount,
		Description:   req.Description,
		Items:         items,
		PaymentMethod: models.PaymentMethod(req.PaymentMethod),
		Category:      req.Category,
		Reference:     req.Reference,
		UserID:        userID,
	})
	if err != nil {
		var stockErr *ledger.InsufficientStockError
		switch {
		case errors.As(err, &stockErr),
			errors.Is(err, ledger.ErrInvalidType),
			errors.Is(err, ledger.ErrInvalidPaymentMethod),
			errors.Is(err, ledger.ErrInvalidAmount),
			errors.Is(err, ledger.ErrInvalidItem),
			errors.Is(err, ledger.ErrMissingUser),
			errors.Is(err, ledger.ErrUnknownProduct):
			_ = writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		default:
			log.Printf("could not record transaction: %v", err)
			_ = writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "could not record transaction"})
		}
		return
	}

	if redisService != nil {
		redisService.Invalidate(statsCacheKey)
	}

	_ = writeJSON(w, http.StatusCreated, created)
}

// parseDateParam accepts RFC3339 timestamps or plain YYYY-MM-DD dates. It
// reports whether the value was date-only so callers can widen an end bound
// to cover the whole day.
func parseDateParam(s string) (time.Time, bool, error) {
	// URL query parsing turns + into a space, which breaks RFC3339 zone
	// offsets like 2025-07-03T17:44:03+02:00.
	if len(s) == len(time.RFC3339) && s[len(s)-6] == ' ' {
		s = s[:len(s)-6] + "+" + s[len(s)-5:]
	}

	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, false, nil
	}
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false, err
	}
	return ts, true, nil
}

// GetTransactionsHandler godoc
// @Summary List transactions
// @Description Filters by exact type and an inclusive date range, newest
// @Description first. Both startDate and endDate must be present for the
// @Description range to apply. Default limit is 100.
// @Tags transactions
// @Produce json
// @Param type query string false "Transaction type (sale|income|expense|transfer)"
// @Param startDate query string false "Range start (RFC3339 or YYYY-MM-DD)"
// @Param endDate query string false "Range end (RFC3339 or YYYY-MM-DD)"
// @Param limit query int false "Maximum records to return"
// @Success 200 {array} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transactions [get]
func GetTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.TransactionFilter{}

	if typ := q.Get("type"); typ != "" {
		if !models.TransactionType(typ).Valid() {
			_ = writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid type filter"})
			return
		}
		filter.Type = typ
	}

	startStr, endStr := q.Get("startDate"), q.Get("endDate")
	if startStr != "" && endStr != "" {
		since, _, err := parseDateParam(startStr)
		if err != nil {
			_ = writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid startDate format"})
			return
		}
		until, dateOnly, err := parseDateParam(endStr)
		if err != nil {
			_ = writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid endDate format"})
			return
		}
		if dateOnly {
			// A bare end date means "through that day", inclusive.
			until = until.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		filter.Since = &since
		filter.Until = &until
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v <= 0 {
			_ = writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "limit must be a positive integer"})
			return
		}
		filter.Limit = &v
	}

	transactions, _, err := transactionRepo.Find(filter)
	if err != nil {
		log.Printf("could not retrieve transactions: %v", err)
		_ = writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "could not retrieve transactions"})
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	_ = writeJSON(w, http.StatusOK, transactions)
}

// GetStatsHandler godoc
// @Summary Daily dashboard stats
// @Description Today's sale and income totals plus the global per-type
// @Description amount breakdown. Served from a short-lived redis cache when
// @Description available.
// @Tags transactions
// @Produce json
// @Success 200 {object} repo.Stats
// @Failure 500 {object} ErrorResponse
// @Router /transactions/stats [get]
func GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	if redisService != nil {
		if cached, ok := redisService.GetCached(statsCacheKey); ok {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(cached)
			return
		}
	}

	stats, err := ledgerService.DailyStats(r.Context())
	if err != nil {
		log.Printf("could not compute stats: %v", err)
		_ = writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "could not compute stats"})
		return
	}

	if redisService != nil {
		if payload, err := json.Marshal(stats); err == nil {
			redisService.SetCached(statsCacheKey, payload, statsCacheTTL)
		}
	}

	_ = writeJSON(w, http.StatusOK, stats)
}

// ExportTransactionsHandler godoc
// @Summary Export the transaction ledger
// @Tags transactions
// @Produce text/csv, application/json
// @Param format query string true "Export format (csv or json)"
// @Param type query string false "Transaction type filter"
// @Param startDate query string false "Range start (RFC3339 or YYYY-MM-DD)"
// @Param endDate query string false "Range end (RFC3339 or YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transactions/export [get]
func ExportTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "csv" && format != "json" {
		_ = writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "format must be 'csv' or 'json'"})
		return
	}

	filter := repo.TransactionFilter{Type: r.URL.Query().Get("type")}
	startStr, endStr := r.URL.Query().Get("startDate"), r.URL.Query().Get("endDate")
	if startStr != "" && endStr != "" {
		if since, _, err := parseDateParam(startStr); err == nil {
			filter.Since = &since
		}
		if until, dateOnly, err := parseDateParam(endStr); err == nil {
			if dateOnly {
				until = until.AddDate(0, 0, 1).Add(-time.Nanosecond)
			}
			filter.Until = &until
		}
	}

	transactions, _, err := transactionRepo.Find(filter)
	if err != nil {
		_ = writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "could not retrieve transactions"})
		return
	}

	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.json"`)
		json.NewEncoder(w).Encode(transactions)

	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)

		csvWriter := csv.NewWriter(w)
		_ = csvWriter.Write([]string{"id", "type", "amount", "date", "payment_method", "category", "reference", "items"})
		for _, t := range transactions {
			_ = csvWriter.Write([]string{
				strconv.Itoa(t.ID),
				string(t.Type),
				strconv.FormatFloat(t.Amount, 'f', 2, 64),
				t.Date.Format(time.RFC3339),
				string(t.PaymentMethod),
				t.Category,
				t.Reference,
				strconv.Itoa(len(t.Items)),
			})
		}
		csvWriter.Flush()
	}
}

package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rogerio-castellano/business-ledger/internal/models"
)

// InMemoryTransactionRepository is the in-memory ledger used by the test
// suites.
type InMemoryTransactionRepository struct {
	mu           sync.Mutex
	transactions []models.Transaction
	nextID       int
}

func NewInMemoryTransactionRepository() *InMemoryTransactionRepository {
	return &InMemoryTransactionRepository{
		transactions: []models.Transaction{},
		nextID:       1,
	}
}

func (r *InMemoryTransactionRepository) Create(_ context.Context, t models.Transaction) (models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t.ID = r.nextID
	r.nextID++

	// Copy the snapshots so later mutation of the caller's slice cannot
	// reach into the stored record.
	items := make([]models.TransactionItem, len(t.Items))
	copy(items, t.Items)
	for i := range items {
		items[i].ID = i + 1
	}
	t.Items = items

	r.transactions = append(r.transactions, t)
	return t, nil
}

func (r *InMemoryTransactionRepository) GetByID(id int) (models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Transaction{}, ErrTransactionNotFound
}

func (r *InMemoryTransactionRepository) Find(f TransactionFilter) ([]models.Transaction, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var filtered []models.Transaction
	for _, t := range r.transactions {
		if f.Type != "" && string(t.Type) != f.Type {
			continue
		}
		if f.Since != nil && t.Date.Before(*f.Since) {
			continue
		}
		if f.Until != nil && t.Date.After(*f.Until) {
			continue
		}
		filtered = append(filtered, t)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Date.After(filtered[j].Date)
	})

	start := 0
	if f.Offset != nil {
		start = clamp(*f.Offset, 0, len(filtered))
	}
	limit := defaultTransactionLimit
	if f.Limit != nil && *f.Limit > 0 {
		limit = min(*f.Limit, defaultTransactionLimit)
	}
	end := clamp(start+limit, start, len(filtered))

	return filtered[start:end], len(filtered), nil
}

func (r *InMemoryTransactionRepository) Stats(since time.Time) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := Stats{Breakdown: []TypeTotal{}}
	totals := map[string]float64{}
	var order []string

	for _, t := range r.transactions {
		key := string(t.Type)
		if _, seen := totals[key]; !seen {
			order = append(order, key)
		}
		totals[key] += t.Amount

		if !t.Date.Before(since) {
			switch t.Type {
			case models.TypeSale:
				stats.DailySales += t.Amount
			case models.TypeIncome:
				stats.DailyIncome += t.Amount
			}
		}
	}

	sort.Strings(order)
	for _, key := range order {
		stats.Breakdown = append(stats.Breakdown, TypeTotal{Type: key, Total: totals[key]})
	}
	return stats, nil
}

func (r *InMemoryTransactionRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = []models.Transaction{}
	r.nextID = 1
}

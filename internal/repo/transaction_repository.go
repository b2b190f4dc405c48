package repo

import (
	"context"
	"errors"
	"time"

	"github.com/rogerio-castellano/business-ledger/internal/models"
)

// TransactionFilter narrows the ledger listing. Since and Until are
// inclusive bounds on the transaction date.
type TransactionFilter struct {
	Type   string
	Since  *time.Time
	Until  *time.Time
	Limit  *int
	Offset *int
}

// TypeTotal is one row of the per-type amount breakdown. The field is
// serialized as "_id" because that is the key the dashboard reads.
type TypeTotal struct {
	Type  string  `json:"_id"`
	Total float64 `json:"total"`
}

// Stats is the reporting aggregate: today's sale and income sums plus the
// global per-type breakdown. Empty logs yield zeros and an empty breakdown,
// never nulls.
type Stats struct {
	DailySales  float64     `json:"dailySales"`
	DailyIncome float64     `json:"dailyIncome"`
	Breakdown   []TypeTotal `json:"breakdown"`
}

// TransactionRepository is the append-only ledger store. Transactions are
// created once and never updated or deleted.
type TransactionRepository interface {
	Create(ctx context.Context, t models.Transaction) (models.Transaction, error)
	GetByID(id int) (models.Transaction, error)
	Find(f TransactionFilter) ([]models.Transaction, int, error)

	// Stats sums amounts per type globally, and separately sums sale and
	// income amounts for transactions dated at or after since.
	Stats(since time.Time) (Stats, error)
}

// ErrTransactionNotFound is returned when a transaction is not found in the repository.
var ErrTransactionNotFound = errors.New("transaction not found")

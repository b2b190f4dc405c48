package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rogerio-castellano/business-ledger/internal/models"
	"github.com/rogerio-castellano/business-ledger/internal/repo"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *repo.InMemoryProductRepository, *repo.InMemoryTransactionRepository) {
	t.Helper()
	products := repo.NewInMemoryProductRepository()
	transactions := repo.NewInMemoryTransactionRepository()
	return NewService(products, transactions, zap.NewNop(), opts...), products, transactions
}

func seedProduct(t *testing.T, products *repo.InMemoryProductRepository, p models.Product) models.Product {
	t.Helper()
	created, err := products.Create(p)
	require.NoError(t, err)
	return created
}

func TestRecordSale_DecrementsStockAndSnapshots(t *testing.T) {
	svc, products, _ := newTestService(t)
	p := seedProduct(t, products, models.Product{Name: "Laptop", Price: 5, Quantity: 10, Threshold: 2})

	created, err := svc.RecordTransaction(context.Background(), RecordRequest{
		Type:   models.TypeSale,
		UserID: 1,
		Items:  []ItemRequest{{ProductID: p.ID, Quantity: 4}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.TypeSale, created.Type)
	assert.Equal(t, 20.0, created.Amount, "amount is computed from the item snapshots")
	require.Len(t, created.Items, 1)
	assert.Equal(t, p.ID, created.Items[0].ProductID)
	assert.Equal(t, "Laptop", created.Items[0].Name)
	assert.Equal(t, 4, created.Items[0].Quantity)
	assert.Equal(t, 5.0, created.Items[0].Price)
	assert.False(t, created.Items[0].Unreconciled)

	after, err := products.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, after.Quantity)
}

func TestRecordSale_ClientOverridesWinInSnapshot(t *testing.T) {
	svc, products, _ := newTestService(t)
	p := seedProduct(t, products, models.Product{Name: "Laptop", Price: 5, Quantity: 10, Threshold: 2})

	override := 4.5
	created, err := svc.RecordTransaction(context.Background(), RecordRequest{
		Type:   models.TypeSale,
		UserID: 1,
		Items:  []ItemRequest{{ProductID: p.ID, Quantity: 2, Price: &override, Name: "Laptop (promo)"}},
	})
	require.NoError(t, err)

	require.Len(t, created.Items, 1)
	assert.Equal(t, "Laptop (promo)", created.Items[0].Name)
	assert.Equal(t, 4.5, created.Items[0].Price)
	assert.Equal(t, 9.0, created.Amount)
}

func TestRecordSale_InsufficientStock(t *testing.T) {
	svc, products, transactions := newTestService(t)
	p := seedProduct(t, products, models.Product{Name: "Mouse", Price: 10, Quantity: 3, Threshold: 1})

	_, err := svc.RecordTransaction(context.Background(), RecordRequest{
		Type:   models.TypeSale,
		UserID: 1,
		Items:  []ItemRequest{{ProductID: p.ID, Quantity: 5}},
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Mouse", stockErr.Product)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)
	assert.EqualError(t, err, "insufficient stock for Mouse")

	after, err := products.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, after.Quantity, "failed sale must not change stock")

	_, total, err := transactions.Find(repo.TransactionFilter{})
	require.NoError(t, err)
	assert.Zero(t, total, "failed sale must not be recorded")
}

func TestRecordSale_LaterItemFailureRestoresEarlierDecrements(t *testing.T) {
	svc, products, transactions := newTestService(t)
	first := seedProduct(t, products, models.Product{Name: "Keyboard", Price: 20, Quantity: 10, Threshold: 1})
	second := seedProduct(t, products, models.Product{Name: "Monitor", Price: 150, Quantity: 1, Threshold: 1})

	_, err := svc.RecordTransaction(context.Background(), RecordRequest{
		Type:   models.TypeSale,
		UserID: 1,
		Items: []ItemRequest{
			{ProductID: first.ID, Quantity: 2},
			{ProductID: second.ID, Quantity: 3},
		},
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Monitor", stockErr.Product)

	afterFirst, err := products.GetByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, afterFirst.Quantity, "earlier decrement must be rolled back")

	afterSecond, err := products.GetByID(second.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, afterSecond.Quantity)

	_, total, err := transactions.Find(repo.TransactionFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRecordSale_UnknownProductStrict(t *testing.T) {
	svc, products, transactions := newTestService(t)
	p := seedProduct(t, products, models.Product{Name: "Cable", Price: 3, Quantity: 8, Threshold: 1})

	_, err := svc.RecordTransaction(context.Background(), RecordRequest{
		Type:   models.TypeSale,
		UserID: 1,
		Items: []ItemRequest{
			{ProductID: p.ID, Quantity: 2},
			{ProductID: 9999, Quantity: 1},
		},
	})
	require.ErrorIs(t, err, ErrUnknownProduct)

	after, err := products.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, after.Quantity, "strict mode rejects the whole request")

	_, total, err := transactions.Find(repo.TransactionFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRecordSale_UnknownProductLenient(t *testing.T) {
	svc, products, _ := newTestService(t, WithStrictItems(false))
	p := seedProduct(t, products, models.Product{Name: "Cable", Price: 3, Quantity: 8, Threshold: 1})

	price := 7.0
	created, err := svc.RecordTransaction(context.Background(), RecordRequest{
		Type:   models.TypeSale,
		UserID: 1,
		Items: []ItemRequest{
			{ProductID: p.ID, Quantity: 2},
			{ProductID: 9999, Quantity: 1, Price: &price, Name: "Ghost"},
		},
	})
	require.NoError(t, err)

	require.Len(t, created.Items, 2)
	assert.False(t, created.Items[0].Unreconciled)
	assert.True(t, created.Items[1].Unreconciled, "missing product is recorded but flagged")
	assert.Equal(t, 13.0, created.Amount)

	after, err := products.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, after.Quantity, "only the known item adjusts stock")
}

func TestRecordNonSale_NeverTouchesStock(t *testing.T) {
	svc, products, _ := newTestService(t)
	p := seedProduct(t, products, models.Product{Name: "Desk", Price: 99, Quantity: 4, Threshold: 1})

	for _, typ := range []models.TransactionType{models.TypeIncome, models.TypeExpense, models.TypeTransfer} {
		created, err := svc.RecordTransaction(context.Background(), RecordRequest{
			Type:   typ,
			Amount: 50,
			UserID: 1,
			// Items on a non-sale payload are ignored entirely.
			Items: []ItemRequest{{ProductID: p.ID, Quantity: 2}},
		})
		require.NoError(t, err, "type %s", typ)
		assert.Empty(t, created.Items, "type %s", typ)

		after, err := products.GetByID(p.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, after.Quantity, "type %s", typ)
	}
}

func TestRecordSale_SnapshotSurvivesRepricing(t *testing.T) {
	svc, products, transactions := newTestService(t)
	p := seedProduct(t, products, models.Product{Name: "Webcam", Price: 10, Quantity: 10, Threshold: 1})

	created, err := svc.RecordTransaction(context.Background(), RecordRequest{
		Type:   models.TypeSale,
		UserID: 1,
		Items:  []ItemRequest{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	p.Price = 20
	_, err = products.Update(p)
	require.NoError(t, err)

	stored, err := transactions.GetByID(created.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 10.0, stored.Items[0].Price, "the snapshot is a historical fact, not a live view")
}

func TestRecordSale_ConcurrentSalesNeverOversell(t *testing.T) {
	svc, products, transactions := newTestService(t)
	p := seedProduct(t, products, models.Product{Name: "Hub", Price: 25, Quantity: 5, Threshold: 0})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RecordTransaction(context.Background(), RecordRequest{
				Type:   models.TypeSale,
				UserID: 1,
				Items:  []ItemRequest{{ProductID: p.ID, Quantity: 3}},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded, "stock of 5 covers only one sale of 3")

	after, err := products.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, after.Quantity)
	assert.GreaterOrEqual(t, after.Quantity, 0, "quantity must never go negative")

	_, total, err := transactions.Find(repo.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestRecordTransaction_Validation(t *testing.T) {
	svc, products, _ := newTestService(t)
	p := seedProduct(t, products, models.Product{Name: "Stand", Price: 15, Quantity: 5, Threshold: 1})

	tests := []struct {
		name    string
		req     RecordRequest
		wantErr error
	}{
		{
			name:    "unknown type",
			req:     RecordRequest{Type: "refund", Amount: 10, UserID: 1},
			wantErr: ErrInvalidType,
		},
		{
			name:    "missing user",
			req:     RecordRequest{Type: models.TypeIncome, Amount: 10},
			wantErr: ErrMissingUser,
		},
		{
			name:    "income without amount",
			req:     RecordRequest{Type: models.TypeIncome, UserID: 1},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "sale without items or amount",
			req:     RecordRequest{Type: models.TypeSale, UserID: 1},
			wantErr: ErrInvalidAmount,
		},
		{
			name: "sale item with zero quantity",
			req: RecordRequest{
				Type:   models.TypeSale,
				UserID: 1,
				Items:  []ItemRequest{{ProductID: p.ID, Quantity: 0}},
			},
			wantErr: ErrInvalidItem,
		},
		{
			name:    "bad payment method",
			req:     RecordRequest{Type: models.TypeExpense, Amount: 10, UserID: 1, PaymentMethod: "cheque"},
			wantErr: ErrInvalidPaymentMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordTransaction(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRecordTransfer_GeneratesReference(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.RecordTransaction(context.Background(), RecordRequest{
		Type:   models.TypeTransfer,
		Amount: 200,
		UserID: 1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.Reference)

	withRef, err := svc.RecordTransaction(context.Background(), RecordRequest{
		Type:      models.TypeTransfer,
		Amount:    100,
		UserID:    1,
		Reference: "TRF-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "TRF-42", withRef.Reference)
}

func TestDailyStats_EmptyLedger(t *testing.T) {
	svc, _, _ := newTestService(t)

	stats, err := svc.DailyStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.DailySales)
	assert.Zero(t, stats.DailyIncome)
	assert.NotNil(t, stats.Breakdown)
	assert.Empty(t, stats.Breakdown)
}

func TestDailyStats_BoundaryAndBreakdown(t *testing.T) {
	svc, products, _ := newTestService(t)
	p := seedProduct(t, products, models.Product{Name: "Lamp", Price: 30, Quantity: 100, Threshold: 1})

	_, err := svc.RecordTransaction(context.Background(), RecordRequest{
		Type:   models.TypeSale,
		UserID: 1,
		Items:  []ItemRequest{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = svc.RecordTransaction(context.Background(), RecordRequest{
		Type:   models.TypeIncome,
		Amount: 500,
		UserID: 1,
	})
	require.NoError(t, err)

	// Yesterday's sale counts in the breakdown but not in the daily sums.
	_, err = svc.RecordTransaction(context.Background(), RecordRequest{
		Type:   models.TypeSale,
		UserID: 1,
		Date:   time.Now().AddDate(0, 0, -1),
		Items:  []ItemRequest{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	stats, err := svc.DailyStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60.0, stats.DailySales)
	assert.Equal(t, 500.0, stats.DailyIncome)

	totals := map[string]float64{}
	for _, tt := range stats.Breakdown {
		totals[tt.Type] = tt.Total
	}
	assert.Equal(t, 90.0, totals["sale"])
	assert.Equal(t, 500.0, totals["income"])
}

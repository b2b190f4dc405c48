// Package ledger applies a transaction's effect on stock levels and records
// the resulting financial event.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rogerio-castellano/business-ledger/internal/models"
	"github.com/rogerio-castellano/business-ledger/internal/repo"
)

var (
	ErrMissingUser          = errors.New("transaction requires an acting user")
	ErrInvalidType          = errors.New("transaction type must be one of sale, income, expense, transfer")
	ErrInvalidPaymentMethod = errors.New("payment method must be one of cash, transfer, pos, other")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInvalidItem          = errors.New("sale items need a product and a positive quantity")
	ErrUnknownProduct       = errors.New("product not found")
)

// InsufficientStockError reports a sale item asking for more units than the
// product has on hand. The whole request is rejected and no stock change
// survives.
type InsufficientStockError struct {
	Product   string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.Product)
}

// ItemRequest is one sale line in a recording request. Price and Name are
// optional client overrides; when absent the live product values are
// snapshotted.
type ItemRequest struct {
	ProductID int
	Quantity  int
	Price     *float64
	Name      string
}

// RecordRequest carries everything needed to record one transaction. UserID
// is the acting principal and is always required.
type RecordRequest struct {
	Type          models.TransactionType
	Amount        float64
	Date          time.Time
	Description   string
	Items         []ItemRequest
	PaymentMethod models.PaymentMethod
	Category      string
	Reference     string
	UserID        int
}

// LowStockNotifier is told about products that fell below their threshold
// as a result of a sale.
type LowStockNotifier interface {
	NotifyLowStock(p models.Product)
}

// Service is the inventory ledger: it validates a request, applies sale
// decrements through the product store's atomic conditional decrement, and
// appends the transaction record with immutable item snapshots.
type Service struct {
	products     repo.ProductRepository
	transactions repo.TransactionRepository
	logger       *zap.Logger
	strictItems  bool
	notifier     LowStockNotifier
}

type Option func(*Service)

// WithStrictItems controls the unknown-product policy. Strict (the default)
// rejects the whole request when a sale item references a missing product.
// Lenient records the sale but flags the item as unreconciled, with no stock
// effect.
func WithStrictItems(strict bool) Option {
	return func(s *Service) { s.strictItems = strict }
}

func WithLowStockNotifier(n LowStockNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService creates a new ledger Service.
func NewService(products repo.ProductRepository, transactions repo.TransactionRepository, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		products:     products,
		transactions: transactions,
		logger:       logger,
		strictItems:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type appliedDecrement struct {
	productID int
	qty       int
}

// RecordTransaction validates and applies one transaction. For sales it
// decrements stock per item in submitted order; any failure undoes the
// decrements already applied, so the operation either fully succeeds or
// leaves stock untouched.
//
// Amount policy: for a sale with items the amount is always computed from
// the item snapshots (sum of price times quantity); a client-supplied amount
// is ignored. All other transactions require a positive client amount.
func (s *Service) RecordTransaction(ctx context.Context, req RecordRequest) (models.Transaction, error) {
	if err := validateRequest(req); err != nil {
		return models.Transaction{}, err
	}

	var (
		items   []models.TransactionItem
		applied []appliedDecrement
	)

	if req.Type == models.TypeSale {
		for _, item := range req.Items {
			p, err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity)
			switch {
			case errors.Is(err, repo.ErrProductNotFound):
				if s.strictItems {
					s.compensate(ctx, applied)
					return models.Transaction{}, fmt.Errorf("%w: %d", ErrUnknownProduct, item.ProductID)
				}
				s.logger.Warn("sale references unknown product, recording item as unreconciled",
					zap.Int("product_id", item.ProductID),
					zap.Int("quantity", item.Quantity))
				items = append(items, snapshot(item, models.Product{}, true))
				continue

			case errors.Is(err, repo.ErrInsufficientStock):
				s.compensate(ctx, applied)
				return models.Transaction{}, &InsufficientStockError{
					Product:   p.Name,
					Requested: item.Quantity,
					Available: p.Quantity,
				}

			case err != nil:
				s.compensate(ctx, applied)
				return models.Transaction{}, fmt.Errorf("adjust stock for product %d: %w", item.ProductID, err)
			}

			applied = append(applied, appliedDecrement{productID: item.ProductID, qty: item.Quantity})
			items = append(items, snapshot(item, p, false))

			if p.LowStock() {
				s.logger.Warn("product below low-stock threshold",
					zap.Int("product_id", p.ID),
					zap.String("name", p.Name),
					zap.Int("quantity", p.Quantity),
					zap.Int("threshold", p.Threshold))
				if s.notifier != nil {
					s.notifier.NotifyLowStock(p)
				}
			}
		}
	}

	t := models.Transaction{
		Type:          req.Type,
		Amount:        req.Amount,
		Date:          req.Date,
		Description:   req.Description,
		Items:         items,
		PaymentMethod: req.PaymentMethod,
		Category:      req.Category,
		Reference:     req.Reference,
		UserID:        req.UserID,
	}
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	if req.Type == models.TypeSale && len(items) > 0 {
		t.Amount = itemsTotal(items)
	}
	if req.Type == models.TypeTransfer && t.Reference == "" {
		t.Reference = uuid.NewString()
	}

	created, err := s.transactions.Create(ctx, t)
	if err != nil {
		// The decrements already landed; undo them so a failed append does
		// not leave stock reduced without a recorded sale.
		s.compensate(ctx, applied)
		return models.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}

	s.logger.Info("transaction recorded",
		zap.Int("id", created.ID),
		zap.String("type", string(created.Type)),
		zap.Float64("amount", created.Amount),
		zap.Int("items", len(created.Items)),
		zap.Int("user_id", created.UserID))
	return created, nil
}

// DailyStats aggregates the ledger: global per-type totals plus sale and
// income sums since local midnight, boundary inclusive.
func (s *Service) DailyStats(_ context.Context) (repo.Stats, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.transactions.Stats(startOfDay)
}

func validateRequest(req RecordRequest) error {
	if !req.Type.Valid() {
		return ErrInvalidType
	}
	if req.UserID == 0 {
		return ErrMissingUser
	}
	if req.PaymentMethod != "" && !req.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}
	if req.Type == models.TypeSale {
		for _, item := range req.Items {
			if item.ProductID <= 0 || item.Quantity <= 0 {
				return ErrInvalidItem
			}
		}
		if len(req.Items) > 0 {
			return nil // amount is computed from the items
		}
	}
	if req.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// snapshot copies name and price into the line item at recording time.
// Client overrides win; otherwise the live product values are captured.
func snapshot(item ItemRequest, p models.Product, unreconciled bool) models.TransactionItem {
	name := item.Name
	if name == "" {
		name = p.Name
	}
	price := p.Price
	if item.Price != nil {
		price = *item.Price
	}
	return models.TransactionItem{
		ProductID:    item.ProductID,
		Name:         name,
		Quantity:     item.Quantity,
		Price:        price,
		Unreconciled: unreconciled,
	}
}

func itemsTotal(items []models.TransactionItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// compensate rolls back decrements that were applied before a later step
// failed. Failures here are logged, not returned: the request is already
// failing and the caller's error should win.
func (s *Service) compensate(ctx context.Context, applied []appliedDecrement) {
	for i := len(applied) - 1; i >= 0; i-- {
		d := applied[i]
		if _, err := s.products.AdjustQuantity(ctx, d.productID, d.qty); err != nil {
			s.logger.Error("failed to restore stock after aborted sale",
				zap.Int("product_id", d.productID),
				zap.Int("quantity", d.qty),
				zap.Error(err))
		}
	}
}

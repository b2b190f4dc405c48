package repo

import (
	"context"
	"errors"

	"github.com/rogerio-castellano/business-ledger/internal/models"
)

// ProductFilter narrows and paginates product listings.
type ProductFilter struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
	MinQty   *int
	MaxQty   *int
	Offset   *int
	Limit    *int
}

// ProductRepository defines the interface for product data operations.
type ProductRepository interface {
	Create(product models.Product) (models.Product, error)
	GetAll() ([]models.Product, error)
	GetByID(id int) (models.Product, error)
	GetByName(name string) (models.Product, error)
	GetBySKU(sku string) (models.Product, error)
	Update(product models.Product) (models.Product, error)
	Delete(id int) error
	Filter(f ProductFilter) ([]models.Product, int, error)

	// DecrementStock atomically subtracts qty from the product's quantity,
	// only if the current quantity covers it. It returns the updated product
	// on success. On ErrInsufficientStock the returned product carries the
	// current (unchanged) state so callers can report availability.
	DecrementStock(ctx context.Context, id, qty int) (models.Product, error)

	// AdjustQuantity applies a signed delta, refusing changes that would take
	// the quantity below zero.
	AdjustQuantity(ctx context.Context, id, delta int) (models.Product, error)
}

var (
	// ErrProductNotFound is returned when a product is not found in the repository.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when a decrement asks for more units
	// than the product has on hand.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidQuantityChange is returned when an adjustment would make the
	// quantity negative.
	ErrInvalidQuantityChange = errors.New("quantity cannot become negative")

	// ErrDuplicatedValueUnique is returned on unique constraint violations
	// (product name, SKU, username).
	ErrDuplicatedValueUnique = errors.New("duplicated value for unique field")
)

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

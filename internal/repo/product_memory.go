package repo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rogerio-castellano/business-ledger/internal/models"
)

// InMemoryProductRepository is an in-memory implementation of
// ProductRepository used by the handler and service test suites. Access is
// mutex-guarded so the conditional decrement keeps its atomicity under
// concurrent sales.
type InMemoryProductRepository struct {
	mu       sync.Mutex
	products []models.Product
	nextID   int
}

// NewInMemoryProductRepository creates a new instance of InMemoryProductRepository.
func NewInMemoryProductRepository() *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products: []models.Product{},
		nextID:   1,
	}
}

// Create adds a new product to the repository.
func (r *InMemoryProductRepository) Create(product models.Product) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.Name == product.Name || (product.SKU != "" && p.SKU == product.SKU) {
			return models.Product{}, ErrDuplicatedValueUnique
		}
	}
	product.ID = r.nextID
	r.nextID++
	r.products = append(r.products, product)
	return product, nil
}

// GetAll retrieves all products from the repository.
func (r *InMemoryProductRepository) GetAll() ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Product, len(r.products))
	copy(out, r.products)
	return out, nil
}

// GetByID retrieves a product by its ID.
func (r *InMemoryProductRepository) GetByID(id int) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getByIDLocked(id)
}

func (r *InMemoryProductRepository) getByIDLocked(id int) (models.Product, error) {
	for _, p := range r.products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

func (r *InMemoryProductRepository) GetByName(name string) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Name == name {
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

func (r *InMemoryProductRepository) GetBySKU(sku string) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU != "" && p.SKU == sku {
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

// Update modifies an existing product in the repository.
func (r *InMemoryProductRepository) Update(product models.Product) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.products {
		if p.ID == product.ID {
			r.products[i] = product
			return product, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

// Delete removes a product from the repository by its ID.
func (r *InMemoryProductRepository) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.products {
		if p.ID == id {
			r.products = append(r.products[:i], r.products[i+1:]...)
			return nil
		}
	}
	return ErrProductNotFound
}

func (r *InMemoryProductRepository) Filter(f ProductFilter) ([]models.Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var filtered []models.Product
	for _, p := range r.products {
		if matchesProductFilter(p, f) {
			filtered = append(filtered, p)
		}
	}

	start := 0
	if f.Offset != nil {
		start = clamp(*f.Offset, 0, len(filtered))
	}
	end := len(filtered)
	if f.Limit != nil && *f.Limit > 0 {
		end = clamp(start+*f.Limit, start, len(filtered))
	}

	return filtered[start:end], len(filtered), nil
}

func matchesProductFilter(p models.Product, f ProductFilter) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.MinQty != nil && p.Quantity < *f.MinQty {
		return false
	}
	if f.MaxQty != nil && p.Quantity > *f.MaxQty {
		return false
	}
	return true
}

// DecrementStock checks availability and subtracts under a single lock, the
// in-memory equivalent of the conditional UPDATE in the postgres repository.
func (r *InMemoryProductRepository) DecrementStock(_ context.Context, id, qty int) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.getByIDLocked(id)
	if err != nil {
		return models.Product{}, err
	}
	if p.Quantity < qty {
		return p, ErrInsufficientStock
	}

	p.Quantity -= qty
	p.UpdatedAt = time.Now().UTC()
	for i, existing := range r.products {
		if existing.ID == id {
			r.products[i] = p
			break
		}
	}
	return p, nil
}

// AdjustQuantity implements ProductRepository.
func (r *InMemoryProductRepository) AdjustQuantity(_ context.Context, id, delta int) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.getByIDLocked(id)
	if err != nil {
		return models.Product{}, err
	}
	if p.Quantity+delta < 0 {
		return models.Product{}, ErrInvalidQuantityChange
	}

	p.Quantity += delta
	p.UpdatedAt = time.Now().UTC()
	for i, existing := range r.products {
		if existing.ID == id {
			r.products[i] = p
			break
		}
	}
	return p, nil
}

func (r *InMemoryProductRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = []models.Product{}
	r.nextID = 1
}

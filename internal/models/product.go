package models

import "time"

// DefaultThreshold is the low-stock threshold applied to products created
// without an explicit one.
const DefaultThreshold = 5

// Product represents a stock item managed by the inventory.
type Product struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku,omitempty"`
	Price     float64   `json:"price"`
	Cost      float64   `json:"cost,omitempty"`
	Quantity  int       `json:"quantity"`
	Category  string    `json:"category,omitempty"`
	Threshold int       `json:"threshold"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// LowStock reports whether the product quantity fell below its threshold.
func (p Product) LowStock() bool {
	return p.Quantity < p.Threshold
}

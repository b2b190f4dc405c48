package models

import "time"

// TransactionType classifies a ledger entry. Only sales touch stock levels.
type TransactionType string

const (
	TypeSale     TransactionType = "sale"
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeSale, TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentPOS      PaymentMethod = "pos"
	PaymentOther    PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentTransfer, PaymentPOS, PaymentOther:
		return true
	}
	return false
}

// TransactionItem is a point-in-time snapshot of one sold line. Name and
// price are copied at recording time and never change afterwards, even when
// the product is later repriced or deleted. Unreconciled marks a line whose
// product could not be matched and therefore had no stock effect.
type TransactionItem struct {
	ID           int     `json:"id,omitempty"`
	ProductID    int     `json:"product"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	Unreconciled bool    `json:"unreconciled,omitempty"`
}

// Transaction is one immutable entry in the financial ledger.
type Transaction struct {
	ID            int               `json:"id"`
	Type          TransactionType   `json:"type"`
	Amount        float64           `json:"amount"`
	Date          time.Time         `json:"date"`
	Description   string            `json:"description,omitempty"`
	Items         []TransactionItem `json:"items,omitempty"`
	PaymentMethod PaymentMethod     `json:"paymentMethod,omitempty"`
	Category      string            `json:"category,omitempty"`
	Reference     string            `json:"reference,omitempty"`
	UserID        int               `json:"user"`
	CreatedAt     time.Time         `json:"created_at,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at,omitempty"`
}

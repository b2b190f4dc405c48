package handlers

type ProductRequest struct {
	Id        int     `json:"id,omitempty"`
	Name      string  `json:"name"`
	SKU       string  `json:"sku,omitempty"`
	Price     float64 `json:"price"`
	Cost      float64 `json:"cost,omitempty"`
	Quantity  int     `json:"quantity"`
	Category  string  `json:"category,omitempty"`
	Threshold int     `json:"threshold"`
}

type ProductResponse struct {
	Id        int     `json:"id"`
	Name      string  `json:"name"`
	SKU       string  `json:"sku,omitempty"`
	Price     float64 `json:"price"`
	Cost      float64 `json:"cost,omitempty"`
	Quantity  int     `json:"quantity"`
	Category  string  `json:"category,omitempty"`
	Threshold int     `json:"threshold"`
	LowStock  bool    `json:"low_stock,omitempty"`
}

type Meta struct {
	TotalCount int `json:"total_count"`
}

type ProductsSearchResult struct {
	Data []ProductResponse `json:"data"`
	Meta Meta              `json:"meta,omitempty"`
}

type TransactionItemRequest struct {
	Product  int      `json:"product"`
	Quantity int      `json:"quantity"`
	Price    *float64 `json:"price,omitempty"`
	Name     string   `json:"name,omitempty"`
}

type TransactionRequest struct {
	Type          string                   `json:"type"`
	Amount        float64                  `json:"amount"`
	Description   string                   `json:"description,omitempty"`
	Items         []TransactionItemRequest `json:"items,omitempty"`
	PaymentMethod string                   `json:"paymentMethod,omitempty"`
	Category      string                   `json:"category,omitempty"`
	Reference     string                   `json:"reference,omitempty"`
}

// ErrorResponse is the {message} error body the transaction endpoints reply
// with.
type ErrorResponse struct {
	Message string `json:"message"`
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string `json:"token"`
}

type RegisterResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type ImportProductsResult struct {
	ImportedProductsCount int                      `json:"imported"`
	Errors                []ProductValidationError `json:"errors"`
}

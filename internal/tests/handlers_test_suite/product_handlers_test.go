package handlers_test_suite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	api "github.com/rogerio-castellano/business-ledger/internal/http"
	handler "github.com/rogerio-castellano/business-ledger/internal/http/handlers"
)

func TestCreateProductHandler_Valid(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()

	w := createProduct(r, handler.ProductRequest{Name: "Laptop", SKU: "LP-001", Price: 1500.0, Cost: 1100.0, Quantity: 1})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d", w.Code)
	}

	var resp handler.ProductResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}

	if resp.Name != "Laptop" {
		t.Errorf("expected name 'Laptop', got %v", resp.Name)
	}
	if resp.SKU != "LP-001" {
		t.Errorf("expected sku 'LP-001', got %v", resp.SKU)
	}
	if resp.Price != 1500.0 {
		t.Errorf("expected price 1500.0, got %v", resp.Price)
	}
	if resp.Quantity != 1 {
		t.Errorf("expected quantity 1, got %v", resp.Quantity)
	}
	if resp.Threshold != 5 {
		t.Errorf("expected default threshold 5, got %v", resp.Threshold)
	}
	if !resp.LowStock {
		t.Error("expected low_stock with quantity below threshold")
	}
}

func TestCreateProductHandler_Duplicate(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()

	w := createProduct(r, handler.ProductRequest{Name: "Router", Price: 80.0, Quantity: 4})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d", w.Code)
	}

	w = createProduct(r, handler.ProductRequest{Name: "Router", Price: 90.0, Quantity: 2})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 Conflict for duplicate name, got %d", w.Code)
	}
}

func TestCreateProductHandler_Invalid(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()

	tests := []struct {
		name           string
		payload        handler.ProductRequest
		expectCode     int
		expectedErrors []string
	}{
		{
			name:           "Empty name and price",
			payload:        handler.ProductRequest{Name: "", Price: 0.0},
			expectCode:     http.StatusBadRequest,
			expectedErrors: []string{"Name", "Price"},
		},
		{
			name:           "Empty name only",
			payload:        handler.ProductRequest{Name: "", Price: 100.0},
			expectCode:     http.StatusBadRequest,
			expectedErrors: []string{"Name"},
		},
		{
			name:           "Invalid price only",
			payload:        handler.ProductRequest{Name: "Mouse", Price: -5.0},
			expectCode:     http.StatusBadRequest,
			expectedErrors: []string{"Price"},
		},
		{
			name:           "Negative quantity",
			payload:        handler.ProductRequest{Name: "Keyboard", Price: 50.0, Quantity: -1},
			expectCode:     http.StatusBadRequest,
			expectedErrors: []string{"Quantity"},
		},
		{
			name:           "Negative cost and threshold",
			payload:        handler.ProductRequest{Name: "Webcam", Price: 30.0, Cost: -1, Threshold: -2},
			expectCode:     http.StatusBadRequest,
			expectedErrors: []string{"Cost", "Threshold"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := createProduct(r, tt.payload)

			if w.Code != tt.expectCode {
				t.Errorf("expected status %d, got %d", tt.expectCode, w.Code)
			}

			var resp []handler.ProductValidationError
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("error decoding response: %v", err)
			}

			for _, field := range tt.expectedErrors {
				found := false
				for _, err := range resp {
					if strings.EqualFold(err.Field, field) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected error for field %q, but not found", field)
				}
			}
		})
	}
}

func TestCreateProductHandler_MalformedJSON(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()

	badJSON := `{Name: "Invalid" Price: 100 "}` // missing comma
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString(badJSON))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 Bad Request, got %d", w.Code)
	}

	expectedBody := "invalid input\n"
	if w.Body.String() != expectedBody {
		t.Errorf("expected response body %q, got %q", expectedBody, w.Body.String())
	}
}

func TestProductHandlers_RequireAuth(t *testing.T) {
	r := api.NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized without token, got %d", w.Code)
	}
}

func TestGetProductsHandler(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()

	product1 := handler.ProductRequest{Name: "Phone", Price: 999.99, Quantity: 1}
	w1 := createProduct(r, product1)
	if w1.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created for product creation, got %d", w1.Code)
	}

	product2 := handler.ProductRequest{Name: "Tablet", Price: 499.99, Quantity: 2}
	w2 := createProduct(r, product2)
	if w2.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created for second product creation, got %d", w2.Code)
	}

	getW := authGet(r, "/products")
	if getW.Code != http.StatusOK {
		t.Fatalf("expected 200 OK for product retrieval, got %d", getW.Code)
	}

	var products []handler.ProductResponse
	if err := json.NewDecoder(getW.Body).Decode(&products); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}

	if len(products) != 2 {
		t.Fatalf("expected two products, got %d", len(products))
	}
	if products[0].Name != "Phone" {
		t.Errorf("expected product name 'Phone', got %v", products[0].Name)
	}
	if products[1].Name != "Tablet" {
		t.Errorf("expected product name 'Tablet', got %v", products[1].Name)
	}
}

func TestGetProductByIDHandler(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()

	w := createProduct(r, handler.ProductRequest{Name: "Speaker", Price: 120.0, Quantity: 8})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d", w.Code)
	}
	var created handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&created)

	getW := authGet(r, fmt.Sprintf("/products/%d", created.Id))
	if getW.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", getW.Code)
	}

	var fetched handler.ProductResponse
	if err := json.NewDecoder(getW.Body).Decode(&fetched); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}
	if fetched.Name != "Speaker" {
		t.Errorf("expected name 'Speaker', got %v", fetched.Name)
	}

	notFoundW := authGet(r, "/products/999999")
	if notFoundW.Code != http.StatusNotFound {
		t.Errorf("expected 404 Not Found, got %d", notFoundW.Code)
	}
}

func TestUpdateProductHandler_Valid(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()
	product := handler.ProductRequest{Name: "Old Name", Price: 100.0, Quantity: 1}
	w := createProduct(r, product)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d", w.Code)
	}

	var created handler.ProductResponse
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("error decoding create response: %v", err)
	}

	updateBody := handler.ProductRequest{Name: "New Name", Price: 200.0, Quantity: 2}
	jsonUpdateBody, _ := json.Marshal(updateBody)
	updateReq := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/products/%d", created.Id), bytes.NewReader(jsonUpdateBody))
	updateReq.Header.Set("Authorization", "Bearer "+token)
	updateW := httptest.NewRecorder()
	r.ServeHTTP(updateW, updateReq)

	if updateW.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", updateW.Code)
	}

	var updated handler.ProductResponse
	if err := json.NewDecoder(updateW.Body).Decode(&updated); err != nil {
		t.Fatalf("error decoding update response: %v", err)
	}

	if updated.Name != "New Name" {
		t.Errorf("expected name 'New Name', got %v", updated.Name)
	}
	if updated.Price != 200.0 {
		t.Errorf("expected price 200.0, got %v", updated.Price)
	}
	if updated.Quantity != 2 {
		t.Errorf("expected quantity 2, got %v", updated.Quantity)
	}
}

func TestUpdateProductHandler_NotFound(t *testing.T) {
	r := api.NewRouter()
	updateBody := handler.ProductRequest{Name: "Ghost", Price: 1.0}
	jsonBody, _ := json.Marshal(updateBody)
	req := httptest.NewRequest(http.MethodPut, "/products/999999", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 Not Found, got %d", w.Code)
	}
}

func TestDeleteProductHandler(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()

	w := createProduct(r, handler.ProductRequest{Name: "Disposable", Price: 5.0, Quantity: 1})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d", w.Code)
	}
	var created handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&created)

	delReq := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/products/%d", created.Id), nil)
	delReq.Header.Set("Authorization", "Bearer "+token)
	delW := httptest.NewRecorder()
	r.ServeHTTP(delW, delReq)

	if delW.Code != http.StatusNoContent {
		t.Fatalf("expected 204 No Content, got %d", delW.Code)
	}

	getW := authGet(r, fmt.Sprintf("/products/%d", created.Id))
	if getW.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", getW.Code)
	}
}

func TestFilterProductsHandler(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()

	products := []handler.ProductRequest{
		{Name: "Phone", Price: 699.99, Quantity: 10, Category: "electronics"},
		{Name: "Laptop", Price: 1299.99, Quantity: 5, Category: "electronics"},
		{Name: "Mouse", Price: 29.99, Quantity: 50, Category: "accessories"},
		{Name: "Monitor", Price: 199.99, Quantity: 20, Category: "electronics"},
	}

	for _, p := range products {
		w := createProduct(r, p)
		if w.Code != http.StatusCreated {
			t.Fatalf("failed to create test product: %v", p.Name)
		}
	}

	t.Run("Filter by name", func(t *testing.T) {
		w := authGet(r, "/products/search?name=phone")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp handler.ProductsSearchResult
		json.NewDecoder(w.Body).Decode(&resp)
		if len(resp.Data) != 1 || !strings.Contains(strings.ToLower(resp.Data[0].Name), "phone") {
			t.Errorf("expected one product containing 'phone', got %v", resp.Data)
		}
	})

	t.Run("Filter by category", func(t *testing.T) {
		w := authGet(r, "/products/search?category=accessories")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp handler.ProductsSearchResult
		json.NewDecoder(w.Body).Decode(&resp)
		if len(resp.Data) != 1 || resp.Data[0].Name != "Mouse" {
			t.Errorf("expected only 'Mouse' in accessories, got %v", resp.Data)
		}
	})

	t.Run("Filter by price range", func(t *testing.T) {
		w := authGet(r, "/products/search?minPrice=100&maxPrice=1000")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp handler.ProductsSearchResult
		json.NewDecoder(w.Body).Decode(&resp)
		for _, p := range resp.Data {
			if p.Price < 100 || p.Price > 1000 {
				t.Errorf("product price out of range: %v", p.Price)
			}
		}
	})

	t.Run("Filter by quantity", func(t *testing.T) {
		w := authGet(r, "/products/search?minQty=5&maxQty=20")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp handler.ProductsSearchResult
		json.NewDecoder(w.Body).Decode(&resp)
		for _, p := range resp.Data {
			if p.Quantity < 5 || p.Quantity > 20 {
				t.Errorf("quantity out of range: %v", p.Quantity)
			}
		}
	})

	t.Run("Filter with no match", func(t *testing.T) {
		w := authGet(r, "/products/search?name=xyz")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp handler.ProductsSearchResult
		json.NewDecoder(w.Body).Decode(&resp)
		if got := len(resp.Data); got != 0 {
			t.Errorf("expected empty result, got %d items", got)
		}
	})

	t.Run("Pagination limit and offset", func(t *testing.T) {
		w := authGet(r, "/products/search?offset=0&limit=2")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 OK, got %d", w.Code)
		}
		var resp handler.ProductsSearchResult
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("error decoding response: %v", err)
		}
		if got := len(resp.Data); got != 2 {
			t.Errorf("expected 2 products, got %d", got)
		}
		if resp.Meta.TotalCount != 4 {
			t.Errorf("expected total_count 4, got %d", resp.Meta.TotalCount)
		}
	})

	t.Run("Pagination with no products", func(t *testing.T) {
		w := authGet(r, "/products/search?offset=999&limit=10")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 OK, got %d", w.Code)
		}
		var resp handler.ProductsSearchResult
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("error decoding response: %v", err)
		}
		if got := len(resp.Data); got != 0 {
			t.Errorf("expected empty result, got %d items", got)
		}
	})
}

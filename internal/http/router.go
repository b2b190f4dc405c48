package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rogerio-castellano/business-ledger/internal/http/handlers"
)

func NewRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handlers.HealthHandler)
	r.Post("/register", handlers.RegisterHandler)
	r.Post("/login", handlers.LoginHandler)

	r.Get("/transactions", handlers.GetTransactionsHandler)
	r.Get("/transactions/stats", handlers.GetStatsHandler)
	r.Get("/transactions/export", handlers.ExportTransactionsHandler)

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware)

		pr.Post("/transactions", handlers.CreateTransactionHandler)

		pr.Post("/products", handlers.CreateProductHandler)
		pr.Get("/products", handlers.GetProductsHandler)
		pr.Get("/products/search", handlers.FilterProductsHandler)
		pr.Post("/products/import", handlers.ImportProductsHandler)
		pr.Get("/products/{id}", handlers.GetProductByIDHandler)
		pr.Put("/products/{id}", handlers.UpdateProductHandler)
		pr.Delete("/products/{id}", handlers.DeleteProductHandler)
	})

	return r
}

package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rogerio-castellano/business-ledger/internal/alert"
	"github.com/rogerio-castellano/business-ledger/internal/auth"
	"github.com/rogerio-castellano/business-ledger/internal/config"
	"github.com/rogerio-castellano/business-ledger/internal/db"
	api "github.com/rogerio-castellano/business-ledger/internal/http"
	"github.com/rogerio-castellano/business-ledger/internal/http/handlers"
	rl "github.com/rogerio-castellano/business-ledger/internal/http/rate_limiter"
	"github.com/rogerio-castellano/business-ledger/internal/ledger"
	"github.com/rogerio-castellano/business-ledger/internal/redissvc"
	"github.com/rogerio-castellano/business-ledger/internal/repo"
)

// @title Business Ledger API
// @version 1.0
// @description REST API for managing inventory products and the financial transaction ledger.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Could not load configuration: %v", err)
	}

	auth.SetSecret(cfg.JWTSecret)
	rl.Configure(cfg.RateLimitRPS, cfg.RateLimitBurst)

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("❌ Could not create logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	defer rdb.Close()

	redisService := redissvc.NewRedisService(rdb, ctx)
	handlers.SetRedisService(redisService)
	alert.SetRedisService(redisService)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("❌ Could not connect to database:", err)
	}
	defer database.Close()

	productRepo := repo.NewPostgresProductRepository(database)
	transactionRepo := repo.NewPostgresTransactionRepository(database)

	handlers.SetProductRepo(productRepo)
	handlers.SetTransactionRepo(transactionRepo)
	handlers.SetUserRepo(repo.NewPostgresUserRepository(database))
	handlers.SetLedger(ledger.NewService(productRepo, transactionRepo, logger,
		ledger.WithStrictItems(cfg.StrictSaleItems),
		ledger.WithLowStockNotifier(alert.Notifier{}),
	))

	go rl.StartVisitorCleanupLoop()
	go alert.StartDailyStockSummary(24 * time.Hour)

	r := api.RateLimitMiddleware(api.NewRouter())
	log.Printf("✅ Server running on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal(err)
	}
}

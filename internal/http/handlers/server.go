package handlers

import (
	"github.com/rogerio-castellano/business-ledger/internal/ledger"
	"github.com/rogerio-castellano/business-ledger/internal/redissvc"
	repo "github.com/rogerio-castellano/business-ledger/internal/repo"
)

var (
	productRepo     repo.ProductRepository
	transactionRepo repo.TransactionRepository
	userRepo        repo.UserRepository

	ledgerService *ledger.Service
	redisService  *redissvc.RedisService
)

func SetProductRepo(r repo.ProductRepository) {
	productRepo = r
}

func SetTransactionRepo(r repo.TransactionRepository) {
	transactionRepo = r
}

func SetUserRepo(r repo.UserRepository) {
	userRepo = r
}

func SetLedger(s *ledger.Service) {
	ledgerService = s
}

// SetRedisService wires the stats cache. Optional: handlers fall back to
// computing on every request when it is nil.
func SetRedisService(rs *redissvc.RedisService) {
	redisService = rs
}

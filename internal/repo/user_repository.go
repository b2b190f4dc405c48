package repo

import (
	"errors"

	"github.com/rogerio-castellano/business-ledger/internal/models"
)

type UserRepository interface {
	CreateUser(u models.User) (models.User, error)
	GetByUsername(username string) (models.User, error)
}

var ErrUserNotFound = errors.New("user not found")

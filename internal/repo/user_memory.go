package repo

import (
	"sync"

	"github.com/rogerio-castellano/business-ledger/internal/models"
)

type InMemoryUserRepository struct {
	mu    sync.Mutex
	users []models.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: []models.User{},
	}
}

func (r *InMemoryUserRepository) CreateUser(u models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Username == u.Username {
			return models.User{}, ErrDuplicatedValueUnique
		}
	}

	u.ID = len(r.users) + 1
	r.users = append(r.users, u)
	return u, nil
}

func (r *InMemoryUserRepository) GetByUsername(username string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"taskapi/internal/models"

	"github.com/google/uuid"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]models.User),
	}
}

// Create stores a copy of user, rejecting a username already in use.
func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	normalized := models.NormalizeName(user.Username)
	for _, u := range r.users {
		if u.NormalizedUsername == normalized {
			return fmt.Errorf("failed to create user %s: %w", user.Username, ErrDuplicate)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.NormalizedUsername = normalized
	user.NormalizedEmail = models.NormalizeName(user.Email)
	r.users[user.ID] = *user
	return nil
}

// GetByUsername returns the user whose username matches case-insensitively.
func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(username, func(u models.User, key string) bool { return u.NormalizedUsername == key })
}

// GetByEmail returns the first user whose email matches case-insensitively.
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(email, func(u models.User, key string) bool { return u.NormalizedEmail == key })
}

func (r *MemoryUserRepository) find(value string, match func(models.User, string) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := models.NormalizeName(value)
	for _, u := range r.users {
		if match(u, key) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", value, ErrNotFound)
}

// GetByID returns a user by their ID.
func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return &user, nil
}

// GetAll returns all users ordered by username.
func (r *MemoryUserRepository) GetAll(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userList := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		userList = append(userList, u)
	}
	sort.Slice(userList, func(i, j int) bool { return userList[i].Username < userList[j].Username })
	return userList, nil
}

// Delete removes a user by their ID.
func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	delete(r.users, id)
	return nil
}

package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-parts-service/internal/apperror"
	"github.com/fekuna/omnipos-parts-service/internal/model"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]model.User)}
}

func (r *MemoryRepository) Add(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		return apperror.Validation("user id is required")
	}
	if !user.Role.Valid() {
		return apperror.Validation("unknown role %q", user.Role)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return apperror.Validation("user %q already exists", user.ID)
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (r *MemoryRepository) List(ctx context.Context) []model.User {
	r.mu.RLock()
	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// SetRole changes only the stored role. Past transactions carry the actor's
// id and name, so they are not affected.
func (r *MemoryRepository) SetRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperror.Validation("unknown role %q", role)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	u.Role = role
	r.users[id] = u
	return &u, nil
}

func (r *MemoryRepository) Touch(ctx context.Context, id string, at time.Time) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	u.LastSignIn = at
	r.users[id] = u
	return &u, nil
}

package repository

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/omnipos-parts-service/internal/alert"
	"github.com/fekuna/omnipos-parts-service/internal/apperror"
	"github.com/fekuna/omnipos-parts-service/internal/model"
	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu     sync.Mutex
	alerts []model.Alert // insertion order
	index  map[string]int
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return NewMemoryRepositoryWithClock(time.Now)
}

func NewMemoryRepositoryWithClock(now func() time.Time) *MemoryRepository {
	return &MemoryRepository{
		index: make(map[string]int),
		now:   now,
	}
}

func (r *MemoryRepository) Reconcile(ctx context.Context, parts []model.Part) ([]model.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	open := make([]model.Alert, 0)
	for _, a := range r.alerts {
		if !a.Resolved {
			open = append(open, a)
		}
	}

	created := alert.Reconcile(parts, open, r.now().UTC())
	for i := range created {
		created[i].ID = uuid.New().String()
		r.index[created[i].ID] = len(r.alerts)
		r.alerts = append(r.alerts, created[i])
	}
	return created, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[id]
	if !ok {
		return nil, apperror.NotFound("alert", id)
	}
	a := r.alerts[i]
	return &a, nil
}

// Resolve is one-way; resolving an already resolved alert is a no-op.
func (r *MemoryRepository) Resolve(ctx context.Context, id string) (*model.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[id]
	if !ok {
		return nil, apperror.NotFound("alert", id)
	}
	r.alerts[i].Resolved = true
	a := r.alerts[i]
	return &a, nil
}

// List returns alerts newest first.
func (r *MemoryRepository) List(ctx context.Context, includeResolved bool) []model.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]model.Alert, 0, len(r.alerts))
	for i := len(r.alerts) - 1; i >= 0; i-- {
		if r.alerts[i].Resolved && !includeResolved {
			continue
		}
		items = append(items, r.alerts[i])
	}
	return items
}

package repository

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/fekuna/omnipos-parts-service/internal/apperror"
	"github.com/fekuna/omnipos-parts-service/internal/model"
	"github.com/fekuna/omnipos-parts-service/internal/transaction/dto"
	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	entries []model.Transaction // insertion order
	seq     uint64
	last    time.Time
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return NewMemoryRepositoryWithClock(time.Now)
}

func NewMemoryRepositoryWithClock(now func() time.Time) *MemoryRepository {
	return &MemoryRepository{now: now}
}

// Append trusts the caller to have validated the business operation; only
// the fields needed to render history are checked here.
func (r *MemoryRepository) Append(ctx context.Context, input *model.TransactionInput) (*model.Transaction, error) {
	if input == nil || input.PartID == "" || input.UserID == "" {
		return nil, apperror.Validation("transaction requires part and user")
	}
	if !input.Type.Valid() {
		return nil, apperror.Validation("unknown transaction type %q", input.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.now().UTC()
	if ts.Before(r.last) {
		// Wall clock stepped back; keep timestamps non-decreasing.
		ts = r.last
	}
	r.last = ts
	r.seq++

	t := model.Transaction{
		ID:             uuid.New().String(),
		PartID:         input.PartID,
		PartName:       input.PartName,
		PartSKU:        input.PartSKU,
		UserID:         input.UserID,
		UserName:       input.UserName,
		Type:           input.Type,
		QuantityChange: input.QuantityChange,
		NewQuantity:    input.NewQuantity,
		Timestamp:      ts,
		Seq:            r.seq,
	}
	r.entries = append(r.entries, t)
	return &t, nil
}

func (r *MemoryRepository) ListForPart(ctx context.Context, partID string) iter.Seq[model.Transaction] {
	return r.ListAll(ctx, &dto.TransactionFilters{PartID: partID})
}

func (r *MemoryRepository) ListAll(ctx context.Context, filters *dto.TransactionFilters) iter.Seq[model.Transaction] {
	// Appended entries are never modified, so sharing the backing array up
	// to the current length is a stable snapshot.
	r.mu.RLock()
	snapshot := r.entries[:len(r.entries):len(r.entries)]
	r.mu.RUnlock()

	return func(yield func(model.Transaction) bool) {
		for i := len(snapshot) - 1; i >= 0; i-- {
			t := snapshot[i]
			if !filters.Match(&t) {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

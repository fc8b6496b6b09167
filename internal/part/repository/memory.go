package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/fekuna/omnipos-parts-service/internal/apperror"
	"github.com/fekuna/omnipos-parts-service/internal/model"
	"github.com/fekuna/omnipos-parts-service/internal/part/dto"
	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	parts map[string]model.Part
	byQR  map[string]string // qr code -> part id
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		parts: make(map[string]model.Part),
		byQR:  make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, input *dto.CreatePartInput) (*model.Part, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	p := model.Part{
		ID:               id,
		Name:             input.Name,
		SKU:              input.SKU,
		Description:      input.Description,
		Quantity:         input.Quantity,
		ReorderThreshold: input.ReorderThreshold,
		Location:         input.Location,
		Category:         input.Category,
		QRCode:           "part-" + id,
	}
	if input.ImageURL != "" {
		img := input.ImageURL
		p.ImageURL = &img
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.parts[p.ID] = p
	r.byQR[p.QRCode] = p.ID
	return clonePart(p), nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Part, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parts[id]
	if !ok {
		return nil, apperror.NotFound("part", id)
	}
	return clonePart(p), nil
}

func (r *MemoryRepository) FindByQRCode(ctx context.Context, qrCode string) (*model.Part, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byQR[qrCode]
	if !ok {
		return nil, apperror.NotFound("qr code", qrCode)
	}
	return clonePart(r.parts[id]), nil
}

// FindAll returns a snapshot sorted by name, then id.
func (r *MemoryRepository) FindAll(ctx context.Context, filters *dto.PartFilters) []model.Part {
	search := ""
	if filters != nil {
		search = strings.ToLower(strings.TrimSpace(filters.Search))
	}

	r.mu.RLock()
	items := make([]model.Part, 0, len(r.parts))
	for _, p := range r.parts {
		if search != "" && !matches(p, search) {
			continue
		}
		items = append(items, *clonePart(p))
	}
	r.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
	return items
}

func (r *MemoryRepository) Update(ctx context.Context, id string, patch *dto.PartPatch) (*model.Part, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parts[id]
	if !ok {
		return nil, apperror.NotFound("part", id)
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.ReorderThreshold != nil {
		p.ReorderThreshold = *patch.ReorderThreshold
	}
	if patch.Location != nil {
		p.Location = *patch.Location
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.ImageURL != nil {
		if *patch.ImageURL == "" {
			p.ImageURL = nil
		} else {
			img := *patch.ImageURL
			p.ImageURL = &img
		}
	}

	r.parts[id] = p
	return clonePart(p), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parts[id]
	if !ok {
		return apperror.NotFound("part", id)
	}
	delete(r.parts, id)
	delete(r.byQR, p.QRCode)
	return nil
}

// AdjustQuantity is the critical section for stock accounting: the read,
// the non-negative check and the write happen under one lock.
func (r *MemoryRepository) AdjustQuantity(ctx context.Context, id string, delta int) (*model.Part, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parts[id]
	if !ok {
		return nil, 0, apperror.NotFound("part", id)
	}
	if p.Quantity+delta < 0 {
		return nil, 0, apperror.InsufficientStock(id, p.Quantity, -delta)
	}
	p.Quantity += delta
	r.parts[id] = p
	return clonePart(p), delta, nil
}

func matches(p model.Part, search string) bool {
	return strings.Contains(strings.ToLower(p.Name), search) ||
		strings.Contains(strings.ToLower(p.SKU), search) ||
		strings.Contains(strings.ToLower(p.Category), search)
}

func clonePart(p model.Part) *model.Part {
	if p.ImageURL != nil {
		img := *p.ImageURL
		p.ImageURL = &img
	}
	return &p
}

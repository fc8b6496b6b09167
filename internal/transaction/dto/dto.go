package dto

import (
	"time"

	"github.com/fekuna/omnipos-parts-service/internal/model"
)

type TransactionFilters struct {
	PartID string
	Type   model.TransactionType // empty means all types
	Since  *time.Time
}

func (f *TransactionFilters) Match(t *model.Transaction) bool {
	if f == nil {
		return true
	}
	if f.PartID != "" && t.PartID != f.PartID {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Since != nil && t.Timestamp.Before(*f.Since) {
		return false
	}
	return true
}

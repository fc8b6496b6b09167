package part

import (
	"context"

	"github.com/fekuna/omnipos-parts-service/internal/model"
	"github.com/fekuna/omnipos-parts-service/internal/part/dto"
)

// Repository is the part catalog. Only the ledger engine holds a reference
// that it mutates through; everything else reads through the engine.
type Repository interface {
	Create(ctx context.Context, input *dto.CreatePartInput) (*model.Part, error)
	FindByID(ctx context.Context, id string) (*model.Part, error)
	FindByQRCode(ctx context.Context, qrCode string) (*model.Part, error)
	FindAll(ctx context.Context, filters *dto.PartFilters) []model.Part
	Update(ctx context.Context, id string, patch *dto.PartPatch) (*model.Part, error)
	Delete(ctx context.Context, id string) error

	// AdjustQuantity applies delta atomically and returns the part after the
	// write plus the delta that was applied.
	AdjustQuantity(ctx context.Context, id string, delta int) (*model.Part, int, error)
}

package alert

import (
	"context"

	"github.com/fekuna/omnipos-parts-service/internal/model"
)

type Repository interface {
	// Reconcile opens the alerts missing for parts. Passes are serialized so
	// two concurrent callers cannot both open an alert for the same part.
	Reconcile(ctx context.Context, parts []model.Part) ([]model.Alert, error)
	FindByID(ctx context.Context, id string) (*model.Alert, error)
	Resolve(ctx context.Context, id string) (*model.Alert, error)
	List(ctx context.Context, includeResolved bool) []model.Alert
}

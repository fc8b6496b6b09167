package identity

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-parts-service/internal/model"
)

// Repository is the identity directory. Users are seeded at startup and never
// deleted; only the role and the last sign-in time change.
type Repository interface {
	Add(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) []model.User
	SetRole(ctx context.Context, id string, role model.Role) (*model.User, error)
	Touch(ctx context.Context, id string, at time.Time) (*model.User, error)
}

package ledger

import (
	"context"
	"iter"

	"github.com/fekuna/omnipos-parts-service/internal/forecast"
	"github.com/fekuna/omnipos-parts-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-parts-service/internal/model"
	partdto "github.com/fekuna/omnipos-parts-service/internal/part/dto"
	txdto "github.com/fekuna/omnipos-parts-service/internal/transaction/dto"
)

// UseCase is the ledger engine, the only path through which parts,
// transactions and alerts change. actorID always names the user performing
// the operation.
type UseCase interface {
	CreatePart(ctx context.Context, actorID string, input *partdto.CreatePartInput) (*dto.Result, error)
	UpdatePart(ctx context.Context, actorID, partID string, patch *partdto.PartPatch) (*dto.Result, error)
	DeletePart(ctx context.Context, partID string) error
	AddStock(ctx context.Context, actorID, partID string, quantity int) (*dto.Result, error)
	CheckOut(ctx context.Context, actorID, partID string, quantity int) (*dto.Result, error)
	ScanCheckOut(ctx context.Context, actorID, qrCode string, quantity int) (*dto.Result, error)

	SetUserRole(ctx context.Context, userID string, role model.Role) (*model.User, error)
	SignIn(ctx context.Context, userID string) (*model.User, error)
	ResolveAlert(ctx context.Context, actorID, alertID string) (*model.Alert, error)

	// ReconcileAlerts runs a reconcile pass outside of a mutation.
	ReconcileAlerts(ctx context.Context) ([]model.Alert, error)

	GetPart(ctx context.Context, partID string) (*model.Part, error)
	ListParts(ctx context.Context, filters *partdto.PartFilters) []model.Part
	ListTransactions(ctx context.Context, filters *txdto.TransactionFilters) iter.Seq[model.Transaction]
	ListAlerts(ctx context.Context, includeResolved bool) []model.Alert
	GetUser(ctx context.Context, userID string) (*model.User, error)
	ListUsers(ctx context.Context) []model.User

	Forecast(ctx context.Context, partID string) (*forecast.Result, error)
}

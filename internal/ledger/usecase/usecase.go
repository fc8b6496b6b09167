package usecase

import (
	"context"
	"errors"
	"iter"
	"sync"
	"time"

	"github.com/fekuna/omnipos-parts-service/internal/alert"
	"github.com/fekuna/omnipos-parts-service/internal/apperror"
	"github.com/fekuna/omnipos-parts-service/internal/forecast"
	"github.com/fekuna/omnipos-parts-service/internal/identity"
	"github.com/fekuna/omnipos-parts-service/internal/ledger"
	"github.com/fekuna/omnipos-parts-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-parts-service/internal/model"
	"github.com/fekuna/omnipos-parts-service/internal/observability"
	"github.com/fekuna/omnipos-parts-service/internal/part"
	partdto "github.com/fekuna/omnipos-parts-service/internal/part/dto"
	"github.com/fekuna/omnipos-parts-service/internal/transaction"
	txdto "github.com/fekuna/omnipos-parts-service/internal/transaction/dto"
	"github.com/fekuna/omnipos-parts-service/pkg/logger"
	"go.uber.org/zap"
)

var ErrForecastUnavailable = errors.New("forecast service is not configured")

type Repositories struct {
	Users        identity.Repository
	Parts        part.Repository
	Transactions transaction.Repository
	Alerts       alert.Repository
}

type ledgerUseCase struct {
	users        identity.Repository
	parts        part.Repository
	transactions transaction.Repository
	alerts       alert.Repository
	forecaster   forecast.Forecaster
	metrics      *observability.LedgerMetrics
	logger       logger.ZapLogger
	now          func() time.Time

	// gate is held exclusively while a part is created and its Create row
	// appended, so no other operation can reach the part before that row.
	gate        sync.RWMutex
	partLocks   *keyLock
	reconcileMu sync.Mutex
}

// NewLedgerUseCase wires the engine. forecaster and metrics may be nil.
func NewLedgerUseCase(repos Repositories, forecaster forecast.Forecaster, metrics *observability.LedgerMetrics, log logger.ZapLogger) ledger.UseCase {
	return &ledgerUseCase{
		users:        repos.Users,
		parts:        repos.Parts,
		transactions: repos.Transactions,
		alerts:       repos.Alerts,
		forecaster:   forecaster,
		metrics:      metrics,
		logger:       log,
		now:          time.Now,
		partLocks:    newKeyLock(),
	}
}

func (uc *ledgerUseCase) CreatePart(ctx context.Context, actorID string, input *partdto.CreatePartInput) (res *dto.Result, err error) {
	defer func() { uc.metrics.RecordOperation("create_part", err) }()

	// 1. Validate
	actor, err := uc.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	// 2. Create and log under the exclusive gate
	uc.gate.Lock()
	p, err := uc.parts.Create(ctx, input)
	if err != nil {
		uc.gate.Unlock()
		return nil, err
	}
	tx, err := uc.transactions.Append(ctx, newEntry(p, actor, model.TransactionCreate, p.Quantity))
	if err != nil {
		_ = uc.parts.Delete(ctx, p.ID)
		uc.gate.Unlock()
		return nil, err
	}
	uc.gate.Unlock()

	uc.metrics.RecordUnits(p.Quantity)
	uc.logger.Info("part created",
		zap.String("part_id", p.ID),
		zap.String("sku", p.SKU),
		zap.Int("quantity", p.Quantity),
		zap.String("actor_id", actor.ID),
	)

	// 3. Reconcile alerts over the whole catalog
	return &dto.Result{Part: p, Transaction: tx, NewAlerts: uc.reconcile(ctx)}, nil
}

// UpdatePart overwrites metadata. Quantity is accepted only when it equals
// the current value; stock moves go through AddStock and CheckOut so that the
// ledger deltas always add up to the stored quantity.
func (uc *ledgerUseCase) UpdatePart(ctx context.Context, actorID, partID string, patch *partdto.PartPatch) (res *dto.Result, err error) {
	defer func() { uc.metrics.RecordOperation("update_part", err) }()

	actor, err := uc.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	unlock := uc.lockPart(partID)
	p, tx, err := func() (*model.Part, *model.Transaction, error) {
		defer unlock()

		current, err := uc.parts.FindByID(ctx, partID)
		if err != nil {
			return nil, nil, err
		}
		if patch.Quantity != nil && *patch.Quantity != current.Quantity {
			return nil, nil, apperror.Validation("quantity can only change through stock add or check out")
		}

		updated, err := uc.parts.Update(ctx, partID, patch)
		if err != nil {
			return nil, nil, err
		}
		tx, err := uc.transactions.Append(ctx, newEntry(updated, actor, model.TransactionUpdate, 0))
		if err != nil {
			_, _ = uc.parts.Update(ctx, partID, restorePatch(current))
			return nil, nil, err
		}
		return updated, tx, nil
	}()
	if err != nil {
		return nil, err
	}

	uc.logger.Info("part updated", zap.String("part_id", p.ID), zap.String("actor_id", actor.ID))
	return &dto.Result{Part: p, Transaction: tx, NewAlerts: uc.reconcile(ctx)}, nil
}

// DeletePart removes the part from the catalog only. Its transactions keep
// their copied names and its alerts stay as they are.
func (uc *ledgerUseCase) DeletePart(ctx context.Context, partID string) (err error) {
	defer func() { uc.metrics.RecordOperation("delete_part", err) }()

	unlock := uc.lockPart(partID)
	err = uc.parts.Delete(ctx, partID)
	unlock()
	if err != nil {
		return err
	}

	uc.logger.Info("part deleted", zap.String("part_id", partID))
	uc.reconcile(ctx)
	return nil
}

func (uc *ledgerUseCase) AddStock(ctx context.Context, actorID, partID string, quantity int) (res *dto.Result, err error) {
	defer func() { uc.metrics.RecordOperation("add_stock", err) }()

	if quantity <= 0 {
		return nil, apperror.Validation("quantity must be positive, got %d", quantity)
	}
	return uc.adjust(ctx, actorID, partID, quantity, model.TransactionStockAdd)
}

func (uc *ledgerUseCase) CheckOut(ctx context.Context, actorID, partID string, quantity int) (res *dto.Result, err error) {
	defer func() { uc.metrics.RecordOperation("check_out", err) }()

	if quantity <= 0 {
		return nil, apperror.Validation("quantity must be positive, got %d", quantity)
	}
	return uc.adjust(ctx, actorID, partID, -quantity, model.TransactionCheckOut)
}

// ScanCheckOut resolves a scanned token to its part and checks out by id.
func (uc *ledgerUseCase) ScanCheckOut(ctx context.Context, actorID, qrCode string, quantity int) (*dto.Result, error) {
	p, err := uc.parts.FindByQRCode(ctx, qrCode)
	if err != nil {
		return nil, err
	}
	return uc.CheckOut(ctx, actorID, p.ID, quantity)
}

func (uc *ledgerUseCase) adjust(ctx context.Context, actorID, partID string, delta int, typ model.TransactionType) (*dto.Result, error) {
	actor, err := uc.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	unlock := uc.lockPart(partID)
	p, tx, err := func() (*model.Part, *model.Transaction, error) {
		defer unlock()

		p, applied, err := uc.parts.AdjustQuantity(ctx, partID, delta)
		if err != nil {
			return nil, nil, err
		}
		tx, err := uc.transactions.Append(ctx, newEntry(p, actor, typ, applied))
		if err != nil {
			_, _, _ = uc.parts.AdjustQuantity(ctx, partID, -applied)
			return nil, nil, err
		}
		return p, tx, nil
	}()
	if err != nil {
		if errors.Is(err, apperror.ErrInsufficientStock) {
			uc.logger.Warn("check out rejected",
				zap.String("part_id", partID),
				zap.Int("requested", -delta),
				zap.String("actor_id", actor.ID),
			)
		}
		return nil, err
	}

	uc.metrics.RecordUnits(delta)
	uc.logger.Info("stock adjusted",
		zap.String("part_id", p.ID),
		zap.String("type", string(typ)),
		zap.Int("change", delta),
		zap.Int("quantity", p.Quantity),
		zap.String("actor_id", actor.ID),
	)
	return &dto.Result{Part: p, Transaction: tx, NewAlerts: uc.reconcile(ctx)}, nil
}

func (uc *ledgerUseCase) SetUserRole(ctx context.Context, userID string, role model.Role) (u *model.User, err error) {
	defer func() { uc.metrics.RecordOperation("set_user_role", err) }()

	u, err = uc.users.SetRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("user role changed", zap.String("user_id", userID), zap.String("role", string(role)))
	return u, nil
}

func (uc *ledgerUseCase) SignIn(ctx context.Context, userID string) (*model.User, error) {
	return uc.users.Touch(ctx, userID, uc.now().UTC())
}

func (uc *ledgerUseCase) ResolveAlert(ctx context.Context, actorID, alertID string) (a *model.Alert, err error) {
	defer func() { uc.metrics.RecordOperation("resolve_alert", err) }()

	actor, err := uc.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.alerts.FindByID(ctx, alertID); err != nil {
		return nil, err
	}
	if actor.Role != model.RoleAdmin {
		return nil, apperror.Forbidden("only %s may resolve alerts", model.RoleAdmin)
	}

	a, err = uc.alerts.Resolve(ctx, alertID)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("alert resolved", zap.String("alert_id", alertID), zap.String("actor_id", actor.ID))
	return a, nil
}

func (uc *ledgerUseCase) ReconcileAlerts(ctx context.Context) ([]model.Alert, error) {
	uc.reconcileMu.Lock()
	defer uc.reconcileMu.Unlock()

	created, err := uc.alerts.Reconcile(ctx, uc.parts.FindAll(ctx, nil))
	if err != nil {
		return nil, err
	}
	uc.metrics.RecordAlertsOpened(len(created))
	for _, a := range created {
		uc.logger.Info("low stock alert opened", zap.String("alert_id", a.ID), zap.String("part_id", a.PartID))
	}
	return created, nil
}

// reconcile runs after a committed mutation. A failure is logged and never
// undoes the mutation.
func (uc *ledgerUseCase) reconcile(ctx context.Context) []model.Alert {
	created, err := uc.ReconcileAlerts(ctx)
	if err != nil {
		uc.metrics.RecordReconcileFailure()
		uc.logger.Error("alert reconcile failed", zap.Error(err))
		return nil
	}
	return created
}

func (uc *ledgerUseCase) GetPart(ctx context.Context, partID string) (*model.Part, error) {
	return uc.parts.FindByID(ctx, partID)
}

func (uc *ledgerUseCase) ListParts(ctx context.Context, filters *partdto.PartFilters) []model.Part {
	return uc.parts.FindAll(ctx, filters)
}

func (uc *ledgerUseCase) ListTransactions(ctx context.Context, filters *txdto.TransactionFilters) iter.Seq[model.Transaction] {
	return uc.transactions.ListAll(ctx, filters)
}

func (uc *ledgerUseCase) ListAlerts(ctx context.Context, includeResolved bool) []model.Alert {
	return uc.alerts.List(ctx, includeResolved)
}

func (uc *ledgerUseCase) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return uc.users.FindByID(ctx, userID)
}

func (uc *ledgerUseCase) ListUsers(ctx context.Context) []model.User {
	return uc.users.List(ctx)
}

// Forecast never calls the forecaster with fewer than forecast.MinHistory
// check-outs; it reports forecast.ErrInsufficientData instead.
func (uc *ledgerUseCase) Forecast(ctx context.Context, partID string) (*forecast.Result, error) {
	p, err := uc.parts.FindByID(ctx, partID)
	if err != nil {
		return nil, err
	}

	history := forecast.History(uc.transactions.ListAll(ctx, &txdto.TransactionFilters{
		PartID: partID,
		Type:   model.TransactionCheckOut,
	}))
	if len(history) < forecast.MinHistory {
		return nil, forecast.ErrInsufficientData
	}
	if uc.forecaster == nil {
		return nil, ErrForecastUnavailable
	}
	return uc.forecaster.Forecast(ctx, p.Name, history)
}

// lockPart serializes operations on one part. Different parts only share
// the read side of the gate.
func (uc *ledgerUseCase) lockPart(partID string) func() {
	uc.gate.RLock()
	unlock := uc.partLocks.Lock(partID)
	return func() {
		unlock()
		uc.gate.RUnlock()
	}
}

func newEntry(p *model.Part, actor *model.User, typ model.TransactionType, change int) *model.TransactionInput {
	return &model.TransactionInput{
		PartID:         p.ID,
		PartName:       p.Name,
		PartSKU:        p.SKU,
		UserID:         actor.ID,
		UserName:       actor.Name,
		Type:           typ,
		QuantityChange: change,
		NewQuantity:    p.Quantity,
	}
}

func restorePatch(p *model.Part) *partdto.PartPatch {
	img := ""
	if p.ImageURL != nil {
		img = *p.ImageURL
	}
	return &partdto.PartPatch{
		Name:             &p.Name,
		SKU:              &p.SKU,
		Description:      &p.Description,
		ReorderThreshold: &p.ReorderThreshold,
		Location:         &p.Location,
		Category:         &p.Category,
		ImageURL:         &img,
	}
}

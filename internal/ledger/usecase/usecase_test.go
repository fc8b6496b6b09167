package usecase

import (
	"context"
	"slices"
	"sync"
	"testing"

	alertRepo "github.com/fekuna/omnipos-parts-service/internal/alert/repository"
	"github.com/fekuna/omnipos-parts-service/internal/apperror"
	"github.com/fekuna/omnipos-parts-service/internal/forecast"
	identityRepo "github.com/fekuna/omnipos-parts-service/internal/identity/repository"
	"github.com/fekuna/omnipos-parts-service/internal/ledger"
	"github.com/fekuna/omnipos-parts-service/internal/model"
	partdto "github.com/fekuna/omnipos-parts-service/internal/part/dto"
	partRepo "github.com/fekuna/omnipos-parts-service/internal/part/repository"
	txdto "github.com/fekuna/omnipos-parts-service/internal/transaction/dto"
	txRepo "github.com/fekuna/omnipos-parts-service/internal/transaction/repository"
	"github.com/fekuna/omnipos-parts-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	admin   = "u1"
	manager = "u2"
	tech    = "u3"
)

type stubForecaster struct {
	calls   int
	history []forecast.Point
}

func (s *stubForecaster) Forecast(ctx context.Context, partName string, history []forecast.Point) (*forecast.Result, error) {
	s.calls++
	s.history = history
	return &forecast.Result{Forecast: forecast.Figures{DailyAvg: 2}, Insights: "ok"}, nil
}

func newEngine(t *testing.T, f forecast.Forecaster) ledger.UseCase {
	t.Helper()
	users := identityRepo.NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, users.Add(ctx, &model.User{ID: admin, Name: "Alice Admin", Role: model.RoleAdmin}))
	require.NoError(t, users.Add(ctx, &model.User{ID: manager, Name: "Bob Manager", Role: model.RoleManager}))
	require.NoError(t, users.Add(ctx, &model.User{ID: tech, Name: "Charlie Tech", Role: model.RoleTechnician}))

	return NewLedgerUseCase(Repositories{
		Users:        users,
		Parts:        partRepo.NewMemoryRepository(),
		Transactions: txRepo.NewMemoryRepository(),
		Alerts:       alertRepo.NewMemoryRepository(),
	}, f, nil, logger.NewNop())
}

func createPart(t *testing.T, uc ledger.UseCase, qty, threshold int) *model.Part {
	t.Helper()
	res, err := uc.CreatePart(context.Background(), admin, &partdto.CreatePartInput{
		Name:             "24V DC Power Supply",
		SKU:              "PSU-24V-5A",
		Quantity:         qty,
		ReorderThreshold: threshold,
		Location:         "Aisle 7, Shelf 2",
		Category:         "Electronics",
	})
	require.NoError(t, err)
	return res.Part
}

func history(uc ledger.UseCase, partID string) []model.Transaction {
	return slices.Collect(uc.ListTransactions(context.Background(), &txdto.TransactionFilters{PartID: partID}))
}

func openAlertsFor(uc ledger.UseCase, partID string) int {
	n := 0
	for _, a := range uc.ListAlerts(context.Background(), false) {
		if a.PartID == partID {
			n++
		}
	}
	return n
}

func assertConserved(t *testing.T, uc ledger.UseCase, partID string) {
	t.Helper()
	rows := history(uc, partID)
	sum := 0
	for i := len(rows) - 1; i >= 0; i-- {
		sum += rows[i].QuantityChange
		assert.Equal(t, sum, rows[i].NewQuantity, "running total must match snapshot at seq %d", rows[i].Seq)
	}
	p, err := uc.GetPart(context.Background(), partID)
	require.NoError(t, err)
	assert.Equal(t, p.Quantity, sum)
}

func TestLedger_CheckOutResolveRestockScenario(t *testing.T) {
	uc := newEngine(t, nil)
	ctx := context.Background()

	p := createPart(t, uc, 10, 5)
	assert.Empty(t, uc.ListAlerts(ctx, true))

	res, err := uc.CheckOut(ctx, tech, p.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Part.Quantity)
	assert.Equal(t, model.TransactionCheckOut, res.Transaction.Type)
	assert.Equal(t, -6, res.Transaction.QuantityChange)
	assert.Equal(t, 4, res.Transaction.NewQuantity)
	assert.Equal(t, "Charlie Tech", res.Transaction.UserName)
	require.Len(t, res.NewAlerts, 1)
	assert.Equal(t, "Quantity (4) is at or below reorder threshold (5)", res.NewAlerts[0].Message)

	resolved, err := uc.ResolveAlert(ctx, admin, res.NewAlerts[0].ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)

	res, err = uc.AddStock(ctx, tech, p.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, 24, res.Part.Quantity)
	assert.Empty(t, res.NewAlerts)
	assert.Len(t, uc.ListAlerts(ctx, true), 1)

	assertConserved(t, uc, p.ID)
}

func TestLedger_CheckOutMoreThanAvailable(t *testing.T) {
	uc := newEngine(t, nil)
	ctx := context.Background()
	p := createPart(t, uc, 3, 0)

	_, err := uc.CheckOut(ctx, tech, p.ID, 4)
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)

	got, _ := uc.GetPart(ctx, p.ID)
	assert.Equal(t, 3, got.Quantity)
	assert.Len(t, history(uc, p.ID), 1, "only the Create row")
}

func TestLedger_ResolveAlertRequiresAdmin(t *testing.T) {
	uc := newEngine(t, nil)
	ctx := context.Background()
	p := createPart(t, uc, 1, 5)

	alerts := uc.ListAlerts(ctx, false)
	require.Len(t, alerts, 1)

	for _, actor := range []string{manager, tech} {
		_, err := uc.ResolveAlert(ctx, actor, alerts[0].ID)
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	}
	assert.Equal(t, 1, openAlertsFor(uc, p.ID))

	_, err := uc.ResolveAlert(ctx, admin, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = uc.ResolveAlert(ctx, "ghost", alerts[0].ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestLedger_ValidationHappensBeforeMutation(t *testing.T) {
	uc := newEngine(t, nil)
	ctx := context.Background()
	p := createPart(t, uc, 10, 0)

	for _, qty := range []int{0, -2} {
		_, err := uc.AddStock(ctx, tech, p.ID, qty)
		assert.ErrorIs(t, err, apperror.ErrValidation)
		_, err = uc.CheckOut(ctx, tech, p.ID, qty)
		assert.ErrorIs(t, err, apperror.ErrValidation)
	}

	_, err := uc.CreatePart(ctx, admin, &partdto.CreatePartInput{Name: "X", SKU: "X", Quantity: -1})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = uc.CreatePart(ctx, admin, &partdto.CreatePartInput{Name: "X", SKU: "X", ReorderThreshold: -1})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.Len(t, uc.ListParts(ctx, nil), 1)
	assert.Len(t, history(uc, p.ID), 1)
}

func TestLedger_UnknownActorOrPart(t *testing.T) {
	uc := newEngine(t, nil)
	ctx := context.Background()
	p := createPart(t, uc, 10, 0)

	_, err := uc.CheckOut(ctx, "ghost", p.ID, 1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = uc.AddStock(ctx, tech, "missing", 1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	name := "n"
	_, err = uc.UpdatePart(ctx, tech, "missing", &partdto.PartPatch{Name: &name})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, uc.DeletePart(ctx, "missing"), apperror.ErrNotFound)
	_, err = uc.SetUserRole(ctx, "ghost", model.RoleAdmin)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestLedger_UpdatePartLogsZeroDelta(t *testing.T) {
	uc := newEngine(t, nil)
	ctx := context.Background()
	p := createPart(t, uc, 10, 2)

	loc := "Aisle 1"
	same := 10
	res, err := uc.UpdatePart(ctx, manager, p.ID, &partdto.PartPatch{Location: &loc, Quantity: &same})
	require.NoError(t, err)
	assert.Equal(t, "Aisle 1", res.Part.Location)
	assert.Equal(t, p.QRCode, res.Part.QRCode)
	assert.Equal(t, model.TransactionUpdate, res.Transaction.Type)
	assert.Equal(t, 0, res.Transaction.QuantityChange)
	assert.Equal(t, 10, res.Transaction.NewQuantity)

	different := 99
	_, err = uc.UpdatePart(ctx, manager, p.ID, &partdto.PartPatch{Quantity: &different})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assertConserved(t, uc, p.ID)
}

func TestLedger_ThresholdChangeRaisesAlert(t *testing.T) {
	uc := newEngine(t, nil)
	ctx := context.Background()
	p := createPart(t, uc, 10, 2)

	threshold := 10
	res, err := uc.UpdatePart(ctx, admin, p.ID, &partdto.PartPatch{ReorderThreshold: &threshold})
	require.NoError(t, err)
	require.Len(t, res.NewAlerts, 1)
	assert.Equal(t, p.ID, res.NewAlerts[0].PartID)
}

func TestLedger_TwoPartsEachGetOneAlert(t *testing.T) {
	uc := newEngine(t, nil)
	ctx := context.Background()
	a := createPart(t, uc, 10, 5)
	b := createPart(t, uc, 10, 5)

	_, err := uc.CheckOut(ctx, tech, a.ID, 8)
	require.NoError(t, err)
	_, err = uc.CheckOut(ctx, tech, b.ID, 8)
	require.NoError(t, err)
	_, err = uc.CheckOut(ctx, tech, a.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, openAlertsFor(uc, a.ID))
	assert.Equal(t, 1, openAlertsFor(uc, b.ID))

	again, err := uc.ReconcileAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestLedger_ConcurrentCheckOuts(t *testing.T) {
	const (
		stock   = 7
		callers = 30
	)
	uc := newEngine(t, nil)
	ctx := context.Background()
	p := createPart(t, uc, stock, 0)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.CheckOut(ctx, tech, p.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, apperror.ErrInsufficientStock):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, stock, ok)
	assert.Equal(t, callers-stock, rejected)
	got, _ := uc.GetPart(ctx, p.ID)
	assert.Equal(t, 0, got.Quantity)
	assert.Equal(t, 1, openAlertsFor(uc, p.ID))
	assertConserved(t, uc, p.ID)
}

func TestLedger_ConcurrentMixedOperationsConserve(t *testing.T) {
	uc := newEngine(t, nil)
	ctx := context.Background()
	p := createPart(t, uc, 50, 10)
	q := createPart(t, uc, 50, 10)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target := p.ID
			if i%2 == 0 {
				target = q.ID
			}
			if i%3 == 0 {
				_, _ = uc.AddStock(ctx, tech, target, 2)
				return
			}
			_, _ = uc.CheckOut(ctx, tech, target, 3)
		}(i)
	}
	wg.Wait()

	for _, id := range []string{p.ID, q.ID} {
		assertConserved(t, uc, id)
		assert.LessOrEqual(t, openAlertsFor(uc, id), 1)
	}
}

func TestLedger_ScanCheckOut(t *testing.T) {
	uc := newEngine(t, nil)
	ctx := context.Background()
	p := createPart(t, uc, 5, 0)

	res, err := uc.ScanCheckOut(ctx, tech, p.QRCode, 2)
	require.NoError(t, err)
	assert.Equal(t, p.ID, res.Part.ID)
	assert.Equal(t, 3, res.Part.Quantity)

	_, err = uc.ScanCheckOut(ctx, tech, "part-unknown", 1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestLedger_DeleteKeepsHistoryAndAlerts(t *testing.T) {
	uc := newEngine(t, nil)
	ctx := context.Background()
	p := createPart(t, uc, 1, 5)
	require.Equal(t, 1, openAlertsFor(uc, p.ID))

	require.NoError(t, uc.DeletePart(ctx, p.ID))

	_, err := uc.GetPart(ctx, p.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	rows := history(uc, p.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, "24V DC Power Supply", rows[0].PartName)
	assert.Equal(t, 1, openAlertsFor(uc, p.ID))

	alerts := uc.ListAlerts(ctx, false)
	_, err = uc.ResolveAlert(ctx, admin, alerts[0].ID)
	assert.NoError(t, err)
}

func TestLedger_SetUserRoleDoesNotRewriteHistory(t *testing.T) {
	uc := newEngine(t, nil)
	ctx := context.Background()
	p := createPart(t, uc, 5, 0)
	_, err := uc.CheckOut(ctx, tech, p.ID, 1)
	require.NoError(t, err)

	u, err := uc.SetUserRole(ctx, tech, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)

	_, err = uc.SetUserRole(ctx, tech, model.Role("Owner"))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	rows := history(uc, p.ID)
	assert.Equal(t, tech, rows[0].UserID)
	assert.Equal(t, "Charlie Tech", rows[0].UserName)
}

func TestLedger_SignInTouchesUser(t *testing.T) {
	uc := newEngine(t, nil)
	u, err := uc.SignIn(context.Background(), manager)
	require.NoError(t, err)
	assert.False(t, u.LastSignIn.IsZero())
}

func TestLedger_Forecast(t *testing.T) {
	stub := &stubForecaster{}
	uc := newEngine(t, stub)
	ctx := context.Background()
	p := createPart(t, uc, 100, 0)

	_, err := uc.CheckOut(ctx, tech, p.ID, 4)
	require.NoError(t, err)
	_, err = uc.AddStock(ctx, tech, p.ID, 10)
	require.NoError(t, err)

	_, err = uc.Forecast(ctx, p.ID)
	assert.ErrorIs(t, err, forecast.ErrInsufficientData)
	assert.Zero(t, stub.calls)

	_, err = uc.CheckOut(ctx, tech, p.ID, 2)
	require.NoError(t, err)

	res, err := uc.Forecast(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Forecast.DailyAvg)
	assert.Equal(t, 1, stub.calls)
	require.Len(t, stub.history, 2)
	assert.Equal(t, 2, stub.history[0].Quantity, "newest first")
	assert.Equal(t, 4, stub.history[1].Quantity)

	_, err = uc.Forecast(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestLedger_ForecastWithoutCollaborator(t *testing.T) {
	uc := newEngine(t, nil)
	ctx := context.Background()
	p := createPart(t, uc, 10, 0)
	_, _ = uc.CheckOut(ctx, tech, p.ID, 1)
	_, _ = uc.CheckOut(ctx, tech, p.ID, 1)

	_, err := uc.Forecast(ctx, p.ID)
	assert.ErrorIs(t, err, ErrForecastUnavailable)
}

func TestKeyLock_ForgetsReleasedKeys(t *testing.T) {
	k := newKeyLock()
	unlock := k.Lock("p1")
	assert.Equal(t, 1, k.size())
	unlock()
	assert.Equal(t, 0, k.size())
}

package listener

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	alertRepo "github.com/fekuna/omnipos-parts-service/internal/alert/repository"
	identityRepo "github.com/fekuna/omnipos-parts-service/internal/identity/repository"
	"github.com/fekuna/omnipos-parts-service/internal/ledger"
	"github.com/fekuna/omnipos-parts-service/internal/ledger/usecase"
	"github.com/fekuna/omnipos-parts-service/internal/model"
	partdto "github.com/fekuna/omnipos-parts-service/internal/part/dto"
	partRepo "github.com/fekuna/omnipos-parts-service/internal/part/repository"
	txRepo "github.com/fekuna/omnipos-parts-service/internal/transaction/repository"
	"github.com/fekuna/omnipos-parts-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queueReader struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (q *queueReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	q.mu.Lock()
	if len(q.msgs) > 0 {
		v := q.msgs[0]
		q.msgs = q.msgs[1:]
		q.mu.Unlock()
		return kafka.Message{Value: v}, nil
	}
	q.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

type failingReader struct{ calls int }

func (f *failingReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	f.calls++
	return kafka.Message{}, errors.New("broker down")
}

func newEngine(t *testing.T) (ledger.UseCase, *model.Part) {
	t.Helper()
	users := identityRepo.NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, users.Add(ctx, &model.User{ID: "u3", Name: "Charlie Tech", Role: model.RoleTechnician}))

	uc := usecase.NewLedgerUseCase(usecase.Repositories{
		Users:        users,
		Parts:        partRepo.NewMemoryRepository(),
		Transactions: txRepo.NewMemoryRepository(),
		Alerts:       alertRepo.NewMemoryRepository(),
	}, nil, nil, logger.NewNop())

	res, err := uc.CreatePart(ctx, "u3", &partdto.CreatePartInput{Name: "Proximity Sensor", SKU: "PS-300", Quantity: 10, ReorderThreshold: 2})
	require.NoError(t, err)
	return uc, res.Part
}

func event(t *testing.T, typ, qr, user string, qty int) []byte {
	t.Helper()
	b, err := json.Marshal(PartScannedEvent{
		EventID:   "evt-1",
		EventType: typ,
		Payload:   ScanPayload{QRCode: qr, Quantity: qty, UserID: user, StationID: "bay-4"},
	})
	require.NoError(t, err)
	return b
}

func TestProcessMessage(t *testing.T) {
	uc, p := newEngine(t)
	l := NewScanListener(&queueReader{}, uc, logger.NewNop())
	ctx := context.Background()

	l.processMessage(ctx, event(t, EventPartScanned, p.QRCode, "u3", 4))
	got, err := uc.GetPart(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)

	// Ignored: wrong type, garbage, over-draw, unknown user.
	l.processMessage(ctx, event(t, "OrderCreated", p.QRCode, "u3", 1))
	l.processMessage(ctx, []byte("{not json"))
	l.processMessage(ctx, event(t, EventPartScanned, p.QRCode, "u3", 99))
	l.processMessage(ctx, event(t, EventPartScanned, p.QRCode, "u9", 1))

	got, err = uc.GetPart(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)
}

func TestStart_ConsumesUntilCancelled(t *testing.T) {
	uc, p := newEngine(t)
	reader := &queueReader{msgs: [][]byte{
		event(t, EventPartScanned, p.QRCode, "u3", 1),
		event(t, EventPartScanned, p.QRCode, "u3", 2),
	}}
	l := NewScanListener(reader, uc, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		got, err := uc.GetPart(context.Background(), p.ID)
		return err == nil && got.Quantity == 7
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestStart_BacksOffOnReadError(t *testing.T) {
	uc, _ := newEngine(t)
	reader := &failingReader{}
	l := NewScanListener(reader, uc, logger.NewNop())
	l.backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, 1, reader.calls)
}

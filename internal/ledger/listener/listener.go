package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-parts-service/internal/ledger"
	"github.com/fekuna/omnipos-parts-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventPartScanned = "PartScanned"

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// ScanListener turns PartScanned events from shop-floor scanners into
// check-outs.
type ScanListener struct {
	consumer MessageReader
	uc       ledger.UseCase
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewScanListener(consumer MessageReader, uc ledger.UseCase, logger logger.ZapLogger) *ScanListener {
	return &ScanListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		backoff:  time.Second,
	}
}

func (l *ScanListener) Start(ctx context.Context) {
	l.logger.Info("Starting scan Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping scan Kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type PartScannedEvent struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Payload   ScanPayload `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type ScanPayload struct {
	QRCode    string `json:"qr_code"`
	Quantity  int    `json:"quantity"`
	UserID    string `json:"user_id"`
	StationID string `json:"station_id"`
}

func (l *ScanListener) processMessage(ctx context.Context, value []byte) {
	var event PartScannedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != EventPartScanned {
		return
	}

	p := event.Payload
	res, err := l.uc.ScanCheckOut(ctx, p.UserID, p.QRCode, p.Quantity)
	if err != nil {
		// Scans are not redelivered; the rejection only shows up here.
		l.logger.Warn("Rejected scanned check-out",
			zap.String("event_id", event.EventID),
			zap.String("qr_code", p.QRCode),
			zap.String("user_id", p.UserID),
			zap.String("station_id", p.StationID),
			zap.Error(err),
		)
		return
	}

	l.logger.Info("Processed scanned check-out",
		zap.String("event_id", event.EventID),
		zap.String("part_id", res.Part.ID),
		zap.Int("new_quantity", res.Part.Quantity),
	)
}

package forecast

import (
	"context"
	"errors"
	"iter"

	"github.com/fekuna/omnipos-parts-service/internal/model"
)

const (
	// MinHistory is the number of check-outs needed before asking for a forecast.
	MinHistory = 2
	// MaxHistory caps the points sent to the forecaster.
	MaxHistory = 100
)

var ErrInsufficientData = errors.New("insufficient data for forecast")

type Point struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Quantity int    `json:"quantity"`
}

type Figures struct {
	DailyAvg   float64 `json:"daily_avg"`
	ThreeMonth float64 `json:"three_month"`
	SixMonth   float64 `json:"six_month"`
	OneYear    float64 `json:"one_year"`
}

// Result is passed through to callers as returned by the forecaster; its
// numbers are not checked.
type Result struct {
	Forecast Figures `json:"forecast"`
	Insights string  `json:"insights"`
}

type Forecaster interface {
	Forecast(ctx context.Context, partName string, history []Point) (*Result, error)
}

// History turns ledger rows into check-out points, keeping the order of the
// input and at most MaxHistory entries.
func History(transactions iter.Seq[model.Transaction]) []Point {
	points := make([]Point, 0)
	for t := range transactions {
		if t.Type != model.TransactionCheckOut {
			continue
		}
		points = append(points, Point{
			Date:     t.Timestamp.UTC().Format("2006-01-02"),
			Quantity: -t.QuantityChange,
		})
		if len(points) == MaxHistory {
			break
		}
	}
	return points
}

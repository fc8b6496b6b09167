package analytics

import (
	"iter"
	"sort"
	"time"

	"github.com/fekuna/omnipos-parts-service/internal/model"
)

const DefaultTopParts = 5

type UsagePoint struct {
	Date     string `json:"date"`
	Quantity int    `json:"quantity"`
}

type PartUsage struct {
	PartID   string `json:"part_id"`
	PartName string `json:"part_name"`
	Quantity int    `json:"quantity"`
}

type Summary struct {
	TotalParts         int `json:"total_parts"`
	LowStockParts      int `json:"low_stock_parts"`
	ActiveAlerts       int `json:"active_alerts"`
	RecentTransactions int `json:"recent_transactions"`
}

// DailyUsage sums checked-out units of one part per UTC day in [since, until],
// oldest day first.
func DailyUsage(transactions iter.Seq[model.Transaction], partID string, since, until time.Time) []UsagePoint {
	byDay := make(map[string]int)
	for t := range transactions {
		if t.PartID != partID || t.Type != model.TransactionCheckOut {
			continue
		}
		if t.Timestamp.Before(since) || t.Timestamp.After(until) {
			continue
		}
		byDay[t.Timestamp.UTC().Format("2006-01-02")] += -t.QuantityChange
	}

	points := make([]UsagePoint, 0, len(byDay))
	for day, qty := range byDay {
		points = append(points, UsagePoint{Date: day, Quantity: qty})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// TopParts ranks parts by total checked-out units. The name shown is the one
// recorded on the most recent row seen for the part.
func TopParts(transactions iter.Seq[model.Transaction], limit int) []PartUsage {
	totals := make(map[string]*PartUsage)
	for t := range transactions {
		if t.Type != model.TransactionCheckOut {
			continue
		}
		u, ok := totals[t.PartID]
		if !ok {
			u = &PartUsage{PartID: t.PartID, PartName: t.PartName}
			totals[t.PartID] = u
		}
		u.Quantity += -t.QuantityChange
	}

	ranked := make([]PartUsage, 0, len(totals))
	for _, u := range totals {
		ranked = append(ranked, *u)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Quantity != ranked[j].Quantity {
			return ranked[i].Quantity > ranked[j].Quantity
		}
		return ranked[i].PartName < ranked[j].PartName
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func Summarize(parts []model.Part, alerts []model.Alert, transactions iter.Seq[model.Transaction], now time.Time) Summary {
	s := Summary{TotalParts: len(parts)}
	for i := range parts {
		if parts[i].LowStock() {
			s.LowStockParts++
		}
	}
	for _, a := range alerts {
		if !a.Resolved {
			s.ActiveAlerts++
		}
	}
	cutoff := now.Add(-24 * time.Hour)
	for t := range transactions {
		if t.Timestamp.After(cutoff) {
			s.RecentTransactions++
		}
	}
	return s
}

package alert

import (
	"fmt"
	"time"

	"github.com/fekuna/omnipos-parts-service/internal/model"
)

// Reconcile returns the alerts that must be opened so that every part at or
// below its reorder threshold has exactly one unresolved alert. It never
// touches existing alerts and leaves ID assignment to the store, which keeps
// it deterministic: the same input always yields the same output, and
// feeding the output back in as open alerts yields nothing.
func Reconcile(parts []model.Part, existing []model.Alert, now time.Time) []model.Alert {
	open := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		if !a.Resolved {
			open[a.PartID] = struct{}{}
		}
	}

	var created []model.Alert
	for _, p := range parts {
		if !p.LowStock() {
			continue
		}
		if _, ok := open[p.ID]; ok {
			continue
		}
		open[p.ID] = struct{}{}
		created = append(created, model.Alert{
			PartID:    p.ID,
			PartName:  p.Name,
			Message:   Message(p.Quantity, p.ReorderThreshold),
			Timestamp: now,
		})
	}
	return created
}

func Message(quantity, threshold int) string {
	return fmt.Sprintf("Quantity (%d) is at or below reorder threshold (%d)", quantity, threshold)
}

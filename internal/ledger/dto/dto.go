package dto

import "github.com/fekuna/omnipos-parts-service/internal/model"

// Result is what a part mutation returns: the part after the write, the
// ledger row it produced and any alerts the follow-up reconcile opened.
type Result struct {
	Part        *model.Part        `json:"part"`
	Transaction *model.Transaction `json:"transaction"`
	NewAlerts   []model.Alert      `json:"new_alerts"`
}

package dto

type PartFilters struct {
	// Search matches name, SKU or category, case-insensitively.
	Search string
}

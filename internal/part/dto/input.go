package dto

type CreatePartInput struct {
	Name             string `json:"name" validate:"required"`
	SKU              string `json:"sku" validate:"required"`
	Description      string `json:"description"`
	Quantity         int    `json:"quantity" validate:"gte=0"`
	ReorderThreshold int    `json:"reorder_threshold" validate:"gte=0"`
	Location         string `json:"location"`
	Category         string `json:"category"`
	ImageURL         string `json:"image_url" validate:"omitempty,url"`
}

// PartPatch carries the fields to overwrite; nil means "leave as is".
// ID and QRCode are deliberately absent.
type PartPatch struct {
	Name             *string `json:"name" validate:"omitempty,min=1"`
	SKU              *string `json:"sku" validate:"omitempty,min=1"`
	Description      *string `json:"description"`
	Quantity         *int    `json:"quantity" validate:"omitempty,gte=0"`
	ReorderThreshold *int    `json:"reorder_threshold" validate:"omitempty,gte=0"`
	Location         *string `json:"location"`
	Category         *string `json:"category"`
	ImageURL         *string `json:"image_url"` // "" clears the image
}

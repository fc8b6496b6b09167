package model

type Part struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	SKU              string  `json:"sku"`
	Description      string  `json:"description"`
	Quantity         int     `json:"quantity"`
	ReorderThreshold int     `json:"reorder_threshold"`
	Location         string  `json:"location"`
	Category         string  `json:"category"`
	QRCode           string  `json:"qr_code"` // Assigned once at creation
	ImageURL         *string `json:"image_url,omitempty"`
}

// LowStock reports whether the part is at or below its reorder threshold.
func (p *Part) LowStock() bool {
	return p.Quantity <= p.ReorderThreshold
}

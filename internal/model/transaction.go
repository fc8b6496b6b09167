package model

import "time"

type TransactionType string

const (
	TransactionCreate   TransactionType = "Create"
	TransactionUpdate   TransactionType = "Update"
	TransactionStockAdd TransactionType = "Stock Add"
	TransactionCheckOut TransactionType = "Check Out"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionCreate, TransactionUpdate, TransactionStockAdd, TransactionCheckOut:
		return true
	}
	return false
}

// Transaction is an immutable ledger row. Part and user names are copied at
// write time so history survives later edits or deletion of the part.
type Transaction struct {
	ID             string          `json:"id"`
	PartID         string          `json:"part_id"`
	PartName       string          `json:"part_name"`
	PartSKU        string          `json:"part_sku"`
	UserID         string          `json:"user_id"`
	UserName       string          `json:"user_name"`
	Type           TransactionType `json:"type"`
	QuantityChange int             `json:"quantity_change"`
	NewQuantity    int             `json:"new_quantity"`
	Timestamp      time.Time       `json:"timestamp"`
	Seq            uint64          `json:"seq"`
}

// TransactionInput is what the engine hands to the ledger; id, timestamp and
// sequence are assigned on append.
type TransactionInput struct {
	PartID         string
	PartName       string
	PartSKU        string
	UserID         string
	UserName       string
	Type           TransactionType
	QuantityChange int
	NewQuantity    int
}

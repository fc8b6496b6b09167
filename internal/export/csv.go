package export

import (
	"encoding/csv"
	"io"
	"iter"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-parts-service/internal/model"
)

var (
	partHeader        = []string{"ID", "Name", "SKU", "Description", "Quantity", "Reorder Threshold", "Location", "Category", "Image URL", "QR Code"}
	transactionHeader = []string{"ID", "Part Name", "SKU", "User Name", "Type", "Quantity Change", "New Quantity", "Timestamp"}
)

func WriteParts(w io.Writer, parts []model.Part) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(partHeader); err != nil {
		return err
	}
	for _, p := range parts {
		img := ""
		if p.ImageURL != nil {
			img = *p.ImageURL
		}
		record := []string{
			p.ID,
			p.Name,
			p.SKU,
			p.Description,
			strconv.Itoa(p.Quantity),
			strconv.Itoa(p.ReorderThreshold),
			p.Location,
			p.Category,
			img,
			p.QRCode,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteTransactions(w io.Writer, transactions iter.Seq[model.Transaction]) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(transactionHeader); err != nil {
		return err
	}
	for t := range transactions {
		record := []string{
			t.ID,
			t.PartName,
			t.PartSKU,
			t.UserName,
			string(t.Type),
			strconv.Itoa(t.QuantityChange),
			strconv.Itoa(t.NewQuantity),
			t.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

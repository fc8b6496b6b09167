package transaction

import (
	"context"
	"iter"

	"github.com/fekuna/omnipos-parts-service/internal/model"
	"github.com/fekuna/omnipos-parts-service/internal/transaction/dto"
)

// Repository is the append-only transaction ledger. Listings are newest
// first and iterate over a snapshot taken when the listing is requested.
type Repository interface {
	Append(ctx context.Context, input *model.TransactionInput) (*model.Transaction, error)
	ListForPart(ctx context.Context, partID string) iter.Seq[model.Transaction]
	ListAll(ctx context.Context, filters *dto.TransactionFilters) iter.Seq[model.Transaction]
}

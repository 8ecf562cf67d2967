package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/sangkips/paypoint/internal/domain/entity"
	"github.com/sangkips/paypoint/pkg/pagination"
)

// TransactionStore defines the local persistence used for store-and-forward.
// Transactions that could not reach the gateway are saved here, enumerated
// by POS ID on later launches, and removed from the pending set once an
// upload succeeds.
type TransactionStore interface {
	Save(ctx context.Context, stored *entity.StoredTransaction) error
	GetByReference(ctx context.Context, posID, reference string) (*entity.StoredTransaction, error)
	ListPending(ctx context.Context, posID string) ([]entity.StoredTransaction, error)
	List(ctx context.Context, posID string, params *pagination.PaginationParams) ([]entity.StoredTransaction, int64, error)
	MarkUploaded(ctx context.Context, id uuid.UUID) error
}

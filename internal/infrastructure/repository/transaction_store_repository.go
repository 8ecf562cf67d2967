package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/paypoint/internal/domain/entity"
	domainRepo "github.com/sangkips/paypoint/internal/domain/repository"
	"github.com/sangkips/paypoint/pkg/pagination"
)

type transactionStoreRepository struct {
	db *gorm.DB
}

// NewTransactionStoreRepository creates a gorm-backed offline transaction store
func NewTransactionStoreRepository(db *gorm.DB) domainRepo.TransactionStore {
	return &transactionStoreRepository{db: db}
}

func (r *transactionStoreRepository) Save(ctx context.Context, stored *entity.StoredTransaction) error {
	return r.db.WithContext(ctx).Create(stored).Error
}

func (r *transactionStoreRepository) GetByReference(ctx context.Context, posID, reference string) (*entity.StoredTransaction, error) {
	var stored entity.StoredTransaction
	err := r.db.WithContext(ctx).
		First(&stored, "pos_id = ? AND reference = ?", posID, reference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &stored, err
}

func (r *transactionStoreRepository) ListPending(ctx context.Context, posID string) ([]entity.StoredTransaction, error) {
	var stored []entity.StoredTransaction
	err := r.db.WithContext(ctx).
		Where("pos_id = ? AND uploaded = ?", posID, false).
		Order("created_at ASC").
		Find(&stored).Error
	return stored, err
}

func (r *transactionStoreRepository) List(ctx context.Context, posID string, params *pagination.PaginationParams) ([]entity.StoredTransaction, int64, error) {
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	var total int64
	query := r.db.WithContext(ctx).Model(&entity.StoredTransaction{}).Where("pos_id = ?", posID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var stored []entity.StoredTransaction
	err := query.
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.PerPage).
		Find(&stored).Error
	return stored, total, err
}

func (r *transactionStoreRepository) MarkUploaded(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&entity.StoredTransaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"uploaded": true, "uploaded_at": &now}).Error
}

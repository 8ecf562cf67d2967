package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sangkips/paypoint/internal/domain/enum"
)

// StoredTransaction is a transaction persisted by the offline queue when
// the gateway could not be reached. Rows survive process restart and are
// located by the POS ID on the next launch.
type StoredTransaction struct {
	ID            uuid.UUID              `gorm:"type:uuid;primary_key" json:"id"`
	PosID         string                 `gorm:"size:100;not null;index" json:"pos_id"`
	TransactionID uuid.UUID              `gorm:"type:uuid;not null;index" json:"transaction_id"`
	Reference     string                 `gorm:"size:100;unique;not null" json:"reference"`
	Operation     enum.Operation         `gorm:"size:20;not null" json:"operation"`
	Amount        decimal.Decimal        `gorm:"type:numeric;not null" json:"amount"`
	Currency      enum.Currency          `gorm:"size:3;not null" json:"currency"`
	Status        enum.TransactionStatus `gorm:"default:0" json:"status"`
	Payload       []byte                 `gorm:"type:jsonb" json:"-"` // serialized TransactionResult
	Uploaded      bool                   `gorm:"default:false;index" json:"uploaded"`
	UploadedAt    *time.Time             `json:"uploaded_at,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	DeletedAt     gorm.DeletedAt         `gorm:"index" json:"-"`
}

// NewStoredTransaction captures a transaction and its pending result for
// later upload.
func NewStoredTransaction(posID string, tx *Transaction, result *TransactionResult) (*StoredTransaction, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &StoredTransaction{
		PosID:         posID,
		TransactionID: tx.ID,
		Reference:     tx.Reference,
		Operation:     tx.Operation,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Status:        result.Status,
		Payload:       payload,
	}, nil
}

// Result deserializes the stored transaction result.
func (s *StoredTransaction) Result() (*TransactionResult, error) {
	var result TransactionResult
	if err := json.Unmarshal(s.Payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BeforeCreate generates a UUID before persisting a new stored transaction
func (s *StoredTransaction) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the StoredTransaction model
func (StoredTransaction) TableName() string {
	return "stored_transactions"
}

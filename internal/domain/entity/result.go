package entity

import (
	"github.com/google/uuid"

	"github.com/sangkips/paypoint/internal/domain/enum"
)

// TransactionError is one classified error attached to a transaction result.
type TransactionError struct {
	Type         enum.ErrorType `json:"type"`
	Message      string         `json:"message"`
	ResponseCode string         `json:"response_code,omitempty"`
}

// TransactionResult is produced exactly once per submitted transaction,
// asynchronously, when the transaction reaches a terminal state.
type TransactionResult struct {
	ID                   uuid.UUID              `json:"id"`
	TransactionID        uuid.UUID              `json:"transaction_id"`
	TransactionReference string                 `json:"transaction_reference"`
	Status               enum.TransactionStatus `json:"status"`
	IsUploaded           bool                   `json:"is_uploaded"`
	Card                 *CardDetails           `json:"card,omitempty"`
	ReceiptURL           string                 `json:"receipt_url,omitempty"`
	Errors               []TransactionError     `json:"errors,omitempty"`

	// PaymentToken is the processor's tokenized card reference. Sensitive:
	// excluded from JSON and never logged.
	PaymentToken string `json:"-"`
}

// MaskedPAN returns the masked card number, or empty when no card was captured.
func (r *TransactionResult) MaskedPAN() string {
	if r.Card == nil {
		return ""
	}
	return r.Card.MaskedPAN
}

// FirstError returns the first attached error, or nil when the result is clean.
func (r *TransactionResult) FirstError() *TransactionError {
	if len(r.Errors) == 0 {
		return nil
	}
	return &r.Errors[0]
}

package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sangkips/paypoint/internal/domain/enum"
)

// Transaction is an immutable payment request composed by the transaction
// builder. The engine owns its state transitions after submission; the
// struct itself never changes.
type Transaction struct {
	ID           uuid.UUID         `json:"id"`
	Reference    string            `json:"reference"`
	Invoice      *Invoice          `json:"invoice,omitempty"`
	Operation    enum.Operation    `json:"operation"`
	Amount       decimal.Decimal   `json:"amount"`
	Currency     enum.Currency     `json:"currency"`
	DateTime     time.Time         `json:"date_time"`
	Service      string            `json:"service"`
	SecureFormat enum.SecureFormat `json:"secure_format"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// CardDetails holds the non-sensitive card properties captured by the
// peripheral. The full PAN never leaves the peripheral; only the masked
// PAN is safe to display or log.
type CardDetails struct {
	Scheme            string `json:"scheme"`
	MaskedPAN         string `json:"masked_pan"`
	KSN               string `json:"ksn,omitempty"`
	SignatureRequired bool   `json:"signature_required"`
}

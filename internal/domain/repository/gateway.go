package repository

import (
	"context"

	"github.com/sangkips/paypoint/internal/domain/entity"
)

// PeripheralRegistration identifies a payment peripheral to the gateway.
type PeripheralRegistration struct {
	Serial       string   `json:"serial"`
	Capabilities []string `json:"capabilities"`
	PosID        string   `json:"pos_id"`
}

// PaymentGateway is the remote payment service. All EMV processing,
// card-data encryption and settlement happen behind this boundary; the
// client only submits composed transactions and classifies the response.
type PaymentGateway interface {
	// RegisterPeripheral registers the peripheral for the POS install.
	// Called once while the engine is being built.
	RegisterPeripheral(ctx context.Context, reg PeripheralRegistration) error

	// Authorize submits a transaction with captured card details and
	// returns the processor's result. A transport error means the
	// transaction never reached the server.
	Authorize(ctx context.Context, tx *entity.Transaction, card *entity.CardDetails) (*entity.TransactionResult, error)

	// Upload re-submits a previously stored offline transaction.
	Upload(ctx context.Context, stored *entity.StoredTransaction) (*entity.TransactionResult, error)
}

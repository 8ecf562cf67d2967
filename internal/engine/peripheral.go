package engine

import (
	"context"

	"github.com/sangkips/paypoint/internal/domain/entity"
)

// Peripheral is a payment card reader bound to the engine. Implementations
// wrap a physical device; the engine only sees the serial, the capability
// set and the captured card properties. Card-data encryption and EMV
// negotiation stay inside the device.
type Peripheral interface {
	// Serial is the opaque device identifier used for registration.
	Serial() string

	// Capabilities lists what the device supports (msr, chip, contactless, barcode).
	Capabilities() []string

	// Connect establishes the device connection.
	Connect(ctx context.Context) error

	// Disconnect releases the device connection.
	Disconnect() error

	// AwaitCard blocks until a card is presented or ctx is done. The
	// returned details never include the full PAN.
	AwaitCard(ctx context.Context) (*entity.CardDetails, error)

	// Messages delivers user-interface messages reported by the device.
	Messages() <-chan string

	// Barcodes delivers scanned barcodes when the device supports scanning.
	Barcodes() <-chan string
}

package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewUUID generates a new UUID
func NewUUID() uuid.UUID {
	return uuid.New()
}

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// GenerateInvoiceReference generates a unique invoice reference
func GenerateInvoiceReference() string {
	return "INV-" + strings.ToUpper(uuid.New().String()[:8])
}

// GenerateTransactionReference generates a unique transaction reference.
// Used when the transaction builder is not given an explicit reference.
func GenerateTransactionReference() string {
	return "TXN-" + strings.ToUpper(uuid.New().String()[:8])
}

package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sangkips/paypoint/internal/domain/entity"
	"github.com/sangkips/paypoint/internal/domain/enum"
	"github.com/sangkips/paypoint/pkg/apperror"
	"github.com/sangkips/paypoint/pkg/utils"
)

// TransactionBuilder composes an invoice, amount, currency and metadata
// into an immutable transaction request. Exactly one operation kind must
// be selected before Build.
type TransactionBuilder struct {
	engine *Engine

	invoice      *entity.Invoice
	operation    enum.Operation
	amount       decimal.Decimal
	currency     enum.Currency
	reference    string
	dateTime     time.Time
	service      string
	secureFormat enum.SecureFormat
	metadata     map[string]string

	err error
}

func newTransactionBuilder(e *Engine, invoice *entity.Invoice) *TransactionBuilder {
	return &TransactionBuilder{engine: e, invoice: invoice}
}

// Sale processes the transaction as a sale: auth and capture in one step.
func (b *TransactionBuilder) Sale() *TransactionBuilder {
	return b.setOperation(enum.OperationSale)
}

// Refund processes the transaction as a refund to the customer.
func (b *TransactionBuilder) Refund() *TransactionBuilder {
	return b.setOperation(enum.OperationRefund)
}

// AuthOnly authorizes the amount without capturing it.
func (b *TransactionBuilder) AuthOnly() *TransactionBuilder {
	return b.setOperation(enum.OperationAuthOnly)
}

func (b *TransactionBuilder) setOperation(op enum.Operation) *TransactionBuilder {
	if b.operation != "" && b.operation != op {
		b.fail(apperror.NewValidationError("transaction operation already specified"))
		return b
	}
	b.operation = op
	return b
}

// Amount sets the total to be paid by (or refunded to) the customer, in
// major units of the given currency.
func (b *TransactionBuilder) Amount(amount decimal.Decimal, currency enum.Currency) *TransactionBuilder {
	b.amount = amount
	b.currency = currency
	return b
}

// Reference sets a unique order or invoice reference for the transaction.
// Optional; a reference is generated when not specified.
func (b *TransactionBuilder) Reference(reference string) *TransactionBuilder {
	b.reference = reference
	return b
}

// DateTime sets the date the transaction is recorded against. Any time
// zone is accepted; the UTC value is used. Defaults to the current UTC time.
func (b *TransactionBuilder) DateTime(t time.Time) *TransactionBuilder {
	b.dateTime = t
	return b
}

// Service selects the merchant service that processes the transaction.
// Optional when the tenant has exactly one service configured.
func (b *TransactionBuilder) Service(service string) *TransactionBuilder {
	b.service = service
	return b
}

// SecureFormat overrides the format for encrypted transaction data. Do not
// override unless the processor requires it.
func (b *TransactionBuilder) SecureFormat(format enum.SecureFormat) *TransactionBuilder {
	b.secureFormat = format
	return b
}

// Metadata attaches string key/value pairs to the transaction. The keys
// appear on the receipt and can be used to locate the transaction later.
func (b *TransactionBuilder) Metadata(metadata map[string]string) *TransactionBuilder {
	b.metadata = metadata
	return b
}

// Build validates the accumulated state and produces the immutable
// transaction. The engine mutates only the transaction's state while it
// runs, never the request fields.
func (b *TransactionBuilder) Build() (*entity.Transaction, error) {
	if b.err != nil {
		return nil, b.err
	}
	if !b.operation.Valid() {
		return nil, apperror.NewValidationError("transaction requires an operation: sale, refund or authOnly")
	}
	if b.amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.NewValidationError("transaction amount must be greater than zero")
	}
	if b.currency.IsZero() {
		return nil, apperror.NewValidationError("transaction currency is required")
	}

	service := b.service
	if service == "" {
		defaultService, err := b.engine.defaultService()
		if err != nil {
			return nil, err
		}
		service = defaultService
	} else if !b.engine.knownService(service) {
		return nil, apperror.NewValidationError("service " + service + " is not configured for this tenant")
	}

	reference := b.reference
	if reference == "" {
		reference = utils.GenerateTransactionReference()
	}

	dateTime := b.dateTime
	if dateTime.IsZero() {
		dateTime = time.Now()
	}

	secureFormat := b.secureFormat
	if secureFormat == "" {
		secureFormat = enum.SecureFormatPinpad
	}

	var metadata map[string]string
	if len(b.metadata) > 0 {
		metadata = make(map[string]string, len(b.metadata))
		for k, v := range b.metadata {
			metadata[k] = v
		}
	}

	return &entity.Transaction{
		ID:           utils.NewUUID(),
		Reference:    reference,
		Invoice:      b.invoice,
		Operation:    b.operation,
		Amount:       b.amount,
		Currency:     b.currency,
		DateTime:     dateTime.UTC(),
		Service:      service,
		SecureFormat: secureFormat,
		Metadata:     metadata,
	}, nil
}

func (b *TransactionBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

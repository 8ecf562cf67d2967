package service

import (
	"context"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sangkips/paypoint/internal/domain/entity"
	"github.com/sangkips/paypoint/internal/domain/enum"
	domainRepo "github.com/sangkips/paypoint/internal/domain/repository"
	"github.com/sangkips/paypoint/internal/engine"
	"github.com/sangkips/paypoint/pkg/apperror"
	"github.com/sangkips/paypoint/pkg/pagination"
	"github.com/sangkips/paypoint/pkg/printer"
	"github.com/sangkips/paypoint/pkg/receipt"
)

// PaymentService drives the payment engine on behalf of the HTTP API. It
// is the engine's event listener: transaction states and results are
// recorded per reference so the API can poll for them.
type PaymentService struct {
	engine.Listeners

	store          domainRepo.TransactionStore
	thermalPrinter printer.Printer
	posID          string

	mu      sync.RWMutex
	eng     *engine.Engine
	txs     map[string]*entity.Transaction
	states  map[string]enum.TransactionStatus
	results map[string]*entity.TransactionResult
}

// NewPaymentService creates a new payment service
func NewPaymentService(store domainRepo.TransactionStore, thermalPrinter printer.Printer, posID string) *PaymentService {
	return &PaymentService{
		store:          store,
		thermalPrinter: thermalPrinter,
		posID:          posID,
		txs:            make(map[string]*entity.Transaction),
		states:         make(map[string]enum.TransactionStatus),
		results:        make(map[string]*entity.TransactionResult),
	}
}

// AttachEngine hands the built engine to the service. The service must be
// created first because the engine takes it as its event listener.
func (s *PaymentService) AttachEngine(eng *engine.Engine) {
	s.mu.Lock()
	s.eng = eng
	s.mu.Unlock()
}

// OnTransactionState records every state a transaction moves through.
func (s *PaymentService) OnTransactionState(tx *entity.Transaction, state enum.TransactionStatus) {
	s.mu.Lock()
	s.txs[tx.Reference] = tx
	s.states[tx.Reference] = state
	s.mu.Unlock()
}

// OnTransactionResult records the delivered result for later retrieval.
// Only the masked PAN is ever logged.
func (s *PaymentService) OnTransactionResult(result *entity.TransactionResult) {
	s.mu.Lock()
	s.results[result.TransactionReference] = result
	s.mu.Unlock()
	log.Printf("transaction %s finished: %s (PAN %s, uploaded %t)",
		result.TransactionReference, result.Status, result.MaskedPAN(), result.IsUploaded)
}

// OnSignatureRequired resolves signature verification. The operator
// confirms the signature on the terminal screen before the API request is
// made, so the service accepts on their behalf.
func (s *PaymentService) OnSignatureRequired(req *engine.SignatureRequest) {
	req.Accept()
}

// PaymentItemInput is one invoice line in a payment request.
type PaymentItemInput struct {
	ProductCode string
	Description string
	UnitPrice   decimal.Decimal
	Quantity    int
	Tax         decimal.Decimal
	Discount    decimal.Decimal
}

// StartPaymentInput describes a payment to start.
type StartPaymentInput struct {
	Amount        decimal.Decimal
	Currency      enum.Currency
	Operation     enum.Operation
	CompanyName   string
	PurchaseOrder string
	Reference     string
	Service       string
	Tip           decimal.Decimal
	Metadata      map[string]string
	Items         []PaymentItemInput
}

// StartPayment composes an invoice and transaction from the input and
// submits it. It returns the transaction reference immediately; the
// result arrives asynchronously and is retrieved with Result.
func (s *PaymentService) StartPayment(ctx context.Context, input *StartPaymentInput) (string, error) {
	eng := s.currentEngine()
	if eng == nil {
		return "", apperror.NewConfigurationError("payment engine not built")
	}

	items := input.Items
	if len(items) == 0 {
		items = []PaymentItemInput{{
			ProductCode: "SKU1",
			Description: "In Store Item",
			UnitPrice:   input.Amount,
			Quantity:    1,
		}}
	}

	invoiceBuilder := eng.BuildInvoice("").
		CompanyName(input.CompanyName).
		PurchaseOrderReference(input.PurchaseOrder).
		Tip(input.Tip)
	for _, item := range items {
		item := item
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
		invoiceBuilder = invoiceBuilder.AddItemWith(func(b *engine.InvoiceItemBuilder) *engine.InvoiceItemBuilder {
			return b.
				ProductCode(item.ProductCode).
				ProductDescription(item.Description).
				UnitPrice(item.UnitPrice).
				Quantity(quantity).
				GrossTotal(lineTotal.Add(item.Tax).Sub(item.Discount)).
				NetTotal(lineTotal).
				TaxTotal(item.Tax).
				DiscountTotal(item.Discount)
		})
	}

	invoice, err := invoiceBuilder.CalculateTotals().Build()
	if err != nil {
		return "", err
	}

	txBuilder := eng.BuildTransaction(invoice).
		Amount(input.Amount, input.Currency).
		Reference(input.Reference).
		Service(input.Service).
		Metadata(input.Metadata)
	switch input.Operation {
	case enum.OperationRefund:
		txBuilder = txBuilder.Refund()
	case enum.OperationAuthOnly:
		txBuilder = txBuilder.AuthOnly()
	default:
		txBuilder = txBuilder.Sale()
	}

	tx, err := txBuilder.Build()
	if err != nil {
		eng.ReleaseInvoice(invoice)
		return "", err
	}

	if err := eng.StartTransaction(tx); err != nil {
		eng.ReleaseInvoice(invoice)
		return "", err
	}

	s.mu.Lock()
	s.txs[tx.Reference] = tx
	s.states[tx.Reference] = enum.TransactionStatusCreated
	s.mu.Unlock()

	return tx.Reference, nil
}

// PaymentStatus is the API view of a transaction in flight or finished.
type PaymentStatus struct {
	Reference string                    `json:"reference"`
	State     enum.TransactionStatus    `json:"state"`
	Result    *entity.TransactionResult `json:"result,omitempty"`
}

// Result returns the recorded state and, once delivered, the result of a
// transaction.
func (s *PaymentService) Result(reference string) (*PaymentStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[reference]
	if !ok {
		return nil, apperror.NewNotFoundError("Transaction " + reference)
	}
	return &PaymentStatus{
		Reference: reference,
		State:     state,
		Result:    s.results[reference],
	}, nil
}

// TerminalStatus summarizes the engine and printer state for the API.
type TerminalStatus struct {
	EngineReady      bool   `json:"engine_ready"`
	QueueStrategy    string `json:"queue_strategy"`
	PrinterConnected bool   `json:"printer_connected"`
}

// Status reports the terminal's current readiness.
func (s *PaymentService) Status() *TerminalStatus {
	status := &TerminalStatus{
		PrinterConnected: s.thermalPrinter.IsConnected(),
	}
	if eng := s.currentEngine(); eng != nil {
		status.EngineReady = true
		status.QueueStrategy = eng.QueueStrategy()
	}
	return status
}

// Connect manually connects the card reader, for installs that disable
// auto-connect.
func (s *PaymentService) Connect(ctx context.Context) error {
	eng := s.currentEngine()
	if eng == nil {
		return apperror.NewConfigurationError("payment engine not built")
	}
	return eng.Connect(ctx)
}

// StopActive stops the active transaction if no card has been captured.
func (s *PaymentService) StopActive() error {
	eng := s.currentEngine()
	if eng == nil {
		return apperror.NewConfigurationError("payment engine not built")
	}
	return eng.StopActiveTransaction()
}

// ListStored returns this POS install's offline-stored transactions.
func (s *PaymentService) ListStored(ctx context.Context, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.StoredTransaction], error) {
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	stored, total, err := s.store.List(ctx, s.posID, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(stored, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// StoredByReference looks up one of this POS install's offline-stored
// transactions by its transaction reference.
func (s *PaymentService) StoredByReference(ctx context.Context, reference string) (*entity.StoredTransaction, error) {
	stored, err := s.store.GetByReference(ctx, s.posID, reference)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, apperror.NewNotFoundError("Stored transaction " + reference)
	}
	return stored, nil
}

// UploadStored re-submits every pending stored transaction.
func (s *PaymentService) UploadStored(ctx context.Context) ([]entity.TransactionResult, error) {
	eng := s.currentEngine()
	if eng == nil {
		return nil, apperror.NewConfigurationError("payment engine not built")
	}
	return eng.UploadStoredTransactions(ctx)
}

// ReceiptText renders the fixed-width receipt for a finished transaction.
func (s *PaymentService) ReceiptText(reference string) (string, error) {
	s.mu.RLock()
	tx := s.txs[reference]
	result := s.results[reference]
	s.mu.RUnlock()

	if tx == nil || result == nil {
		return "", apperror.NewNotFoundError("Receipt for transaction " + reference)
	}

	companyName := ""
	if tx.Invoice != nil {
		companyName = tx.Invoice.CompanyName
	}

	r := receipt.Receipt{
		CompanyName: companyName,
		Operation:   tx.Operation.String(),
		Merchant:    tx.Service,
		Status:      result.Status.String(),
		Date:        tx.DateTime.Format("2006-01-02 15:04"),
		OrderRef:    tx.Reference,
		Total:       tx.Amount.StringFixed(2) + " " + tx.Currency.String(),
	}
	if result.Card != nil {
		r.Scheme = result.Card.Scheme
		r.MaskedPAN = result.Card.MaskedPAN
	}
	return r.Render(), nil
}

// PrintReceipt renders the receipt and sends it to the thermal printer.
func (s *PaymentService) PrintReceipt(reference string) error {
	text, err := s.ReceiptText(reference)
	if err != nil {
		return err
	}

	doc := printer.NewDocument().
		SetAlign(printer.AlignLeft).
		ReceiptText(text).
		FeedLines(3).
		Cut()
	return s.thermalPrinter.Print(doc.Bytes())
}

func (s *PaymentService) currentEngine() *engine.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eng
}

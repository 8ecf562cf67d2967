package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sangkips/paypoint/internal/domain/entity"
	"github.com/sangkips/paypoint/internal/domain/enum"
	"github.com/sangkips/paypoint/internal/domain/repository"
	"github.com/sangkips/paypoint/pkg/apperror"
)

// Config holds the immutable engine configuration. It is validated
// synchronously by Build; changing any value requires Reset followed by a
// new Build.
type Config struct {
	// PosID identifies this point-of-sale install. Required. Must be
	// persistent so stored offline transactions can be found on the next
	// launch.
	PosID string

	// Registration credentials used while registering the peripheral with
	// the payment service. The account must have device administrator
	// permissions.
	RegistrationUsername string
	RegistrationPassword string

	// TransactionTimeout bounds how long the peripheral waits for a card
	// once a transaction starts. Defaults to one minute.
	TransactionTimeout time.Duration

	// SignatureTimeout bounds how long the engine waits for the integrator
	// to resolve a signature verification. Defaults to one minute.
	SignatureTimeout time.Duration

	// QueueWhenOffline stores transactions locally when the gateway cannot
	// be reached, for later upload. When false every transaction requires
	// connectivity.
	QueueWhenOffline bool

	// AutoUploadInterval is how often stored transactions are retried.
	// Zero disables the background uploader.
	AutoUploadInterval time.Duration

	// Services lists the merchant services configured for the tenant. A
	// transaction may omit its service only when exactly one is configured.
	Services []string

	// AutoConnect connects the peripheral during Build. When false the
	// integrator calls Connect at the appropriate point in its workflow.
	AutoConnect bool
}

// Deps are the engine's external collaborators.
type Deps struct {
	Peripheral Peripheral
	Gateway    repository.PaymentGateway
	Store      repository.TransactionStore
	Listener   EventListener
}

// Engine drives card-present payment transactions: it owns the peripheral,
// submits composed transactions to the gateway and delivers results
// through the event listener. Only one engine may exist per process.
type Engine struct {
	cfg      Config
	per      Peripheral
	gw       repository.PaymentGateway
	store    repository.TransactionStore
	listener EventListener
	disp     *dispatcher

	mu          sync.Mutex
	active      *runner
	invoiceRefs map[string]struct{}

	stopBackground chan struct{}
	background     sync.WaitGroup
}

var (
	buildMu      sync.Mutex
	activeEngine *Engine
)

// Build validates the configuration, registers the peripheral with the
// payment service and returns the process's single engine instance.
// Building a second engine without Reset fails with a configuration error.
func Build(ctx context.Context, cfg Config, deps Deps) (*Engine, error) {
	if cfg.PosID == "" {
		return nil, apperror.NewConfigurationError("posID is required")
	}
	if deps.Peripheral == nil {
		return nil, apperror.NewConfigurationError("a peripheral must be bound to the engine")
	}
	if deps.Gateway == nil {
		return nil, apperror.NewConfigurationError("a payment gateway must be provided")
	}
	if cfg.QueueWhenOffline && deps.Store == nil {
		return nil, apperror.NewConfigurationError("offline queueing requires a transaction store")
	}
	if deps.Listener == nil {
		deps.Listener = Listeners{}
	}
	if cfg.TransactionTimeout <= 0 {
		cfg.TransactionTimeout = time.Minute
	}
	if cfg.SignatureTimeout <= 0 {
		cfg.SignatureTimeout = time.Minute
	}

	buildMu.Lock()
	defer buildMu.Unlock()
	if activeEngine != nil {
		return nil, apperror.NewConfigurationError("payment engine already built, call Reset first")
	}

	// Peripheral registration may hit the payment service, so it happens
	// before the engine is published.
	reg := repository.PeripheralRegistration{
		Serial:       deps.Peripheral.Serial(),
		Capabilities: deps.Peripheral.Capabilities(),
		PosID:        cfg.PosID,
	}
	if err := deps.Gateway.RegisterPeripheral(ctx, reg); err != nil {
		return nil, fmt.Errorf("register peripheral %s: %w", reg.Serial, err)
	}

	e := &Engine{
		cfg:            cfg,
		per:            deps.Peripheral,
		gw:             deps.Gateway,
		store:          deps.Store,
		listener:       deps.Listener,
		disp:           newDispatcher(),
		invoiceRefs:    make(map[string]struct{}),
		stopBackground: make(chan struct{}),
	}

	e.background.Add(1)
	go e.forwardPeripheralEvents()

	if cfg.QueueWhenOffline && cfg.AutoUploadInterval > 0 {
		e.background.Add(1)
		go e.autoUploadLoop()
	}

	if cfg.AutoConnect {
		if err := e.Connect(ctx); err != nil {
			e.shutdown()
			return nil, err
		}
	}

	activeEngine = e
	return e, nil
}

// Reset releases the process's engine so a new one can be built with a
// different configuration. Safe to call when no engine exists.
func Reset() {
	buildMu.Lock()
	defer buildMu.Unlock()
	if activeEngine == nil {
		return
	}
	activeEngine.shutdown()
	activeEngine = nil
}

func (e *Engine) shutdown() {
	close(e.stopBackground)
	e.background.Wait()
	if err := e.per.Disconnect(); err != nil {
		log.Printf("engine: peripheral disconnect: %v", err)
	}
	e.disp.stop()
}

// Connect establishes the peripheral connection. Needed only when the
// engine was built without AutoConnect.
func (e *Engine) Connect(ctx context.Context) error {
	serial := e.per.Serial()
	e.disp.emit(func() { e.listener.OnConnectionState(serial, enum.ConnectionStateConnecting) })
	if err := e.per.Connect(ctx); err != nil {
		e.disp.emit(func() { e.listener.OnConnectionState(serial, enum.ConnectionStateDisconnected) })
		return fmt.Errorf("connect peripheral %s: %w", serial, err)
	}
	e.disp.emit(func() { e.listener.OnConnectionState(serial, enum.ConnectionStateConnected) })
	return nil
}

// QueueStrategy describes the configured store-and-forward mode.
func (e *Engine) QueueStrategy() string {
	if e.cfg.QueueWhenOffline {
		return "queueWhenOffline"
	}
	return "neverQueue"
}

// BuildInvoice starts a new invoice builder. The reference must be unique
// among in-flight invoices; an empty reference gets a generated one.
func (e *Engine) BuildInvoice(reference string) *InvoiceBuilder {
	return newInvoiceBuilder(e, reference)
}

// BuildTransaction starts a transaction builder around a built invoice.
func (e *Engine) BuildTransaction(invoice *entity.Invoice) *TransactionBuilder {
	return newTransactionBuilder(e, invoice)
}

// ListStoredTransactions returns the offline transactions stored for this
// POS install that are still awaiting upload.
func (e *Engine) ListStoredTransactions(ctx context.Context) ([]entity.StoredTransaction, error) {
	if e.store == nil {
		return nil, apperror.NewConfigurationError("no transaction store configured")
	}
	return e.store.ListPending(ctx, e.cfg.PosID)
}

// UploadStoredTransactions re-submits every pending stored transaction and
// returns the upload results. Failures are kept in the store for the next
// attempt.
func (e *Engine) UploadStoredTransactions(ctx context.Context) ([]entity.TransactionResult, error) {
	if e.store == nil {
		return nil, apperror.NewConfigurationError("no transaction store configured")
	}

	pending, err := e.store.ListPending(ctx, e.cfg.PosID)
	if err != nil {
		return nil, err
	}

	results := make([]entity.TransactionResult, 0, len(pending))
	for i := range pending {
		stored := &pending[i]
		result, err := e.gw.Upload(ctx, stored)
		if err != nil {
			log.Printf("engine: upload stored transaction %s: %v", stored.Reference, err)
			continue
		}
		if err := e.store.MarkUploaded(ctx, stored.ID); err != nil {
			log.Printf("engine: mark uploaded %s: %v", stored.Reference, err)
		}
		result.IsUploaded = true
		results = append(results, *result)
	}
	return results, nil
}

func (e *Engine) registerInvoiceRef(ref string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.invoiceRefs[ref]; exists {
		return apperror.NewValidationError("invoice reference " + ref + " is already in flight")
	}
	e.invoiceRefs[ref] = struct{}{}
	return nil
}

func (e *Engine) releaseInvoiceRef(ref string) {
	if ref == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.invoiceRefs, ref)
}

// ReleaseInvoice frees the in-flight reference of a built invoice that
// will not be submitted. References are released automatically when their
// transaction reaches a terminal state; a caller that abandons an invoice
// before submission releases it so the reference can be reused.
func (e *Engine) ReleaseInvoice(invoice *entity.Invoice) {
	if invoice == nil {
		return
	}
	e.releaseInvoiceRef(invoice.Reference)
}

func (e *Engine) defaultService() (string, error) {
	switch len(e.cfg.Services) {
	case 0:
		return "", nil
	case 1:
		return e.cfg.Services[0], nil
	default:
		return "", apperror.NewAmbiguousServiceError()
	}
}

func (e *Engine) knownService(name string) bool {
	if len(e.cfg.Services) == 0 {
		return true
	}
	for _, s := range e.cfg.Services {
		if s == name {
			return true
		}
	}
	return false
}

// forwardPeripheralEvents fans device messages and barcode scans into the
// event listener.
func (e *Engine) forwardPeripheralEvents() {
	defer e.background.Done()
	serial := e.per.Serial()
	for {
		select {
		case <-e.stopBackground:
			return
		case msg, ok := <-e.per.Messages():
			if !ok {
				return
			}
			e.disp.emit(func() { e.listener.OnPeripheralMessage(serial, msg) })
		case code, ok := <-e.per.Barcodes():
			if !ok {
				return
			}
			e.disp.emit(func() { e.listener.OnBarcode(serial, code) })
		}
	}
}

func (e *Engine) autoUploadLoop() {
	defer e.background.Done()
	ticker := time.NewTicker(e.cfg.AutoUploadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopBackground:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), e.cfg.AutoUploadInterval)
			if _, err := e.UploadStoredTransactions(ctx); err != nil {
				log.Printf("engine: auto upload: %v", err)
			}
			cancel()
		}
	}
}

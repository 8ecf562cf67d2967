package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/paypoint/internal/domain/entity"
	"github.com/sangkips/paypoint/internal/domain/enum"
	"github.com/sangkips/paypoint/internal/engine"
	"github.com/sangkips/paypoint/pkg/apperror"
)

func TestSaleRunsToCompletion(t *testing.T) {
	rig := buildRig(t, nil)
	tx := rig.buildSale(t, "10.00")

	require.NoError(t, rig.eng.StartTransaction(tx))
	rig.reader.PresentCard(testCard())

	rig.listener.waitState(t, enum.TransactionStatusSubmitted)
	rig.listener.waitState(t, enum.TransactionStatusAwaitingCard)
	rig.listener.waitState(t, enum.TransactionStatusAuthorizing)

	result := rig.listener.waitResult(t)
	assert.Equal(t, enum.TransactionStatusCompleted, result.Status)
	assert.Equal(t, tx.Reference, result.TransactionReference)
	assert.Equal(t, tx.ID, result.TransactionID)
	assert.True(t, result.IsUploaded)
	require.NotNil(t, result.Card)
	assert.Equal(t, "************4242", result.Card.MaskedPAN)
	assert.Empty(t, result.Errors)
}

func TestStartWhileActiveReturnsBusy(t *testing.T) {
	rig := buildRig(t, nil)

	first := rig.buildSale(t, "10.00")
	require.NoError(t, rig.eng.StartTransaction(first))

	second := rig.buildSale(t, "20.00")
	err := rig.eng.StartTransaction(second)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindBusy))

	// The busy rejection must not disturb the active transaction.
	rig.reader.PresentCard(testCard())
	result := rig.listener.waitResult(t)
	assert.Equal(t, enum.TransactionStatusCompleted, result.Status)
	assert.Equal(t, first.Reference, result.TransactionReference)
}

func TestStopBeforeCardCapture(t *testing.T) {
	rig := buildRig(t, nil)
	tx := rig.buildSale(t, "10.00")

	require.NoError(t, rig.eng.StartTransaction(tx))
	rig.listener.waitState(t, enum.TransactionStatusAwaitingCard)

	require.NoError(t, rig.eng.StopActiveTransaction())

	result := rig.listener.waitResult(t)
	assert.Equal(t, enum.TransactionStatusStopped, result.Status)
	assert.Equal(t, tx.Reference, result.TransactionReference)
	assert.Empty(t, result.Errors)
}

func TestStopAfterCardCaptureIsRejected(t *testing.T) {
	rig := buildRig(t, nil)

	release := make(chan struct{})
	rig.gateway.mu.Lock()
	rig.gateway.authorizeFn = func(tx *entity.Transaction, card *entity.CardDetails) (*entity.TransactionResult, error) {
		<-release
		return approveAll(tx, card)
	}
	rig.gateway.mu.Unlock()

	tx := rig.buildSale(t, "10.00")
	require.NoError(t, rig.eng.StartTransaction(tx))
	rig.reader.PresentCard(testCard())

	rig.listener.waitState(t, enum.TransactionStatusAuthorizing)

	err := rig.eng.StopActiveTransaction()
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotStoppable))

	close(release)
	result := rig.listener.waitResult(t)
	assert.Equal(t, enum.TransactionStatusCompleted, result.Status)
}

func TestStopWithoutActiveTransaction(t *testing.T) {
	rig := buildRig(t, nil)

	err := rig.eng.StopActiveTransaction()
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestCardWaitTimeoutFails(t *testing.T) {
	rig := buildRig(t, func(cfg *engine.Config) {
		cfg.TransactionTimeout = 100 * time.Millisecond
	})
	tx := rig.buildSale(t, "10.00")

	require.NoError(t, rig.eng.StartTransaction(tx))

	result := rig.listener.waitResult(t)
	assert.Equal(t, enum.TransactionStatusFailed, result.Status)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, enum.ErrorTypePreprocessException, result.Errors[0].Type)
	assert.Contains(t, result.Errors[0].Message, "timed out")
}

func TestGatewayUnreachableQueuesOffline(t *testing.T) {
	rig := buildRig(t, nil)
	ctx := context.Background()

	rig.gateway.mu.Lock()
	rig.gateway.authorizeFn = func(*entity.Transaction, *entity.CardDetails) (*entity.TransactionResult, error) {
		return nil, errors.New("dial tcp: connection refused")
	}
	rig.gateway.mu.Unlock()

	tx := rig.buildSale(t, "42.00")
	require.NoError(t, rig.eng.StartTransaction(tx))
	rig.reader.PresentCard(testCard())

	result := rig.listener.waitResult(t)
	assert.Equal(t, enum.TransactionStatusFailed, result.Status)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, enum.ErrorTypePreprocessException, result.Errors[0].Type)
	assert.Contains(t, result.Errors[0].Message, "gateway unreachable")
	require.NotNil(t, result.Card)

	pending, err := rig.eng.ListStoredTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "pos-1", pending[0].PosID)
	assert.Equal(t, tx.Reference, pending[0].Reference)
	assert.False(t, pending[0].Uploaded)

	// The gateway recovers; the queued transaction uploads and drains.
	rig.gateway.mu.Lock()
	rig.gateway.authorizeFn = nil
	rig.gateway.mu.Unlock()

	results, err := rig.eng.UploadStoredTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].IsUploaded)

	pending, err = rig.eng.ListStoredTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSignatureRejectedDeclines(t *testing.T) {
	// The capture listener embeds the no-op base, which rejects signature
	// requests it is not prepared to verify.
	rig := buildRig(t, nil)
	tx := rig.buildSale(t, "10.00")

	card := testCard()
	card.SignatureRequired = true

	require.NoError(t, rig.eng.StartTransaction(tx))
	rig.reader.PresentCard(card)

	result := rig.listener.waitResult(t)
	assert.Equal(t, enum.TransactionStatusDeclined, result.Status)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, enum.ErrorTypeValidation, result.Errors[0].Type)
	assert.Contains(t, result.Errors[0].Message, "signature")
}

func TestUnrecognizedErrorTypeDegradesToUnknown(t *testing.T) {
	rig := buildRig(t, nil)

	rig.gateway.mu.Lock()
	rig.gateway.authorizeFn = func(tx *entity.Transaction, card *entity.CardDetails) (*entity.TransactionResult, error) {
		return &entity.TransactionResult{
			Status: enum.TransactionStatusDeclined,
			Errors: []entity.TransactionError{{
				Type:         enum.ErrorType("quantumFault"),
				Message:      "Do not honor",
				ResponseCode: "05",
			}},
		}, nil
	}
	rig.gateway.mu.Unlock()

	tx := rig.buildSale(t, "10.00")
	require.NoError(t, rig.eng.StartTransaction(tx))
	rig.reader.PresentCard(testCard())

	result := rig.listener.waitResult(t)
	assert.Equal(t, enum.TransactionStatusDeclined, result.Status)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, enum.ErrorTypeUnknown, result.Errors[0].Type)
	assert.Equal(t, "05", result.Errors[0].ResponseCode)
	// Identifying fields the gateway omitted are filled from the request.
	assert.Equal(t, tx.ID, result.TransactionID)
	assert.Equal(t, tx.Reference, result.TransactionReference)
}

// gatedReader holds the presented card until the test releases it, so a
// stop can be accepted while the card read is still in progress.
type gatedReader struct {
	card    *entity.CardDetails
	release chan struct{}
	msgs    chan string
	codes   chan string
}

func newGatedReader(card *entity.CardDetails) *gatedReader {
	return &gatedReader{
		card:    card,
		release: make(chan struct{}),
		msgs:    make(chan string),
		codes:   make(chan string),
	}
}

func (r *gatedReader) Serial() string                { return "QPR250-GATED" }
func (r *gatedReader) Capabilities() []string        { return []string{"msr", "chip"} }
func (r *gatedReader) Connect(context.Context) error { return nil }
func (r *gatedReader) Disconnect() error             { return nil }
func (r *gatedReader) Messages() <-chan string       { return r.msgs }
func (r *gatedReader) Barcodes() <-chan string       { return r.codes }

func (r *gatedReader) AwaitCard(ctx context.Context) (*entity.CardDetails, error) {
	<-r.release
	return r.card, nil
}

func TestStopDuringCardReadDiscardsCard(t *testing.T) {
	engine.Reset()
	t.Cleanup(engine.Reset)

	reader := newGatedReader(testCard())
	gw := &stubGateway{}
	authorized := make(chan struct{}, 1)
	gw.authorizeFn = func(tx *entity.Transaction, card *entity.CardDetails) (*entity.TransactionResult, error) {
		authorized <- struct{}{}
		return approveAll(tx, card)
	}
	listener := newCaptureListener()

	eng, err := engine.Build(context.Background(), engine.Config{PosID: "pos-1"}, engine.Deps{
		Peripheral: reader,
		Gateway:    gw,
		Listener:   listener,
	})
	require.NoError(t, err)

	invoice, err := eng.BuildInvoice("").
		CompanyName("Acme Coffee").
		AddItem("SKU1", "Flat White", decimalFromString(t, "10.00")).
		CalculateTotals().
		Build()
	require.NoError(t, err)

	tx, err := eng.BuildTransaction(invoice).
		Sale().
		Amount(decimalFromString(t, "10.00"), enum.CurrencyUSD).
		Build()
	require.NoError(t, err)

	require.NoError(t, eng.StartTransaction(tx))
	listener.waitState(t, enum.TransactionStatusAwaitingCard)

	// The stop is accepted while the reader still has the card in hand.
	// The read then completes, but the card must be discarded and the
	// transaction must stop rather than authorize.
	require.NoError(t, eng.StopActiveTransaction())
	close(reader.release)

	result := listener.waitResult(t)
	assert.Equal(t, enum.TransactionStatusStopped, result.Status)
	assert.Equal(t, tx.Reference, result.TransactionReference)
	assert.Empty(t, result.Errors)

	select {
	case <-authorized:
		t.Fatal("stopped transaction reached the gateway")
	default:
	}
}

func TestInvoiceReferenceReleasedAfterTerminalState(t *testing.T) {
	rig := buildRig(t, nil)

	invoice, err := rig.eng.BuildInvoice("INV-REUSE").
		CompanyName("Acme Coffee").
		AddItem("SKU1", "Flat White", decimalFromString(t, "10.00")).
		CalculateTotals().
		Build()
	require.NoError(t, err)

	// In flight: the same reference cannot be built again.
	_, err = rig.eng.BuildInvoice("INV-REUSE").
		CompanyName("Acme Coffee").
		AddItem("SKU1", "Flat White", decimalFromString(t, "10.00")).
		CalculateTotals().
		Build()
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	tx, err := rig.eng.BuildTransaction(invoice).
		Sale().
		Amount(decimalFromString(t, "10.00"), enum.CurrencyUSD).
		Build()
	require.NoError(t, err)

	require.NoError(t, rig.eng.StartTransaction(tx))
	rig.reader.PresentCard(testCard())
	rig.listener.waitResult(t)

	// Terminal state reached: the reference is free again.
	_, err = rig.eng.BuildInvoice("INV-REUSE").
		CompanyName("Acme Coffee").
		AddItem("SKU1", "Flat White", decimalFromString(t, "10.00")).
		CalculateTotals().
		Build()
	require.NoError(t, err)
}

func TestReleaseInvoiceFreesAbandonedReference(t *testing.T) {
	rig := buildRig(t, nil)

	buildInvoiceRef := func() (*entity.Invoice, error) {
		return rig.eng.BuildInvoice("INV-ABANDON").
			CompanyName("Acme Coffee").
			AddItem("SKU1", "Flat White", decimalFromString(t, "10.00")).
			CalculateTotals().
			Build()
	}

	invoice, err := buildInvoiceRef()
	require.NoError(t, err)

	// The transaction build fails and the caller walks away from the
	// invoice; no transaction will ever reach a terminal state for it.
	_, err = rig.eng.BuildTransaction(invoice).Sale().Build()
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = buildInvoiceRef()
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	rig.eng.ReleaseInvoice(invoice)

	_, err = buildInvoiceRef()
	require.NoError(t, err)
}

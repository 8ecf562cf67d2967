package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/paypoint/internal/application/service"
	"github.com/sangkips/paypoint/internal/domain/entity"
	"github.com/sangkips/paypoint/internal/domain/enum"
	"github.com/sangkips/paypoint/internal/infrastructure/repository"
	"github.com/sangkips/paypoint/pkg/apperror"
	"github.com/sangkips/paypoint/pkg/printer"
	"github.com/sangkips/paypoint/pkg/receipt"
	"github.com/sangkips/paypoint/pkg/utils"
)

func newService() *service.PaymentService {
	return service.NewPaymentService(repository.NewMemoryStore(), printer.NewNullPrinter(), "pos-1")
}

func finishedSale(reference string) (*entity.Transaction, *entity.TransactionResult) {
	tx := &entity.Transaction{
		ID:        utils.NewUUID(),
		Reference: reference,
		Invoice: &entity.Invoice{
			Reference:   "INV-1",
			CompanyName: "Acme Coffee",
		},
		Operation: enum.OperationSale,
		Amount:    decimal.RequireFromString("10.00"),
		Currency:  enum.CurrencyUSD,
		DateTime:  time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC),
		Service:   "cafe-front",
	}
	result := &entity.TransactionResult{
		ID:                   utils.NewUUID(),
		TransactionID:        tx.ID,
		TransactionReference: reference,
		Status:               enum.TransactionStatusCompleted,
		IsUploaded:           true,
		Card: &entity.CardDetails{
			Scheme:    "Visa",
			MaskedPAN: "************4242",
		},
	}
	return tx, result
}

func TestResultTracksStatesAndResult(t *testing.T) {
	svc := newService()
	tx, result := finishedSale("TXN-1")

	svc.OnTransactionState(tx, enum.TransactionStatusSubmitted)
	svc.OnTransactionState(tx, enum.TransactionStatusAwaitingCard)

	status, err := svc.Result("TXN-1")
	require.NoError(t, err)
	assert.Equal(t, enum.TransactionStatusAwaitingCard, status.State)
	assert.Nil(t, status.Result)

	svc.OnTransactionState(tx, enum.TransactionStatusCompleted)
	svc.OnTransactionResult(result)

	status, err = svc.Result("TXN-1")
	require.NoError(t, err)
	assert.Equal(t, enum.TransactionStatusCompleted, status.State)
	require.NotNil(t, status.Result)
	assert.Equal(t, "************4242", status.Result.MaskedPAN())
}

func TestResultUnknownReference(t *testing.T) {
	svc := newService()

	_, err := svc.Result("TXN-MISSING")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestReceiptText(t *testing.T) {
	svc := newService()
	tx, result := finishedSale("TXN-1")

	svc.OnTransactionState(tx, enum.TransactionStatusCompleted)
	svc.OnTransactionResult(result)

	text, err := svc.ReceiptText("TXN-1")
	require.NoError(t, err)

	assert.Contains(t, text, "Acme Coffee")
	assert.Contains(t, text, "SALE")
	assert.Contains(t, text, "COMPLETED")
	assert.Contains(t, text, receipt.TextLine("Merchant", "cafe-front"))
	assert.Contains(t, text, receipt.TextLine("VISA", "************4242"))
	assert.Contains(t, text, receipt.TextLine("Total", "10.00 USD"))
}

func TestReceiptTextBeforeResult(t *testing.T) {
	svc := newService()
	tx, _ := finishedSale("TXN-1")

	// State recorded but no result yet: there is nothing to print.
	svc.OnTransactionState(tx, enum.TransactionStatusAuthorizing)

	_, err := svc.ReceiptText("TXN-1")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestStartPaymentRequiresEngine(t *testing.T) {
	svc := newService()

	_, err := svc.StartPayment(context.Background(), &service.StartPaymentInput{
		Amount:      decimal.RequireFromString("10.00"),
		Currency:    enum.CurrencyUSD,
		CompanyName: "Acme Coffee",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConfiguration))
}

func TestStoredByReference(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := service.NewPaymentService(store, printer.NewNullPrinter(), "pos-1")
	ctx := context.Background()

	tx, result := finishedSale("TXN-1")
	stored, err := entity.NewStoredTransaction("pos-1", tx, result)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, stored))

	found, err := svc.StoredByReference(ctx, "TXN-1")
	require.NoError(t, err)
	assert.Equal(t, "TXN-1", found.Reference)
	assert.Equal(t, "pos-1", found.PosID)

	_, err = svc.StoredByReference(ctx, "TXN-MISSING")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestListStoredScopedToPos(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := service.NewPaymentService(store, printer.NewNullPrinter(), "pos-1")
	ctx := context.Background()

	tx, result := finishedSale("TXN-1")
	stored, err := entity.NewStoredTransaction("pos-1", tx, result)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, stored))

	otherTx, otherResult := finishedSale("TXN-2")
	otherStored, err := entity.NewStoredTransaction("pos-other", otherTx, otherResult)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, otherStored))

	listed, err := svc.ListStored(ctx, nil)
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	assert.Equal(t, "TXN-1", listed.Items[0].Reference)
	assert.Equal(t, int64(1), listed.Pagination.Total)
	assert.Equal(t, 1, listed.Pagination.CurrentPage)
}

// Command posdemo runs a full card payment against a simulated reader and
// an in-process gateway stub, printing every engine event and the final
// receipt to stdout. With -offline the gateway is unreachable and the
// transaction is queued locally, then uploaded once the gateway recovers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sangkips/paypoint/internal/application/service"
	"github.com/sangkips/paypoint/internal/domain/entity"
	"github.com/sangkips/paypoint/internal/domain/enum"
	"github.com/sangkips/paypoint/internal/domain/repository"
	"github.com/sangkips/paypoint/internal/engine"
	"github.com/sangkips/paypoint/internal/infrastructure/peripheral"
	infraRepo "github.com/sangkips/paypoint/internal/infrastructure/repository"
	"github.com/sangkips/paypoint/pkg/printer"
)

func main() {
	amount := flag.String("amount", "10.00", "payment amount in major units")
	currency := flag.String("currency", "USD", "payment currency")
	company := flag.String("company", "Acme Coffee", "company name on the receipt")
	tip := flag.String("tip", "0", "tip amount")
	offline := flag.Bool("offline", false, "simulate an unreachable gateway")
	decline := flag.Bool("decline", false, "have the gateway decline the payment")
	flag.Parse()

	amt, err := decimal.NewFromString(*amount)
	if err != nil {
		log.Fatalf("invalid amount %q: %v", *amount, err)
	}
	tipAmt, err := decimal.NewFromString(*tip)
	if err != nil {
		log.Fatalf("invalid tip %q: %v", *tip, err)
	}

	store := infraRepo.NewMemoryStore()
	reader := peripheral.NewSimulatedReader("QPR250-DEMO")
	gw := &stubGateway{offline: *offline, decline: *decline}

	listener := newDemoListener()

	eng, err := engine.Build(context.Background(), engine.Config{
		PosID:              "pos-demo",
		TransactionTimeout: 30 * time.Second,
		QueueWhenOffline:   true,
		AutoConnect:        true,
	}, engine.Deps{
		Peripheral: reader,
		Gateway:    gw,
		Store:      store,
		Listener:   listener,
	})
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}
	defer engine.Reset()

	invoice, err := eng.BuildInvoice("").
		CompanyName(*company).
		AddItem("SKU1", "Flat White", amt).
		Tip(tipAmt).
		CalculateTotals().
		Build()
	if err != nil {
		log.Fatalf("build invoice: %v", err)
	}

	tx, err := eng.BuildTransaction(invoice).
		Sale().
		Amount(amt.Add(tipAmt), enum.Currency(*currency)).
		Build()
	if err != nil {
		log.Fatalf("build transaction: %v", err)
	}

	if err := eng.StartTransaction(tx); err != nil {
		log.Fatalf("start transaction: %v", err)
	}

	// The customer taps a card shortly after the prompt appears.
	go func() {
		time.Sleep(200 * time.Millisecond)
		reader.EmitMessage("PRESENT CARD")
		reader.PresentCard(&entity.CardDetails{
			Scheme:    "Visa",
			MaskedPAN: "************4242",
			KSN:       "FFFF9876543210E00001",
		})
	}()

	result := listener.waitForResult()
	fmt.Printf("\nresult: %s", result.Status)
	if e := result.FirstError(); e != nil {
		fmt.Printf(" (%s: %s)", e.Type, e.Message)
	}
	fmt.Println()

	if *offline {
		runOfflineRecovery(eng, gw, store)
	}

	printReceipt(store, tx, result)
}

// runOfflineRecovery shows the store-and-forward path: the queued
// transaction is listed, the gateway comes back, and the upload drains it.
func runOfflineRecovery(eng *engine.Engine, gw *stubGateway, store repository.TransactionStore) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pending, err := eng.ListStoredTransactions(ctx)
	if err != nil {
		log.Fatalf("list stored: %v", err)
	}
	fmt.Printf("stored offline: %d transaction(s)\n", len(pending))

	gw.setOffline(false)
	fmt.Println("gateway back online, uploading...")

	results, err := eng.UploadStoredTransactions(ctx)
	if err != nil {
		log.Fatalf("upload stored: %v", err)
	}
	for _, r := range results {
		fmt.Printf("uploaded %s: %s\n", r.TransactionReference, r.Status)
	}
}

func printReceipt(store repository.TransactionStore, tx *entity.Transaction, result *entity.TransactionResult) {
	svc := service.NewPaymentService(store, printer.NewNullPrinter(), "pos-demo")
	svc.OnTransactionState(tx, result.Status)
	svc.OnTransactionResult(result)

	text, err := svc.ReceiptText(tx.Reference)
	if err != nil {
		log.Printf("receipt: %v", err)
		return
	}
	fmt.Println()
	fmt.Println(text)
}

// demoListener prints engine events as they arrive and hands the final
// result back to main.
type demoListener struct {
	engine.Listeners
	results chan *entity.TransactionResult
}

func newDemoListener() *demoListener {
	return &demoListener{results: make(chan *entity.TransactionResult, 1)}
}

func (l *demoListener) OnConnectionState(serial string, state enum.ConnectionState) {
	fmt.Printf("reader %s: %s\n", serial, state)
}

func (l *demoListener) OnTransactionState(tx *entity.Transaction, state enum.TransactionStatus) {
	fmt.Printf("transaction %s: %s\n", tx.Reference, state)
}

func (l *demoListener) OnPeripheralMessage(serial, message string) {
	fmt.Printf("reader %s says: %s\n", serial, message)
}

func (l *demoListener) OnTransactionResult(result *entity.TransactionResult) {
	l.results <- result
}

func (l *demoListener) waitForResult() *entity.TransactionResult {
	select {
	case result := <-l.results:
		return result
	case <-time.After(time.Minute):
		log.Fatal("no transaction result delivered")
		return nil
	}
}

// stubGateway approves everything in-process. With offline set its
// Authorize fails the way an unreachable gateway would, which sends the
// transaction into the local queue.
type stubGateway struct {
	mu      sync.Mutex
	offline bool
	decline bool
}

func (g *stubGateway) setOffline(offline bool) {
	g.mu.Lock()
	g.offline = offline
	g.mu.Unlock()
}

func (g *stubGateway) isOffline() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.offline
}

func (g *stubGateway) RegisterPeripheral(ctx context.Context, reg repository.PeripheralRegistration) error {
	fmt.Printf("registered reader %s for %s\n", reg.Serial, reg.PosID)
	return nil
}

func (g *stubGateway) Authorize(ctx context.Context, tx *entity.Transaction, card *entity.CardDetails) (*entity.TransactionResult, error) {
	if g.isOffline() {
		return nil, errors.New("dial tcp: connection refused")
	}
	return g.result(tx.ID, tx.Reference, card), nil
}

func (g *stubGateway) Upload(ctx context.Context, stored *entity.StoredTransaction) (*entity.TransactionResult, error) {
	if g.isOffline() {
		return nil, errors.New("dial tcp: connection refused")
	}
	result, err := stored.Result()
	if err != nil {
		return nil, err
	}
	return g.result(stored.TransactionID, stored.Reference, result.Card), nil
}

func (g *stubGateway) result(txID uuid.UUID, reference string, card *entity.CardDetails) *entity.TransactionResult {
	status := enum.TransactionStatusCompleted
	var txErrors []entity.TransactionError
	if g.decline {
		status = enum.TransactionStatusDeclined
		txErrors = []entity.TransactionError{{
			Type:         enum.ErrorTypeProcess,
			Message:      "Insufficient funds",
			ResponseCode: "51",
		}}
	}
	return &entity.TransactionResult{
		ID:                   uuid.New(),
		TransactionID:        txID,
		TransactionReference: reference,
		Status:               status,
		Card:                 card,
		Errors:               txErrors,
		PaymentToken:         "tok_" + uuid.NewString()[:8],
	}
}

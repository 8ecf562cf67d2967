package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/paypoint/internal/domain/entity"
	"github.com/sangkips/paypoint/internal/domain/enum"
	"github.com/sangkips/paypoint/internal/domain/repository"
	"github.com/sangkips/paypoint/internal/engine"
	"github.com/sangkips/paypoint/internal/infrastructure/peripheral"
	infraRepo "github.com/sangkips/paypoint/internal/infrastructure/repository"
	"github.com/sangkips/paypoint/pkg/apperror"
)

// stubGateway is an in-process gateway whose behavior each test controls.
type stubGateway struct {
	mu            sync.Mutex
	registrations []repository.PeripheralRegistration
	authorizeFn   func(tx *entity.Transaction, card *entity.CardDetails) (*entity.TransactionResult, error)
	uploadFn      func(stored *entity.StoredTransaction) (*entity.TransactionResult, error)
}

func approveAll(tx *entity.Transaction, card *entity.CardDetails) (*entity.TransactionResult, error) {
	return &entity.TransactionResult{
		TransactionID:        tx.ID,
		TransactionReference: tx.Reference,
		Status:               enum.TransactionStatusCompleted,
		Card:                 card,
	}, nil
}

func (g *stubGateway) RegisterPeripheral(_ context.Context, reg repository.PeripheralRegistration) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.registrations = append(g.registrations, reg)
	return nil
}

func (g *stubGateway) Authorize(_ context.Context, tx *entity.Transaction, card *entity.CardDetails) (*entity.TransactionResult, error) {
	g.mu.Lock()
	fn := g.authorizeFn
	g.mu.Unlock()
	if fn == nil {
		fn = approveAll
	}
	return fn(tx, card)
}

func (g *stubGateway) Upload(_ context.Context, stored *entity.StoredTransaction) (*entity.TransactionResult, error) {
	g.mu.Lock()
	fn := g.uploadFn
	g.mu.Unlock()
	if fn == nil {
		result, err := stored.Result()
		if err != nil {
			return nil, err
		}
		result.Status = enum.TransactionStatusCompleted
		return result, nil
	}
	return fn(stored)
}

// captureListener records engine events on channels for assertions.
type captureListener struct {
	engine.Listeners
	states  chan enum.TransactionStatus
	results chan *entity.TransactionResult
}

func newCaptureListener() *captureListener {
	return &captureListener{
		states:  make(chan enum.TransactionStatus, 32),
		results: make(chan *entity.TransactionResult, 4),
	}
}

func (l *captureListener) OnTransactionState(_ *entity.Transaction, state enum.TransactionStatus) {
	l.states <- state
}

func (l *captureListener) OnTransactionResult(result *entity.TransactionResult) {
	l.results <- result
}

func (l *captureListener) waitResult(t *testing.T) *entity.TransactionResult {
	t.Helper()
	select {
	case result := <-l.results:
		return result
	case <-time.After(5 * time.Second):
		t.Fatal("no transaction result delivered")
		return nil
	}
}

func (l *captureListener) waitState(t *testing.T, want enum.TransactionStatus) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case state := <-l.states:
			if state == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

type testRig struct {
	eng      *engine.Engine
	reader   *peripheral.SimulatedReader
	gateway  *stubGateway
	store    repository.TransactionStore
	listener *captureListener
}

func buildRig(t *testing.T, mutate func(cfg *engine.Config)) *testRig {
	t.Helper()
	engine.Reset()

	rig := &testRig{
		reader:   peripheral.NewSimulatedReader("QPR250-TEST"),
		gateway:  &stubGateway{},
		store:    infraRepo.NewMemoryStore(),
		listener: newCaptureListener(),
	}

	cfg := engine.Config{
		PosID:            "pos-1",
		QueueWhenOffline: true,
		AutoConnect:      true,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	eng, err := engine.Build(context.Background(), cfg, engine.Deps{
		Peripheral: rig.reader,
		Gateway:    rig.gateway,
		Store:      rig.store,
		Listener:   rig.listener,
	})
	require.NoError(t, err)
	t.Cleanup(engine.Reset)

	rig.eng = eng
	return rig
}

func (rig *testRig) buildSale(t *testing.T, amount string) *entity.Transaction {
	t.Helper()
	amt, err := decimal.NewFromString(amount)
	require.NoError(t, err)

	invoice, err := rig.eng.BuildInvoice("").
		CompanyName("Acme Coffee").
		AddItem("SKU1", "Flat White", amt).
		CalculateTotals().
		Build()
	require.NoError(t, err)

	tx, err := rig.eng.BuildTransaction(invoice).
		Sale().
		Amount(amt, enum.CurrencyUSD).
		Build()
	require.NoError(t, err)
	return tx
}

func testCard() *entity.CardDetails {
	return &entity.CardDetails{
		Scheme:    "Visa",
		MaskedPAN: "************4242",
		KSN:       "FFFF9876543210E00001",
	}
}

func TestBuildValidatesConfiguration(t *testing.T) {
	engine.Reset()
	t.Cleanup(engine.Reset)

	reader := peripheral.NewSimulatedReader("QPR250-TEST")
	gw := &stubGateway{}
	store := infraRepo.NewMemoryStore()

	tests := []struct {
		name string
		cfg  engine.Config
		deps engine.Deps
	}{
		{
			name: "missing pos id",
			cfg:  engine.Config{},
			deps: engine.Deps{Peripheral: reader, Gateway: gw, Store: store},
		},
		{
			name: "missing peripheral",
			cfg:  engine.Config{PosID: "pos-1"},
			deps: engine.Deps{Gateway: gw, Store: store},
		},
		{
			name: "missing gateway",
			cfg:  engine.Config{PosID: "pos-1"},
			deps: engine.Deps{Peripheral: reader, Store: store},
		},
		{
			name: "offline queue without store",
			cfg:  engine.Config{PosID: "pos-1", QueueWhenOffline: true},
			deps: engine.Deps{Peripheral: reader, Gateway: gw},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Build(context.Background(), tt.cfg, tt.deps)
			require.Error(t, err)
			assert.True(t, apperror.IsKind(err, apperror.KindConfiguration))
		})
	}
}

func TestBuildIsSingletonUntilReset(t *testing.T) {
	rig := buildRig(t, nil)

	_, err := engine.Build(context.Background(), engine.Config{PosID: "pos-2"}, engine.Deps{
		Peripheral: rig.reader,
		Gateway:    rig.gateway,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConfiguration))

	engine.Reset()

	eng, err := engine.Build(context.Background(), engine.Config{PosID: "pos-2"}, engine.Deps{
		Peripheral: peripheral.NewSimulatedReader("QPR250-TEST-2"),
		Gateway:    rig.gateway,
	})
	require.NoError(t, err)
	assert.NotNil(t, eng)
}

func TestBuildRegistersPeripheral(t *testing.T) {
	rig := buildRig(t, nil)

	require.Len(t, rig.gateway.registrations, 1)
	reg := rig.gateway.registrations[0]
	assert.Equal(t, "QPR250-TEST", reg.Serial)
	assert.Equal(t, "pos-1", reg.PosID)
	assert.Contains(t, reg.Capabilities, "chip")
	assert.NotNil(t, rig.eng)
}

func TestQueueStrategy(t *testing.T) {
	rig := buildRig(t, nil)
	assert.Equal(t, "queueWhenOffline", rig.eng.QueueStrategy())

	engine.Reset()

	eng, err := engine.Build(context.Background(), engine.Config{PosID: "pos-1"}, engine.Deps{
		Peripheral: rig.reader,
		Gateway:    rig.gateway,
	})
	require.NoError(t, err)
	assert.Equal(t, "neverQueue", eng.QueueStrategy())
}

func TestUploadStoredTransactionsDrainsQueue(t *testing.T) {
	rig := buildRig(t, nil)
	ctx := context.Background()

	tx := rig.buildSale(t, "25.00")
	stored, err := entity.NewStoredTransaction("pos-1", tx, &entity.TransactionResult{
		ID:                   uuid.New(),
		TransactionID:        tx.ID,
		TransactionReference: tx.Reference,
		Status:               enum.TransactionStatusFailed,
	})
	require.NoError(t, err)
	require.NoError(t, rig.store.Save(ctx, stored))

	results, err := rig.eng.UploadStoredTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].IsUploaded)
	assert.Equal(t, tx.Reference, results[0].TransactionReference)

	pending, err := rig.eng.ListStoredTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

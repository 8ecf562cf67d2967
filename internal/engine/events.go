package engine

import (
	"github.com/sangkips/paypoint/internal/domain/entity"
	"github.com/sangkips/paypoint/internal/domain/enum"
)

// EventListener receives engine events. One method per event category, so
// a handler cannot be silently replaced the way single-slot callbacks can.
// Methods are invoked on the engine's dispatch goroutine, never on the
// goroutine doing device I/O; long-running work must still be deferred by
// the implementation so later events are not delayed.
type EventListener interface {
	// OnConnectionState reports peripheral connection changes.
	OnConnectionState(serial string, state enum.ConnectionState)

	// OnTransactionState reports every state the transaction moves through.
	OnTransactionState(tx *entity.Transaction, state enum.TransactionStatus)

	// OnTransactionResult delivers the single result of a submitted
	// transaction once it reaches a terminal state.
	OnTransactionResult(result *entity.TransactionResult)

	// OnPeripheralMessage reports a message the device wants displayed.
	OnPeripheralMessage(serial, message string)

	// OnSignatureRequired asks the integrator to resolve a signature
	// verification. Exactly one of req.Accept or req.Reject must be called;
	// the engine guards unresolved requests with the signature timeout and
	// treats expiry as a rejection.
	OnSignatureRequired(req *SignatureRequest)

	// OnBarcode reports a scanned barcode.
	OnBarcode(serial, barcode string)
}

// Listeners is a no-op EventListener for embedding, so integrators only
// implement the events they care about.
type Listeners struct{}

func (Listeners) OnConnectionState(string, enum.ConnectionState)                   {}
func (Listeners) OnTransactionState(*entity.Transaction, enum.TransactionStatus)   {}
func (Listeners) OnTransactionResult(*entity.TransactionResult)                    {}
func (Listeners) OnPeripheralMessage(string, string)                               {}
func (Listeners) OnSignatureRequired(req *SignatureRequest)                        { req.Reject() }
func (Listeners) OnBarcode(string, string)                                         {}

// dispatcher serializes listener invocations on a single goroutine so
// handlers never run on the device I/O path.
type dispatcher struct {
	events chan func()
	done   chan struct{}
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		events: make(chan func(), 128),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) run() {
	defer close(d.done)
	for fn := range d.events {
		fn()
	}
}

func (d *dispatcher) emit(fn func()) {
	defer func() {
		// Emitting after stop is a shutdown race, not a fault.
		_ = recover()
	}()
	d.events <- fn
}

func (d *dispatcher) stop() {
	close(d.events)
	<-d.done
}

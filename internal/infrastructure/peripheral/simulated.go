package peripheral

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sangkips/paypoint/internal/domain/entity"
)

// ErrNotConnected is returned when a card is awaited before Connect.
var ErrNotConnected = errors.New("peripheral not connected")

// SimulatedReader is a software card reader implementing engine.Peripheral.
// The demo and tests use it in place of a physical device: a card can be
// queued for presentation with PresentCard, and device messages or barcode
// scans can be injected at will.
type SimulatedReader struct {
	serial       string
	capabilities []string

	mu        sync.Mutex
	connected bool
	cards     chan *entity.CardDetails
	messages  chan string
	barcodes  chan string
	readDelay time.Duration
}

// NewSimulatedReader creates a simulated reader with the given serial.
func NewSimulatedReader(serial string) *SimulatedReader {
	return &SimulatedReader{
		serial:       serial,
		capabilities: []string{"msr", "chip", "contactless", "barcode"},
		cards:        make(chan *entity.CardDetails, 1),
		messages:     make(chan string, 16),
		barcodes:     make(chan string, 16),
	}
}

// SetReadDelay delays card delivery to mimic a customer fumbling for a card.
func (r *SimulatedReader) SetReadDelay(d time.Duration) {
	r.mu.Lock()
	r.readDelay = d
	r.mu.Unlock()
}

func (r *SimulatedReader) Serial() string {
	return r.serial
}

func (r *SimulatedReader) Capabilities() []string {
	caps := make([]string, len(r.capabilities))
	copy(caps, r.capabilities)
	return caps
}

func (r *SimulatedReader) Connect(ctx context.Context) error {
	r.mu.Lock()
	r.connected = true
	r.mu.Unlock()
	return nil
}

func (r *SimulatedReader) Disconnect() error {
	r.mu.Lock()
	r.connected = false
	r.mu.Unlock()
	return nil
}

// PresentCard queues a card for the next AwaitCard call.
func (r *SimulatedReader) PresentCard(card *entity.CardDetails) {
	r.cards <- card
}

// EmitMessage injects a device user-interface message.
func (r *SimulatedReader) EmitMessage(message string) {
	r.messages <- message
}

// ScanBarcode injects a barcode scan.
func (r *SimulatedReader) ScanBarcode(code string) {
	r.barcodes <- code
}

func (r *SimulatedReader) AwaitCard(ctx context.Context) (*entity.CardDetails, error) {
	r.mu.Lock()
	connected := r.connected
	delay := r.readDelay
	r.mu.Unlock()
	if !connected {
		return nil, ErrNotConnected
	}

	select {
	case card := <-r.cards:
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return card, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *SimulatedReader) Messages() <-chan string {
	return r.messages
}

func (r *SimulatedReader) Barcodes() <-chan string {
	return r.barcodes
}

package engine

import (
	"context"
	"sync"

	"github.com/sangkips/paypoint/internal/domain/entity"
)

// SignatureRequest is handed to the event listener when a transaction
// requires signature verification. The integrator must resolve it by
// calling Accept or Reject exactly once; extra calls are ignored. The
// engine applies the configured signature timeout, and an unresolved
// request counts as rejected when it expires.
type SignatureRequest struct {
	tx       *entity.Transaction
	once     sync.Once
	resolved chan bool
}

func newSignatureRequest(tx *entity.Transaction) *SignatureRequest {
	return &SignatureRequest{
		tx:       tx,
		resolved: make(chan bool, 1),
	}
}

// Transaction returns the transaction awaiting the signature decision.
func (r *SignatureRequest) Transaction() *entity.Transaction {
	return r.tx
}

// Accept records that the signature was accepted.
func (r *SignatureRequest) Accept() {
	r.once.Do(func() { r.resolved <- true })
}

// Reject records that the signature was rejected.
func (r *SignatureRequest) Reject() {
	r.once.Do(func() { r.resolved <- false })
}

// wait blocks until the request is resolved or ctx expires.
func (r *SignatureRequest) wait(ctx context.Context) bool {
	select {
	case accepted := <-r.resolved:
		return accepted
	case <-ctx.Done():
		return false
	}
}

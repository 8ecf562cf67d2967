package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/sangkips/paypoint/internal/domain/entity"
	"github.com/sangkips/paypoint/internal/domain/enum"
	"github.com/sangkips/paypoint/pkg/apperror"
)

const authorizeTimeout = 30 * time.Second

// runner drives one transaction through the state machine
// Created -> Submitted -> AwaitingCard -> Authorizing ->
// Completed | Declined | Failed | Stopped. Exactly one result is delivered
// per terminal state, always through the event listener and never as a
// return value of the submission call.
type runner struct {
	engine *Engine
	tx     *entity.Transaction

	cancelAwait  context.CancelFunc
	cardCaptured bool
	stopped      bool
}

// StartTransaction submits a transaction for processing and returns
// immediately. The result is delivered asynchronously through the event
// listener. Only one transaction may be active at a time.
func (e *Engine) StartTransaction(tx *entity.Transaction) error {
	if tx == nil {
		return apperror.NewValidationError("transaction is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		return apperror.ErrBusy
	}

	awaitCtx, cancel := context.WithTimeout(context.Background(), e.cfg.TransactionTimeout)
	r := &runner{engine: e, tx: tx, cancelAwait: cancel}
	e.active = r

	go r.run(awaitCtx)
	return nil
}

// StopActiveTransaction stops the active transaction. Valid only while no
// card data has been captured; once the card is read the transaction runs
// to completion.
func (e *Engine) StopActiveTransaction() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return apperror.ErrNoTransaction
	}
	if e.active.cardCaptured {
		return apperror.ErrNotStoppable
	}
	e.active.stopped = true
	e.active.cancelAwait()
	return nil
}

func (r *runner) run(awaitCtx context.Context) {
	defer r.cancelAwait()
	defer func() {
		// Unhandled panics in the transaction flow surface as a failed
		// result instead of crashing the process.
		if rec := recover(); rec != nil {
			log.Printf("engine: unhandled exception in transaction %s: %v", r.tx.Reference, rec)
			r.deliver(r.failedResult(enum.ErrorTypeException, fmt.Sprintf("unhandled exception: %v", rec)))
		}
	}()

	r.setState(enum.TransactionStatusSubmitted)
	r.setState(enum.TransactionStatusAwaitingCard)

	card, err := r.engine.per.AwaitCard(awaitCtx)
	if err != nil {
		if r.wasStopped() {
			result := r.baseResult()
			result.Status = enum.TransactionStatusStopped
			r.deliver(result)
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			r.deliver(r.failedResult(enum.ErrorTypePreprocessException, "transaction timed out waiting for card"))
			return
		}
		r.deliver(r.failedResult(enum.ErrorTypePreprocessException, fmt.Sprintf("card read failed: %v", err)))
		return
	}

	// A stop may have been accepted while the card was being read. The
	// capture claim and the stop flag are checked under one lock so a
	// stop that returned nil can never see the sale authorize.
	if !r.markCardCaptured() {
		result := r.baseResult()
		result.Status = enum.TransactionStatusStopped
		r.deliver(result)
		return
	}
	r.setState(enum.TransactionStatusAuthorizing)

	if card.SignatureRequired && !r.verifySignature() {
		result := r.baseResult()
		result.Status = enum.TransactionStatusDeclined
		result.Card = card
		result.Errors = []entity.TransactionError{{
			Type:    enum.ErrorTypeValidation,
			Message: "signature rejected",
		}}
		r.deliver(result)
		return
	}

	authCtx, cancel := context.WithTimeout(context.Background(), authorizeTimeout)
	defer cancel()

	result, err := r.engine.gw.Authorize(authCtx, r.tx, card)
	if err != nil {
		// The transaction never reached the server: classify locally and
		// hand it to the offline queue when one is configured.
		failed := r.failedResult(enum.ErrorTypePreprocessException, fmt.Sprintf("gateway unreachable: %v", err))
		failed.Card = card
		r.queueOffline(failed)
		r.deliver(failed)
		return
	}

	r.normalizeResult(result, card)
	r.deliver(result)
}

// verifySignature asks the listener to resolve a signature request,
// bounded by the configured signature timeout. An unresolved request is a
// caller bug and counts as rejected.
func (r *runner) verifySignature() bool {
	req := newSignatureRequest(r.tx)
	r.engine.disp.emit(func() { r.engine.listener.OnSignatureRequired(req) })

	ctx, cancel := context.WithTimeout(context.Background(), r.engine.cfg.SignatureTimeout)
	defer cancel()
	return req.wait(ctx)
}

// normalizeResult fills identifying fields the gateway may omit and
// degrades unrecognized error types to the unknown classification so an
// evolving server vocabulary never breaks response handling.
func (r *runner) normalizeResult(result *entity.TransactionResult, card *entity.CardDetails) {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	if result.TransactionID == uuid.Nil {
		result.TransactionID = r.tx.ID
	}
	if result.TransactionReference == "" {
		result.TransactionReference = r.tx.Reference
	}
	if result.Card == nil {
		result.Card = card
	}
	if !result.Status.IsTerminal() {
		result.Status = enum.TransactionStatusFailed
	}
	result.IsUploaded = true
	for i := range result.Errors {
		result.Errors[i].Type = enum.ParseErrorType(string(result.Errors[i].Type))
	}
}

func (r *runner) queueOffline(result *entity.TransactionResult) {
	e := r.engine
	if !e.cfg.QueueWhenOffline || e.store == nil {
		return
	}

	stored, err := entity.NewStoredTransaction(e.cfg.PosID, r.tx, result)
	if err != nil {
		log.Printf("engine: serialize stored transaction %s: %v", r.tx.Reference, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.store.Save(ctx, stored); err != nil {
		log.Printf("engine: store offline transaction %s: %v", r.tx.Reference, err)
	}
}

func (r *runner) baseResult() *entity.TransactionResult {
	return &entity.TransactionResult{
		ID:                   uuid.New(),
		TransactionID:        r.tx.ID,
		TransactionReference: r.tx.Reference,
	}
}

func (r *runner) failedResult(errType enum.ErrorType, message string) *entity.TransactionResult {
	result := r.baseResult()
	result.Status = enum.TransactionStatusFailed
	result.Errors = []entity.TransactionError{{Type: errType, Message: message}}
	return result
}

func (r *runner) setState(state enum.TransactionStatus) {
	e := r.engine
	e.disp.emit(func() { e.listener.OnTransactionState(r.tx, state) })
}

// markCardCaptured claims the capture slot. It fails when a stop was
// already accepted, in which case the card data is discarded and the
// transaction stops instead of authorizing.
func (r *runner) markCardCaptured() bool {
	e := r.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if r.stopped {
		return false
	}
	r.cardCaptured = true
	return true
}

func (r *runner) wasStopped() bool {
	e := r.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	return r.stopped
}

// deliver publishes the terminal state and the single transaction result,
// then releases the runner slot and the in-flight invoice reference.
func (r *runner) deliver(result *entity.TransactionResult) {
	e := r.engine

	r.setState(result.Status)
	e.disp.emit(func() { e.listener.OnTransactionResult(result) })

	if r.tx.Invoice != nil {
		e.releaseInvoiceRef(r.tx.Invoice.Reference)
	}

	e.mu.Lock()
	if e.active == r {
		e.active = nil
	}
	e.mu.Unlock()
}

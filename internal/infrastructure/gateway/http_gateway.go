package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/sangkips/paypoint/internal/config"
	"github.com/sangkips/paypoint/internal/domain/entity"
	"github.com/sangkips/paypoint/internal/domain/enum"
	domainRepo "github.com/sangkips/paypoint/internal/domain/repository"
)

// HTTPGateway talks JSON over HTTPS to the remote payment service. It
// authenticates with OAuth2 client credentials when a client ID is
// configured; peripheral registration additionally carries the device
// administrator credentials.
type HTTPGateway struct {
	baseURL              string
	registrationUsername string
	registrationPassword string
	client               *http.Client
}

// NewHTTPGateway creates a gateway client from configuration.
func NewHTTPGateway(cfg *config.GatewayConfig, registrationUsername, registrationPassword string) *HTTPGateway {
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.ClientID != "" {
		creds := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		client = creds.Client(context.Background())
		client.Timeout = cfg.Timeout
	}
	return &HTTPGateway{
		baseURL:              cfg.BaseURL,
		registrationUsername: registrationUsername,
		registrationPassword: registrationPassword,
		client:               client,
	}
}

func (g *HTTPGateway) RegisterPeripheral(ctx context.Context, reg domainRepo.PeripheralRegistration) error {
	body, err := json.Marshal(reg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/peripherals", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.registrationUsername != "" {
		req.SetBasicAuth(g.registrationUsername, g.registrationPassword)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("register peripheral: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("register peripheral: gateway returned %s", resp.Status)
	}
	return nil
}

// authorizeRequest is the wire shape of a transaction submission.
type authorizeRequest struct {
	Transaction *entity.Transaction `json:"transaction"`
	Card        *entity.CardDetails `json:"card"`
	SubmittedAt time.Time           `json:"submitted_at"`
}

// wireError carries the raw error type string so unknown values reported
// by an evolving server can still be decoded and then degraded locally.
type wireError struct {
	Type         string `json:"type"`
	Message      string `json:"message"`
	ResponseCode string `json:"response_code"`
}

type authorizeResponse struct {
	Approved     bool        `json:"approved"`
	ReceiptURL   string      `json:"receipt_url"`
	PaymentToken string      `json:"payment_token"`
	Errors       []wireError `json:"errors"`
}

func (g *HTTPGateway) Authorize(ctx context.Context, tx *entity.Transaction, card *entity.CardDetails) (*entity.TransactionResult, error) {
	payload := authorizeRequest{Transaction: tx, Card: card, SubmittedAt: time.Now().UTC()}
	resp, err := g.post(ctx, "/v1/transactions", payload)
	if err != nil {
		return nil, err
	}
	return g.toResult(tx.ID, tx.Reference, card, resp), nil
}

func (g *HTTPGateway) Upload(ctx context.Context, stored *entity.StoredTransaction) (*entity.TransactionResult, error) {
	resp, err := g.post(ctx, "/v1/transactions/upload", stored)
	if err != nil {
		return nil, err
	}

	result := g.toResult(stored.TransactionID, stored.Reference, nil, resp)
	if prior, perr := stored.Result(); perr == nil && result.Card == nil {
		result.Card = prior.Card
	}
	return result, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload interface{}) (*authorizeResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 500 {
		return nil, fmt.Errorf("gateway returned %s", httpResp.Status)
	}

	var resp authorizeResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	return &resp, nil
}

func (g *HTTPGateway) toResult(txID uuid.UUID, reference string, card *entity.CardDetails, resp *authorizeResponse) *entity.TransactionResult {
	result := &entity.TransactionResult{
		ID:                   uuid.New(),
		TransactionID:        txID,
		TransactionReference: reference,
		Status:               enum.TransactionStatusDeclined,
		IsUploaded:           true,
		Card:                 card,
		ReceiptURL:           resp.ReceiptURL,
		PaymentToken:         resp.PaymentToken,
	}
	if resp.Approved {
		result.Status = enum.TransactionStatusCompleted
	}
	for _, werr := range resp.Errors {
		result.Errors = append(result.Errors, entity.TransactionError{
			Type:         enum.ParseErrorType(werr.Type),
			Message:      werr.Message,
			ResponseCode: werr.ResponseCode,
		})
	}
	return result
}

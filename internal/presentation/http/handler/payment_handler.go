package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sangkips/paypoint/internal/application/service"
	"github.com/sangkips/paypoint/internal/domain/enum"
	"github.com/sangkips/paypoint/internal/presentation/http/dto/request"
	"github.com/sangkips/paypoint/internal/presentation/http/dto/response"
	"github.com/sangkips/paypoint/pkg/pagination"
)

// PaymentHandler handles payment workflow HTTP requests
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Start handles starting a card payment
// @Summary Start payment
// @Description Start a card payment; the result arrives asynchronously
// @Tags payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.StartPaymentRequest true "Payment data"
// @Success 202 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /payments [post]
func (h *PaymentHandler) Start(c *gin.Context) {
	var req request.StartPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	input, err := toStartPaymentInput(&req)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	reference, err := h.paymentService.StartPayment(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Accepted(c, "Payment started", gin.H{
		"reference": reference,
	})
}

// Get handles fetching the state or result of a payment
// @Summary Get payment
// @Description Get the current state and, once finished, the result of a payment
// @Tags payments
// @Security BearerAuth
// @Produce json
// @Param reference path string true "Transaction reference"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /payments/{reference} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	status, err := h.paymentService.Result(c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment retrieved successfully", status)
}

// Stop handles stopping the active payment
// @Summary Stop payment
// @Description Stop the active payment if no card data has been captured yet
// @Tags payments
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /payments/active/stop [post]
func (h *PaymentHandler) Stop(c *gin.Context) {
	if err := h.paymentService.StopActive(); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment stopped", nil)
}

// GetReceipt handles fetching a rendered receipt
// @Summary Get receipt
// @Description Get the fixed-width text receipt for a finished payment
// @Tags payments
// @Security BearerAuth
// @Produce json
// @Param reference path string true "Transaction reference"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /payments/{reference}/receipt [get]
func (h *PaymentHandler) GetReceipt(c *gin.Context) {
	text, err := h.paymentService.ReceiptText(c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt retrieved successfully", gin.H{
		"receipt": text,
	})
}

// PrintReceipt handles printing a receipt on the terminal printer
// @Summary Print receipt
// @Description Render the receipt and send it to the configured printer
// @Tags payments
// @Security BearerAuth
// @Produce json
// @Param reference path string true "Transaction reference"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /payments/{reference}/receipt/print [post]
func (h *PaymentHandler) PrintReceipt(c *gin.Context) {
	if err := h.paymentService.PrintReceipt(c.Param("reference")); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt printed", nil)
}

// ListStored handles listing offline-stored transactions
// @Summary List stored transactions
// @Description List transactions queued locally while the gateway was unreachable
// @Tags stored-transactions
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page"
// @Success 200 {object} response.APIResponse
// @Router /stored-transactions [get]
func (h *PaymentHandler) ListStored(c *gin.Context) {
	var params pagination.PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BadRequest(c, "Invalid pagination parameters")
		return
	}

	result, err := h.paymentService.ListStored(c.Request.Context(), &params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Stored transactions retrieved successfully", result)
}

// GetStored handles fetching one offline-stored transaction
// @Summary Get stored transaction
// @Description Get a locally queued transaction by its transaction reference
// @Tags stored-transactions
// @Security BearerAuth
// @Produce json
// @Param reference path string true "Transaction reference"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /stored-transactions/{reference} [get]
func (h *PaymentHandler) GetStored(c *gin.Context) {
	stored, err := h.paymentService.StoredByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stored transaction retrieved successfully", stored)
}

// UploadStored handles re-submitting offline-stored transactions
// @Summary Upload stored transactions
// @Description Re-submit every pending stored transaction to the gateway
// @Tags stored-transactions
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /stored-transactions/upload [post]
func (h *PaymentHandler) UploadStored(c *gin.Context) {
	results, err := h.paymentService.UploadStored(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stored transactions uploaded", gin.H{
		"uploaded": len(results),
		"results":  results,
	})
}

func toStartPaymentInput(req *request.StartPaymentRequest) (*service.StartPaymentInput, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, err
	}

	tip := decimal.Zero
	if req.Tip != "" {
		if tip, err = decimal.NewFromString(req.Tip); err != nil {
			return nil, err
		}
	}

	operation := enum.Operation(req.Operation)
	if req.Operation == "" {
		operation = enum.OperationSale
	}

	input := &service.StartPaymentInput{
		Amount:        amount,
		Currency:      enum.Currency(req.Currency),
		Operation:     operation,
		CompanyName:   req.CompanyName,
		PurchaseOrder: req.PurchaseOrder,
		Reference:     req.Reference,
		Service:       req.Service,
		Tip:           tip,
		Metadata:      req.Metadata,
	}

	for _, item := range req.Items {
		unitPrice, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return nil, err
		}
		tax := decimal.Zero
		if item.Tax != "" {
			if tax, err = decimal.NewFromString(item.Tax); err != nil {
				return nil, err
			}
		}
		discount := decimal.Zero
		if item.Discount != "" {
			if discount, err = decimal.NewFromString(item.Discount); err != nil {
				return nil, err
			}
		}
		input.Items = append(input.Items, service.PaymentItemInput{
			ProductCode: item.ProductCode,
			Description: item.Description,
			UnitPrice:   unitPrice,
			Quantity:    item.Quantity,
			Tax:         tax,
			Discount:    discount,
		})
	}

	return input, nil
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/paypoint/internal/application/service"
	"github.com/sangkips/paypoint/internal/presentation/http/dto/response"
)

// TerminalHandler handles terminal status and card reader requests
type TerminalHandler struct {
	paymentService *service.PaymentService
}

// NewTerminalHandler creates a new terminal handler
func NewTerminalHandler(paymentService *service.PaymentService) *TerminalHandler {
	return &TerminalHandler{paymentService: paymentService}
}

// GetStatus handles fetching the terminal status
// @Summary Terminal status
// @Description Get engine readiness, queue strategy and printer state
// @Tags terminal
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /terminal/status [get]
func (h *TerminalHandler) GetStatus(c *gin.Context) {
	response.OK(c, "Terminal status retrieved successfully", h.paymentService.Status())
}

// Connect handles manually connecting the card reader
// @Summary Connect card reader
// @Description Connect the card reader, for installs without auto-connect
// @Tags terminal
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /terminal/connect [post]
func (h *TerminalHandler) Connect(c *gin.Context) {
	if err := h.paymentService.Connect(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Card reader connected", nil)
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/paypoint/internal/application/service"
	"github.com/sangkips/paypoint/internal/presentation/http/dto/request"
	"github.com/sangkips/paypoint/internal/presentation/http/dto/response"
)

// AuthHandler handles operator authentication requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles operator login
// @Summary Login
// @Description Authenticate the terminal operator and return an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Login credentials"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Login successful", gin.H{
		"access_token": token,
		"token_type":   "Bearer",
	})
}

// Logout handles operator logout
// @Summary Logout
// @Description Logout operator (client should discard the token)
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	// JWT is stateless, client discards the token
	response.OK(c, "Logged out successfully", nil)
}

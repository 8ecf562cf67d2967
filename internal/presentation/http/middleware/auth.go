package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/paypoint/internal/presentation/http/dto/response"
	"github.com/sangkips/paypoint/pkg/utils"
)

// AuthMiddleware creates a JWT authentication middleware for terminal
// operator tokens.
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("operator", claims.Operator)
		c.Set("pos_id", claims.PosID)

		c.Next()
	}
}

// GetOperator extracts the authenticated operator from the Gin context
func GetOperator(c *gin.Context) string {
	operator, exists := c.Get("operator")
	if !exists {
		return ""
	}
	return operator.(string)
}

// GetPosID extracts the POS install ID from the Gin context
func GetPosID(c *gin.Context) string {
	posID, exists := c.Get("pos_id")
	if !exists {
		return ""
	}
	return posID.(string)
}

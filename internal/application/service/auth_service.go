package service

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/sangkips/paypoint/internal/config"
	"github.com/sangkips/paypoint/pkg/apperror"
	"github.com/sangkips/paypoint/pkg/utils"
)

// AuthService authenticates terminal operators and issues access tokens
// for the terminal API.
type AuthService struct {
	jwtManager   *utils.JWTManager
	username     string
	passwordHash string
	posID        string
}

// NewAuthService creates a new auth service
func NewAuthService(jwtManager *utils.JWTManager, cfg *config.JWTConfig, posID string) *AuthService {
	return &AuthService{
		jwtManager:   jwtManager,
		username:     cfg.OperatorUsername,
		passwordHash: cfg.OperatorPasswordHash,
		posID:        posID,
	}
}

// Login validates operator credentials and returns a bearer token.
func (s *AuthService) Login(username, password string) (string, error) {
	if username != s.username || s.passwordHash == "" {
		return "", apperror.NewAppError(http.StatusUnauthorized, "Invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", apperror.NewAppError(http.StatusUnauthorized, "Invalid username or password")
	}
	return s.jwtManager.GenerateAccessToken(username, s.posID)
}

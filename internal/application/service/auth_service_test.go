package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sangkips/paypoint/internal/application/service"
	"github.com/sangkips/paypoint/internal/config"
	"github.com/sangkips/paypoint/pkg/utils"
)

func newAuthService(t *testing.T, password string) (*service.AuthService, *utils.JWTManager) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	jwtManager := utils.NewJWTManager("test-secret", time.Hour)
	svc := service.NewAuthService(jwtManager, &config.JWTConfig{
		OperatorUsername:     "operator",
		OperatorPasswordHash: string(hash),
	}, "pos-1")
	return svc, jwtManager
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, jwtManager := newAuthService(t, "correct horse")

	token, err := svc.Login("operator", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtManager.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Operator)
	assert.Equal(t, "pos-1", claims.PosID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService(t, "correct horse")

	_, err := svc.Login("operator", "wrong password")
	require.Error(t, err)

	_, err = svc.Login("intruder", "correct horse")
	require.Error(t, err)
}

func TestValidateRejectsForeignToken(t *testing.T) {
	_, jwtManager := newAuthService(t, "correct horse")

	other := utils.NewJWTManager("different-secret", time.Hour)
	token, err := other.GenerateAccessToken("operator", "pos-1")
	require.NoError(t, err)

	_, err = jwtManager.ValidateAccessToken(token)
	require.Error(t, err)
}

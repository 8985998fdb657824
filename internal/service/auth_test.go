package service_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/service"
)

const testSecret = "test-secret-with-enough-length"

func newAuth(t *testing.T, enabled bool) *service.AuthService {
	t.Helper()
	manager, err := bcrypt.GenerateFromPassword([]byte("gestor123"), bcrypt.MinCost)
	require.NoError(t, err)
	viewer, err := bcrypt.GenerateFromPassword([]byte("consulta123"), bcrypt.MinCost)
	require.NoError(t, err)
	return service.NewAuthService(enabled, string(manager), string(viewer), testSecret, time.Hour, zap.NewNop())
}

func TestLoginIssuesRoleToken(t *testing.T) {
	auth := newAuth(t, true)

	resp, err := auth.Login(ctx, &domain.LoginRequest{Role: domain.RoleViewer, Password: "consulta123"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleViewer, resp.Role)
	assert.Equal(t, 3600, resp.ExpiresIn)

	claims, err := auth.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleViewer, claims.Role)
}

func TestLoginFailures(t *testing.T) {
	auth := newAuth(t, true)

	_, err := auth.Login(ctx, &domain.LoginRequest{Role: domain.RoleManager, Password: "consulta123"})
	var unauth *domain.ErrUnauthorized
	require.ErrorAs(t, err, &unauth)

	_, err = auth.Login(ctx, &domain.LoginRequest{Role: "admin", Password: "x"})
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "role", verr.Field)

	disabled := newAuth(t, false)
	_, err = disabled.Login(ctx, &domain.LoginRequest{Role: domain.RoleManager, Password: "gestor123"})
	var unavailable *domain.ErrUnavailable
	require.ErrorAs(t, err, &unavailable)
}

func TestLoginRoleWithoutHash(t *testing.T) {
	auth := service.NewAuthService(true, "", "", testSecret, time.Hour, zap.NewNop())

	_, err := auth.Login(ctx, &domain.LoginRequest{Role: domain.RoleManager, Password: "anything"})
	var unauth *domain.ErrUnauthorized
	assert.ErrorAs(t, err, &unauth)
}

func TestValidateAccessTokenRejects(t *testing.T) {
	auth := newAuth(t, true)

	sign := func(claims service.JWTClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	valid := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	expired := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": sign(service.JWTClaims{Role: domain.RoleManager, Type: "access", RegisteredClaims: valid}, "other"),
		"expired":      sign(service.JWTClaims{Role: domain.RoleManager, Type: "access", RegisteredClaims: expired}, testSecret),
		"wrong type":   sign(service.JWTClaims{Role: domain.RoleManager, Type: "refresh", RegisteredClaims: valid}, testSecret),
		"unknown role": sign(service.JWTClaims{Role: "admin", Type: "access", RegisteredClaims: valid}, testSecret),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ValidateAccessToken(token)
			var unauth *domain.ErrUnauthorized
			assert.ErrorAs(t, err, &unauth)
		})
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := service.HashPassword("segredo1")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("segredo1")))

	_, err = service.HashPassword("123")
	var verr *domain.ErrValidation
	assert.ErrorAs(t, err, &verr)
}

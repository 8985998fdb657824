package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
)

var authTracer = otel.Tracer("service/auth")

const bcryptCost = 12

// AuthService issues role tokens. There are no user accounts: each role has
// one shared password, stored as a bcrypt hash in the configuration.
type AuthService struct {
	enabled   bool
	hashes    map[domain.Role][]byte
	jwtSecret []byte
	accessTTL time.Duration
	logger    *zap.Logger
}

// NewAuthService creates the auth service. A role with an empty hash cannot
// log in.
func NewAuthService(enabled bool, managerHash, viewerHash, jwtSecret string, accessTTL time.Duration, logger *zap.Logger) *AuthService {
	hashes := make(map[domain.Role][]byte, 2)
	if managerHash != "" {
		hashes[domain.RoleManager] = []byte(managerHash)
	}
	if viewerHash != "" {
		hashes[domain.RoleViewer] = []byte(viewerHash)
	}
	return &AuthService{
		enabled:   enabled,
		hashes:    hashes,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
		logger:    logger,
	}
}

// Enabled reports whether the API requires tokens.
func (s *AuthService) Enabled() bool {
	return s.enabled
}

// ============================================================
// Login: POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	_, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	if !s.enabled {
		return nil, &domain.ErrUnavailable{Feature: "auth"}
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("role", string(req.Role)))

	hash, ok := s.hashes[req.Role]
	if !ok {
		return nil, &domain.ErrUnauthorized{Message: "Credenciais inválidas"}
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(req.Password)); err != nil {
		s.logger.Warn("login: wrong password", zap.String("role", string(req.Role)))
		return nil, &domain.ErrUnauthorized{Message: "Credenciais inválidas"}
	}

	token, err := s.signAccessToken(req.Role)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	s.logger.Info("login", zap.String("role", string(req.Role)))
	return &domain.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(s.accessTTL.Seconds()),
		Role:        req.Role,
	}, nil
}

// ============================================================
// ValidateToken: used by middleware
// ============================================================

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Role domain.Role `json:"role"`
	Type string      `json:"type"`
	jwt.RegisteredClaims
}

func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido ou expirado"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido"}
	}
	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "Tipo de token inválido"}
	}
	if claims.Role != domain.RoleManager && claims.Role != domain.RoleViewer {
		return nil, &domain.ErrUnauthorized{Message: "Perfil inválido"}
	}
	return claims, nil
}

func (s *AuthService) signAccessToken(role domain.Role) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Role: role,
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(role),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    "mgm-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// HashPassword produces the value for GESTOR_PASSWORD_HASH and
// CONSULTA_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < 6 {
		return "", &domain.ErrValidation{Field: "password", Message: "mínimo de 6 caracteres"}
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

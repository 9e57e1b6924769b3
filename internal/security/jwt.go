package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "poctrail-assistant"

var errTokenInvalid = errors.New("token is not valid")

// Claims is the identity baked into an access token. Tenant and role travel
// with the token so a request is fully scoped without a user lookup.
type Claims struct {
	UserID   uuid.UUID `json:"sub"`
	TenantID uuid.UUID `json:"tenant_id"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies the HS256 tokens issued at login.
type JWTManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (m *JWTManager) registered(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
	}
}

func (m *JWTManager) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// GenerateAccessToken issues a short-lived token scoped to one tenant.
func (m *JWTManager) GenerateAccessToken(userID, tenantID uuid.UUID, email, role string) (string, error) {
	return m.sign(Claims{
		UserID:           userID,
		TenantID:         tenantID,
		Email:            email,
		Role:             role,
		RegisteredClaims: m.registered(m.accessTTL),
	})
}

// GenerateRefreshToken issues a long-lived token carrying only the user ID.
func (m *JWTManager) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	claims := m.registered(m.refreshTTL)
	claims.Subject = userID.String()
	return m.sign(claims)
}

// GenerateTokenPair issues both tokens for a login or refresh exchange.
func (m *JWTManager) GenerateTokenPair(userID, tenantID uuid.UUID, email, role string) (accessToken, refreshToken string, expiresIn int64, err error) {
	if accessToken, err = m.GenerateAccessToken(userID, tenantID, email, role); err != nil {
		return "", "", 0, fmt.Errorf("sign access token: %w", err)
	}
	if refreshToken, err = m.GenerateRefreshToken(userID); err != nil {
		return "", "", 0, fmt.Errorf("sign refresh token: %w", err)
	}
	return accessToken, refreshToken, int64(m.accessTTL.Seconds()), nil
}

func (m *JWTManager) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return errTokenInvalid
	}
	return nil
}

// ValidateAccessToken verifies an access token and returns its identity claims.
func (m *JWTManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	var claims Claims
	if err := m.parse(tokenString, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// ValidateRefreshToken verifies a refresh token and returns the user it was
// issued to.
func (m *JWTManager) ValidateRefreshToken(tokenString string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	if err := m.parse(tokenString, &claims); err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject in refresh token: %w", err)
	}
	return userID, nil
}

package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sasikola/mb-server/internal/apperrors"
)

var (
	// ErrInvalidToken is returned for malformed, tampered or incomplete tokens
	ErrInvalidToken = fmt.Errorf("invalid token: %w", apperrors.ErrUnauthorized)
	// ErrExpiredToken is returned for well-signed tokens past their exp claim
	ErrExpiredToken = fmt.Errorf("token expired: %w", apperrors.ErrUnauthorized)
)

// Identity is what a verified token says about its bearer
type Identity struct {
	UserID string
	Role   string
}

// Claims is the claim set carried by every issued token: sub, role, iat, exp
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenGenerator handles JWT token generation and validation
type TokenGenerator struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenGenerator creates a new token generator signing with HS256
func NewTokenGenerator(secret string, expiry time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// GenerateToken issues a signed token for the user
func (tg *TokenGenerator) GenerateToken(userID, role string) (string, error) {
	now := tg.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tg.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tg.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken verifies the signature and expiry of a token and returns the identity it carries
func (tg *TokenGenerator) ValidateToken(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tg.secret, nil
	}, jwt.WithTimeFunc(tg.now), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subject not found in token", ErrInvalidToken)
	}

	return &Identity{UserID: claims.Subject, Role: claims.Role}, nil
}

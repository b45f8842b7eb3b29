package jwthelper

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vietanh2810/squares-api/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims

	UserID       uint   `json:"user_id,omitempty"`
	Email        string `json:"email,omitempty"`
	Method       string `json:"method"`
	GateRevision int    `json:"gate_revision,omitempty"`
	UserAgent    string `json:"user_agent"`
}

func (c Claims) Identity() domain.Identity {
	return domain.Identity{
		UserID:       c.UserID,
		Email:        c.Email,
		Method:       c.Method,
		GateRevision: c.GateRevision,
	}
}

func GenerateToken(key []byte, id domain.Identity, userAgent string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:       id.UserID,
		Email:        id.Email,
		Method:       id.Method,
		GateRevision: id.GateRevision,
		UserAgent:    userAgent,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("token.SignedString -> %w", err)
	}

	return signed, nil
}

// ParseToken verifies the signature and expiry. Tokens issued to a different
// user agent are rejected.
func ParseToken(key []byte, tokenStr, userAgent string) (Claims, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Method == "" {
		return Claims{}, ErrInvalidToken
	}

	if claims.UserAgent != userAgent {
		return Claims{}, fmt.Errorf("%w: user agent mismatch", ErrInvalidToken)
	}

	return claims, nil
}

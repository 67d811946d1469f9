// Package security provides JWT token utilities
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// VisitorClaims identifies one browser across requests.
type VisitorClaims struct {
	VisitorID string `json:"vid"`
	jwt.RegisteredClaims
}

// GenerateVisitorToken signs a visitor id into an HS256 token valid for ttl.
func GenerateVisitorToken(visitorID, jwtSecret string, now time.Time, ttl time.Duration) (string, error) {
	if jwtSecret == "" {
		return "", errors.New("empty jwt secret")
	}
	claims := VisitorClaims{
		VisitorID: visitorID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// ValidateVisitorToken validates a visitor token and returns its visitor id.
func ValidateVisitorToken(tokenString, jwtSecret string) (string, error) {
	claims := &VisitorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.VisitorID == "" {
		return "", errors.New("invalid token")
	}
	return claims.VisitorID, nil
}

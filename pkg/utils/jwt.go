package utils

import (
	"errors"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"

	"github.com/blaircullen/socialdesk/internal/transfer"
)

// ValidateToken checks the session cookie issued by the newsroom SSO
// gateway. Tokens are validated, never issued here.
func ValidateToken(secretKey, tokenString string) (*transfer.CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &transfer.CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if claims, ok := token.Claims.(*transfer.CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

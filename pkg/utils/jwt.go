package utils

import (
	"errors"
	"log/slog"
	"time"

	"github.com/boothlabs/igpublisher/internal/transfer"
	"github.com/golang-jwt/jwt/v5"
)

// Supabase signs user access tokens for this audience.
const supabaseAudience = "authenticated"

func GenerateToken(secretKey, userID string, tokenDuration time.Duration) (string, error) {
	claims := transfer.SupabaseClaims{
		Role: supabaseAudience,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{supabaseAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secretKey))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return signedToken, nil
}

func ValidateToken(secretKey, tokenString string) (*transfer.SupabaseClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &transfer.SupabaseClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(secretKey), nil
	}, jwt.WithAudience(supabaseAudience), jwt.WithExpirationRequired())

	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if claims, ok := token.Claims.(*transfer.SupabaseClaims); ok && token.Valid && claims.Subject != "" {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

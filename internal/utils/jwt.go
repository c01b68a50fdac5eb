package utils

import (
	"errors"
	"time"

	"bitcash/internal/config"
	"bitcash/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// GenerateAccessToken signs a short-lived HS256 token for an owner.
func GenerateAccessToken(cfg config.JWTConfig, ownerID uuid.UUID, role string) (string, error) {
	if cfg.Secret == "" {
		return "", errors.New("JWT secret not configured")
	}

	now := time.Now()
	claims := models.OwnerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    cfg.Issuer,
			Subject:   ownerID.String(),
		},
		OwnerID: ownerID,
		Role:    role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}

// ParseToken parses and validates a JWT token string.
func ParseToken(secret, tokenStr string) (*models.OwnerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &models.OwnerClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.OwnerClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.OwnerID == uuid.Nil {
		return nil, errors.New("token has no owner")
	}
	return claims, nil
}

package jwt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
	"github.com/magabrotheeeer/storefront/internal/models"
)

// CustomClaims описывает данные пользователя, хранящиеся в токене.
type CustomClaims struct {
	UserID               int64  `json:"id"`
	Username             string `json:"username"`
	Email                string `json:"email"`
	Role                 string `json:"role"`
	jwt.RegisteredClaims        // ExpiresAt, IssuedAt и прочие стандартные поля
}

// Identity проверяет полноту claims и возвращает личность вызывающего.
func (c *CustomClaims) Identity() (models.Identity, error) {
	role, err := models.ParseRole(c.Role)
	if err != nil || c.UserID <= 0 || c.Username == "" || c.Email == "" {
		return models.Identity{}, apperr.ErrInvalidPayload
	}
	return models.Identity{
		ID:       c.UserID,
		Username: c.Username,
		Email:    c.Email,
		Role:     role,
	}, nil
}

// GenerateToken создаёт подписанный токен со сроком жизни tokenTTL.
func (j *MakerImpl) GenerateToken(identity models.Identity) (string, error) {
	const op = "jwt.GenerateToken"
	now := j.now()
	claims := CustomClaims{
		UserID:   identity.ID,
		Username: identity.Username,
		Email:    identity.Email,
		Role:     string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken разбирает токен и проверяет подпись, срок действия,
// возраст и полноту полезной нагрузки.
//
// Все ошибки возвращаются как ошибки apperr категории аутентификации.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	if len(tokenStr) < minTokenLength || strings.Count(tokenStr, ".") != 2 {
		return nil, apperr.ErrMalformedToken
	}

	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return j.secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, apperr.ErrMalformedToken
	}
	if claims.IssuedAt == nil {
		return nil, apperr.ErrInvalidPayload
	}
	if j.now().Sub(claims.IssuedAt.Time) > j.maxAge {
		return nil, apperr.ErrExpired
	}
	if _, err := claims.Identity(); err != nil {
		return nil, err
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return apperr.ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return apperr.ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.ErrExpired
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return apperr.ErrInvalidPayload
	default:
		return apperr.ErrMalformedToken
	}
}

package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
	"github.com/magabrotheeeer/storefront/internal/models"
)

const testSecret = "test_secret_key_1234567890"

func testIdentity(role models.Role) models.Identity {
	return models.Identity{ID: 42, Username: "alice", Email: "alice@x.com", Role: role}
}

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(testSecret, tokenTTL)

	tests := []struct {
		name     string
		identity models.Identity
	}{
		{name: "admin user", identity: models.Identity{ID: 1, Username: "admin", Email: "admin@shop.io", Role: models.RoleAdmin}},
		{name: "regular user", identity: testIdentity(models.RoleUser)},
		{name: "customer", identity: models.Identity{ID: 9, Username: "bob", Email: "bob@x.com", Role: models.RoleCustomer}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.identity)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			identity, err := claims.Identity()
			require.NoError(t, err)
			assert.Equal(t, tt.identity, identity)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_ParseToken_Errors(t *testing.T) {
	maker := NewJWTMaker(testSecret, 15*time.Minute)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:    "empty token",
			token:   "",
			wantErr: apperr.ErrMalformedToken,
		},
		{
			name:    "too short",
			token:   "a.b.c",
			wantErr: apperr.ErrMalformedToken,
		},
		{
			name:    "two segments",
			token:   "aaaaaaaaaaaaaaaaaaaaaaaa.bbbbbbbbbbbbbbbb",
			wantErr: apperr.ErrMalformedToken,
		},
		{
			name:    "garbage segments",
			token:   "invalid!!.token!!!!.here!!!!!",
			wantErr: apperr.ErrMalformedToken,
		},
		{
			name:    "wrong secret key",
			token:   tokenWithSecret(t, "wrong_secret_key"),
			wantErr: apperr.ErrInvalidSignature,
		},
		{
			name:    "expired token",
			token:   signClaims(t, testSecret, claimsAt(time.Now().Add(-2*time.Hour), time.Hour)),
			wantErr: apperr.ErrExpired,
		},
		{
			name:    "older than hard ceiling despite long expiry",
			token:   signClaims(t, testSecret, claimsAt(time.Now().Add(-25*time.Hour), 72*time.Hour)),
			wantErr: apperr.ErrExpired,
		},
		{
			name: "missing username",
			token: signClaims(t, testSecret, func() CustomClaims {
				c := claimsAt(time.Now(), time.Hour)
				c.Username = ""
				return c
			}()),
			wantErr: apperr.ErrInvalidPayload,
		},
		{
			name: "unknown role",
			token: signClaims(t, testSecret, func() CustomClaims {
				c := claimsAt(time.Now(), time.Hour)
				c.Role = "root"
				return c
			}()),
			wantErr: apperr.ErrInvalidPayload,
		},
		{
			name: "missing issued at",
			token: signClaims(t, testSecret, func() CustomClaims {
				c := claimsAt(time.Now(), time.Hour)
				c.IssuedAt = nil
				return c
			}()),
			wantErr: apperr.ErrInvalidPayload,
		},
		{
			name: "missing expiry",
			token: signClaims(t, testSecret, func() CustomClaims {
				c := claimsAt(time.Now(), time.Hour)
				c.ExpiresAt = nil
				return c
			}()),
			wantErr: apperr.ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)

			assert.Nil(t, claims)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestJWTMaker_RejectsOtherSigningMethod(t *testing.T) {
	maker := NewJWTMaker(testSecret, time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claimsAt(time.Now(), time.Hour))
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = maker.ParseToken(signed)
	assert.ErrorIs(t, err, apperr.ErrInvalidSignature)
}

func TestJWTMaker_HardCeilingUsesIssuedAt(t *testing.T) {
	maker := NewJWTMaker(testSecret, 72*time.Hour)
	issued := time.Now().Add(-25 * time.Hour)
	maker.now = func() time.Time { return issued }

	token, err := maker.GenerateToken(testIdentity(models.RoleUser))
	require.NoError(t, err)

	maker.now = func() time.Time { return issued.Add(23 * time.Hour) }
	_, err = maker.ParseToken(token)
	require.NoError(t, err)

	maker.now = time.Now
	_, err = maker.ParseToken(token)
	assert.ErrorIs(t, err, apperr.ErrExpired)
}

func TestNewJWTMaker_DefaultTTL(t *testing.T) {
	maker := NewJWTMaker(testSecret, 0)
	assert.Equal(t, MaxTokenAge, maker.tokenTTL)
}

func claimsAt(issued time.Time, ttl time.Duration) CustomClaims {
	return CustomClaims{
		UserID:   42,
		Username: "alice",
		Email:    "alice@x.com",
		Role:     "user",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		},
	}
}

func signClaims(t *testing.T, secret string, claims CustomClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func tokenWithSecret(t *testing.T, secret string) string {
	t.Helper()
	token, err := NewJWTMaker(secret, 15*time.Minute).GenerateToken(testIdentity(models.RoleUser))
	require.NoError(t, err)
	return token
}

// Package jwt реализует выпуск и проверку JWT токенов доступа магазина.
//
// Maker подписывает токены HS256 и при проверке, помимо собственного срока
// действия токена, ограничивает его возраст жёстким потолком MaxTokenAge.
package jwt

import (
	"time"

	"github.com/magabrotheeeer/storefront/internal/models"
)

// MaxTokenAge - максимальный возраст токена с момента выпуска,
// независимо от заявленного в нём срока действия.
const MaxTokenAge = 24 * time.Hour

// minTokenLength - длина, короче которой строка не может быть JWT.
const minTokenLength = 20

// Maker описывает выпуск и разбор токенов доступа.
type Maker interface {
	// GenerateToken выпускает токен для проверенного пользователя.
	GenerateToken(identity models.Identity) (string, error)
	// ParseToken проверяет токен и возвращает его claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker на общем секретном ключе.
type MakerImpl struct {
	secretKey []byte
	tokenTTL  time.Duration
	maxAge    time.Duration
	now       func() time.Time
}

// NewJWTMaker создаёт MakerImpl. Нулевой ttl заменяется на MaxTokenAge.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	if ttl == 0 {
		ttl = MaxTokenAge
	}
	return &MakerImpl{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		maxAge:    MaxTokenAge,
		now:       time.Now,
	}
}

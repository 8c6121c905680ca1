// Package ratelimit реализует ограничение частоты запросов скользящим окном.
//
// Для каждого ключа (обычно «IP:эндпоинт») хранятся моменты принятых
// запросов. Отклонённые запросы не записываются, поэтому клиент, упёршийся
// в лимит, не продлевает себе блокировку.
package ratelimit

import (
	"context"
	"time"
)

// Rule - не более Max запросов за Window.
type Rule struct {
	Max    int
	Window time.Duration
}

// Decision - результат проверки лимита.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // когда освободится место; только при отказе
}

// Limiter проверяет и учитывает запрос по ключу.
type Limiter interface {
	Check(ctx context.Context, key string, rule Rule) (Decision, error)
}

// unlimited сообщает, что правило ничего не ограничивает.
func (r Rule) unlimited() bool {
	return r.Max <= 0 || r.Window <= 0
}

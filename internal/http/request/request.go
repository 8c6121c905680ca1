// Package request разбирает параметры пути и строки запроса.
// Ошибки возвращаются как ошибки валидации apperr.
package request

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
)

// ID читает положительный идентификатор из параметра пути name.
func ID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid path parameter",
			map[string]string{name: "must be a positive integer"})
	}
	return id, nil
}

// Int читает целый параметр строки запроса. Отсутствующий параметр даёт 0.
func Int(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("invalid query parameter",
			map[string]string{name: "must be an integer"})
	}
	return n, nil
}

// Bool читает логический параметр. Отсутствующий параметр даёт nil.
func Bool(q url.Values, name string) (*bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation("invalid query parameter",
			map[string]string{name: "must be true or false"})
	}
	return &b, nil
}

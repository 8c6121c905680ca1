package middlewarectx

import "net/http"

// MaxBodyBytes ограничивает размер тела запроса. Чтение сверх лимита
// возвращает ошибку, и обработчик отвечает 400. n <= 0 отключает лимит.
func MaxBodyBytes(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if n <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

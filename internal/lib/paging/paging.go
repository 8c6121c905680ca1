// Package paging содержит общие правила постраничной выдачи.
package paging

// MaxLimit - наибольший размер страницы.
const MaxLimit = 100

// Normalize приводит limit к диапазону [1, MaxLimit] (0 заменяется на def),
// а отрицательный offset к нулю.
func Normalize(limit, offset, def int) (int, int) {
	switch {
	case limit == 0:
		limit = def
	case limit < 1:
		limit = 1
	case limit > MaxLimit:
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Slice возвращает страницу items. Результат никогда не равен nil.
func Slice[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора позиции.
	ErrLineIDRequired = errors.New("cart line id is required")
	// Ошибка отсутствующего названия позиции.
	ErrLineNameRequired = errors.New("cart line name is required")
	// Ошибка некорректной цены (<= 0, NaN или бесконечность).
	ErrLinePriceInvalid = errors.New("cart line price must be a positive number")
	// ErrSnapshotNotFound возвращается хранилищем, если слот пуст.
	ErrSnapshotNotFound = errors.New("cart snapshot not found")
	// ErrMirrorNotFound возвращается, если для сессии нет зеркала корзины.
	ErrMirrorNotFound = errors.New("cart mirror not found")
	// ErrSessionRequired - не передан идентификатор сессии зеркала.
	ErrSessionRequired = errors.New("session_id is required")
	// ErrSyncTransport - сервер недоступен или соединение оборвалось.
	ErrSyncTransport = errors.New("cart sync transport failed")
	// ErrSyncHTTPStatus - сервер ответил статусом вне 2xx.
	ErrSyncHTTPStatus = errors.New("cart sync unexpected http status")
	// ErrSyncMalformedResponse - тело ответа не разбирается как JSON.
	ErrSyncMalformedResponse = errors.New("cart sync malformed response")
	// ErrSyncRejected - сервер вернул success=false.
	ErrSyncRejected = errors.New("cart sync rejected by server")
	// ErrSyncCircuitOpen - синхронизация пропущена открытым circuit breaker.
	ErrSyncCircuitOpen = errors.New("cart sync circuit open")
)

// IsInvalidArgument проверяет, относится ли ошибка к некорректным аргументам мутации.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrLineIDRequired) ||
		errors.Is(err, ErrLineNameRequired) ||
		errors.Is(err, ErrLinePriceInvalid)
}

// Package exchange предоставляет унифицированный интерфейс публичных
// рыночных данных поддерживаемых бирж.
package exchange

import (
	"context"
	"errors"

	"arbscan/internal/models"
)

// Exchange определяет контракт адаптера биржи.
// Все методы потокобезопасны; сетевые вызовы уважают контекст.
type Exchange interface {
	// GetName возвращает имя биржи из реестра
	GetName() string

	// SetCredentials задаёт ключи API. Для публичных рыночных данных
	// ключи не требуются, поэтому вызов опционален.
	SetCredentials(creds Credentials)

	// LoadMarkets загружает метаданные всех рынков биржи,
	// ключ карты - канонический символ BASE/QUOTE
	LoadMarkets(ctx context.Context) (map[string]*models.Market, error)

	// FetchTicker получает сводку цен по каноническому символу
	FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error)

	// FetchOrderBook получает стакан заданной глубины.
	// Bids по убыванию, asks по возрастанию цены.
	FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error)

	// Close освобождает сетевые ресурсы адаптера
	Close() error
}

// Credentials - опциональные ключи API биржи
type Credentials struct {
	APIKey     string
	Secret     string
	Passphrase string
}

// ErrorKind классифицирует ошибку биржи
type ErrorKind int

const (
	KindNetwork     ErrorKind = iota // сетевая ошибка или обрыв
	KindTimeout                      // истёк дедлайн запроса
	KindRateLimit                    // превышен лимит запросов
	KindBadResponse                  // не-2xx статус или невалидное тело
	KindNotFound                     // биржа не знает символ
)

// ExchangeError представляет ошибку от биржи
type ExchangeError struct {
	Exchange string
	Code     string
	Kind     ErrorKind
	Message  string
	Original error
}

func (e *ExchangeError) Error() string {
	return e.Exchange + ": " + e.Message
}

// Unwrap возвращает оригинальную ошибку для поддержки errors.Is() и errors.As()
func (e *ExchangeError) Unwrap() error {
	return e.Original
}

// IsRateLimit сообщает, вызвана ли ошибка превышением лимита запросов
func IsRateLimit(err error) bool {
	var ee *ExchangeError
	return errors.As(err, &ee) && ee.Kind == KindRateLimit
}

// IsTimeout сообщает, вызвана ли ошибка истечением дедлайна
func IsTimeout(err error) bool {
	var ee *ExchangeError
	return errors.As(err, &ee) && ee.Kind == KindTimeout
}

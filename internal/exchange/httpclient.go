package exchange

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sony/gobreaker"

	"arbscan/internal/models"
	"arbscan/pkg/ratelimit"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HTTPClientConfig содержит настройки HTTP клиента для бирж
type HTTPClientConfig struct {
	ConnectTimeout time.Duration // таймаут установки TCP соединения
	ReadTimeout    time.Duration // таймаут чтения ответа
	TotalTimeout   time.Duration // общий таймаут операции

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration

	TLSHandshakeTimeout time.Duration
	KeepAliveInterval   time.Duration
}

// DefaultHTTPClientConfig возвращает конфигурацию по умолчанию.
// Общий таймаут 30с соответствует политике адаптеров: любой вызов
// к бирже ограничен сверху этим временем.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    10 * time.Second,
		TotalTimeout:   30 * time.Second,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout: 5 * time.Second,
		KeepAliveInterval:   30 * time.Second,
	}
}

var (
	globalClient     *http.Client
	globalClientOnce sync.Once
)

// GetGlobalHTTPClient возвращает общий HTTP клиент с connection pooling.
// Все адаптеры переиспользуют один пул соединений.
func GetGlobalHTTPClient() *http.Client {
	globalClientOnce.Do(func() {
		globalClient = NewHTTPClient(DefaultHTTPClientConfig())
	})
	return globalClient
}

// NewHTTPClient создаёт HTTP клиент с заданной конфигурацией
func NewHTTPClient(cfg HTTPClientConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: cfg.KeepAliveInterval,
	}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		DisableCompression:    false,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: cfg.ReadTimeout,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.TotalTimeout,
	}
}

// restClient - общая обвязка REST вызовов адаптера: rate limiter на вход,
// circuit breaker вокруг запроса, классификация ошибок по ErrorKind.
type restClient struct {
	name    string
	client  *http.Client
	limiter *ratelimit.RateLimiter
	breaker *gobreaker.CircuitBreaker
}

// newRESTClient создаёт restClient для биржи.
// rate - лимит запросов в секунду (burst = 2x).
func newRESTClient(name string, rate float64) *restClient {
	return &restClient{
		name:    name,
		client:  GetGlobalHTTPClient(),
		limiter: ratelimit.NewRateLimiter(rate, rate*2),
		breaker: NewVenueBreaker(name),
	}
}

// getJSON выполняет GET запрос и декодирует JSON ответ в out.
// Возвращаемая ошибка всегда *ExchangeError.
func (rc *restClient) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	if err := rc.limiter.Wait(ctx); err != nil {
		return rc.wrapErr(err)
	}

	_, err := rc.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, rc.wrapErr(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := rc.client.Do(req)
		if err != nil {
			return nil, rc.wrapErr(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		if err != nil {
			return nil, rc.wrapErr(err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 418 {
			return nil, &ExchangeError{
				Exchange: rc.name,
				Code:     strconv.Itoa(resp.StatusCode),
				Kind:     KindRateLimit,
				Message:  "rate limit exceeded",
			}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &ExchangeError{
				Exchange: rc.name,
				Code:     strconv.Itoa(resp.StatusCode),
				Kind:     KindBadResponse,
				Message:  fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256)),
			}
		}

		if err := json.Unmarshal(body, out); err != nil {
			return nil, &ExchangeError{
				Exchange: rc.name,
				Kind:     KindBadResponse,
				Message:  "invalid JSON response",
				Original: err,
			}
		}
		return nil, nil
	})
	if err != nil {
		// ошибки самого breaker (разомкнут) тоже приводим к *ExchangeError
		return rc.wrapErr(err)
	}
	return nil
}

// wrapErr приводит произвольную ошибку к *ExchangeError
func (rc *restClient) wrapErr(err error) *ExchangeError {
	if ee, ok := err.(*ExchangeError); ok {
		return ee
	}

	kind := KindNetwork
	msg := err.Error()
	if err == context.DeadlineExceeded || strings.Contains(msg, "deadline exceeded") {
		kind = KindTimeout
	} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
		kind = KindTimeout
	} else if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		// разомкнутый breaker трактуем как временную сетевую недоступность
		kind = KindNetwork
	}

	return &ExchangeError{
		Exchange: rc.name,
		Kind:     kind,
		Message:  msg,
		Original: err,
	}
}

// Close закрывает idle соединения общего пула
func (rc *restClient) Close() {
	if t, ok := rc.client.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// toFloat парсит числовую строку биржи, пустая строка и мусор дают 0
func toFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// precisionFromStep возвращает количество знаков после запятой шага
// цены/объёма: "0.001" → 3, "1" → 0
func precisionFromStep(step string) int {
	step = strings.TrimRight(step, "0")
	if i := strings.IndexByte(step, '.'); i >= 0 {
		return len(step) - i - 1
	}
	return 0
}

// parseLevels конвертирует уровни стакана из строкового формата бирж,
// отбрасывая уровни с невалидной ценой
func parseLevels(raw [][]string, limit int) []models.PriceLevel {
	levels := make([]models.PriceLevel, 0, len(raw))
	for _, l := range raw {
		if len(l) < 2 {
			continue
		}
		price := toFloat(l[0])
		amount := toFloat(l[1])
		if price <= 0 || amount < 0 {
			continue
		}
		levels = append(levels, models.PriceLevel{Price: price, Amount: amount})
		if limit > 0 && len(levels) >= limit {
			break
		}
	}
	return levels
}

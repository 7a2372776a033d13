package exchange

import (
	"time"

	"github.com/sony/gobreaker"
)

// NewVenueBreaker создаёт circuit breaker для REST вызовов одной биржи.
//
// Размыкается после 5 подряд неуспешных запросов и даёт бирже 30 секунд
// на восстановление, после чего пропускает до 3 пробных запросов.
// Пока breaker разомкнут, адаптер мгновенно возвращает ошибку вместо
// того чтобы держать тик на сетевых таймаутах умершей биржи.
func NewVenueBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

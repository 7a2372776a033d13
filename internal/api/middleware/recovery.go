package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"arbscan/pkg/utils"
)

// Recovery перехватывает panic в handlers: сервер продолжает работу,
// клиент получает 500, ошибка и stack trace уходят в лог
func Recovery(logger *utils.Logger) func(http.Handler) http.Handler {
	log := logger.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic in handler",
						utils.String("path", r.URL.Path),
						utils.Any("panic", err),
						utils.String("stack", string(debug.Stack())),
					)
					http.Error(
						w,
						fmt.Sprintf("Internal Server Error: %v", err),
						http.StatusInternalServerError,
					)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

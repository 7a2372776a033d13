package middleware

import (
	"net/http"
	"os"
	"strings"
)

// allowedOrigins - разрешённые домены для CORS.
// В production задаются через CORS_ALLOWED_ORIGINS (comma-separated);
// пустое значение разрешает любой origin (режим разработки).
var allowedOrigins = initAllowedOrigins()

func initAllowedOrigins() map[string]bool {
	origins := make(map[string]bool)
	env := os.Getenv("CORS_ALLOWED_ORIGINS")
	if env == "" || env == "*" {
		return origins // пустая карта = разрешены все
	}
	for _, origin := range strings.Split(env, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins[origin] = true
		}
	}
	return origins
}

// CORS выставляет заголовки cross-origin доступа для read-only API
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" {
			if len(allowedOrigins) == 0 || allowedOrigins[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

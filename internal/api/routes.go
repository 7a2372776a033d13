// Package api собирает HTTP поверхность сканера.
package api

import (
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arbscan/internal/api/handlers"
	"arbscan/internal/api/middleware"
	"arbscan/internal/scanner"
	"arbscan/internal/websocket"
	"arbscan/pkg/utils"
)

// Dependencies содержит зависимости для API handlers
type Dependencies struct {
	Store  *scanner.Store
	Hub    *websocket.Hub
	Logger *utils.Logger
}

// SetupRoutes настраивает HTTP маршруты приложения.
//
// Структура:
//
//	/api/v1/snapshot      - последний снимок рынков (503 до первого тика)
//	/api/v1/opportunities - последний список возможностей (503 до первого тика)
//	/ws/stream            - WebSocket поток opportunityUpdate
//	/health               - health check
//	/metrics              - Prometheus метрики
//	/debug/pprof/*        - профилирование
//
// Middleware: Recovery → Logging → CORS для всех маршрутов.
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = utils.L()
	}

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.CORS)

	apiV1 := router.PathPrefix("/api/v1").Subrouter()

	if deps.Store != nil {
		snapshotHandler := handlers.NewSnapshotHandler(deps.Store)
		opportunityHandler := handlers.NewOpportunityHandler(deps.Store)

		apiV1.HandleFunc("/snapshot", snapshotHandler.GetSnapshot).Methods("GET")
		apiV1.HandleFunc("/opportunities", opportunityHandler.GetOpportunities).Methods("GET")
	}

	// WebSocket для real-time обновлений
	if deps.Hub != nil {
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(deps.Hub, w, r)
		}).Methods("GET")
	}

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// pprof endpoints для профилирования.
	// В production должны быть закрыты на уровне сети.
	debug := router.PathPrefix("/debug/pprof").Subrouter()
	debug.HandleFunc("/", pprof.Index)
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)
	debug.HandleFunc("/heap", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("heap").ServeHTTP(w, r)
	})
	debug.HandleFunc("/goroutine", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler("goroutine").ServeHTTP(w, r)
	})

	return router
}

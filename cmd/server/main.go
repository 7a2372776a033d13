package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"arbscan/internal/api"
	"arbscan/internal/config"
	"arbscan/internal/exchange"
	"arbscan/internal/scanner"
	"arbscan/internal/websocket"
	"arbscan/pkg/utils"
)

func main() {
	// .env удобен в разработке, в production переменные приходят
	// из окружения
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer logger.Sync()

	exchanges, err := buildExchanges(cfg)
	if err != nil {
		logger.Fatal("failed to build exchange adapters", utils.Err(err))
	}

	registry := scanner.NewRegistry(exchanges, logger)
	defer registry.Close()

	hub := websocket.NewHub(logger)
	go hub.Run()

	store := scanner.NewStore()
	fetcher := scanner.NewPairFetcher(registry, logger)
	engine := scanner.NewEngine(scanner.EngineConfig{
		TradeSizeUSDT:   cfg.Scanner.TradeSizeUSDT,
		MinRawSpreadPct: cfg.Scanner.MinRawSpreadPct,
		MinTradeUSDT:    cfg.Scanner.MinTradeUSDT,
		Debug:           cfg.Scanner.Debug,
	}, logger)

	scan := scanner.NewScanner(scanner.SchedulerConfig{
		Interval:  cfg.Scanner.ScanInterval,
		BatchSize: cfg.Scanner.BatchSize,
	}, registry, fetcher, engine, store, hub, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scan.Run(ctx)

	router := api.SetupRoutes(&api.Dependencies{
		Store:  store,
		Hub:    hub,
		Logger: logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", utils.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", utils.Err(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel() // останавливаем цикл сканера

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", utils.Err(err))
	}

	logger.Info("server exited")
}

// buildExchanges создаёт адаптеры для бирж из SCAN_VENUES в порядке
// реестра exchange.SupportedExchanges, а не в порядке перечисления.
// Ключи API опциональны: публичные рыночные данные работают без них.
func buildExchanges(cfg *config.Config) ([]exchange.Exchange, error) {
	exchanges := make([]exchange.Exchange, 0, len(cfg.Scanner.Venues))
	for _, venue := range exchange.SupportedExchanges {
		if !slices.Contains(cfg.Scanner.Venues, venue) {
			continue
		}
		ex, err := exchange.NewExchange(venue)
		if err != nil {
			return nil, err
		}
		if creds, ok := cfg.Venues[venue]; ok && creds.APIKey != "" {
			ex.SetCredentials(exchange.Credentials{
				APIKey:     creds.APIKey,
				Secret:     creds.Secret,
				Passphrase: creds.Passphrase,
			})
		}
		exchanges = append(exchanges, ex)
	}
	return exchanges, nil
}

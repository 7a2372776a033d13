// Package config загружает конфигурацию приложения из переменных
// окружения.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"arbscan/internal/exchange"
	"arbscan/pkg/utils"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server  ServerConfig
	Scanner ScannerConfig
	Venues  map[string]VenueConfig // ключ - имя биржи из реестра
	Logging LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port int
	Host string
}

// ScannerConfig - настройки сканера и движка возможностей
type ScannerConfig struct {
	TradeSizeUSDT   float64       // целевой notional одной сделки
	MinRawSpreadPct float64       // минимальный спред в процентах
	MinTradeUSDT    float64       // нижняя граница notional
	ScanInterval    time.Duration // пауза между тиками
	BatchSize       int           // символов за тик
	Venues          []string      // биржи для сканирования
	Debug           bool          // счётчики отбраковки в логах
}

// VenueConfig - опциональные ключи API биржи.
// Публичные рыночные данные доступны и без них.
type VenueConfig struct {
	APIKey     string
	Secret     string
	Passphrase string
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения.
// Ошибка означает непригодную конфигурацию и фатальна на старте.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Scanner: ScannerConfig{
			TradeSizeUSDT:   getEnvAsFloat("TRADE_SIZE_USDT", 25),
			MinRawSpreadPct: getEnvAsFloat("MIN_RAW_SPREAD_PCT", 0),
			MinTradeUSDT:    getEnvAsFloat("MIN_TRADE_USDT", 1),
			ScanInterval:    time.Duration(getEnvAsInt("SCAN_INTERVAL_MS", 3000)) * time.Millisecond,
			BatchSize:       getEnvAsInt("SCAN_BATCH_SIZE", 30),
			Venues:          getEnvAsList("SCAN_VENUES", exchange.SupportedExchanges),
			Debug:           getEnvAsBool("ARB_DEBUG", false),
		},
		Venues: loadVenueCredentials(),
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate проверяет критичные параметры
func (c *Config) validate() error {
	s := c.Scanner
	if err := utils.ValidateVolume(s.TradeSizeUSDT); err != nil {
		return fmt.Errorf("TRADE_SIZE_USDT: %w", err)
	}
	// ноль допустим: порог спреда выключен
	if s.MinRawSpreadPct < 0 {
		return fmt.Errorf("MIN_RAW_SPREAD_PCT must not be negative, got %v", s.MinRawSpreadPct)
	}
	if s.MinRawSpreadPct > 0 {
		if err := utils.ValidateSpread(s.MinRawSpreadPct); err != nil {
			return fmt.Errorf("MIN_RAW_SPREAD_PCT: %w", err)
		}
	}
	if err := utils.ValidateVolume(s.MinTradeUSDT); err != nil {
		return fmt.Errorf("MIN_TRADE_USDT: %w", err)
	}
	if s.ScanInterval <= 0 {
		return fmt.Errorf("SCAN_INTERVAL_MS must be positive")
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("SCAN_BATCH_SIZE must be positive, got %d", s.BatchSize)
	}
	if len(s.Venues) == 0 {
		return fmt.Errorf("SCAN_VENUES is empty")
	}
	for _, venue := range s.Venues {
		if !exchange.IsSupported(venue) {
			return fmt.Errorf("SCAN_VENUES contains unsupported venue %q", venue)
		}
	}
	return nil
}

// loadVenueCredentials читает <VENUE>_API_KEY / _SECRET / _PASSPHRASE
// для каждой биржи реестра
func loadVenueCredentials() map[string]VenueConfig {
	creds := make(map[string]VenueConfig, len(exchange.SupportedExchanges))
	for _, venue := range exchange.SupportedExchanges {
		prefix := strings.ToUpper(venue)
		creds[venue] = VenueConfig{
			APIKey:     getEnv(prefix+"_API_KEY", ""),
			Secret:     getEnv(prefix+"_SECRET", ""),
			Passphrase: getEnv(prefix+"_PASSPHRASE", ""),
		}
	}
	return creds
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			values = append(values, p)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

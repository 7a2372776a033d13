package utils

// validator.go - валидация входных данных

import (
	"fmt"
	"strings"
)

// ValidateSymbol проверяет формат торгового символа.
// Принимает BTCUSDT, BTC/USDT, BTC-USDT, BTC_USDT в любом регистре.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol is empty")
	}
	cleaned := NormalizeSymbol(symbol)
	if len(cleaned) < 2 {
		return fmt.Errorf("symbol %q is too short", symbol)
	}
	if len(cleaned) > 30 {
		return fmt.Errorf("symbol %q is too long", symbol)
	}
	for _, r := range cleaned {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return fmt.Errorf("symbol %q contains invalid character %q", symbol, r)
		}
	}
	return nil
}

// NormalizeSymbol приводит символ к виду BTCUSDT:
// верхний регистр, без разделителей
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(symbol)
	for _, sep := range []string{"/", "-", "_"} {
		s = strings.ReplaceAll(s, sep, "")
	}
	return s
}

// ValidateSpread проверяет порог спреда в процентах, диапазон (0, 100]
func ValidateSpread(spread float64) error {
	if spread <= 0 {
		return fmt.Errorf("spread must be positive, got %v", spread)
	}
	if spread > 100 {
		return fmt.Errorf("spread %v%% is unreasonably large", spread)
	}
	return nil
}

// ValidateVolume проверяет торговый объём, диапазон (0, 1e9]
func ValidateVolume(volume float64) error {
	if volume <= 0 {
		return fmt.Errorf("volume must be positive, got %v", volume)
	}
	if volume > 1e9 {
		return fmt.Errorf("volume %v is unreasonably large", volume)
	}
	return nil
}

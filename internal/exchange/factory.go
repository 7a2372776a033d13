package exchange

import (
	"fmt"
	"strings"
)

// SupportedExchanges - реестр поддерживаемых бирж.
// Порядок фиксирован: движок возможностей обходит биржи в порядке реестра,
// что делает сортировку при равных спредах воспроизводимой.
var SupportedExchanges = []string{
	"binance",
	"kucoin",
	"gate",
	"bitget",
	"mexc",
	"bybit",
}

// NewExchange создает новый экземпляр биржи по имени
func NewExchange(name string) (Exchange, error) {
	switch strings.ToLower(name) {
	case "binance":
		return NewBinance(), nil
	case "kucoin":
		return NewKucoin(), nil
	case "gate":
		return NewGate(), nil
	case "bitget":
		return NewBitget(), nil
	case "mexc":
		return NewMexc(), nil
	case "bybit":
		return NewBybit(), nil
	default:
		return nil, fmt.Errorf("unsupported exchange: %s", name)
	}
}

// IsSupported проверяет, поддерживается ли биржа
func IsSupported(name string) bool {
	name = strings.ToLower(name)
	for _, supported := range SupportedExchanges {
		if name == supported {
			return true
		}
	}
	return false
}

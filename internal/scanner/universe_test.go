package scanner

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"arbscan/internal/exchange"
	"arbscan/internal/models"
)

// Вселенная - пересечение активных спотовых USDT рынков минимум
// двух бирж. ETH/USDT неактивен на A и есть только на C, поэтому
// выпадает.
func TestCommonUSDTSymbols(t *testing.T) {
	inactive := activeMarket("ETH/USDT", 0.001)
	inactive.Active = false

	exA := &fakeExchange{name: "exA", markets: map[string]*models.Market{
		"BTC/USDT": activeMarket("BTC/USDT", 0.001),
		"ETH/USDT": inactive,
	}}
	exB := &fakeExchange{name: "exB", markets: map[string]*models.Market{
		"BTC/USDT": activeMarket("BTC/USDT", 0.001),
	}}
	exC := &fakeExchange{name: "exC", markets: map[string]*models.Market{
		"ETH/USDT": activeMarket("ETH/USDT", 0.001),
	}}

	registry := NewRegistry([]exchange.Exchange{exA, exB, exC}, testLogger())

	got := registry.CommonUSDTSymbols(context.Background())
	want := []string{"BTC/USDT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CommonUSDTSymbols = %v, want %v", got, want)
	}
}

func TestUSDTSpotSymbolsFilters(t *testing.T) {
	notSpot := activeMarket("SOL/USDT", 0.001)
	notSpot.Spot = false

	ex := &fakeExchange{name: "exA", markets: map[string]*models.Market{
		"BTC/USDT": activeMarket("BTC/USDT", 0.001),
		"ETH/BTC":  activeMarket("ETH/USDT", 0.001), // не USDT котировка
		"SOL/USDT": notSpot,
	}}

	registry := NewRegistry([]exchange.Exchange{ex}, testLogger())

	got := registry.USDTSpotSymbols(context.Background(), "exA")
	want := []string{"BTC/USDT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("USDTSpotSymbols = %v, want %v", got, want)
	}
}

// Кэш рынков write-once: повторные обращения не дёргают адаптер,
// неудачная загрузка тоже фиксируется
func TestMarketsCachedPerVenue(t *testing.T) {
	ex := &fakeExchange{name: "exA", markets: map[string]*models.Market{
		"BTC/USDT": activeMarket("BTC/USDT", 0.001),
	}}
	registry := NewRegistry([]exchange.Exchange{ex}, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if m := registry.Markets(ctx, "exA"); len(m) != 1 {
			t.Fatalf("Markets returned %d entries", len(m))
		}
	}
	if ex.marketsCalls != 1 {
		t.Errorf("LoadMarkets called %d times, want 1", ex.marketsCalls)
	}
}

func TestMarketsLoadFailureCachedAsEmpty(t *testing.T) {
	ex := &fakeExchange{name: "exA", marketsErr: errors.New("boom")}
	registry := NewRegistry([]exchange.Exchange{ex}, testLogger())
	ctx := context.Background()

	if m := registry.Markets(ctx, "exA"); len(m) != 0 {
		t.Fatalf("Markets after failure = %d entries, want 0", len(m))
	}
	registry.Markets(ctx, "exA")

	// не rate-limit ошибка не повторяется и фиксируется сразу
	if ex.marketsCalls != 1 {
		t.Errorf("LoadMarkets called %d times, want 1 (failure is cached)", ex.marketsCalls)
	}
}

// Rate-limit на первой загрузке рынков повторяется один раз прежде
// чем результат будет закэширован навсегда
func TestMarketsRetriesOnceOnRateLimit(t *testing.T) {
	rateLimit := &exchange.ExchangeError{
		Exchange: "exA", Kind: exchange.KindRateLimit, Message: "429",
	}
	ex := &fakeExchange{
		name:        "exA",
		marketsErrs: []error{rateLimit},
		markets: map[string]*models.Market{
			"BTC/USDT": activeMarket("BTC/USDT", 0.001),
		},
	}
	registry := NewRegistry([]exchange.Exchange{ex}, testLogger())
	registry.retryCfg.InitialDelay = time.Millisecond

	if m := registry.Markets(context.Background(), "exA"); len(m) != 1 {
		t.Fatalf("Markets after retried rate limit = %d entries, want 1", len(m))
	}
	if ex.marketsCalls != 2 {
		t.Errorf("LoadMarkets called %d times, want 2 (one retry)", ex.marketsCalls)
	}
}

// Второй rate-limit подряд уже не повторяется: кэшируется пустая карта
func TestMarketsSecondRateLimitCachedAsEmpty(t *testing.T) {
	rateLimit := &exchange.ExchangeError{
		Exchange: "exA", Kind: exchange.KindRateLimit, Message: "429",
	}
	ex := &fakeExchange{
		name:        "exA",
		marketsErrs: []error{rateLimit, rateLimit},
		markets: map[string]*models.Market{
			"BTC/USDT": activeMarket("BTC/USDT", 0.001),
		},
	}
	registry := NewRegistry([]exchange.Exchange{ex}, testLogger())
	registry.retryCfg.InitialDelay = time.Millisecond
	ctx := context.Background()

	if m := registry.Markets(ctx, "exA"); len(m) != 0 {
		t.Fatalf("Markets = %d entries, want 0", len(m))
	}
	registry.Markets(ctx, "exA")

	if ex.marketsCalls != 2 {
		t.Errorf("LoadMarkets called %d times, want 2", ex.marketsCalls)
	}
}

func TestVenuesPreservesOrder(t *testing.T) {
	registry := NewRegistry([]exchange.Exchange{
		&fakeExchange{name: "exB"},
		&fakeExchange{name: "exA"},
		&fakeExchange{name: "exC"},
	}, testLogger())

	want := []string{"exB", "exA", "exC"}
	if got := registry.Venues(); !reflect.DeepEqual(got, want) {
		t.Errorf("Venues = %v, want %v", got, want)
	}
}

func TestUnknownVenue(t *testing.T) {
	registry := NewRegistry(nil, testLogger())

	if _, ok := registry.Exchange("nope"); ok {
		t.Error("Exchange returned ok for unknown venue")
	}
	if m := registry.Markets(context.Background(), "nope"); m != nil {
		t.Error("Markets for unknown venue should be nil")
	}
}

package scanner

import (
	"encoding/json"
	"math"
	"testing"

	"arbscan/internal/models"
)

func defaultEngine() *Engine {
	return NewEngine(EngineConfig{
		TradeSizeUSDT:   25,
		MinRawSpreadPct: 0,
		MinTradeUSDT:    1,
	}, testLogger())
}

func approx(t *testing.T, name string, got, want, eps float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// ============================================================
// Сценарии
// ============================================================

// Базовый случай: спред есть, комиссии съедают прибыль,
// но возможность эмитится при нулевом пороге
func TestEngineBasicProfitWithFees(t *testing.T) {
	data := models.AllData{
		"BTC/USDT": {
			"venueA": testSnap("venueA",
				levels([2]float64{50000, 0.01}),
				levels([2]float64{49990, 0.01}),
				0.001),
			"venueB": testSnap("venueB",
				levels([2]float64{50100, 0.01}),
				levels([2]float64{50050, 0.01}),
				0.001),
		},
	}

	opps, counters := defaultEngine().Compute(data, []string{"venueA", "venueB"})

	if len(opps) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(opps))
	}
	o := opps[0]

	if o.BuyExchange != "venueA" || o.SellExchange != "venueB" {
		t.Fatalf("direction %s→%s, want venueA→venueB", o.BuyExchange, o.SellExchange)
	}
	approx(t, "buyEffective", o.BuyEffective, 50000, 1e-9)
	approx(t, "sellEffective", o.SellEffective, 50050, 1e-9)
	approx(t, "quantity", o.Quantity, 0.0005, 1e-12)
	approx(t, "spreadPct", o.SpreadPct, 0.1, 1e-9)

	// комиссии больше валового: чистая прибыль отрицательная,
	// но при MinRawSpreadPct=0 возможность всё равно в списке
	if o.NetProfitAbs >= 0 {
		t.Errorf("netProfitAbs = %v, want negative", o.NetProfitAbs)
	}
	approx(t, "netProfitPct", o.NetProfitPct, -0.1001, 1e-4)

	// обратное направление: ask 50100 > bid 49990, спред отрицательный
	if counters.PairsBelowSpread != 1 {
		t.Errorf("pairsBelowSpread = %d, want 1 (B→A)", counters.PairsBelowSpread)
	}
}

// Проскальзывание уничтожает спред: эффективные цены равны,
// порог отбрасывает связку
func TestEngineSlippageFilter(t *testing.T) {
	data := models.AllData{
		"XYZ/USDT": {
			"venueA": testSnap("venueA",
				levels([2]float64{100, 0.05}, [2]float64{110, 1}),
				levels([2]float64{99, 1}),
				0),
			"venueB": testSnap("venueB",
				levels([2]float64{121, 1}),
				levels([2]float64{120, 0.05}, [2]float64{90, 1}),
				0),
		},
	}

	engine := NewEngine(EngineConfig{
		TradeSizeUSDT:   10,
		MinRawSpreadPct: 0,
		MinTradeUSDT:    1,
	}, testLogger())

	opps, counters := engine.Compute(data, []string{"venueA", "venueB"})

	// qInt = 10/100 = 0.1; buyEff = (100·0.05+110·0.05)/0.1 = 105;
	// sellEff = (120·0.05+90·0.05)/0.1 = 105; spread = 0 → гейт
	if len(opps) != 0 {
		t.Fatalf("got %d opportunities, want 0", len(opps))
	}
	if counters.PairsBelowSpread == 0 {
		t.Error("expected at least one pairsBelowSpread")
	}
}

// Лимит minCost на стороне покупки отбрасывает возможность
func TestEngineLimitsRejection(t *testing.T) {
	buy := testSnap("venueA",
		levels([2]float64{50000, 0.01}),
		levels([2]float64{49990, 0.01}),
		0.001)
	buy.Limits.MinCost = 30

	data := models.AllData{
		"BTC/USDT": {
			"venueA": buy,
			"venueB": testSnap("venueB",
				levels([2]float64{50100, 0.01}),
				levels([2]float64{50050, 0.01}),
				0.001),
		},
	}

	opps, counters := defaultEngine().Compute(data, []string{"venueA", "venueB"})

	// notionalBuy = 25 < minCost 30
	if len(opps) != 0 {
		t.Fatalf("got %d opportunities, want 0", len(opps))
	}
	if counters.PairsLimitsFail != 1 {
		t.Errorf("pairsLimitsFail = %d, want 1", counters.PairsLimitsFail)
	}
}

// Три биржи: только связки с положительным спредом,
// отсортированы по убыванию
func TestEngineOrderedPairing(t *testing.T) {
	mk := func(venue string, ask, bid float64) *models.PairSnapshot {
		return testSnap(venue,
			levels([2]float64{ask, 1}),
			levels([2]float64{bid, 1}),
			0)
	}
	data := models.AllData{
		"ABC/USDT": {
			"venueA": mk("venueA", 100, 99),
			"venueB": mk("venueB", 101, 100.5),
			"venueC": mk("venueC", 99.5, 99.2),
		},
	}

	opps, _ := defaultEngine().Compute(data, []string{"venueA", "venueB", "venueC"})

	if len(opps) != 2 {
		t.Fatalf("got %d opportunities, want 2", len(opps))
	}

	// C→B: (100.5-99.5)/99.5 ≈ 1.005%; A→B: (100.5-100)/100 = 0.5%
	if opps[0].BuyExchange != "venueC" || opps[0].SellExchange != "venueB" {
		t.Errorf("first = %s→%s, want venueC→venueB", opps[0].BuyExchange, opps[0].SellExchange)
	}
	if opps[1].BuyExchange != "venueA" || opps[1].SellExchange != "venueB" {
		t.Errorf("second = %s→%s, want venueA→venueB", opps[1].BuyExchange, opps[1].SellExchange)
	}
	approx(t, "first spreadPct", opps[0].SpreadPct, 1.00502512, 1e-6)
	approx(t, "second spreadPct", opps[1].SpreadPct, 0.5, 1e-9)
}

// ============================================================
// Свойства
// ============================================================

func manyVenuesData() models.AllData {
	return models.AllData{
		"AAA/USDT": {
			"v1": testSnap("v1", levels([2]float64{10, 5}, [2]float64{10.1, 5}), levels([2]float64{9.9, 5}), 0.001),
			"v2": testSnap("v2", levels([2]float64{10.2, 5}), levels([2]float64{10.15, 5}), 0.002),
			"v3": testSnap("v3", levels([2]float64{9.95, 5}), levels([2]float64{9.9, 5}), 0.001),
		},
		"BBB/USDT": {
			"v1": testSnap("v1", levels([2]float64{200, 1}), levels([2]float64{199, 1}), 0.001),
			"v3": testSnap("v3", levels([2]float64{205, 1}), levels([2]float64{204, 1}), 0.0015),
		},
	}
}

// Детерминизм: одинаковый вход даёт побайтно одинаковый выход
// (временные метки обнуляются, они берутся от часов)
func TestEngineDeterministic(t *testing.T) {
	order := []string{"v1", "v2", "v3"}
	engine := defaultEngine()

	first, _ := engine.Compute(manyVenuesData(), order)
	second, _ := engine.Compute(manyVenuesData(), order)

	for _, o := range first {
		o.Ts = 0
	}
	for _, o := range second {
		o.Ts = 0
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("engine output differs between identical runs")
	}
}

func TestEngineProperties(t *testing.T) {
	engine := NewEngine(EngineConfig{
		TradeSizeUSDT:   25,
		MinRawSpreadPct: 0,
		MinTradeUSDT:    1,
	}, testLogger())

	opps, _ := engine.Compute(manyVenuesData(), []string{"v1", "v2", "v3"})
	if len(opps) == 0 {
		t.Fatal("expected at least one opportunity")
	}

	for i, o := range opps {
		// нет арбитража с самим собой
		if o.BuyExchange == o.SellExchange {
			t.Errorf("opp %d: buy and sell venue are both %s", i, o.BuyExchange)
		}

		// согласованность прибыли
		wantNet := o.SpreadAbs*o.Quantity -
			(o.Quantity*o.BuyEffective*o.Fees.TakerBuy + o.Quantity*o.SellEffective*o.Fees.TakerSell)
		approx(t, "netProfitAbs", o.NetProfitAbs, wantNet, 1e-9)
		approx(t, "netProfitPct", o.NetProfitPct,
			o.NetProfitAbs/(o.BuyEffective*o.Quantity)*100, 1e-9)

		// границы эффективных цен: обход вглубь только ухудшает цену
		if o.BuyEffective < o.BuyPrice {
			t.Errorf("opp %d: buyEffective %v < buyPrice %v", i, o.BuyEffective, o.BuyPrice)
		}
		if o.SellEffective > o.SellPrice {
			t.Errorf("opp %d: sellEffective %v > sellPrice %v", i, o.SellEffective, o.SellPrice)
		}

		// гейты порогов
		if o.SpreadPct <= 0 {
			t.Errorf("opp %d: spreadPct %v below gate", i, o.SpreadPct)
		}
		if o.BuyEffective*o.Quantity < 1 {
			t.Errorf("opp %d: notional below MinTradeUSDT", i)
		}

		// сортировка по убыванию
		if i > 0 && opps[i-1].SpreadPct < o.SpreadPct {
			t.Errorf("opp %d: sort order violated", i)
		}

		// риск-блок неотрицателен, уверенность в [0,1]
		if o.Risk.MarketVolatility < 0 || o.Risk.ExecutionRisk < 0 ||
			o.Risk.LiquidityRisk < 0 || o.Risk.FeeRisk < 0 {
			t.Errorf("opp %d: negative risk value: %+v", i, o.Risk)
		}
		if o.Estimates.ConfidenceScore < 0 || o.Estimates.ConfidenceScore > 1 {
			t.Errorf("opp %d: confidence %v outside [0,1]", i, o.Estimates.ConfidenceScore)
		}
	}
}

// Порог спреда строгий: spreadPct должен быть БОЛЬШЕ порога
func TestEngineSpreadGateIsStrict(t *testing.T) {
	data := models.AllData{
		"ABC/USDT": {
			"v1": testSnap("v1", levels([2]float64{100, 1}), levels([2]float64{99, 1}), 0),
			"v2": testSnap("v2", levels([2]float64{102, 1}), levels([2]float64{101, 1}), 0),
		},
	}

	// v1→v2: spreadPct = (101-100)/100*100 = 1.0 ровно
	engine := NewEngine(EngineConfig{
		TradeSizeUSDT:   25,
		MinRawSpreadPct: 1.0,
		MinTradeUSDT:    1,
	}, testLogger())

	opps, counters := engine.Compute(data, []string{"v1", "v2"})
	if len(opps) != 0 {
		t.Fatalf("spreadPct == threshold must be rejected, got %d opps", len(opps))
	}
	if counters.PairsBelowSpread == 0 {
		t.Error("expected pairsBelowSpread increment")
	}
}

// Пустая сторона стакана учитывается счётчиком missingOB
func TestEngineMissingOrderBook(t *testing.T) {
	data := models.AllData{
		"ABC/USDT": {
			"v1": testSnap("v1", nil, levels([2]float64{99, 1}), 0),
			"v2": testSnap("v2", levels([2]float64{100, 1}), levels([2]float64{99.5, 1}), 0),
		},
	}

	opps, counters := defaultEngine().Compute(data, []string{"v1", "v2"})

	// v1→v2 невозможна (нет asks у v1); v2→v1 возможна по структуре
	// (asks v2, bids v1), спред (99-100)/100 < 0 → belowSpread
	if len(opps) != 0 {
		t.Fatalf("got %d opportunities, want 0", len(opps))
	}
	if counters.PairsMissingOB != 1 {
		t.Errorf("pairsMissingOB = %d, want 1", counters.PairsMissingOB)
	}
}

func BenchmarkEngineCompute(b *testing.B) {
	data := manyVenuesData()
	engine := defaultEngine()
	order := []string{"v1", "v2", "v3"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Compute(data, order)
	}
}

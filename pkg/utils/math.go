package utils

// math.go - математические утилиты ценового ядра.
//
// Здесь живут функции, у которых есть точная числовая спецификация:
// округления к шагу биржи, расчёт спреда, средневзвешенная цена и
// симуляция рыночного ордера по стакану. Движок возможностей строит
// свою экономику поверх этих примитивов.

import "math"

// RoundTo округляет value до decimals знаков после запятой
func RoundTo(value float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(value*pow) / pow
}

// RoundToLotSize округляет value вниз до кратного lotSize.
// lotSize <= 0 возвращает value без изменений.
func RoundToLotSize(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	return math.Floor(value/lotSize+1e-9) * lotSize
}

// RoundToLotSizeUp округляет value вверх до кратного lotSize
func RoundToLotSizeUp(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	return math.Ceil(value/lotSize-1e-9) * lotSize
}

// RoundToLotSizeNearest округляет value до ближайшего кратного lotSize
func RoundToLotSizeNearest(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	return math.Round(value/lotSize) * lotSize
}

// CalculateSpread возвращает спред в процентах:
// (priceHigh - priceLow) / priceLow * 100.
// priceLow <= 0 даёт 0.
func CalculateSpread(priceHigh, priceLow float64) float64 {
	if priceLow <= 0 {
		return 0
	}
	return (priceHigh - priceLow) / priceLow * 100
}

// CalculateSpreadFromPrices возвращает спред двух цен независимо
// от их порядка
func CalculateSpreadFromPrices(priceA, priceB float64) float64 {
	if priceA <= 0 || priceB <= 0 {
		return 0
	}
	if priceA >= priceB {
		return CalculateSpread(priceA, priceB)
	}
	return CalculateSpread(priceB, priceA)
}

// CalculateNetSpread возвращает чистый спред с учётом комиссий
// обеих бирж: spread - 2*(feeA + feeB) в процентных пунктах
func CalculateNetSpread(spreadPct, feeA, feeB float64) float64 {
	return spreadPct - 2*(feeA+feeB)*100
}

// CalculateWeightedAverage возвращает средневзвешенное значение.
// Отрицательные веса игнорируются; пустые или несогласованные
// входы дают 0.
func CalculateWeightedAverage(values, weights []float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}
	var sum, totalWeight float64
	for i := range values {
		if weights[i] <= 0 {
			continue
		}
		sum += values[i] * weights[i]
		totalWeight += weights[i]
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

// OrderBookLevel - уровень стакана для симуляции исполнения
type OrderBookLevel struct {
	Price  float64
	Volume float64
}

// SimulateMarketBuy проходит по asks и считает исполнение рыночной
// покупки targetVolume.
//
// Возвращает:
//   - avgPrice: средневзвешенная цена исполнения
//   - filled: исполненный объём (может быть меньше target при
//     недостаточной ликвидности)
//   - slippagePct: (avgPrice - bestAsk) / bestAsk * 100
func SimulateMarketBuy(asks []OrderBookLevel, targetVolume float64) (avgPrice, filled, slippagePct float64) {
	return walkSide(asks, targetVolume)
}

// SimulateMarketSell проходит по bids и считает исполнение рыночной
// продажи targetVolume. Slippage отрицательный: цена исполнения
// хуже (ниже) вершины стакана.
func SimulateMarketSell(bids []OrderBookLevel, targetVolume float64) (avgPrice, filled, slippagePct float64) {
	return walkSide(bids, targetVolume)
}

// walkSide потребляет уровни по порядку до исполнения target
func walkSide(levels []OrderBookLevel, target float64) (avgPrice, filled, slippagePct float64) {
	if len(levels) == 0 || target <= 0 {
		return 0, 0, 0
	}

	var cost float64
	remaining := target
	for _, l := range levels {
		if remaining <= 0 {
			break
		}
		take := l.Volume
		if take > remaining {
			take = remaining
		}
		cost += l.Price * take
		filled += take
		remaining -= take
	}

	if filled == 0 {
		return 0, 0, 0
	}

	avgPrice = cost / filled
	top := levels[0].Price
	if top > 0 {
		slippagePct = (avgPrice - top) / top * 100
	}
	return avgPrice, filled, slippagePct
}

// Clamp ограничивает value диапазоном [min, max]
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

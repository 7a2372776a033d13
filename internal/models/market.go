package models

import "time"

// Market представляет метаданные спотового рынка на бирже.
// Заполняется один раз при первом LoadMarkets и далее не меняется.
type Market struct {
	Symbol    string          `json:"symbol"` // канонический BASE/QUOTE, например BTC/USDT
	Base      string          `json:"base"`
	Quote     string          `json:"quote"`
	Active    bool            `json:"active"`
	Spot      bool            `json:"spot"`
	Maker     float64         `json:"maker"` // доля, например 0.001 = 0.1%
	Taker     float64         `json:"taker"`
	Limits    MarketLimits    `json:"limits"`
	Precision MarketPrecision `json:"precision"`
}

// MarketLimits содержит торговые ограничения биржи для рынка.
// Нулевое значение означает, что лимит биржей не задан.
type MarketLimits struct {
	MinAmount float64 `json:"minAmount"` // минимальный объём в базовой валюте
	MaxAmount float64 `json:"maxAmount"`
	MinPrice  float64 `json:"minPrice"`
	MaxPrice  float64 `json:"maxPrice"`
	MinCost   float64 `json:"minCost"` // минимальная сумма сделки в котируемой валюте
	MaxCost   float64 `json:"maxCost"`
}

// MarketPrecision - точность цены и объёма в знаках после запятой
type MarketPrecision struct {
	Price  int `json:"price"`
	Amount int `json:"amount"`
}

// Ticker содержит сводку последних цен по рынку
type Ticker struct {
	Symbol     string    `json:"symbol"`
	Last       float64   `json:"last"`
	Bid        float64   `json:"bid"`
	Ask        float64   `json:"ask"`
	BaseVolume float64   `json:"baseVolume"` // объём за 24ч в базовой валюте
	ChangePct  float64   `json:"changePct"`  // процент изменения за окно биржи; доли адаптер переводит в проценты
	Timestamp  time.Time `json:"timestamp"`
}

// PriceLevel - один уровень стакана
type PriceLevel struct {
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
}

// OrderBook представляет стакан ордеров.
// Bids отсортированы по убыванию цены, Asks - по возрастанию.
type OrderBook struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp time.Time    `json:"timestamp"`
}

// BestBid возвращает лучшую цену покупки или 0 при пустой стороне
func (ob *OrderBook) BestBid() float64 {
	if len(ob.Bids) == 0 {
		return 0
	}
	return ob.Bids[0].Price
}

// BestAsk возвращает лучшую цену продажи или 0 при пустой стороне
func (ob *OrderBook) BestAsk() float64 {
	if len(ob.Asks) == 0 {
		return 0
	}
	return ob.Asks[0].Price
}

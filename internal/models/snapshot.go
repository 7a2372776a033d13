package models

// PairPrice - ценовой блок снимка пары
type PairPrice struct {
	Last      float64 `json:"last"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Spread    float64 `json:"spread"` // ask - bid по вершине стакана
	Volume    float64 `json:"volume"` // базовый объём за 24ч
	ChangePct float64 `json:"changePct"`
}

// PairOrderBook - верхние уровни стакана для снимка пары
type PairOrderBook struct {
	BestBid float64      `json:"bestBid"`
	BestAsk float64      `json:"bestAsk"`
	Bids    []PriceLevel `json:"bids"`
	Asks    []PriceLevel `json:"asks"`
}

// PairFees - комиссии для снимка пары.
// Withdrawal/Deposit/Network не участвуют в real-time расчёте:
// модель предполагает заранее профондированные балансы.
type PairFees struct {
	Maker      float64  `json:"maker"`
	Taker      float64  `json:"taker"`
	Withdrawal *float64 `json:"withdrawal"`
	Deposit    float64  `json:"deposit"`
	Network    float64  `json:"network"`
}

// PairLimits - лимиты биржи в формате снимка
type PairLimits struct {
	MinAmount float64 `json:"minAmount"`
	MaxAmount float64 `json:"maxAmount"`
	MinPrice  float64 `json:"minPrice"`
	MaxPrice  float64 `json:"maxPrice"`
	MinCost   float64 `json:"minCost"`
	MaxCost   float64 `json:"maxCost"`
}

// PairPrecision - точность цены и объёма
type PairPrecision struct {
	Price  int `json:"price"`
	Amount int `json:"amount"`
}

// PairSnapshot - снимок рынка по одной паре (биржа, символ) за один тик.
// Инвариант: BestAsk >= BestBid при непустом стакане.
type PairSnapshot struct {
	Symbol    string        `json:"symbol"`
	Exchange  string        `json:"exchange"`
	Price     PairPrice     `json:"price"`
	OrderBook PairOrderBook `json:"orderbook"`
	Fees      PairFees      `json:"fees"`
	Limits    PairLimits    `json:"limits"`
	Precision PairPrecision `json:"precision"`
}

// AllData - успешные снимки одного тика: symbol → exchange → снимок.
// Содержит только пары с непустой вершиной стакана.
type AllData map[string]map[string]*PairSnapshot

// Snapshot - опубликованный результат тика
type Snapshot struct {
	Timestamp int64   `json:"timestamp"` // Unix ms, монотонно неубывающий
	Data      AllData `json:"data"`
}

// OpportunitiesSet - ранжированный список возможностей одного тика,
// отсортирован по убыванию SpreadPct
type OpportunitiesSet struct {
	Timestamp int64          `json:"timestamp"`
	Items     []*Opportunity `json:"items"`
}

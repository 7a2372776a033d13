package scanner

import (
	"math"
	"sort"

	"arbscan/internal/models"
	"arbscan/pkg/utils"
)

// EngineConfig - параметры движка возможностей
type EngineConfig struct {
	TradeSizeUSDT   float64 // целевой notional одной сделки
	MinRawSpreadPct float64 // порог спреда в процентах
	MinTradeUSDT    float64 // нижняя граница notional
	Debug           bool    // логировать счётчики отбраковки
}

// EngineCounters - счётчики отбраковки пар за один прогон
type EngineCounters struct {
	PairsChecked          int
	PairsMissingOB        int
	PairsInsufficientFill int
	PairsBelowSpread      int
	PairsBelowNotional    int
	PairsLimitsFail       int
}

// Engine вычисляет арбитражные возможности из AllData.
//
// Чистая функция: одинаковые вход и конфигурация дают побайтно
// одинаковый результат, включая порядок. Символы обходятся по
// алфавиту, биржи - в порядке реестра.
type Engine struct {
	cfg    EngineConfig
	logger *utils.Logger
}

// NewEngine создаёт движок
func NewEngine(cfg EngineConfig, logger *utils.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logger.WithComponent("engine"),
	}
}

// Compute строит ранжированный список возможностей.
// venueOrder задаёт порядок обхода бирж (порядок реестра).
func (e *Engine) Compute(data models.AllData, venueOrder []string) ([]*models.Opportunity, EngineCounters) {
	var counters EngineCounters

	symbols := make([]string, 0, len(data))
	for symbol := range data {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	opportunities := make([]*models.Opportunity, 0)
	for _, symbol := range symbols {
		byVenue := data[symbol]

		venues := make([]string, 0, len(byVenue))
		for _, v := range venueOrder {
			if _, ok := byVenue[v]; ok {
				venues = append(venues, v)
			}
		}

		// каждая упорядоченная пара различных бирж
		for _, buyVenue := range venues {
			for _, sellVenue := range venues {
				if buyVenue == sellVenue {
					continue
				}
				counters.PairsChecked++

				opp := e.evaluate(symbol, byVenue[buyVenue], byVenue[sellVenue], &counters)
				if opp != nil {
					opportunities = append(opportunities, opp)
				}
			}
		}
	}

	// по убыванию спреда; при равенстве сохраняется порядок вставки
	// (символ по алфавиту, биржи по реестру)
	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].SpreadPct > opportunities[j].SpreadPct
	})

	if e.cfg.Debug {
		e.logger.Debug("engine pass",
			utils.Int("pairsChecked", counters.PairsChecked),
			utils.Int("pairsMissingOB", counters.PairsMissingOB),
			utils.Int("pairsInsufficientFill", counters.PairsInsufficientFill),
			utils.Int("pairsBelowSpread", counters.PairsBelowSpread),
			utils.Int("pairsBelowNotional", counters.PairsBelowNotional),
			utils.Int("pairsLimitsFail", counters.PairsLimitsFail),
			utils.Int("opportunities", len(opportunities)),
		)
	}

	return opportunities, counters
}

// evaluate считает экономику одной направленной связки buy→sell.
// Возвращает nil если связка отбракована, соответствующий счётчик
// инкрементируется.
func (e *Engine) evaluate(symbol string, buy, sell *models.PairSnapshot, c *EngineCounters) *models.Opportunity {
	if len(buy.OrderBook.Asks) == 0 || len(sell.OrderBook.Bids) == 0 {
		c.PairsMissingOB++
		return nil
	}
	buyAsk := buy.OrderBook.Asks[0].Price
	sellBid := sell.OrderBook.Bids[0].Price
	if buyAsk <= 0 || sellBid <= 0 {
		c.PairsMissingOB++
		return nil
	}

	// целевой объём в базовой валюте
	qInt := e.cfg.TradeSizeUSDT / buyAsk

	buyEff, filledBuy, _ := utils.SimulateMarketBuy(toWalkLevels(buy.OrderBook.Asks), qInt)
	sellEff, filledSell, _ := utils.SimulateMarketSell(toWalkLevels(sell.OrderBook.Bids), qInt)
	if filledBuy <= 0 || filledSell <= 0 {
		c.PairsInsufficientFill++
		return nil
	}

	qEff := math.Min(filledBuy, filledSell)
	if qEff <= 0 {
		c.PairsInsufficientFill++
		return nil
	}

	slipBuyAbs := math.Abs(buyEff - buyAsk)
	slipSellAbs := math.Abs(sellEff - sellBid)

	spreadAbs := sellEff - buyEff
	spreadPct := spreadAbs / buyEff * 100
	if spreadPct <= e.cfg.MinRawSpreadPct {
		c.PairsBelowSpread++
		return nil
	}

	notionalBuy := buyEff * qEff
	if notionalBuy < e.cfg.MinTradeUSDT {
		c.PairsBelowNotional++
		return nil
	}

	// отсутствующая комиссия трактуется как 0
	takerBuy := buy.Fees.Taker
	takerSell := sell.Fees.Taker
	feesAbs := qEff*buyEff*takerBuy + qEff*sellEff*takerSell

	gross := spreadAbs * qEff
	net := gross - feesAbs
	netPct := net / (buyEff * qEff) * 100

	buyLiq := sumAmounts(buy.OrderBook.Asks)
	sellLiq := sumAmounts(sell.OrderBook.Bids)
	avail := math.Min(buyLiq, sellLiq)

	if !e.limitsOK(buy, sell, qEff, notionalBuy, sellEff*qEff) {
		c.PairsLimitsFail++
		return nil
	}

	grossSafe := math.Max(gross, 1e-9)

	risk := models.OpportunityRisk{
		MarketVolatility: math.Abs(buy.Price.ChangePct - sell.Price.ChangePct),
		ExecutionRisk:    utils.RoundTo(slipBuyAbs+slipSellAbs, 8),
		FeeRisk:          math.Max(0, feesAbs/grossSafe),
	}
	if qEff > avail {
		risk.LiquidityRisk = 1
	} else {
		risk.LiquidityRisk = math.Max(0, 1-avail/(qEff*5))
	}

	slipScore := math.Max(0, 1-math.Min((slipBuyAbs+slipSellAbs)/buyEff, 0.02))
	liqScore := math.Min(1, avail/(qEff*10))
	feeScore := math.Max(0, 1-math.Min(feesAbs/grossSafe, 0.9))
	confidence := utils.RoundTo(0.5*slipScore+0.3*liqScore+0.2*feeScore, 3)

	if e.cfg.Debug && net < 0 {
		e.logger.Debug("unprofitable after fees",
			utils.Symbol(symbol),
			utils.String("buy", buy.Exchange),
			utils.String("sell", sell.Exchange),
			utils.Float64("spreadPct", spreadPct),
			utils.Float64("netPct", netPct),
		)
	}

	return &models.Opportunity{
		Symbol:        symbol,
		BuyExchange:   buy.Exchange,
		SellExchange:  sell.Exchange,
		BuyPrice:      buyAsk,
		SellPrice:     sellBid,
		BuyEffective:  buyEff,
		SellEffective: sellEff,
		Quantity:      qEff,
		Volume24h:     buy.Price.Volume,
		SpreadAbs:     spreadAbs,
		SpreadPct:     spreadPct,
		Fees: models.OpportunityFees{
			TradingAbs: feesAbs,
			NetworkAbs: 0,
			TakerBuy:   takerBuy,
			TakerSell:  takerSell,
		},
		Slippage: models.OpportunitySlippage{
			BuyAbs:  slipBuyAbs,
			SellAbs: slipSellAbs,
		},
		NetProfitAbs:  net,
		NetProfitPct:  netPct,
		Liquidity:     avail,
		BuyLiquidity:  buyLiq,
		SellLiquidity: sellLiq,
		Limits: models.OpportunityLimits{
			Buy:  sideLimits(buy.Limits),
			Sell: sideLimits(sell.Limits),
		},
		Estimates: models.OpportunityEstimates{ConfidenceScore: confidence},
		Risk:      risk,
		Ts:        utils.UnixMillis(),
	}
}

// limitsOK проверяет лимиты бирж там, где они заданы (значение > 0)
func (e *Engine) limitsOK(buy, sell *models.PairSnapshot, qEff, notionalBuy, notionalSell float64) bool {
	for _, l := range []models.PairLimits{buy.Limits, sell.Limits} {
		if l.MinAmount > 0 && qEff < l.MinAmount {
			return false
		}
		if l.MaxAmount > 0 && qEff > l.MaxAmount {
			return false
		}
	}
	if buy.Limits.MinCost > 0 && notionalBuy < buy.Limits.MinCost {
		return false
	}
	if buy.Limits.MaxCost > 0 && notionalBuy > buy.Limits.MaxCost {
		return false
	}
	if sell.Limits.MinCost > 0 && notionalSell < sell.Limits.MinCost {
		return false
	}
	if sell.Limits.MaxCost > 0 && notionalSell > sell.Limits.MaxCost {
		return false
	}
	return true
}

func sideLimits(l models.PairLimits) models.SideLimits {
	return models.SideLimits{
		MinAmount: l.MinAmount,
		MaxAmount: l.MaxAmount,
		MinCost:   l.MinCost,
		MaxCost:   l.MaxCost,
	}
}

func sumAmounts(levels []models.PriceLevel) float64 {
	var total float64
	for _, l := range levels {
		total += l.Amount
	}
	return total
}

func toWalkLevels(levels []models.PriceLevel) []utils.OrderBookLevel {
	out := make([]utils.OrderBookLevel, len(levels))
	for i, l := range levels {
		out[i] = utils.OrderBookLevel{Price: l.Price, Volume: l.Amount}
	}
	return out
}

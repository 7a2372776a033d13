package scanner

import (
	"context"
	"fmt"
	"time"

	"arbscan/internal/exchange"
	"arbscan/internal/models"
	"arbscan/pkg/retry"
	"arbscan/pkg/utils"
)

// Глубина стакана в снимке пары
const orderBookDepth = 20

// FetchErrorKind классифицирует причину отсутствия снимка пары
type FetchErrorKind int

const (
	FetchUnsupportedVenue FetchErrorKind = iota
	FetchMarketsUnavailable
	FetchUnknownSymbol
	FetchInactive
	FetchNotSpot
	FetchTickerUnavailable
	FetchOrderBookUnavailable
)

// String возвращает метку причины для логов и метрик
func (k FetchErrorKind) String() string {
	switch k {
	case FetchUnsupportedVenue:
		return "unsupported_venue"
	case FetchMarketsUnavailable:
		return "markets_unavailable"
	case FetchUnknownSymbol:
		return "unknown_symbol"
	case FetchInactive:
		return "inactive"
	case FetchNotSpot:
		return "not_spot"
	case FetchTickerUnavailable:
		return "ticker_unavailable"
	case FetchOrderBookUnavailable:
		return "orderbook_unavailable"
	default:
		return "unknown"
	}
}

// FetchError - типизированный неуспех получения снимка пары.
// Тик никогда не падает из-за FetchError: пара просто отсутствует
// в AllData этого тика.
type FetchError struct {
	Kind   FetchErrorKind
	Venue  string
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Venue, e.Symbol, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PairFetcher собирает PairSnapshot для одной пары (биржа, символ)
type PairFetcher struct {
	registry *Registry
	retryCfg retry.Config
	logger   *utils.Logger
}

// NewPairFetcher создаёт PairFetcher.
//
// Retry политика: единственная повторная попытка через 1 секунду и
// только после rate-limit ошибки. Остальные ошибки сразу дают
// типизированный неуспех.
func NewPairFetcher(registry *Registry, logger *utils.Logger) *PairFetcher {
	return &PairFetcher{
		registry: registry,
		retryCfg: retry.Config{
			MaxRetries:   2,
			InitialDelay: time.Second,
			Multiplier:   1.0,
			JitterFactor: 0,
			RetryIf:      exchange.IsRateLimit,
		},
		logger: logger.WithComponent("fetcher"),
	}
}

// Fetch собирает снимок пары. Возвращает снимок либо типизированную
// причину, никогда обе.
func (f *PairFetcher) Fetch(ctx context.Context, venue, symbol string) (*models.PairSnapshot, *FetchError) {
	ex, ok := f.registry.Exchange(venue)
	if !ok {
		return nil, &FetchError{Kind: FetchUnsupportedVenue, Venue: venue, Symbol: symbol}
	}

	markets := f.registry.Markets(ctx, venue)
	if len(markets) == 0 {
		return nil, &FetchError{Kind: FetchMarketsUnavailable, Venue: venue, Symbol: symbol}
	}

	market, ok := markets[symbol]
	if !ok {
		return nil, &FetchError{Kind: FetchUnknownSymbol, Venue: venue, Symbol: symbol}
	}
	if !market.Active {
		return nil, &FetchError{Kind: FetchInactive, Venue: venue, Symbol: symbol}
	}
	if !market.Spot {
		return nil, &FetchError{Kind: FetchNotSpot, Venue: venue, Symbol: symbol}
	}

	ticker, err := retry.DoWithResult(ctx, func() (*models.Ticker, error) {
		return ex.FetchTicker(ctx, symbol)
	}, f.retryCfg)
	if err != nil {
		return nil, &FetchError{Kind: FetchTickerUnavailable, Venue: venue, Symbol: symbol, Err: err}
	}

	book, err := retry.DoWithResult(ctx, func() (*models.OrderBook, error) {
		return ex.FetchOrderBook(ctx, symbol, orderBookDepth)
	}, f.retryCfg)
	if err != nil {
		return nil, &FetchError{Kind: FetchOrderBookUnavailable, Venue: venue, Symbol: symbol, Err: err}
	}

	bestBid := book.BestBid()
	bestAsk := book.BestAsk()
	if bestBid <= 0 || bestAsk <= 0 || bestAsk < bestBid {
		// пустая сторона или перевёрнутый стакан - данные непригодны
		return nil, &FetchError{
			Kind: FetchOrderBookUnavailable, Venue: venue, Symbol: symbol,
			Err: fmt.Errorf("bad top of book: bid=%v ask=%v", bestBid, bestAsk),
		}
	}

	return &models.PairSnapshot{
		Symbol:   symbol,
		Exchange: venue,
		Price: models.PairPrice{
			Last:      ticker.Last,
			Bid:       ticker.Bid,
			Ask:       ticker.Ask,
			Spread:    ticker.Ask - ticker.Bid,
			Volume:    ticker.BaseVolume,
			ChangePct: ticker.ChangePct,
		},
		OrderBook: models.PairOrderBook{
			BestBid: bestBid,
			BestAsk: bestAsk,
			Bids:    capLevels(book.Bids, orderBookDepth),
			Asks:    capLevels(book.Asks, orderBookDepth),
		},
		Fees: models.PairFees{
			Maker:      market.Maker,
			Taker:      market.Taker,
			Withdrawal: nil,
			Deposit:    0,
			Network:    0,
		},
		Limits: models.PairLimits{
			MinAmount: market.Limits.MinAmount,
			MaxAmount: market.Limits.MaxAmount,
			MinPrice:  market.Limits.MinPrice,
			MaxPrice:  market.Limits.MaxPrice,
			MinCost:   market.Limits.MinCost,
			MaxCost:   market.Limits.MaxCost,
		},
		Precision: models.PairPrecision{
			Price:  market.Precision.Price,
			Amount: market.Precision.Amount,
		},
	}, nil
}

// capLevels обрезает стакан до n уровней
func capLevels(levels []models.PriceLevel, n int) []models.PriceLevel {
	if len(levels) > n {
		return levels[:n]
	}
	return levels
}

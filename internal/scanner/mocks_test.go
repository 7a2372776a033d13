package scanner

import (
	"context"
	"sync"

	"arbscan/internal/exchange"
	"arbscan/internal/models"
	"arbscan/pkg/utils"
)

// fakeExchange - управляемый адаптер для тестов сканера
type fakeExchange struct {
	name string

	mu sync.Mutex

	markets    map[string]*models.Market
	marketsErr error

	tickers map[string]*models.Ticker
	books   map[string]*models.OrderBook

	// очереди ошибок, отдаваемых перед успехом; позволяют проверять
	// retry поведение
	marketsErrs []error
	tickerErrs  []error
	bookErrs    []error

	marketsCalls int
	tickerCalls  int
	bookCalls    int
}

func (f *fakeExchange) GetName() string                       { return f.name }
func (f *fakeExchange) SetCredentials(_ exchange.Credentials) {}
func (f *fakeExchange) Close() error                          { return nil }

func (f *fakeExchange) LoadMarkets(_ context.Context) (map[string]*models.Market, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marketsCalls++
	if len(f.marketsErrs) > 0 {
		err := f.marketsErrs[0]
		f.marketsErrs = f.marketsErrs[1:]
		return nil, err
	}
	if f.marketsErr != nil {
		return nil, f.marketsErr
	}
	return f.markets, nil
}

func (f *fakeExchange) FetchTicker(_ context.Context, symbol string) (*models.Ticker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickerCalls++
	if len(f.tickerErrs) > 0 {
		err := f.tickerErrs[0]
		f.tickerErrs = f.tickerErrs[1:]
		return nil, err
	}
	t, ok := f.tickers[symbol]
	if !ok {
		return nil, &exchange.ExchangeError{
			Exchange: f.name, Kind: exchange.KindNotFound, Message: "no ticker",
		}
	}
	return t, nil
}

func (f *fakeExchange) FetchOrderBook(_ context.Context, symbol string, _ int) (*models.OrderBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookCalls++
	if len(f.bookErrs) > 0 {
		err := f.bookErrs[0]
		f.bookErrs = f.bookErrs[1:]
		return nil, err
	}
	b, ok := f.books[symbol]
	if !ok {
		return nil, &exchange.ExchangeError{
			Exchange: f.name, Kind: exchange.KindNotFound, Message: "no book",
		}
	}
	return b, nil
}

// activeMarket - активный спотовый USDT рынок без лимитов
func activeMarket(symbol string, taker float64) *models.Market {
	return &models.Market{
		Symbol: symbol,
		Base:   symbol[:len(symbol)-5],
		Quote:  "USDT",
		Active: true,
		Spot:   true,
		Maker:  taker,
		Taker:  taker,
	}
}

func levels(pairs ...[2]float64) []models.PriceLevel {
	out := make([]models.PriceLevel, len(pairs))
	for i, p := range pairs {
		out[i] = models.PriceLevel{Price: p[0], Amount: p[1]}
	}
	return out
}

// testSnap - снимок пары для тестов движка
func testSnap(venue string, asks, bids []models.PriceLevel, taker float64) *models.PairSnapshot {
	s := &models.PairSnapshot{
		Exchange: venue,
		Fees:     models.PairFees{Maker: taker, Taker: taker},
	}
	if len(bids) > 0 {
		s.OrderBook.BestBid = bids[0].Price
	}
	if len(asks) > 0 {
		s.OrderBook.BestAsk = asks[0].Price
	}
	s.OrderBook.Asks = asks
	s.OrderBook.Bids = bids
	return s
}

func testLogger() *utils.Logger {
	return utils.InitLogger(utils.LogConfig{Level: "error"})
}

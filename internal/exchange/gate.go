package exchange

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"arbscan/internal/models"
)

const gateBaseURL = "https://api.gateio.ws/api/v4"

// Gate реализует интерфейс Exchange для биржи Gate
type Gate struct {
	creds Credentials
	rest  *restClient
}

// NewGate создает новый экземпляр Gate
func NewGate() *Gate {
	return &Gate{
		rest: newRESTClient("gate", 10),
	}
}

func (g *Gate) GetName() string {
	return "gate"
}

func (g *Gate) SetCredentials(creds Credentials) {
	g.creds = creds
}

// native конвертирует BTC/USDT → BTC_USDT
func (g *Gate) native(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "_")
}

func (g *Gate) LoadMarkets(ctx context.Context) (map[string]*models.Market, error) {
	var resp []struct {
		ID              string `json:"id"`
		Base            string `json:"base"`
		Quote           string `json:"quote"`
		TradeStatus     string `json:"trade_status"`
		MinBaseAmount   string `json:"min_base_amount"`
		MaxBaseAmount   string `json:"max_base_amount"`
		MinQuoteAmount  string `json:"min_quote_amount"`
		MaxQuoteAmount  string `json:"max_quote_amount"`
		Fee             string `json:"fee"` // в процентах: "0.2"
		Precision       int    `json:"precision"`
		AmountPrecision int    `json:"amount_precision"`
	}

	if err := g.rest.getJSON(ctx, gateBaseURL+"/spot/currency_pairs", &resp); err != nil {
		return nil, err
	}

	markets := make(map[string]*models.Market, len(resp))
	for _, s := range resp {
		if s.Base == "" || s.Quote == "" {
			continue
		}
		fee := toFloat(s.Fee) / 100
		markets[s.Base+"/"+s.Quote] = &models.Market{
			Symbol: s.Base + "/" + s.Quote,
			Base:   s.Base,
			Quote:  s.Quote,
			Active: s.TradeStatus == "tradable",
			Spot:   true, // endpoint перечисляет только спотовые пары
			Maker:  fee,
			Taker:  fee,
			Limits: models.MarketLimits{
				MinAmount: toFloat(s.MinBaseAmount),
				MaxAmount: toFloat(s.MaxBaseAmount),
				MinCost:   toFloat(s.MinQuoteAmount),
				MaxCost:   toFloat(s.MaxQuoteAmount),
			},
			Precision: models.MarketPrecision{
				Price:  s.Precision,
				Amount: s.AmountPrecision,
			},
		}
	}

	return markets, nil
}

func (g *Gate) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	var resp []struct {
		Last             string `json:"last"`
		HighestBid       string `json:"highest_bid"`
		LowestAsk        string `json:"lowest_ask"`
		BaseVolume       string `json:"base_volume"`
		ChangePercentage string `json:"change_percentage"`
	}

	u := gateBaseURL + "/spot/tickers?currency_pair=" + url.QueryEscape(g.native(symbol))
	if err := g.rest.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, &ExchangeError{
			Exchange: "gate",
			Kind:     KindNotFound,
			Message:  fmt.Sprintf("ticker not found for %s", symbol),
		}
	}

	t := resp[0]
	return &models.Ticker{
		Symbol:     symbol,
		Last:       toFloat(t.Last),
		Bid:        toFloat(t.HighestBid),
		Ask:        toFloat(t.LowestAsk),
		BaseVolume: toFloat(t.BaseVolume),
		ChangePct:  toFloat(t.ChangePercentage),
		Timestamp:  time.Now(),
	}, nil
}

func (g *Gate) FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error) {
	if depth <= 0 {
		depth = 20
	}
	if depth > 100 {
		depth = 100
	}

	var resp struct {
		Bids [][]string `json:"bids"`
		Asks [][]string `json:"asks"`
	}

	u := fmt.Sprintf("%s/spot/order_book?currency_pair=%s&limit=%s",
		gateBaseURL, url.QueryEscape(g.native(symbol)), strconv.Itoa(depth))
	if err := g.rest.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	return &models.OrderBook{
		Symbol:    symbol,
		Bids:      parseLevels(resp.Bids, depth),
		Asks:      parseLevels(resp.Asks, depth),
		Timestamp: time.Now(),
	}, nil
}

func (g *Gate) Close() error {
	g.rest.Close()
	return nil
}

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

const (
	bybitBaseURL = "https://api.bybit.com"

	// Спотовые комиссии базового тира
	bybitMakerFee = 0.001
	bybitTakerFee = 0.001
)

// Bybit реализует интерфейс Exchange для биржи Bybit (spot, API v5)
type Bybit struct {
	creds Credentials
	rest  *restClient
}

// NewBybit создает новый экземпляр Bybit
func NewBybit() *Bybit {
	return &Bybit{
		rest: newRESTClient("bybit", 10),
	}
}

func (b *Bybit) GetName() string {
	return "bybit"
}

func (b *Bybit) SetCredentials(creds Credentials) {
	b.creds = creds
}

// native конвертирует BTC/USDT → BTCUSDT
func (b *Bybit) native(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

// checkRet валидирует retCode ответа v5, 10006/10018 - rate limit
func (b *Bybit) checkRet(retCode int, retMsg string) error {
	if retCode == 0 {
		return nil
	}
	kind := KindBadResponse
	if retCode == 10006 || retCode == 10018 {
		kind = KindRateLimit
	}
	return &ExchangeError{
		Exchange: "bybit",
		Code:     strconv.Itoa(retCode),
		Kind:     kind,
		Message:  retMsg,
	}
}

func (b *Bybit) LoadMarkets(ctx context.Context) (map[string]*models.Market, error) {
	var resp struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			List []struct {
				Symbol        string `json:"symbol"`
				BaseCoin      string `json:"baseCoin"`
				QuoteCoin     string `json:"quoteCoin"`
				Status        string `json:"status"`
				LotSizeFilter struct {
					BasePrecision  string `json:"basePrecision"`
					QuotePrecision string `json:"quotePrecision"`
					MinOrderQty    string `json:"minOrderQty"`
					MaxOrderQty    string `json:"maxOrderQty"`
					MinOrderAmt    string `json:"minOrderAmt"`
					MaxOrderAmt    string `json:"maxOrderAmt"`
				} `json:"lotSizeFilter"`
				PriceFilter struct {
					TickSize string `json:"tickSize"`
				} `json:"priceFilter"`
			} `json:"list"`
		} `json:"result"`
	}

	u := bybitBaseURL + "/v5/market/instruments-info?category=spot&limit=1000"
	if err := b.rest.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if err := b.checkRet(resp.RetCode, resp.RetMsg); err != nil {
		return nil, err
	}

	markets := make(map[string]*models.Market, len(resp.Result.List))
	for _, s := range resp.Result.List {
		if s.BaseCoin == "" || s.QuoteCoin == "" {
			continue
		}
		markets[s.BaseCoin+"/"+s.QuoteCoin] = &models.Market{
			Symbol: s.BaseCoin + "/" + s.QuoteCoin,
			Base:   s.BaseCoin,
			Quote:  s.QuoteCoin,
			Active: s.Status == "Trading",
			Spot:   true,
			Maker:  bybitMakerFee,
			Taker:  bybitTakerFee,
			Limits: models.MarketLimits{
				MinAmount: toFloat(s.LotSizeFilter.MinOrderQty),
				MaxAmount: toFloat(s.LotSizeFilter.MaxOrderQty),
				MinCost:   toFloat(s.LotSizeFilter.MinOrderAmt),
				MaxCost:   toFloat(s.LotSizeFilter.MaxOrderAmt),
			},
			Precision: models.MarketPrecision{
				Price:  precisionFromStep(s.PriceFilter.TickSize),
				Amount: precisionFromStep(s.LotSizeFilter.BasePrecision),
			},
		}
	}

	return markets, nil
}

func (b *Bybit) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	var resp struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			List []struct {
				LastPrice    string `json:"lastPrice"`
				Bid1Price    string `json:"bid1Price"`
				Ask1Price    string `json:"ask1Price"`
				Volume24h    string `json:"volume24h"`
				Price24hPcnt string `json:"price24hPcnt"` // доля, не процент
			} `json:"list"`
		} `json:"result"`
	}

	u := bybitBaseURL + "/v5/market/tickers?category=spot&symbol=" + url.QueryEscape(b.native(symbol))
	if err := b.rest.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if err := b.checkRet(resp.RetCode, resp.RetMsg); err != nil {
		return nil, err
	}
	if len(resp.Result.List) == 0 {
		return nil, &ExchangeError{
			Exchange: "bybit",
			Kind:     KindNotFound,
			Message:  fmt.Sprintf("ticker not found for %s", symbol),
		}
	}

	t := resp.Result.List[0]
	return &models.Ticker{
		Symbol:     symbol,
		Last:       toFloat(t.LastPrice),
		Bid:        toFloat(t.Bid1Price),
		Ask:        toFloat(t.Ask1Price),
		BaseVolume: toFloat(t.Volume24h),
		ChangePct:  toFloat(t.Price24hPcnt) * 100,
		Timestamp:  time.Now(),
	}, nil
}

func (b *Bybit) FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error) {
	if depth <= 0 {
		depth = 20
	}
	if depth > 200 {
		depth = 200
	}

	var resp struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			Bids [][]string `json:"b"`
			Asks [][]string `json:"a"`
		} `json:"result"`
	}

	u := fmt.Sprintf("%s/v5/market/orderbook?category=spot&symbol=%s&limit=%s",
		bybitBaseURL, url.QueryEscape(b.native(symbol)), strconv.Itoa(depth))
	if err := b.rest.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if err := b.checkRet(resp.RetCode, resp.RetMsg); err != nil {
		return nil, err
	}

	return &models.OrderBook{
		Symbol:    symbol,
		Bids:      parseLevels(resp.Result.Bids, depth),
		Asks:      parseLevels(resp.Result.Asks, depth),
		Timestamp: time.Now(),
	}, nil
}

func (b *Bybit) Close() error {
	b.rest.Close()
	return nil
}

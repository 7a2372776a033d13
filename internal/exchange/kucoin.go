package exchange

import (
	"context"
	"net/url"
	"strings"
	"time"

	"arbscan/internal/models"
)

const (
	kucoinBaseURL = "https://api.kucoin.com"
	kucoinOKCode  = "200000"

	kucoinMakerFee = 0.001
	kucoinTakerFee = 0.001
)

// Kucoin реализует интерфейс Exchange для биржи KuCoin
type Kucoin struct {
	creds Credentials
	rest  *restClient
}

// NewKucoin создает новый экземпляр KuCoin
func NewKucoin() *Kucoin {
	return &Kucoin{
		rest: newRESTClient("kucoin", 10),
	}
}

func (k *Kucoin) GetName() string {
	return "kucoin"
}

func (k *Kucoin) SetCredentials(creds Credentials) {
	k.creds = creds
}

// native конвертирует BTC/USDT → BTC-USDT
func (k *Kucoin) native(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "-")
}

// checkCode валидирует код ответа KuCoin, "429000" означает rate limit
func (k *Kucoin) checkCode(code, msg string) error {
	if code == kucoinOKCode {
		return nil
	}
	kind := KindBadResponse
	if code == "429000" {
		kind = KindRateLimit
	}
	return &ExchangeError{Exchange: "kucoin", Code: code, Kind: kind, Message: msg}
}

func (k *Kucoin) LoadMarkets(ctx context.Context) (map[string]*models.Market, error) {
	var resp struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			Symbol         string `json:"symbol"`
			BaseCurrency   string `json:"baseCurrency"`
			QuoteCurrency  string `json:"quoteCurrency"`
			EnableTrading  bool   `json:"enableTrading"`
			BaseMinSize    string `json:"baseMinSize"`
			BaseMaxSize    string `json:"baseMaxSize"`
			MinFunds       string `json:"minFunds"`
			PriceIncrement string `json:"priceIncrement"`
			BaseIncrement  string `json:"baseIncrement"`
		} `json:"data"`
	}

	if err := k.rest.getJSON(ctx, kucoinBaseURL+"/api/v2/symbols", &resp); err != nil {
		return nil, err
	}
	if err := k.checkCode(resp.Code, resp.Msg); err != nil {
		return nil, err
	}

	markets := make(map[string]*models.Market, len(resp.Data))
	for _, s := range resp.Data {
		if s.BaseCurrency == "" || s.QuoteCurrency == "" {
			continue
		}
		markets[s.BaseCurrency+"/"+s.QuoteCurrency] = &models.Market{
			Symbol: s.BaseCurrency + "/" + s.QuoteCurrency,
			Base:   s.BaseCurrency,
			Quote:  s.QuoteCurrency,
			Active: s.EnableTrading,
			Spot:   true, // endpoint отдаёт только спотовые рынки
			Maker:  kucoinMakerFee,
			Taker:  kucoinTakerFee,
			Limits: models.MarketLimits{
				MinAmount: toFloat(s.BaseMinSize),
				MaxAmount: toFloat(s.BaseMaxSize),
				MinCost:   toFloat(s.MinFunds),
			},
			Precision: models.MarketPrecision{
				Price:  precisionFromStep(s.PriceIncrement),
				Amount: precisionFromStep(s.BaseIncrement),
			},
		}
	}

	return markets, nil
}

func (k *Kucoin) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	var resp struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			Last       string `json:"last"`
			Buy        string `json:"buy"`
			Sell       string `json:"sell"`
			Vol        string `json:"vol"`
			ChangeRate string `json:"changeRate"` // доля, не процент
		} `json:"data"`
	}

	u := kucoinBaseURL + "/api/v1/market/stats?symbol=" + url.QueryEscape(k.native(symbol))
	if err := k.rest.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if err := k.checkCode(resp.Code, resp.Msg); err != nil {
		return nil, err
	}

	return &models.Ticker{
		Symbol:     symbol,
		Last:       toFloat(resp.Data.Last),
		Bid:        toFloat(resp.Data.Buy),
		Ask:        toFloat(resp.Data.Sell),
		BaseVolume: toFloat(resp.Data.Vol),
		ChangePct:  toFloat(resp.Data.ChangeRate) * 100,
		Timestamp:  time.Now(),
	}, nil
}

func (k *Kucoin) FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error) {
	if depth <= 0 || depth > 100 {
		depth = 100
	}

	// Публичный level2 доступен с фиксированной глубиной 20 или 100
	endpoint := "/api/v1/market/orderbook/level2_100"
	if depth <= 20 {
		endpoint = "/api/v1/market/orderbook/level2_20"
	}

	var resp struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			Bids [][]string `json:"bids"`
			Asks [][]string `json:"asks"`
		} `json:"data"`
	}

	u := kucoinBaseURL + endpoint + "?symbol=" + url.QueryEscape(k.native(symbol))
	if err := k.rest.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if err := k.checkCode(resp.Code, resp.Msg); err != nil {
		return nil, err
	}

	return &models.OrderBook{
		Symbol:    symbol,
		Bids:      parseLevels(resp.Data.Bids, depth),
		Asks:      parseLevels(resp.Data.Asks, depth),
		Timestamp: time.Now(),
	}, nil
}

func (k *Kucoin) Close() error {
	k.rest.Close()
	return nil
}

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
	bitgetBaseURL = "https://api.bitget.com"
	bitgetOKCode  = "00000"
)

// Bitget реализует интерфейс Exchange для биржи Bitget
type Bitget struct {
	creds Credentials
	rest  *restClient
}

// NewBitget создает новый экземпляр Bitget
func NewBitget() *Bitget {
	return &Bitget{
		rest: newRESTClient("bitget", 10),
	}
}

func (b *Bitget) GetName() string {
	return "bitget"
}

func (b *Bitget) SetCredentials(creds Credentials) {
	b.creds = creds
}

// native конвертирует BTC/USDT → BTCUSDT
func (b *Bitget) native(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

func (b *Bitget) checkCode(code, msg string) error {
	if code == bitgetOKCode {
		return nil
	}
	kind := KindBadResponse
	if code == "429" || code == "30007" {
		kind = KindRateLimit
	}
	return &ExchangeError{Exchange: "bitget", Code: code, Kind: kind, Message: msg}
}

func (b *Bitget) LoadMarkets(ctx context.Context) (map[string]*models.Market, error) {
	var resp struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			Symbol            string `json:"symbol"`
			BaseCoin          string `json:"baseCoin"`
			QuoteCoin         string `json:"quoteCoin"`
			Status            string `json:"status"`
			MakerFeeRate      string `json:"makerFeeRate"`
			TakerFeeRate      string `json:"takerFeeRate"`
			MinTradeAmount    string `json:"minTradeAmount"`
			MaxTradeAmount    string `json:"maxTradeAmount"`
			MinTradeUSDT      string `json:"minTradeUSDT"`
			PricePrecision    string `json:"pricePrecision"`
			QuantityPrecision string `json:"quantityPrecision"`
		} `json:"data"`
	}

	if err := b.rest.getJSON(ctx, bitgetBaseURL+"/api/v2/spot/public/symbols", &resp); err != nil {
		return nil, err
	}
	if err := b.checkCode(resp.Code, resp.Msg); err != nil {
		return nil, err
	}

	markets := make(map[string]*models.Market, len(resp.Data))
	for _, s := range resp.Data {
		if s.BaseCoin == "" || s.QuoteCoin == "" {
			continue
		}
		pricePrec, _ := strconv.Atoi(s.PricePrecision)
		amountPrec, _ := strconv.Atoi(s.QuantityPrecision)
		markets[s.BaseCoin+"/"+s.QuoteCoin] = &models.Market{
			Symbol: s.BaseCoin + "/" + s.QuoteCoin,
			Base:   s.BaseCoin,
			Quote:  s.QuoteCoin,
			Active: s.Status == "online",
			Spot:   true,
			Maker:  toFloat(s.MakerFeeRate),
			Taker:  toFloat(s.TakerFeeRate),
			Limits: models.MarketLimits{
				MinAmount: toFloat(s.MinTradeAmount),
				MaxAmount: toFloat(s.MaxTradeAmount),
				MinCost:   toFloat(s.MinTradeUSDT),
			},
			Precision: models.MarketPrecision{
				Price:  pricePrec,
				Amount: amountPrec,
			},
		}
	}

	return markets, nil
}

func (b *Bitget) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	var resp struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			LastPr     string `json:"lastPr"`
			BidPr      string `json:"bidPr"`
			AskPr      string `json:"askPr"`
			BaseVolume string `json:"baseVolume"`
			Change24h  string `json:"change24h"` // доля, не процент
		} `json:"data"`
	}

	u := bitgetBaseURL + "/api/v2/spot/market/tickers?symbol=" + url.QueryEscape(b.native(symbol))
	if err := b.rest.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if err := b.checkCode(resp.Code, resp.Msg); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, &ExchangeError{
			Exchange: "bitget",
			Kind:     KindNotFound,
			Message:  fmt.Sprintf("ticker not found for %s", symbol),
		}
	}

	t := resp.Data[0]
	return &models.Ticker{
		Symbol:     symbol,
		Last:       toFloat(t.LastPr),
		Bid:        toFloat(t.BidPr),
		Ask:        toFloat(t.AskPr),
		BaseVolume: toFloat(t.BaseVolume),
		ChangePct:  toFloat(t.Change24h) * 100,
		Timestamp:  time.Now(),
	}, nil
}

func (b *Bitget) FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error) {
	if depth <= 0 {
		depth = 20
	}
	if depth > 150 {
		depth = 150
	}

	var resp struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			Bids [][]string `json:"bids"`
			Asks [][]string `json:"asks"`
		} `json:"data"`
	}

	u := fmt.Sprintf("%s/api/v2/spot/market/orderbook?symbol=%s&limit=%s",
		bitgetBaseURL, url.QueryEscape(b.native(symbol)), strconv.Itoa(depth))
	if err := b.rest.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if err := b.checkCode(resp.Code, resp.Msg); err != nil {
		return nil, err
	}

	return &models.OrderBook{
		Symbol:    symbol,
		Bids:      parseLevels(resp.Data.Bids, depth),
		Asks:      parseLevels(resp.Data.Asks, depth),
		Timestamp: time.Now(),
	}, nil
}

func (b *Bitget) Close() error {
	b.rest.Close()
	return nil
}

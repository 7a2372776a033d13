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
	binanceBaseURL = "https://api.binance.com"

	// Публичный API не отдаёт комиссии аккаунта, используем базовый тир
	binanceMakerFee = 0.001
	binanceTakerFee = 0.001
)

// Binance реализует интерфейс Exchange для биржи Binance
type Binance struct {
	creds Credentials
	rest  *restClient
}

// NewBinance создает новый экземпляр Binance
func NewBinance() *Binance {
	return &Binance{
		rest: newRESTClient("binance", 10),
	}
}

func (b *Binance) GetName() string {
	return "binance"
}

func (b *Binance) SetCredentials(creds Credentials) {
	b.creds = creds
}

// native конвертирует BTC/USDT → BTCUSDT
func (b *Binance) native(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

func (b *Binance) LoadMarkets(ctx context.Context) (map[string]*models.Market, error) {
	var resp struct {
		Symbols []struct {
			Symbol                string `json:"symbol"`
			Status                string `json:"status"`
			BaseAsset             string `json:"baseAsset"`
			QuoteAsset            string `json:"quoteAsset"`
			IsSpotTradingAllowed  bool   `json:"isSpotTradingAllowed"`
			BaseAssetPrecision    int    `json:"baseAssetPrecision"`
			QuoteAssetPrecision   int    `json:"quoteAssetPrecision"`
			Filters               []struct {
				FilterType  string `json:"filterType"`
				MinQty      string `json:"minQty"`
				MaxQty      string `json:"maxQty"`
				MinPrice    string `json:"minPrice"`
				MaxPrice    string `json:"maxPrice"`
				TickSize    string `json:"tickSize"`
				StepSize    string `json:"stepSize"`
				MinNotional string `json:"minNotional"`
				MaxNotional string `json:"maxNotional"`
			} `json:"filters"`
		} `json:"symbols"`
	}

	if err := b.rest.getJSON(ctx, binanceBaseURL+"/api/v3/exchangeInfo", &resp); err != nil {
		return nil, err
	}

	markets := make(map[string]*models.Market, len(resp.Symbols))
	for _, s := range resp.Symbols {
		if s.BaseAsset == "" || s.QuoteAsset == "" {
			continue
		}
		m := &models.Market{
			Symbol: s.BaseAsset + "/" + s.QuoteAsset,
			Base:   s.BaseAsset,
			Quote:  s.QuoteAsset,
			Active: s.Status == "TRADING",
			Spot:   s.IsSpotTradingAllowed,
			Maker:  binanceMakerFee,
			Taker:  binanceTakerFee,
			Precision: models.MarketPrecision{
				Price:  s.QuoteAssetPrecision,
				Amount: s.BaseAssetPrecision,
			},
		}
		for _, f := range s.Filters {
			switch f.FilterType {
			case "LOT_SIZE":
				m.Limits.MinAmount = toFloat(f.MinQty)
				m.Limits.MaxAmount = toFloat(f.MaxQty)
				if f.StepSize != "" {
					m.Precision.Amount = precisionFromStep(f.StepSize)
				}
			case "PRICE_FILTER":
				m.Limits.MinPrice = toFloat(f.MinPrice)
				m.Limits.MaxPrice = toFloat(f.MaxPrice)
				if f.TickSize != "" {
					m.Precision.Price = precisionFromStep(f.TickSize)
				}
			case "NOTIONAL", "MIN_NOTIONAL":
				m.Limits.MinCost = toFloat(f.MinNotional)
				m.Limits.MaxCost = toFloat(f.MaxNotional)
			}
		}
		markets[m.Symbol] = m
	}

	return markets, nil
}

func (b *Binance) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	var resp struct {
		LastPrice          string `json:"lastPrice"`
		BidPrice           string `json:"bidPrice"`
		AskPrice           string `json:"askPrice"`
		Volume             string `json:"volume"`
		PriceChangePercent string `json:"priceChangePercent"`
	}

	u := binanceBaseURL + "/api/v3/ticker/24hr?symbol=" + url.QueryEscape(b.native(symbol))
	if err := b.rest.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	return &models.Ticker{
		Symbol:     symbol,
		Last:       toFloat(resp.LastPrice),
		Bid:        toFloat(resp.BidPrice),
		Ask:        toFloat(resp.AskPrice),
		BaseVolume: toFloat(resp.Volume),
		ChangePct:  toFloat(resp.PriceChangePercent),
		Timestamp:  time.Now(),
	}, nil
}

func (b *Binance) FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error) {
	if depth <= 0 {
		depth = 20
	}
	if depth > 5000 {
		depth = 5000
	}

	var resp struct {
		Bids [][]string `json:"bids"`
		Asks [][]string `json:"asks"`
	}

	u := fmt.Sprintf("%s/api/v3/depth?symbol=%s&limit=%s",
		binanceBaseURL, url.QueryEscape(b.native(symbol)), strconv.Itoa(depth))
	if err := b.rest.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	return &models.OrderBook{
		Symbol:    symbol,
		Bids:      parseLevels(resp.Bids, depth),
		Asks:      parseLevels(resp.Asks, depth),
		Timestamp: time.Now(),
	}, nil
}

func (b *Binance) Close() error {
	b.rest.Close()
	return nil
}

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

const mexcBaseURL = "https://api.mexc.com"

// Mexc реализует интерфейс Exchange для биржи MEXC.
// API совместим с Binance v3 по форме, но отличается статусами
// и отдаёт комиссии прямо в exchangeInfo.
type Mexc struct {
	creds Credentials
	rest  *restClient
}

// NewMexc создает новый экземпляр MEXC
func NewMexc() *Mexc {
	return &Mexc{
		rest: newRESTClient("mexc", 10),
	}
}

func (m *Mexc) GetName() string {
	return "mexc"
}

func (m *Mexc) SetCredentials(creds Credentials) {
	m.creds = creds
}

// native конвертирует BTC/USDT → BTCUSDT
func (m *Mexc) native(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

func (m *Mexc) LoadMarkets(ctx context.Context) (map[string]*models.Market, error) {
	var resp struct {
		Symbols []struct {
			Symbol               string `json:"symbol"`
			Status               string `json:"status"` // "1" = trading
			BaseAsset            string `json:"baseAsset"`
			QuoteAsset           string `json:"quoteAsset"`
			IsSpotTradingAllowed bool   `json:"isSpotTradingAllowed"`
			MakerCommission      string `json:"makerCommission"`
			TakerCommission      string `json:"takerCommission"`
			BaseSizePrecision    string `json:"baseSizePrecision"`
			QuotePrecision       int    `json:"quotePrecision"`
			QuoteAmountPrecision string `json:"quoteAmountPrecision"` // минимальный notional
			MaxQuoteAmount       string `json:"maxQuoteAmount"`
		} `json:"symbols"`
	}

	if err := m.rest.getJSON(ctx, mexcBaseURL+"/api/v3/exchangeInfo", &resp); err != nil {
		return nil, err
	}

	markets := make(map[string]*models.Market, len(resp.Symbols))
	for _, s := range resp.Symbols {
		if s.BaseAsset == "" || s.QuoteAsset == "" {
			continue
		}
		markets[s.BaseAsset+"/"+s.QuoteAsset] = &models.Market{
			Symbol: s.BaseAsset + "/" + s.QuoteAsset,
			Base:   s.BaseAsset,
			Quote:  s.QuoteAsset,
			Active: s.Status == "1" || s.Status == "ENABLED",
			Spot:   s.IsSpotTradingAllowed,
			Maker:  toFloat(s.MakerCommission),
			Taker:  toFloat(s.TakerCommission),
			Limits: models.MarketLimits{
				MinAmount: toFloat(s.BaseSizePrecision),
				MinCost:   toFloat(s.QuoteAmountPrecision),
				MaxCost:   toFloat(s.MaxQuoteAmount),
			},
			Precision: models.MarketPrecision{
				Price:  s.QuotePrecision,
				Amount: precisionFromStep(s.BaseSizePrecision),
			},
		}
	}

	return markets, nil
}

func (m *Mexc) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	var resp struct {
		LastPrice          string `json:"lastPrice"`
		BidPrice           string `json:"bidPrice"`
		AskPrice           string `json:"askPrice"`
		Volume             string `json:"volume"`
		PriceChangePercent string `json:"priceChangePercent"` // доля, не процент
	}

	u := mexcBaseURL + "/api/v3/ticker/24hr?symbol=" + url.QueryEscape(m.native(symbol))
	if err := m.rest.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	return &models.Ticker{
		Symbol:     symbol,
		Last:       toFloat(resp.LastPrice),
		Bid:        toFloat(resp.BidPrice),
		Ask:        toFloat(resp.AskPrice),
		BaseVolume: toFloat(resp.Volume),
		ChangePct:  toFloat(resp.PriceChangePercent) * 100,
		Timestamp:  time.Now(),
	}, nil
}

func (m *Mexc) FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error) {
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
		mexcBaseURL, url.QueryEscape(m.native(symbol)), strconv.Itoa(depth))
	if err := m.rest.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	return &models.OrderBook{
		Symbol:    symbol,
		Bids:      parseLevels(resp.Bids, depth),
		Asks:      parseLevels(resp.Asks, depth),
		Timestamp: time.Now(),
	}, nil
}

func (m *Mexc) Close() error {
	m.rest.Close()
	return nil
}

// Package scanner содержит ядро сканера: реестр рынков, сборку снимков
// пар, планировщик тиков и движок возможностей.
package scanner

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"arbscan/internal/exchange"
	"arbscan/internal/models"
	"arbscan/pkg/retry"
	"arbscan/pkg/utils"
)

// Registry хранит адаптеры бирж и кэш метаданных рынков.
//
// Кэш ленивый и write-once: первый LoadMarkets для биржи фиксирует
// результат (пустой при ошибке) на всё время жизни процесса. Свежесть
// комиссий и лимитов приносится в жертву латентности устойчивого
// состояния; обновление - только рестарт процесса.
type Registry struct {
	exchanges map[string]exchange.Exchange
	order     []string // порядок реестра, определяет порядок обхода движком

	mu      sync.Mutex
	markets map[string]map[string]*models.Market
	once    map[string]*sync.Once

	retryCfg retry.Config
	logger   *utils.Logger
}

// NewRegistry создаёт реестр из адаптеров.
// Порядок списка сохраняется и используется как порядок обхода бирж.
func NewRegistry(exchanges []exchange.Exchange, logger *utils.Logger) *Registry {
	r := &Registry{
		exchanges: make(map[string]exchange.Exchange, len(exchanges)),
		order:     make([]string, 0, len(exchanges)),
		markets:   make(map[string]map[string]*models.Market),
		once:      make(map[string]*sync.Once),
		// как и в PairFetcher: единственный повтор через секунду
		// и только после rate-limit ошибки
		retryCfg: retry.Config{
			MaxRetries:   2,
			InitialDelay: time.Second,
			Multiplier:   1.0,
			JitterFactor: 0,
			RetryIf:      exchange.IsRateLimit,
		},
		logger: logger.WithComponent("registry"),
	}
	for _, ex := range exchanges {
		name := ex.GetName()
		if _, dup := r.exchanges[name]; dup {
			continue
		}
		r.exchanges[name] = ex
		r.order = append(r.order, name)
		r.once[name] = &sync.Once{}
	}
	return r
}

// Exchange возвращает адаптер по имени биржи
func (r *Registry) Exchange(venue string) (exchange.Exchange, bool) {
	ex, ok := r.exchanges[venue]
	return ex, ok
}

// Venues возвращает имена бирж в порядке реестра
func (r *Registry) Venues() []string {
	return r.order
}

// Markets возвращает кэшированные метаданные рынков биржи,
// при первом обращении загружая их через адаптер.
// Неизвестная биржа или неудачная загрузка дают пустую карту.
func (r *Registry) Markets(ctx context.Context, venue string) map[string]*models.Market {
	ex, ok := r.exchanges[venue]
	if !ok {
		return nil
	}

	r.mu.Lock()
	once := r.once[venue]
	r.mu.Unlock()

	once.Do(func() {
		// результат фиксируется навсегда, поэтому rate-limit на первом
		// запросе даёт одну повторную попытку прежде чем кэшировать
		// пустую карту
		markets, err := retry.DoWithResult(ctx, func() (map[string]*models.Market, error) {
			return ex.LoadMarkets(ctx)
		}, r.retryCfg)
		if err != nil {
			r.logger.Warn("load markets failed",
				utils.Exchange(venue), utils.Err(err))
			markets = map[string]*models.Market{}
		} else {
			r.logger.Info("markets loaded",
				utils.Exchange(venue), utils.Int("count", len(markets)))
		}
		r.mu.Lock()
		r.markets[venue] = markets
		r.mu.Unlock()
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.markets[venue]
}

// USDTSpotSymbols возвращает отсортированные символы биржи,
// котируемые в USDT, активные и спотовые
func (r *Registry) USDTSpotSymbols(ctx context.Context, venue string) []string {
	markets := r.Markets(ctx, venue)
	symbols := make([]string, 0, len(markets))
	for symbol, m := range markets {
		if !strings.HasSuffix(symbol, "/USDT") {
			continue
		}
		if !m.Active || !m.Spot {
			continue
		}
		if utils.ValidateSymbol(symbol) != nil {
			continue
		}
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// CommonUSDTSymbols возвращает отсортированные символы, торгуемые
// как активный USDT спот минимум на двух биржах.
// Пустой результат - валидное состояние, символы не выдумываются.
func (r *Registry) CommonUSDTSymbols(ctx context.Context) []string {
	counts := make(map[string]int)
	for _, venue := range r.order {
		for _, symbol := range r.USDTSpotSymbols(ctx, venue) {
			counts[symbol]++
		}
	}

	common := make([]string, 0, len(counts))
	for symbol, n := range counts {
		if n >= 2 {
			common = append(common, symbol)
		}
	}
	sort.Strings(common)
	return common
}

// Close закрывает все адаптеры
func (r *Registry) Close() {
	for _, ex := range r.exchanges {
		_ = ex.Close()
	}
}

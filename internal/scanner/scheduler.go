package scanner

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"arbscan/internal/models"
	"arbscan/pkg/utils"
)

// Одновременных запросов к одной бирже внутри тика.
// Держится ниже burst ёмкости лимитера адаптера, чтобы fan-out
// не выедал ведро одним махом.
const maxConcurrentPerVenue = 8

// Broadcaster получает полный ранжированный список после каждого тика.
// Реализация не должна блокировать: медленные подписчики - её забота.
type Broadcaster interface {
	BroadcastOpportunities(items []*models.Opportunity)
}

// SchedulerConfig - параметры планировщика
type SchedulerConfig struct {
	Interval  time.Duration // пауза от завершения тика до старта следующего
	BatchSize int           // символов за тик
}

// Scanner - долгоживущий цикл сканирования.
//
// Каждый тик: батч символов по round-robin курсору, параллельный
// fan-out batch × биржи, агрегация успехов в AllData, прогон движка,
// публикация в Store и broadcast. Частичные неудачи не прерывают тик.
type Scanner struct {
	cfg         SchedulerConfig
	registry    *Registry
	fetcher     *PairFetcher
	engine      *Engine
	store       *Store
	broadcaster Broadcaster // может быть nil
	logger      *utils.Logger

	universe  []string
	scanIndex int
	sems      map[string]*semaphore.Weighted
}

// NewScanner создаёт планировщик
func NewScanner(
	cfg SchedulerConfig,
	registry *Registry,
	fetcher *PairFetcher,
	engine *Engine,
	store *Store,
	broadcaster Broadcaster,
	logger *utils.Logger,
) *Scanner {
	sems := make(map[string]*semaphore.Weighted)
	for _, venue := range registry.Venues() {
		sems[venue] = semaphore.NewWeighted(maxConcurrentPerVenue)
	}
	return &Scanner{
		cfg:         cfg,
		registry:    registry,
		fetcher:     fetcher,
		engine:      engine,
		store:       store,
		broadcaster: broadcaster,
		logger:      logger.WithComponent("scanner"),
		sems:        sems,
	}
}

// Run крутит цикл тиков до отмены контекста.
// Первый тик выполняется сразу; последующие стартуют через Interval
// после завершения предыдущего, поэтому тики не накладываются.
func (s *Scanner) Run(ctx context.Context) {
	s.logger.Info("scanner started",
		utils.Int("batchSize", s.cfg.BatchSize),
		utils.String("interval", s.cfg.Interval.String()),
	)

	for {
		start := time.Now()
		s.Tick(ctx)
		ScanTickDuration.Observe(time.Since(start).Seconds())
		ScanTicksTotal.Inc()

		select {
		case <-ctx.Done():
			s.logger.Info("scanner stopped")
			return
		case <-time.After(s.cfg.Interval):
		}
	}
}

// Tick выполняет одну итерацию сканирования
func (s *Scanner) Tick(ctx context.Context) {
	if len(s.universe) == 0 {
		s.universe = s.registry.CommonUSDTSymbols(ctx)
		UniverseSize.Set(float64(len(s.universe)))
		if len(s.universe) == 0 {
			s.logger.Warn("symbol universe is empty, nothing to scan")
			return
		}
		s.logger.Info("symbol universe computed", utils.Int("size", len(s.universe)))
	}

	batch := s.nextBatch()
	venues := s.registry.Venues()

	type fetchResult struct {
		symbol string
		venue  string
		snap   *models.PairSnapshot
	}

	results := make(chan fetchResult, len(batch)*len(venues))
	var wg sync.WaitGroup

	for _, symbol := range batch {
		for _, venue := range venues {
			wg.Add(1)
			go func(symbol, venue string) {
				defer wg.Done()

				sem := s.sems[venue]
				if err := sem.Acquire(ctx, 1); err != nil {
					return
				}
				defer sem.Release(1)

				snap, ferr := s.fetcher.Fetch(ctx, venue, symbol)
				if ferr != nil {
					PairFetchesTotal.WithLabelValues(venue, ferr.Kind.String()).Inc()
					s.logger.Debug("pair fetch failed",
						utils.Exchange(venue), utils.Symbol(symbol),
						utils.String("reason", ferr.Kind.String()),
					)
					return
				}
				PairFetchesTotal.WithLabelValues(venue, "ok").Inc()
				results <- fetchResult{symbol: symbol, venue: venue, snap: snap}
			}(symbol, venue)
		}
	}

	wg.Wait()
	close(results)

	all := make(models.AllData)
	for r := range results {
		if r.snap.OrderBook.BestBid <= 0 || r.snap.OrderBook.BestAsk <= 0 {
			continue
		}
		byVenue, ok := all[r.symbol]
		if !ok {
			byVenue = make(map[string]*models.PairSnapshot, len(venues))
			all[r.symbol] = byVenue
		}
		byVenue[r.venue] = r.snap
	}

	opportunities, counters := s.engine.Compute(all, venues)
	observeCounters(counters)
	OpportunitiesFound.Set(float64(len(opportunities)))

	s.store.Publish(all, opportunities)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastOpportunities(opportunities)
	}

	s.logger.Debug("tick complete",
		utils.Int("batch", len(batch)),
		utils.Int("symbols", len(all)),
		utils.Int("opportunities", len(opportunities)),
	)
}

// nextBatch возвращает очередной батч вселенной и сдвигает курсор,
// с переходом на начало после конца списка
func (s *Scanner) nextBatch() []string {
	end := s.scanIndex + s.cfg.BatchSize
	if end > len(s.universe) {
		end = len(s.universe)
	}
	batch := s.universe[s.scanIndex:end]

	s.scanIndex = end
	if s.scanIndex >= len(s.universe) {
		s.scanIndex = 0
	}
	return batch
}

package scanner

import (
	"sync"

	"arbscan/internal/models"
	"arbscan/pkg/utils"
)

// Store - хранилище последнего опубликованного состояния сканера.
//
// Один писатель (планировщик), много читателей. Публикация - замена
// целых объектов под одной блокировкой, поэтому читатель никогда не
// видит снимок с частью бирж от старого тика. Истории нет.
type Store struct {
	mu            sync.RWMutex
	snapshot      *models.Snapshot
	opportunities *models.OpportunitiesSet
	lastTs        int64
}

// NewStore создаёт пустое хранилище
func NewStore() *Store {
	return &Store{}
}

// Publish атомарно публикует результат тика.
// Временная метка монотонно неубывающая даже при сдвиге часов назад.
func (s *Store) Publish(data models.AllData, items []*models.Opportunity) {
	ts := utils.UnixMillis()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ts < s.lastTs {
		ts = s.lastTs
	}
	s.lastTs = ts

	s.snapshot = &models.Snapshot{Timestamp: ts, Data: data}
	s.opportunities = &models.OpportunitiesSet{Timestamp: ts, Items: items}
}

// LatestSnapshot возвращает последний снимок.
// ok=false пока не было ни одной публикации.
func (s *Store) LatestSnapshot() (*models.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.snapshot != nil
}

// LatestOpportunities возвращает последний список возможностей.
// ok=false пока не было ни одной публикации.
func (s *Store) LatestOpportunities() (*models.OpportunitiesSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opportunities, s.opportunities != nil
}

package scanner

import (
	"sync"
	"testing"

	"arbscan/internal/models"
)

func TestStoreEmptyUntilFirstPublish(t *testing.T) {
	store := NewStore()

	if _, ok := store.LatestSnapshot(); ok {
		t.Error("LatestSnapshot ok before first publish")
	}
	if _, ok := store.LatestOpportunities(); ok {
		t.Error("LatestOpportunities ok before first publish")
	}
}

func TestStorePublishAndRead(t *testing.T) {
	store := NewStore()

	data := models.AllData{
		"BTC/USDT": {"exA": &models.PairSnapshot{Symbol: "BTC/USDT", Exchange: "exA"}},
	}
	items := []*models.Opportunity{{Symbol: "BTC/USDT"}}

	store.Publish(data, items)

	snap, ok := store.LatestSnapshot()
	if !ok {
		t.Fatal("LatestSnapshot not ok after publish")
	}
	if len(snap.Data) != 1 || snap.Timestamp <= 0 {
		t.Errorf("snapshot = %+v", snap)
	}

	opps, ok := store.LatestOpportunities()
	if !ok {
		t.Fatal("LatestOpportunities not ok after publish")
	}
	if len(opps.Items) != 1 {
		t.Errorf("items = %d, want 1", len(opps.Items))
	}
	if opps.Timestamp != snap.Timestamp {
		t.Errorf("timestamps differ within one publish: %d vs %d",
			opps.Timestamp, snap.Timestamp)
	}
}

func TestStoreTimestampsMonotone(t *testing.T) {
	store := NewStore()

	var last int64
	for i := 0; i < 100; i++ {
		store.Publish(models.AllData{}, nil)
		snap, _ := store.LatestSnapshot()
		if snap.Timestamp < last {
			t.Fatalf("timestamp went backwards: %d after %d", snap.Timestamp, last)
		}
		last = snap.Timestamp
	}
}

// Читатель видит только целиком опубликованные снимки, никогда смесь
func TestStorePublicationAtomicity(t *testing.T) {
	store := NewStore()

	published := []models.AllData{
		{"A/USDT": {"v1": &models.PairSnapshot{Exchange: "v1"}}},
		{
			"A/USDT": {"v1": &models.PairSnapshot{Exchange: "v1"}},
			"B/USDT": {"v2": &models.PairSnapshot{Exchange: "v2"}},
		},
	}

	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5000; i++ {
			store.Publish(published[i%2], nil)
		}
		close(done)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap, ok := store.LatestSnapshot()
				if !ok {
					continue
				}
				// снимок обязан совпадать с одним из опубликованных
				// вариантов по составу символов
				switch len(snap.Data) {
				case 1:
					if _, ok := snap.Data["A/USDT"]; !ok {
						t.Error("partial snapshot observed")
						return
					}
				case 2:
				default:
					t.Errorf("snapshot with %d symbols observed", len(snap.Data))
					return
				}
			}
		}()
	}

	wg.Wait()
}

package handlers

import (
	stdjson "encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"arbscan/internal/models"
	"arbscan/internal/scanner"
)

func TestSnapshotHandlerNotReady(t *testing.T) {
	handler := NewSnapshotHandler(scanner.NewStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil)
	rec := httptest.NewRecorder()
	handler.GetSnapshot(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var resp ErrorResponse
	if err := stdjson.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if resp.Error == "" {
		t.Error("empty error message")
	}
}

func TestSnapshotHandlerReturnsPublished(t *testing.T) {
	store := scanner.NewStore()
	store.Publish(models.AllData{
		"BTC/USDT": {"gate": &models.PairSnapshot{Symbol: "BTC/USDT", Exchange: "gate"}},
	}, nil)

	handler := NewSnapshotHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil)
	rec := httptest.NewRecorder()
	handler.GetSnapshot(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}

	var snap models.Snapshot
	if err := stdjson.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if snap.Timestamp <= 0 {
		t.Error("timestamp missing")
	}
	if _, ok := snap.Data["BTC/USDT"]; !ok {
		t.Error("snapshot data missing symbol")
	}
}

func TestOpportunityHandlerNotReady(t *testing.T) {
	handler := NewOpportunityHandler(scanner.NewStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/opportunities", nil)
	rec := httptest.NewRecorder()
	handler.GetOpportunities(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestOpportunityHandlerReturnsRankedList(t *testing.T) {
	store := scanner.NewStore()
	store.Publish(models.AllData{}, []*models.Opportunity{
		{Symbol: "BTC/USDT", BuyExchange: "gate", SellExchange: "bybit", SpreadPct: 1.2},
		{Symbol: "ETH/USDT", BuyExchange: "mexc", SellExchange: "kucoin", SpreadPct: 0.4},
	})

	handler := NewOpportunityHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/opportunities", nil)
	rec := httptest.NewRecorder()
	handler.GetOpportunities(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var set models.OpportunitiesSet
	if err := stdjson.Unmarshal(rec.Body.Bytes(), &set); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(set.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(set.Items))
	}
	if set.Items[0].SpreadPct < set.Items[1].SpreadPct {
		t.Error("ranking lost in response")
	}
}

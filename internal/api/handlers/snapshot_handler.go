package handlers

import (
	"net/http"

	"arbscan/internal/scanner"
)

// SnapshotHandler отдаёт последний опубликованный снимок рынков
type SnapshotHandler struct {
	store *scanner.Store
}

// NewSnapshotHandler создаёт SnapshotHandler
func NewSnapshotHandler(store *scanner.Store) *SnapshotHandler {
	return &SnapshotHandler{store: store}
}

// GetSnapshot обрабатывает GET /api/v1/snapshot.
// До первой публикации возвращает 503: данных ещё нет.
func (h *SnapshotHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.store.LatestSnapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "snapshot not ready")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

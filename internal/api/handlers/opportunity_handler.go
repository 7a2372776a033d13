package handlers

import (
	"net/http"

	"arbscan/internal/scanner"
)

// OpportunityHandler отдаёт последний ранжированный список возможностей
type OpportunityHandler struct {
	store *scanner.Store
}

// NewOpportunityHandler создаёт OpportunityHandler
func NewOpportunityHandler(store *scanner.Store) *OpportunityHandler {
	return &OpportunityHandler{store: store}
}

// GetOpportunities обрабатывает GET /api/v1/opportunities.
// До первой публикации возвращает 503: данных ещё нет.
func (h *OpportunityHandler) GetOpportunities(w http.ResponseWriter, r *http.Request) {
	opportunities, ok := h.store.LatestOpportunities()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "opportunities not ready")
		return
	}
	writeJSON(w, http.StatusOK, opportunities)
}

package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/tabtrail/tabtrail/pkg/models"
)

// Analyze handles POST /v1/analyze: classify every open tab. The store is
// not held while the model call runs; only the resulting suggestion batch
// re-acquires it. A failed call leaves the store untouched.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if !h.analyzing.TryAcquire(1) {
		http.Error(w, "Analysis already in progress", http.StatusConflict)
		return
	}
	defer h.analyzing.Release(1)

	tabs := h.store.OpenTabs()
	settings := h.settings.Get()

	suggestions, err := h.ai.Classify(r.Context(), tabs, settings)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	h.engine.ApplySuggestions(suggestions)
	h.persistTabs()

	writeJSON(w, h.store.OpenTabs())
}

// AnalyzeBatch handles POST /v1/analyze/batch: classify up to limit open
// tabs that have no suggestion yet. The limit comes from the request body,
// falling back to the configured batch size.
func (h *Handler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	if !h.analyzing.TryAcquire(1) {
		http.Error(w, "Analysis already in progress", http.StatusConflict)
		return
	}
	defer h.analyzing.Release(1)

	settings := h.settings.Get()

	req := struct {
		Limit int `json:"limit"`
	}{}
	json.NewDecoder(r.Body).Decode(&req)
	if req.Limit <= 0 {
		req.Limit = settings.AnalyzeBatchSize
	}
	if req.Limit <= 0 {
		req.Limit = models.DefaultSettings().AnalyzeBatchSize
	}

	var batch []models.TabRecord
	for _, tab := range h.store.OpenTabs() {
		if tab.Suggestion != nil {
			continue
		}
		batch = append(batch, tab)
		if len(batch) == req.Limit {
			break
		}
	}

	if len(batch) == 0 {
		writeJSON(w, map[string]interface{}{
			"analyzed": 0,
			"tabs":     h.store.OpenTabs(),
		})
		return
	}

	suggestions, err := h.ai.Classify(r.Context(), batch, settings)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	h.engine.ApplySuggestions(suggestions)
	h.persistTabs()

	writeJSON(w, map[string]interface{}{
		"analyzed": len(batch),
		"tabs":     h.store.OpenTabs(),
	})
}

// GenerateReport handles POST /v1/report: summarize today's tabs and
// overwrite the held report.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	tabs := h.store.TodayTabs()
	settings := h.settings.Get()

	content, err := h.ai.Report(r.Context(), tabs, settings)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	report := models.DailyReport{
		Date:        time.Now().Format("2006-01-02"),
		Content:     content,
		GeneratedAt: time.Now().UnixMilli(),
	}

	if err := h.reports.Set(&report); err != nil {
		log.Printf("[api] failed to persist report: %v", err)
	}

	writeJSON(w, report)
}

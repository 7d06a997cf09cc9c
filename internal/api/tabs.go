package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tabtrail/tabtrail/internal/command"
	"github.com/tabtrail/tabtrail/pkg/models"
)

// ListOpenTabs handles GET /v1/tabs
func (h *Handler) ListOpenTabs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.OpenTabs())
}

// ListTodayTabs handles GET /v1/tabs/today
func (h *Handler) ListTodayTabs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.TodayTabs())
}

// ListTodayClosedTabs handles GET /v1/tabs/closed
func (h *Handler) ListTodayClosedTabs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.TodayClosedTabs())
}

// GetStats handles GET /v1/tabs/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	total, open, closed := h.store.Stats()
	writeJSON(w, map[string]int{
		"total":  total,
		"open":   open,
		"closed": closed,
	})
}

// CloseTab handles POST /v1/tabs/{id}/close. The browser gets told to
// close the real tab first, then the record is marked closed locally.
func (h *Handler) CloseTab(w http.ResponseWriter, r *http.Request) {
	id, err := tabID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.hub.Publish(fmt.Sprintf("%s%d", command.CloseTabPrefix, id))

	h.engine.CloseTab(id)
	h.persistTabs()

	w.WriteHeader(http.StatusNoContent)
}

// MarkKeep handles POST /v1/tabs/{id}/keep
func (h *Handler) MarkKeep(w http.ResponseWriter, r *http.Request) {
	id, err := tabID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.engine.MarkKeep(id)
	h.persistTabs()

	w.WriteHeader(http.StatusNoContent)
}

// GetSettings handles GET /v1/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.settings.Get())
}

// SaveSettings handles PUT /v1/settings, replacing the whole document.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.settings.Replace(settings); err != nil {
		log.Printf("[api] failed to persist settings: %v", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearSuggestions handles DELETE /v1/suggestions
func (h *Handler) ClearSuggestions(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearSuggestions()
	h.persistTabs()

	w.WriteHeader(http.StatusNoContent)
}

// ClearData handles DELETE /v1/data: wipes records, blobs, and the report.
func (h *Handler) ClearData(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearData()
	h.persistTabs()
	if err := h.reports.Set(nil); err != nil {
		log.Printf("[api] failed to persist report: %v", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// Cleanup handles POST /v1/cleanup with an optional {"days": n} body.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Days int `json:"days"`
	}{Days: 7}
	json.NewDecoder(r.Body).Decode(&req)
	if req.Days <= 0 {
		req.Days = 7
	}

	count := h.engine.Cleanup(req.Days)
	if count > 0 {
		h.persistTabs()
	}

	writeJSON(w, map[string]int{"removed": count})
}

// TriggerRefresh handles POST /v1/refresh, asking connected extensions to
// re-report all tabs.
func (h *Handler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	delivered := h.hub.Publish(command.RefreshAll)
	if delivered == 0 {
		http.Error(w, "No extension connected", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, map[string]int{"delivered": delivered})
}

// GetReport handles GET /v1/report
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.reports.Get()
	if !ok {
		http.Error(w, "No report generated yet", http.StatusNotFound)
		return
	}
	writeJSON(w, report)
}

func tabID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid tab id")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

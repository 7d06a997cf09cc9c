package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/tabtrail/tabtrail/pkg/models"
)

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": "0.1.0",
	})
}

// HandleEvent handles POST /event: one lifecycle event from the extension.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var event models.TabEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.engine.ApplyEvent(event)
	h.persistTabs()

	w.WriteHeader(http.StatusOK)
}

// HandleCapture handles POST /capture: a full page capture with optional
// screenshot.
func (h *Handler) HandleCapture(w http.ResponseWriter, r *http.Request) {
	var payload models.CapturePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.engine.ApplyCapture(payload)
	h.persistTabs()

	w.WriteHeader(http.StatusOK)
}

// HandleSync handles POST /sync: drift correction against the browser's
// list of truly open tab ids.
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	var payload models.SyncPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	count := h.engine.SyncWithBrowser(payload.TabIDs)
	if count > 0 {
		h.persistTabs()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"synced": count})
}

// ServeScreenshot handles GET /screenshot/{filename}
func (h *Handler) ServeScreenshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	filename := filepath.Base(vars["filename"])

	path := filepath.Join(h.snaps.Dir(), filename)

	data, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, "Screenshot not found", http.StatusNotFound)
		return
	}

	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(filename, ".jpg"), strings.HasSuffix(filename, ".jpeg"):
		contentType = "image/jpeg"
	case strings.HasSuffix(filename, ".png"):
		contentType = "image/png"
	}

	w.Header().Set("Content-Type", contentType)
	// Disable caching so refreshed screenshots are always shown
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Write(data)
}

// persistTabs flushes the tab mapping; a disk failure is logged and the
// in-memory state stays authoritative until the next successful flush.
func (h *Handler) persistTabs() {
	if err := h.store.Persist(); err != nil {
		log.Printf("[api] failed to persist tabs: %v", err)
	}
}

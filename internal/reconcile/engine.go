package reconcile

import (
	"log"
	"time"

	"github.com/tabtrail/tabtrail/internal/snapshot"
	"github.com/tabtrail/tabtrail/internal/store"
	"github.com/tabtrail/tabtrail/pkg/models"
)

// Engine translates inbound lifecycle events, captures, classification
// results, and user actions into store mutations under the merge rules:
// descriptive fields are last-write-wins, totalActiveMs only moves up,
// a non-empty stored description is never erased by an empty incoming one,
// and closedAt is terminal once set.
//
// Known quirk inherited from the original behavior: identity is id-only,
// so if the browser reuses a closed tab's id for a genuinely new tab before
// the old record is evicted, events for the new tab merge into the old
// closed record without clearing closedAt.
type Engine struct {
	store *store.Store
	snaps *snapshot.Store
}

// New creates an engine over the given stores.
func New(s *store.Store, snaps *snapshot.Store) *Engine {
	return &Engine{store: s, snaps: snaps}
}

// ApplyEvent merges a lifecycle event into the store. Unknown event types
// and removals of unknown ids are silent no-ops.
func (e *Engine) ApplyEvent(ev models.TabEvent) {
	switch ev.Type {
	case models.EventCreated, models.EventUpdated, models.EventActivated:
		e.store.Upsert(ev.Tab.ID, func(t *models.TabRecord) {
			mergeDescriptor(t, ev.Tab)
		})
	case models.EventRemoved:
		e.applyRemoved(ev)
	}
}

func (e *Engine) applyRemoved(ev models.TabEvent) {
	dayStart := store.DayStart(time.Now())
	reclaimBlob := false

	// Existence check and mutation happen in one critical section, so a
	// record deleted by a concurrent retention or sync pass cannot be
	// resurrected here.
	e.store.Update(func(tabs map[int64]*models.TabRecord) {
		t, ok := tabs[ev.Tab.ID]
		if !ok {
			return
		}
		if t.ClosedAt == 0 {
			t.ClosedAt = ev.Timestamp
		}
		t.IsActive = false

		// Keep today's blob around for the daily report; anything
		// older is reclaimed now even though the record stays.
		inToday := t.CreatedAt >= dayStart ||
			(t.LastActiveAt != 0 && t.LastActiveAt >= dayStart)
		reclaimBlob = !inToday
	})

	if reclaimBlob {
		e.snaps.Delete(ev.Tab.ID)
	}
}

// ApplyCapture persists the screenshot blob if one was supplied and merges
// the capture into the record. Captures always replace the snapshot
// metadata; a failed screenshot decode or write is non-fatal and leaves
// the path empty while capturedAt still records the attempt.
func (e *Engine) ApplyCapture(p models.CapturePayload) {
	path := ""
	if p.ScreenshotBase64 != "" {
		saved, err := e.snaps.Save(p.Tab.ID, p.ScreenshotBase64)
		if err != nil {
			log.Printf("[reconcile] screenshot for tab %d dropped: %v", p.Tab.ID, err)
		} else {
			path = saved
		}
	}

	e.store.Upsert(p.Tab.ID, func(t *models.TabRecord) {
		mergeDescriptor(t, p.Tab)
		t.Snapshot = &models.TabSnapshot{
			ScreenshotPath: path,
			CapturedAt:     p.CapturedAt,
		}
	})
}

// mergeDescriptor applies the shared field rules for created, updated,
// activated, and capture merges. Snapshot and suggestion are left alone;
// only captures and classification replace those.
func mergeDescriptor(t *models.TabRecord, in models.TabDescriptor) {
	if t.CreatedAt == 0 {
		t.CreatedAt = in.CreatedAt
		t.WindowID = in.WindowID
	}

	t.URL = in.URL
	t.Title = in.Title
	t.FavIconURL = in.FavIconURL
	t.LastActiveAt = in.LastActiveAt
	t.IsActive = in.IsActive

	if in.Description != "" {
		t.Description = in.Description
	}

	// The extension reports accumulated time, so out-of-order or stale
	// events must not move it backwards.
	if in.TotalActiveMs > t.TotalActiveMs {
		t.TotalActiveMs = in.TotalActiveMs
	}
}

// CloseTab marks a tab closed on behalf of the user. Unknown ids are
// silent no-ops.
func (e *Engine) CloseTab(id int64) {
	now := time.Now().UnixMilli()
	e.store.Update(func(tabs map[int64]*models.TabRecord) {
		t, ok := tabs[id]
		if !ok {
			return
		}
		if t.ClosedAt == 0 {
			t.ClosedAt = now
		}
		t.IsActive = false
	})
}

// MarkKeep records a user-forced keep decision, preserving any category
// the classifier previously assigned. Unknown ids are silent no-ops.
func (e *Engine) MarkKeep(id int64) {
	now := time.Now().UnixMilli()
	e.store.Update(func(tabs map[int64]*models.TabRecord) {
		t, ok := tabs[id]
		if !ok {
			return
		}
		category := ""
		if t.Suggestion != nil {
			category = t.Suggestion.Category
		}
		t.Suggestion = &models.TabSuggestion{
			Decision: "keep",
			Reason:   "Marked as keep by user",
			Category: category,
			ScoredAt: now,
		}
	})
}

// ApplySuggestions attaches classifier verdicts to their records in one
// critical section. Suggestions for unknown ids are dropped; a record
// deleted since classification started is never recreated.
func (e *Engine) ApplySuggestions(suggestions map[int64]models.TabSuggestion) {
	e.store.Update(func(tabs map[int64]*models.TabRecord) {
		for id, suggestion := range suggestions {
			t, ok := tabs[id]
			if !ok {
				continue
			}
			s := suggestion
			t.Suggestion = &s
		}
	})
}

// ClearSuggestions removes every stored suggestion.
func (e *Engine) ClearSuggestions() {
	e.store.Update(func(tabs map[int64]*models.TabRecord) {
		for _, t := range tabs {
			t.Suggestion = nil
		}
	})
}

// ClearData wipes every record and every screenshot blob.
func (e *Engine) ClearData() {
	e.store.Update(func(tabs map[int64]*models.TabRecord) {
		for id := range tabs {
			delete(tabs, id)
		}
	})
	e.snaps.Clear()
}

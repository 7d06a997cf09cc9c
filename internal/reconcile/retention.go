package reconcile

import (
	"log"
	"time"

	"github.com/tabtrail/tabtrail/pkg/models"
)

// Cleanup evicts closed records whose closedAt is older than days and
// reclaims their blobs. Open tabs are never touched regardless of age.
// Returns the number of records removed. Safe to run at any time.
func (e *Engine) Cleanup(days int) int {
	cutoff := time.Now().UnixMilli() - int64(days)*24*60*60*1000

	var stale []int64
	e.store.Update(func(tabs map[int64]*models.TabRecord) {
		for id, t := range tabs {
			if t.ClosedAt != 0 && t.ClosedAt < cutoff {
				delete(tabs, id)
				stale = append(stale, id)
			}
		}
	})

	for _, id := range stale {
		e.snaps.Delete(id)
	}

	if len(stale) > 0 {
		log.Printf("[reconcile] cleaned up %d old closed tabs", len(stale))
	}
	return len(stale)
}

// SyncWithBrowser corrects drift against the browser's ground-truth list
// of open tab ids. Open records absent from openIDs were closed or lost
// without an event: records with no snapshot and no suggestion are deleted
// outright, the rest are soft-closed so their history survives for
// reporting. Idempotent: affected records leave the open state, so a
// second pass with the same list finds nothing. Returns the number of
// records affected.
func (e *Engine) SyncWithBrowser(openIDs []int64) int {
	open := make(map[int64]struct{}, len(openIDs))
	for _, id := range openIDs {
		open[id] = struct{}{}
	}

	now := time.Now().UnixMilli()
	count := 0
	var dropped []int64

	e.store.Update(func(tabs map[int64]*models.TabRecord) {
		for id, t := range tabs {
			if t.Closed() {
				continue
			}
			if _, stillOpen := open[id]; stillOpen {
				continue
			}

			if t.Snapshot == nil && t.Suggestion == nil {
				delete(tabs, id)
				dropped = append(dropped, id)
			} else {
				t.ClosedAt = now
				t.IsActive = false
			}
			count++
		}
	})

	for _, id := range dropped {
		e.snaps.Delete(id)
	}

	if count > 0 {
		log.Printf("[reconcile] synced %d stale tabs no longer open in the browser", count)
	}
	return count
}

package reconcile

import (
	"encoding/base64"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tabtrail/tabtrail/pkg/models"
)

func daysAgo(n int) int64 {
	return time.Now().AddDate(0, 0, -n).UnixMilli()
}

func TestCleanup_AgeBasedEviction(t *testing.T) {
	e, s, snaps := newEngine(t)

	// Closed 10 days ago, with a blob
	e.ApplyCapture(models.CapturePayload{
		Tab:              models.TabDescriptor{ID: 1, CreatedAt: daysAgo(11)},
		ScreenshotBase64: base64.StdEncoding.EncodeToString([]byte("old")),
		CapturedAt:       daysAgo(10),
	})
	s.Upsert(1, func(tab *models.TabRecord) { tab.ClosedAt = daysAgo(10) })

	// Closed 3 days ago
	s.Upsert(2, func(tab *models.TabRecord) {
		tab.CreatedAt = daysAgo(4)
		tab.ClosedAt = daysAgo(3)
	})

	// Open and ancient: untouchable
	s.Upsert(3, func(tab *models.TabRecord) { tab.CreatedAt = daysAgo(100) })

	removed := e.Cleanup(7)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, ok := s.Get(1); ok {
		t.Error("10-day-old closed tab should be evicted")
	}
	if _, err := os.Stat(snaps.Path(1)); !os.IsNotExist(err) {
		t.Error("evicted tab's blob should be deleted")
	}
	if _, ok := s.Get(2); !ok {
		t.Error("3-day-old closed tab should be retained")
	}
	if _, ok := s.Get(3); !ok {
		t.Error("open tab must never be evicted regardless of age")
	}
}

func TestCleanup_Idempotent(t *testing.T) {
	e, s, _ := newEngine(t)

	s.Upsert(1, func(tab *models.TabRecord) { tab.ClosedAt = daysAgo(30) })

	if removed := e.Cleanup(7); removed != 1 {
		t.Fatalf("first pass removed = %d, want 1", removed)
	}
	if removed := e.Cleanup(7); removed != 0 {
		t.Errorf("second pass removed = %d, want 0", removed)
	}
}

func TestSyncWithBrowser_DriftCorrection(t *testing.T) {
	e, s, snaps := newEngine(t)

	// id 1: open, bare (no snapshot, no suggestion) -> deleted outright
	s.Upsert(1, func(tab *models.TabRecord) { tab.CreatedAt = 1000 })

	// id 2 and 3: open and still in the browser -> untouched
	s.Upsert(2, func(tab *models.TabRecord) { tab.CreatedAt = 1000; tab.IsActive = true })
	s.Upsert(3, func(tab *models.TabRecord) { tab.CreatedAt = 1000 })

	// id 4: open, gone from the browser, but carries a snapshot -> soft-closed
	e.ApplyCapture(models.CapturePayload{
		Tab:              models.TabDescriptor{ID: 4, CreatedAt: 1000},
		ScreenshotBase64: base64.StdEncoding.EncodeToString([]byte("keepme")),
		CapturedAt:       2000,
	})

	affected := e.SyncWithBrowser([]int64{2, 3})
	if affected != 2 {
		t.Errorf("affected = %d, want 2", affected)
	}

	if _, ok := s.Get(1); ok {
		t.Error("bare stale tab should be deleted entirely")
	}
	if _, err := os.Stat(snaps.Path(1)); !os.IsNotExist(err) {
		t.Error("deleted tab's blob path must hold no blob")
	}

	tab2, _ := s.Get(2)
	if tab2.Closed() || !tab2.IsActive {
		t.Errorf("still-open tab 2 must be untouched, got %+v", tab2)
	}
	tab3, _ := s.Get(3)
	if tab3.Closed() {
		t.Error("still-open tab 3 must be untouched")
	}

	tab4, ok := s.Get(4)
	if !ok {
		t.Fatal("tab with a snapshot must be retained")
	}
	if !tab4.Closed() || tab4.IsActive {
		t.Errorf("stale tab with history should be soft-closed, got %+v", tab4)
	}
	if _, err := os.Stat(snaps.Path(4)); err != nil {
		t.Error("soft-closed tab keeps its blob")
	}
}

func TestSyncWithBrowser_Idempotent(t *testing.T) {
	e, s, _ := newEngine(t)

	s.Upsert(1, func(tab *models.TabRecord) { tab.CreatedAt = 1000 })
	s.Upsert(2, func(tab *models.TabRecord) {
		tab.CreatedAt = 1000
		tab.Suggestion = &models.TabSuggestion{Decision: "keep"}
	})

	first := e.SyncWithBrowser([]int64{})
	require.Equal(t, 2, first)

	after := s.All()

	second := e.SyncWithBrowser([]int64{})
	require.Equal(t, 0, second, "second pass with the same list must be a no-op")
	require.ElementsMatch(t, after, s.All(), "store state must be unchanged by the second pass")
}

func TestSyncWithBrowser_ClosedRecordsIgnored(t *testing.T) {
	e, s, _ := newEngine(t)

	s.Upsert(1, func(tab *models.TabRecord) {
		tab.CreatedAt = 1000
		tab.ClosedAt = 2000
		tab.Suggestion = &models.TabSuggestion{Decision: "keep"}
	})

	if affected := e.SyncWithBrowser([]int64{}); affected != 0 {
		t.Errorf("affected = %d, want 0 (already-closed records are out of scope)", affected)
	}

	tab, _ := s.Get(1)
	if tab.ClosedAt != 2000 {
		t.Errorf("ClosedAt = %d, want 2000 (untouched)", tab.ClosedAt)
	}
}

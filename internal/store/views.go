package store

import (
	"time"

	"github.com/tabtrail/tabtrail/pkg/models"
)

// DayStart returns local midnight of now's day in epoch milliseconds.
func DayStart(now time.Time) int64 {
	year, month, day := now.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, now.Location()).UnixMilli()
}

// OpenTabs returns every record that has not been closed.
func (s *Store) OpenTabs() []models.TabRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tabs := make([]models.TabRecord, 0)
	for _, tab := range s.tabs {
		if !tab.Closed() {
			tabs = append(tabs, *tab)
		}
	}
	return tabs
}

// TodayTabs returns every record created or last active at/after local
// midnight, open or closed. This is the candidate set for report
// generation. The window boundary is evaluated once per call.
func (s *Store) TodayTabs() []models.TabRecord {
	dayStart := DayStart(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	tabs := make([]models.TabRecord, 0)
	for _, tab := range s.tabs {
		if tab.CreatedAt >= dayStart || (tab.LastActiveAt != 0 && tab.LastActiveAt >= dayStart) {
			tabs = append(tabs, *tab)
		}
	}
	return tabs
}

// TodayClosedTabs returns closed records that were created, last active,
// or closed today, for the recently-closed history view.
func (s *Store) TodayClosedTabs() []models.TabRecord {
	dayStart := DayStart(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	tabs := make([]models.TabRecord, 0)
	for _, tab := range s.tabs {
		if !tab.Closed() {
			continue
		}
		if tab.ClosedAt >= dayStart || tab.CreatedAt >= dayStart ||
			(tab.LastActiveAt != 0 && tab.LastActiveAt >= dayStart) {
			tabs = append(tabs, *tab)
		}
	}
	return tabs
}

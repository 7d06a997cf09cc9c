package store

import (
	"path/filepath"
	"sync"

	"github.com/tabtrail/tabtrail/pkg/models"
)

// ReportStore holds the last generated daily report, or none. Reports are
// not historized; each generation overwrites the previous one.
type ReportStore struct {
	mu     sync.RWMutex
	report *models.DailyReport
	path   string
}

// NewReportStore loads report.json from dataDir if present.
func NewReportStore(dataDir string) *ReportStore {
	s := &ReportStore{path: filepath.Join(dataDir, "report.json")}
	var report models.DailyReport
	if loadJSON(s.path, &report) && report.GeneratedAt != 0 {
		s.report = &report
	}
	return s
}

// Get returns the last report, if any.
func (s *ReportStore) Get() (models.DailyReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return models.DailyReport{}, false
	}
	return *s.report, true
}

// Set replaces the held report (nil clears it) and persists the document.
func (s *ReportStore) Set(report *models.DailyReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = report
	return saveJSON(s.path, s.report)
}

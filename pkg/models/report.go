package models

// DailyReport is the last generated browsing summary. At most one is held
// at a time; each generation overwrites the previous one.
type DailyReport struct {
	Date        string `json:"date"`
	Content     string `json:"content"`
	GeneratedAt int64  `json:"generatedAt"`
}

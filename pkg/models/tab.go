package models

// TabSnapshot records the most recent full-page capture of a tab.
// ScreenshotPath is empty when the capture carried no screenshot or the
// screenshot failed to decode; CapturedAt still records the attempt.
type TabSnapshot struct {
	ScreenshotPath string `json:"screenshotPath,omitempty"`
	CapturedAt     int64  `json:"capturedAt"`
}

// TabSuggestion is the classifier's verdict for a single tab.
type TabSuggestion struct {
	Decision string `json:"decision"` // "keep" | "close" | "unsure"
	Reason   string `json:"reason"`
	Category string `json:"category,omitempty"`
	Digest   string `json:"digest,omitempty"`
	ScoredAt int64  `json:"scoredAt"`
}

// TabRecord is the locally stored, merged state of one browser tab identity.
// The browser assigns the ID; the record survives the tab's closure until
// retention evicts it. Timestamps are epoch milliseconds; a zero
// LastActiveAt or ClosedAt means "never".
type TabRecord struct {
	ID            int64          `json:"id"`
	WindowID      int64          `json:"windowId,omitempty"`
	URL           string         `json:"url,omitempty"`
	Title         string         `json:"title,omitempty"`
	FavIconURL    string         `json:"favIconUrl,omitempty"`
	CreatedAt     int64          `json:"createdAt"`
	LastActiveAt  int64          `json:"lastActiveAt,omitempty"`
	TotalActiveMs int64          `json:"totalActiveMs"`
	IsActive      bool           `json:"isActive"`
	ClosedAt      int64          `json:"closedAt,omitempty"`
	Description   string         `json:"description,omitempty"`
	Snapshot      *TabSnapshot   `json:"snapshot,omitempty"`
	Suggestion    *TabSuggestion `json:"suggestion,omitempty"`
}

// Closed reports whether the record has left the open state.
func (t *TabRecord) Closed() bool {
	return t.ClosedAt != 0
}

// TabDescriptor is the browser's view of a tab as carried by events and
// captures. Same shape as TabRecord minus the locally owned snapshot and
// suggestion.
type TabDescriptor struct {
	ID            int64  `json:"id"`
	WindowID      int64  `json:"windowId,omitempty"`
	URL           string `json:"url,omitempty"`
	Title         string `json:"title,omitempty"`
	FavIconURL    string `json:"favIconUrl,omitempty"`
	CreatedAt     int64  `json:"createdAt"`
	LastActiveAt  int64  `json:"lastActiveAt,omitempty"`
	TotalActiveMs int64  `json:"totalActiveMs"`
	IsActive      bool   `json:"isActive"`
	Description   string `json:"description,omitempty"`
}

// Lifecycle event types reported by the extension.
const (
	EventCreated   = "created"
	EventUpdated   = "updated"
	EventActivated = "activated"
	EventRemoved   = "removed"
)

// TabEvent is an inbound lifecycle event.
type TabEvent struct {
	Type      string        `json:"type"`
	Tab       TabDescriptor `json:"tab"`
	Timestamp int64         `json:"timestamp"`
}

// CapturePayload is an inbound full-page capture, optionally carrying a
// base64-encoded screenshot.
type CapturePayload struct {
	Tab              TabDescriptor `json:"tab"`
	ScreenshotBase64 string        `json:"screenshotBase64,omitempty"`
	CapturedAt       int64         `json:"capturedAt"`
}

// SyncPayload carries the browser's ground-truth list of open tab IDs.
type SyncPayload struct {
	TabIDs []int64 `json:"tabIds"`
}

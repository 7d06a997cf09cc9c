package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tabtrail/tabtrail/pkg/models"
)

func testSettings(baseURL string) models.Settings {
	return models.Settings{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "gpt-4o-mini",
	}
}

// chatServer returns an httptest server that replies to any chat
// completion request with the given assistant content.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
}

func TestExtractSuggestions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{
			name:    "bare array",
			content: `[{"tabId": 1, "decision": "keep", "reason": "r"}]`,
			want:    1,
		},
		{
			name:    "array wrapped in prose",
			content: "Sure! Here are the suggestions:\n```json\n[{\"tabId\": 1, \"decision\": \"close\", \"reason\": \"idle\"}, {\"tabId\": 2, \"decision\": \"keep\", \"reason\": \"active\"}]\n```\nLet me know!",
			want:    2,
		},
		{
			name:    "no array",
			content: "I could not classify anything.",
			wantErr: true,
		},
		{
			name:    "unclosed array",
			content: `[{"tabId": 1`,
			wantErr: true,
		},
		{
			name:    "bracket but invalid json",
			content: `[{"tabId": oops}]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := extractSuggestions(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("extractSuggestions failed: %v", err)
			}
			if len(items) != tt.want {
				t.Errorf("len(items) = %d, want %d", len(items), tt.want)
			}
		})
	}
}

func TestClassify_MissingAPIKey(t *testing.T) {
	c := NewClient()

	_, err := c.Classify(context.Background(), []models.TabRecord{{ID: 1}}, models.Settings{})
	if err == nil {
		t.Fatal("expected error on missing API key")
	}
	if !strings.Contains(err.Error(), "API key") {
		t.Errorf("error = %q, want it to mention the API key", err)
	}
}

func TestClassify_EmptyTabsSkipsCall(t *testing.T) {
	c := NewClient()

	// No server, no key: must still succeed because nothing is sent.
	suggestions, err := c.Classify(context.Background(), nil, models.Settings{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("len = %d, want 0", len(suggestions))
	}
}

func TestClassify_HappyPath(t *testing.T) {
	reply := `Here you go:
[
  {"tabId": 1, "category": "work", "decision": "keep", "reason": "active project", "digest": "Docs for the build system"},
  {"tabId": 2, "category": "entertainment", "decision": "close", "reason": "idle for days"}
]`
	srv := chatServer(t, reply)
	defer srv.Close()

	c := NewClient()
	tabs := []models.TabRecord{
		{ID: 1, Title: "CI docs", URL: "https://ci.example.com", Description: "build docs"},
		{ID: 2, Title: "Videos", URL: "https://videos.example.com"},
	}

	suggestions, err := c.Classify(context.Background(), tabs, testSettings(srv.URL))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if len(suggestions) != 2 {
		t.Fatalf("len(suggestions) = %d, want 2", len(suggestions))
	}
	if suggestions[1].Decision != "keep" || suggestions[1].Category != "work" {
		t.Errorf("suggestion[1] = %+v", suggestions[1])
	}
	if suggestions[1].Digest != "Docs for the build system" {
		t.Errorf("Digest = %q", suggestions[1].Digest)
	}
	if suggestions[2].Decision != "close" {
		t.Errorf("suggestion[2] = %+v", suggestions[2])
	}
	if suggestions[1].ScoredAt == 0 {
		t.Error("ScoredAt should be stamped")
	}
}

func TestClassify_UnparsableReply(t *testing.T) {
	srv := chatServer(t, "no array here, sorry")
	defer srv.Close()

	c := NewClient()
	_, err := c.Classify(context.Background(), []models.TabRecord{{ID: 1}}, testSettings(srv.URL))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestChat_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "model overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient()
	_, err := c.Classify(context.Background(), []models.TabRecord{{ID: 1}}, testSettings(srv.URL))
	if err == nil {
		t.Fatal("expected error on non-2xx status")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error = %q, want status code included", err)
	}
}

func TestReport_HappyPath(t *testing.T) {
	srv := chatServer(t, "# Daily report\n\nYou mostly read docs.")
	defer srv.Close()

	c := NewClient()
	tabs := []models.TabRecord{
		{ID: 1, Title: "Docs", URL: "https://docs.example.com/page", TotalActiveMs: 60000,
			Suggestion: &models.TabSuggestion{Category: "research", Digest: "API reference"}},
	}

	content, err := c.Report(context.Background(), tabs, testSettings(srv.URL))
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if !strings.Contains(content, "Daily report") {
		t.Errorf("content = %q", content)
	}
}

func TestReport_NoTabs(t *testing.T) {
	c := NewClient()

	content, err := c.Report(context.Background(), nil, models.Settings{})
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if content != "No tabs to report on." {
		t.Errorf("content = %q", content)
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://docs.example.com/page?x=1", "docs.example.com"},
		{"http://localhost:8080/", "localhost:8080"},
		{"chrome://settings", "settings"},
		{"not a url", "unknown"},
		{"https:///path", "unknown"},
	}
	for _, tt := range tests {
		if got := domain(tt.url); got != tt.want {
			t.Errorf("domain(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("0123456789abc", 10); got != "0123456789..." {
		t.Errorf("truncate = %q", got)
	}
	// Rune-safe on multibyte text
	if got := truncate("ははははは", 3); got != "ははは..." {
		t.Errorf("truncate = %q", got)
	}
}

package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tabtrail/tabtrail/pkg/models"
)

// RequestTimeout bounds a single chat completion call. Classifying a big
// batch with image parts can legitimately take minutes; anything serving
// these calls must allow at least this long before cutting the response.
const RequestTimeout = 2 * time.Minute

// Client talks to an OpenAI-compatible chat completions API. Every call is
// bounded by the HTTP client timeout and the caller's context; a failed
// call returns an error and leaves no partial state anywhere.
type Client struct {
	http *http.Client
}

// NewClient creates a client bounded by RequestTimeout.
func NewClient() *Client {
	return &Client{
		http: &http.Client{Timeout: RequestTimeout},
	}
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type suggestionItem struct {
	TabID    int64  `json:"tabId"`
	Category string `json:"category"`
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
	Digest   string `json:"digest"`
}

func apiKey(settings models.Settings) (string, error) {
	if settings.APIKey == "" {
		return "", fmt.Errorf("missing API key, configure it in settings")
	}
	return settings.APIKey, nil
}

func baseURL(settings models.Settings) string {
	if settings.BaseURL != "" {
		return strings.TrimSuffix(settings.BaseURL, "/")
	}
	return models.DefaultSettings().BaseURL
}

func model(settings models.Settings) string {
	if settings.Model != "" {
		return settings.Model
	}
	return models.DefaultSettings().Model
}

// chat sends one chat completion request and returns the assistant reply.
func (c *Client) chat(ctx context.Context, settings models.Settings, messages []chatMessage, temperature float64) (string, error) {
	key, err := apiKey(settings)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(chatRequest{
		Model:       model(settings),
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := baseURL(settings) + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errText, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(errText)))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return chat.Choices[0].Message.Content, nil
}

// extractSuggestions parses the suggestion array out of a raw model reply.
// The array is taken between the first '[' and the last ']'; anything else
// is a parse failure.
func extractSuggestions(content string) ([]suggestionItem, error) {
	start := strings.Index(content, "[")
	if start < 0 {
		return nil, fmt.Errorf("no JSON array found in response")
	}
	end := strings.LastIndex(content, "]")
	if end < start {
		return nil, fmt.Errorf("no closing bracket found in response")
	}

	var items []suggestionItem
	if err := json.Unmarshal([]byte(content[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}
	return items, nil
}

// truncate limits s to max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// domain extracts the host part of a URL for grouping, without caring
// whether the URL actually parses.
func domain(url string) string {
	rest := url
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	} else {
		return "unknown"
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "unknown"
	}
	return rest
}

func formatTab(t models.TabRecord) string {
	lines := []string{
		fmt.Sprintf("tabId: %d", t.ID),
		fmt.Sprintf("title: %s", t.Title),
		fmt.Sprintf("url: %s", t.URL),
		fmt.Sprintf("createdAt: %d", t.CreatedAt),
		fmt.Sprintf("lastActiveAt: %d", t.LastActiveAt),
		fmt.Sprintf("totalActiveMs: %d", t.TotalActiveMs),
	}
	if t.Description != "" {
		lines = append(lines, "content: "+truncate(t.Description, 3000))
	}
	return strings.Join(lines, "\n")
}

const tabCategories = `Categories to classify tabs:
- work: Work-related tasks, projects, documentation
- research: Learning, tutorials, technical documentation
- communication: Email, chat, social media
- entertainment: Videos, games, news, casual browsing
- shopping: E-commerce, product research
- reference: Bookmarked pages, tools kept open for reference
- utility: Settings, admin panels, dev tools`

// Classify asks the model for a keep/close verdict per tab and returns the
// suggestions keyed by tab id. Screenshots, when present on disk, are
// attached as low-detail image parts.
func (c *Client) Classify(ctx context.Context, tabs []models.TabRecord, settings models.Settings) (map[int64]models.TabSuggestion, error) {
	if len(tabs) == 0 {
		return map[int64]models.TabSuggestion{}, nil
	}

	userContext := ""
	if settings.UserContext != "" {
		userContext = "\n\nUser's context and preferences:\n" + settings.UserContext
	}

	prompt := fmt.Sprintf(`Analyze these browser tabs and suggest which to keep or close.

%s
%s

Return JSON array only. Each item must have:
- "tabId": number
- "category": one of [work, research, communication, entertainment, shopping, reference, utility]
- "decision": "keep" | "close" | "unsure"
- "reason": brief explanation
- "digest": a concise 1-2 sentence summary of the tab's content/purpose (in the same language as the page content)

Base decisions on:
1. Tab's relevance to user's current work/goals
2. How recently it was active
3. Whether the content is transient or worth keeping
4. Category - entertainment tabs idle for long are good candidates to close`, tabCategories, userContext)

	parts := []interface{}{
		map[string]interface{}{"type": "text", "text": prompt},
	}

	for _, tab := range tabs {
		parts = append(parts, map[string]interface{}{
			"type": "text",
			"text": "\n\n" + formatTab(tab),
		})

		if tab.Snapshot == nil || tab.Snapshot.ScreenshotPath == "" {
			continue
		}
		data, err := os.ReadFile(tab.Snapshot.ScreenshotPath)
		if err != nil {
			continue
		}
		parts = append(parts, map[string]interface{}{
			"type": "image_url",
			"image_url": map[string]interface{}{
				"url":    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data),
				"detail": "low",
			},
		})
	}

	messages := []chatMessage{
		{
			Role:    "system",
			Content: "You are a tab cleanup assistant. Classify and decide whether each tab should be kept, closed, or is unsure. Consider the user's context and work habits.",
		},
		{Role: "user", Content: parts},
	}

	reply, err := c.chat(ctx, settings, messages, 0.2)
	if err != nil {
		return nil, err
	}

	items, err := extractSuggestions(reply)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	suggestions := make(map[int64]models.TabSuggestion, len(items))
	for _, item := range items {
		suggestions[item.TabID] = models.TabSuggestion{
			Decision: item.Decision,
			Reason:   item.Reason,
			Category: item.Category,
			Digest:   item.Digest,
			ScoredAt: now,
		}
	}
	return suggestions, nil
}

// Report summarizes the day's tabs as a markdown report. Tabs are grouped
// by domain; each entry carries its title, active time, and the best
// available content summary (classifier digest, then page description).
func (c *Client) Report(ctx context.Context, tabs []models.TabRecord, settings models.Settings) (string, error) {
	if len(tabs) == 0 {
		return "No tabs to report on.", nil
	}

	groups := make(map[string][]models.TabRecord)
	for _, tab := range tabs {
		d := "unknown"
		if tab.URL != "" {
			d = domain(tab.URL)
		}
		groups[d] = append(groups[d], tab)
	}

	var sections []string
	for d, group := range groups {
		var entries []string
		for _, tab := range group {
			title := tab.Title
			if title == "" {
				title = "Untitled"
			}

			content := ""
			if tab.Suggestion != nil {
				category := tab.Suggestion.Category
				if category == "" {
					category = "uncategorized"
				}
				summary := tab.Suggestion.Digest
				if summary == "" {
					summary = tab.Description
				}
				if summary == "" {
					content = fmt.Sprintf("[%s]", category)
				} else {
					content = fmt.Sprintf("[%s] %s", category, truncate(summary, 300))
				}
			} else if tab.Description != "" {
				content = truncate(tab.Description, 300)
			}

			if content == "" {
				entries = append(entries, fmt.Sprintf("  - %s (%dms)", title, tab.TotalActiveMs))
			} else {
				entries = append(entries, fmt.Sprintf("  - %s (%dms)\n    %s", title, tab.TotalActiveMs, content))
			}
		}
		sections = append(sections, fmt.Sprintf("## %s\n%s", d, strings.Join(entries, "\n")))
	}

	userContext := ""
	if settings.UserContext != "" {
		userContext = "\n\nUser's context and work preferences:\n" + settings.UserContext
	}

	today := time.Now().Format("2006-01-02")
	prompt := fmt.Sprintf(
		"Generate a concise daily report for %s based on the user's browsing activity.\n\n"+
			"Include:\n- Main themes and topics\n- Key activities and progress\n"+
			"- Open questions or unfinished tasks\n- Suggested follow-ups for tomorrow%s\n\n"+
			"Browsing activity grouped by domain:\n\n%s",
		today, userContext, strings.Join(sections, "\n\n"))

	messages := []chatMessage{
		{
			Role:    "system",
			Content: "You summarize browsing activity as a daily report with key themes, tasks, and next actions. Be concise and actionable. Use markdown formatting. The input is grouped by domain, each tab has a title, active time, and optionally a category tag with content summary.",
		},
		{Role: "user", Content: prompt},
	}

	return c.chat(ctx, settings, messages, 0.3)
}

package models

// Settings is the process-wide configuration for the AI collaborators.
// Loaded once at startup, replaced wholesale by the settings endpoint,
// persisted as a whole on every change.
type Settings struct {
	APIKey           string `json:"apiKey,omitempty"`
	BaseURL          string `json:"baseUrl,omitempty"`
	Model            string `json:"model,omitempty"`
	UserContext      string `json:"userContext,omitempty"`
	AnalyzeBatchSize int    `json:"analyzeBatchSize,omitempty"`
}

// DefaultSettings returns the settings used when nothing is persisted yet.
func DefaultSettings() Settings {
	return Settings{
		BaseURL:          "https://api.openai.com/v1",
		Model:            "gpt-4o-mini",
		AnalyzeBatchSize: 30,
	}
}

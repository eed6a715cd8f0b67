package llm

import "fmt"

// Settings holds what NewProvider needs to reach the completion API.
type Settings struct {
	APIKey            string
	BaseURL           string
	Model             string
	RequestsPerMinute int
}

// NewProvider creates the OpenAI-compatible provider described by s,
// rate limited when s.RequestsPerMinute is positive.
func NewProvider(s Settings) (Provider, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("api key is not set")
	}
	if s.Model == "" {
		return nil, fmt.Errorf("model is not set")
	}

	var p Provider = NewOpenAIProvider(s.APIKey, s.BaseURL, s.Model)
	if s.RequestsPerMinute > 0 {
		p = NewRateLimitedProvider(p, s.RequestsPerMinute)
	}
	return p, nil
}

package chat

import "time"

const defaultOllamaBaseURL = "http://localhost:11434/v1"

// NewOllamaProvider talks to a local Ollama server through its
// OpenAI-compatible endpoint. No API key is sent.
func NewOllamaProvider(baseURL string, timeout time.Duration) *OpenAIProvider {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	p := NewOpenAIProvider("", baseURL, timeout)
	p.name = ProviderOllama
	return p
}

package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicAPIVersion     = "2023-06-01"
	anthropicMaxTokens      = 4096
)

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	apiKey          string
	baseURL         string
	httpClient      *http.Client
	streamingClient *http.Client
}

func NewAnthropicProvider(apiKey, baseURL string, timeout time.Duration) *AnthropicProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultAnthropicBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AnthropicProvider{
		apiKey:          apiKey,
		baseURL:         strings.TrimRight(baseURL, "/"),
		httpClient:      &http.Client{Timeout: timeout},
		streamingClient: &http.Client{},
	}
}

func (p *AnthropicProvider) Name() string { return ProviderAnthropic }

type anthropicSource struct {
	Type      string `json:"type"` // base64 | url
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

type anthropicBlock struct {
	Type   string           `json:"type"` // text | image
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Stream    bool               `json:"stream,omitempty"`
}

type anthropicResponse struct {
	Model      string           `json:"model"`
	Content    []anthropicBlock `json:"content"`
	StopReason string           `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// anthropicEvent covers the stream events we read: content_block_delta,
// message_delta and error.
type anthropicEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Message struct {
		Model string `json:"model"`
	} `json:"message"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func buildAnthropicRequest(req Request, stream bool) (anthropicRequest, error) {
	out := anthropicRequest{
		Model:     req.Model,
		MaxTokens: anthropicMaxTokens,
		Stream:    stream,
	}
	var system []string
	if strings.TrimSpace(req.System) != "" {
		system = append(system, req.System)
	}

	for _, m := range req.Messages {
		parts, err := messageParts(m)
		if err != nil {
			return anthropicRequest{}, err
		}
		if m.Role == RoleSystem {
			for _, part := range parts {
				if part.kind == partText {
					system = append(system, part.text)
				}
			}
			continue
		}

		blocks := make([]anthropicBlock, 0, len(parts))
		for _, part := range parts {
			switch {
			case part.kind == partText:
				blocks = append(blocks, anthropicBlock{Type: "text", Text: part.text})
			case part.data != nil:
				blocks = append(blocks, anthropicBlock{Type: "image", Source: &anthropicSource{
					Type:      "base64",
					MediaType: part.mediaType,
					Data:      base64.StdEncoding.EncodeToString(part.data),
				}})
			default:
				blocks = append(blocks, anthropicBlock{Type: "image", Source: &anthropicSource{Type: "url", URL: part.url}})
			}
		}
		if len(blocks) == 0 {
			continue
		}
		out.Messages = append(out.Messages, anthropicMessage{Role: string(m.Role), Content: blocks})
	}
	out.System = strings.Join(system, "\n\n")
	return out, nil
}

func (p *AnthropicProvider) newRequest(ctx context.Context, req Request, stream bool) (*http.Request, error) {
	payload, err := buildAnthropicRequest(req, stream)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	return httpReq, nil
}

func upstreamStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
}

func (p *AnthropicProvider) Chat(ctx context.Context, req Request) (Result, error) {
	httpReq, err := p.newRequest(ctx, req, false)
	if err != nil {
		return Result{}, err
	}
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, upstreamStatusError(resp)
	}

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return Result{
		Message:      Message{Role: RoleAssistant, Content: text.String()},
		Model:        firstNonEmpty(parsed.Model, req.Model),
		Provider:     ProviderAnthropic,
		FinishReason: parsed.StopReason,
		Usage: Usage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
			TotalTokens:      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		},
	}, nil
}

func (p *AnthropicProvider) StreamChat(ctx context.Context, req Request) (<-chan StreamChunk, <-chan error) {
	chunkCh := make(chan StreamChunk)
	errCh := make(chan error, 1)

	go func() {
		defer close(chunkCh)
		defer close(errCh)
		if err := p.streamChat(ctx, req, chunkCh); err != nil {
			errCh <- err
		}
	}()
	return chunkCh, errCh
}

func (p *AnthropicProvider) streamChat(ctx context.Context, req Request, chunkCh chan<- StreamChunk) error {
	httpReq, err := p.newRequest(ctx, req, true)
	if err != nil {
		return err
	}
	resp, err := p.streamingClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return upstreamStatusError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)

	model := req.Model
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}

		var event anthropicEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return fmt.Errorf("%w: decode stream event: %w", ErrUpstream, err)
		}

		var chunk StreamChunk
		switch event.Type {
		case "message_start":
			model = firstNonEmpty(event.Message.Model, model)
			continue
		case "content_block_delta":
			if event.Delta.Type != "text_delta" || event.Delta.Text == "" {
				continue
			}
			chunk.Delta.Content = event.Delta.Text
		case "message_delta":
			if event.Delta.StopReason == "" {
				continue
			}
			chunk.FinishReason = event.Delta.StopReason
		case "message_stop":
			return nil
		case "error":
			msg := "stream error"
			if event.Error != nil {
				msg = event.Error.Message
			}
			return fmt.Errorf("%w: %s", ErrUpstream, msg)
		default:
			continue
		}

		chunk.Model = model
		chunk.Provider = ProviderAnthropic
		select {
		case chunkCh <- chunk:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: read stream: %w", ErrUpstream, err)
	}
	return nil
}

package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider talks to any OpenAI-compatible /chat/completions endpoint.
type OpenAIProvider struct {
	name            string
	apiKey          string
	baseURL         string
	client          *openai.Client
	streamingClient *openai.Client
}

func NewOpenAIProvider(apiKey, baseURL string, timeout time.Duration) *OpenAIProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultOpenAIBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIProvider{
		name:            ProviderOpenAI,
		apiKey:          apiKey,
		baseURL:         baseURL,
		client:          newOpenAIClient(apiKey, baseURL, &http.Client{Timeout: timeout}),
		streamingClient: newOpenAIClient(apiKey, baseURL, &http.Client{}),
	}
}

func newOpenAIClient(apiKey, baseURL string, httpClient *http.Client) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = httpClient
	return openai.NewClientWithConfig(cfg)
}

func (p *OpenAIProvider) Name() string { return p.name }

func buildOpenAIMessages(req Request) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if strings.TrimSpace(req.System) != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		if len(m.Attachments) == 0 {
			out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
			continue
		}
		parts, err := messageParts(m)
		if err != nil {
			return nil, err
		}
		multi := make([]openai.ChatMessagePart, 0, len(parts))
		for _, part := range parts {
			switch part.kind {
			case partImage:
				multi = append(multi, openai.ChatMessagePart{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: part.url},
				})
			default:
				multi = append(multi, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: part.text,
				})
			}
		}
		out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), MultiContent: multi})
	}
	return out, nil
}

func (p *OpenAIProvider) newRequest(req Request, stream bool) (openai.ChatCompletionRequest, error) {
	messages, err := buildOpenAIMessages(req)
	if err != nil {
		return openai.ChatCompletionRequest{}, err
	}
	out := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   stream,
	}
	if stream {
		out.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}
	return out, nil
}

// upstreamError wraps a client error in ErrUpstream, keeping the HTTP status
// when the API reported one.
func upstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return fmt.Errorf("%w: status %d: %w", ErrUpstream, reqErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}

func (p *OpenAIProvider) Chat(ctx context.Context, req Request) (Result, error) {
	chatReq, err := p.newRequest(req, false)
	if err != nil {
		return Result{}, err
	}
	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Result{}, upstreamError(err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: response has no choices", ErrUpstream)
	}

	choice := resp.Choices[0]
	return Result{
		Message:      Message{Role: RoleAssistant, Content: choice.Message.Content},
		Model:        firstNonEmpty(resp.Model, req.Model),
		Provider:     p.name,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (p *OpenAIProvider) StreamChat(ctx context.Context, req Request) (<-chan StreamChunk, <-chan error) {
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

func (p *OpenAIProvider) streamChat(ctx context.Context, req Request, chunkCh chan<- StreamChunk) error {
	chatReq, err := p.newRequest(req, true)
	if err != nil {
		return err
	}
	stream, err := p.streamingClient.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return upstreamError(err)
	}
	defer stream.Close()

	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return upstreamError(err)
		}
		if len(event.Choices) == 0 {
			continue
		}

		choice := event.Choices[0]
		var chunk StreamChunk
		chunk.Delta.Content = choice.Delta.Content
		chunk.Model = firstNonEmpty(event.Model, req.Model)
		chunk.Provider = p.name
		chunk.FinishReason = string(choice.FinishReason)
		if chunk.Delta.Content == "" && chunk.FinishReason == "" {
			continue
		}

		select {
		case chunkCh <- chunk:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

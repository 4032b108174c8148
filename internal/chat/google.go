package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GoogleProvider calls Gemini through the genai SDK.
type GoogleProvider struct {
	client  *genai.Client
	timeout time.Duration
}

func NewGoogleProvider(ctx context.Context, apiKey, baseURL string, timeout time.Duration) (*GoogleProvider, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(baseURL) != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(baseURL, "/") + "/"}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GoogleProvider{client: client, timeout: timeout}, nil
}

func (p *GoogleProvider) Name() string { return ProviderGoogle }

func buildGeminiContents(req Request) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	var system []string
	if strings.TrimSpace(req.System) != "" {
		system = append(system, req.System)
	}

	for _, m := range req.Messages {
		parts, err := messageParts(m)
		if err != nil {
			return nil, nil, err
		}
		if m.Role == RoleSystem {
			for _, part := range parts {
				if part.kind == partText {
					system = append(system, part.text)
				}
			}
			continue
		}

		wire := make([]*genai.Part, 0, len(parts))
		for _, part := range parts {
			switch {
			case part.kind == partText:
				wire = append(wire, genai.NewPartFromText(part.text))
			case part.data != nil:
				wire = append(wire, genai.NewPartFromBytes(part.data, part.mediaType))
			default:
				wire = append(wire, genai.NewPartFromURI(part.url, part.mediaType))
			}
		}
		if len(wire) == 0 {
			continue
		}

		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromParts(wire, role))
	}

	config := &genai.GenerateContentConfig{}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return contents, config, nil
}

func (p *GoogleProvider) Chat(ctx context.Context, req Request) (Result, error) {
	contents, config, err := buildGeminiContents(req)
	if err != nil {
		return Result{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return Result{}, fmt.Errorf("%w: generating content: %w", ErrUpstream, err)
	}

	result := Result{
		Message:  Message{Role: RoleAssistant, Content: resp.Text()},
		Model:    firstNonEmpty(resp.ModelVersion, req.Model),
		Provider: ProviderGoogle,
	}
	if len(resp.Candidates) > 0 {
		result.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		result.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return result, nil
}

func (p *GoogleProvider) StreamChat(ctx context.Context, req Request) (<-chan StreamChunk, <-chan error) {
	chunkCh := make(chan StreamChunk)
	errCh := make(chan error, 1)

	go func() {
		defer close(chunkCh)
		defer close(errCh)

		contents, config, err := buildGeminiContents(req)
		if err != nil {
			errCh <- err
			return
		}
		for resp, err := range p.client.Models.GenerateContentStream(ctx, req.Model, contents, config) {
			if err != nil {
				errCh <- fmt.Errorf("%w: streaming content: %w", ErrUpstream, err)
				return
			}
			var chunk StreamChunk
			chunk.Delta.Content = resp.Text()
			chunk.Model = firstNonEmpty(resp.ModelVersion, req.Model)
			chunk.Provider = ProviderGoogle
			if len(resp.Candidates) > 0 {
				chunk.FinishReason = string(resp.Candidates[0].FinishReason)
			}
			if chunk.Delta.Content == "" && chunk.FinishReason == "" {
				continue
			}
			select {
			case chunkCh <- chunk:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()
	return chunkCh, errCh
}

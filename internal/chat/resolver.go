package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/memohai/docchat/internal/attachment"
	"github.com/memohai/docchat/internal/metrics"
)

// Resolver converts attachments and forwards conversations to the provider
// with a fixed model and system prompt.
type Resolver struct {
	provider     Provider
	converter    *AttachmentConverter
	model        string
	systemPrompt string
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewResolver creates a Resolver. Empty model or system prompt fall back to
// DefaultModel and DefaultSystemPrompt.
func NewResolver(
	log *slog.Logger,
	provider Provider,
	converter *AttachmentConverter,
	m *metrics.Metrics,
	model string,
	systemPrompt string,
) *Resolver {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Resolver{
		provider:     provider,
		converter:    converter,
		model:        model,
		systemPrompt: systemPrompt,
		metrics:      m,
		logger:       log.With(slog.String("service", "chat_resolver")),
	}
}

// Prepare converts every PDF attachment in req and builds the provider
// request. It must succeed before any response bytes are written.
func (r *Resolver) Prepare(ctx context.Context, req ChatRequest) (Request, error) {
	msgs, err := r.converter.ConvertMessages(ctx, req.Messages)
	if err == nil {
		err = checkAttachments(msgs)
	}
	if err != nil {
		r.logger.Warn("attachment conversion failed",
			slog.Int("messages", len(req.Messages)),
			slog.Any("error", err),
		)
		r.metrics.ObserveChat(r.provider.Name(), metrics.OutcomeConversionError)
		return Request{}, err
	}
	return Request{
		Messages: msgs,
		Model:    r.model,
		System:   r.systemPrompt,
	}, nil
}

// Chat sends a prepared request and waits for the full reply.
func (r *Resolver) Chat(ctx context.Context, req Request) (ChatResponse, error) {
	res, err := r.provider.Chat(ctx, req)
	if err != nil {
		r.logger.Error("chat request failed",
			slog.String("provider", r.provider.Name()),
			slog.String("model", req.Model),
			slog.Any("error", err),
		)
		r.metrics.ObserveChat(r.provider.Name(), metrics.OutcomeUpstreamError)
		return ChatResponse{}, err
	}
	r.metrics.ObserveChat(r.provider.Name(), metrics.OutcomeOK)
	return ChatResponse{
		Message:      res.Message,
		Model:        res.Model,
		Provider:     res.Provider,
		FinishReason: res.FinishReason,
		Usage:        res.Usage,
	}, nil
}

// StreamChat relays the provider stream and records its outcome once the
// stream ends.
func (r *Resolver) StreamChat(ctx context.Context, req Request) (<-chan StreamChunk, <-chan error) {
	chunkCh := make(chan StreamChunk)
	errCh := make(chan error, 1)
	r.logger.Info("chat stream start",
		slog.String("provider", r.provider.Name()),
		slog.String("model", req.Model),
		slog.Int("messages", len(req.Messages)),
	)

	go func() {
		defer close(chunkCh)
		defer close(errCh)

		upChunks, upErrs := r.provider.StreamChat(ctx, req)
		var streamErr error
		for upChunks != nil || upErrs != nil {
			select {
			case chunk, ok := <-upChunks:
				if !ok {
					upChunks = nil
					continue
				}
				select {
				case chunkCh <- chunk:
				case <-ctx.Done():
				}
			case err, ok := <-upErrs:
				if !ok {
					upErrs = nil
					continue
				}
				if err != nil && streamErr == nil {
					streamErr = err
				}
			}
		}

		if streamErr != nil {
			r.logger.Error("chat stream failed",
				slog.String("provider", r.provider.Name()),
				slog.Any("error", streamErr),
			)
			r.metrics.ObserveChat(r.provider.Name(), metrics.OutcomeUpstreamError)
			errCh <- streamErr
			return
		}
		r.metrics.ObserveChat(r.provider.Name(), metrics.OutcomeOK)
	}()
	return chunkCh, errCh
}

// checkAttachments rejects attachments no provider can send.
func checkAttachments(msgs []Message) error {
	for i, m := range msgs {
		for j, att := range m.Attachments {
			switch att.Kind() {
			case attachment.KindImage, attachment.KindText:
			default:
				return fmt.Errorf("message %d attachment %d: %w: %q has content type %q",
					i, j, ErrUnsupportedAttachment, att.Name, att.ContentType)
			}
		}
	}
	return nil
}

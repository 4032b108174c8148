package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/memohai/docchat/internal/chat"
	"github.com/memohai/docchat/internal/convert"
)

type stubProvider struct {
	chunks []string
	err    error
	got    chat.Request
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Chat(_ context.Context, req chat.Request) (chat.Result, error) {
	p.got = req
	if p.err != nil {
		return chat.Result{}, p.err
	}
	return chat.Result{
		Message:  chat.Message{Role: chat.RoleAssistant, Content: strings.Join(p.chunks, "")},
		Model:    req.Model,
		Provider: "stub",
	}, nil
}

func (p *stubProvider) StreamChat(_ context.Context, req chat.Request) (<-chan chat.StreamChunk, <-chan error) {
	p.got = req
	chunkCh := make(chan chat.StreamChunk)
	errCh := make(chan error, 1)
	go func() {
		defer close(chunkCh)
		defer close(errCh)
		for _, text := range p.chunks {
			var c chat.StreamChunk
			c.Delta.Content = text
			chunkCh <- c
		}
		if p.err != nil {
			errCh <- p.err
		}
	}()
	return chunkCh, errCh
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline() *convert.Pipeline {
	return convert.NewPipeline(discardLogger(), convert.NewPDFExtractor(0), nil, 5*time.Second)
}

func newTestEcho(t *testing.T, provider chat.Provider) *echo.Echo {
	t.Helper()
	log := discardLogger()
	pipeline := newPipeline()
	resolver := chat.NewResolver(log, provider, chat.NewAttachmentConverter(pipeline, 0), nil, "test-model", "be brief")

	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler
	NewChatHandler(log, resolver).Register(e)
	NewConvertHandler(log, pipeline).Register(e)
	NewPingHandler(log).Register(e)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

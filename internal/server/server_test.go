package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/docchat/internal/handlers"
	"github.com/memohai/docchat/internal/metrics"
)

type echoHandler struct{}

func (echoHandler) Register(e *echo.Echo) {
	e.POST("/echo", func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, string(body))
	})
	e.GET("/panic", func(echo.Context) error {
		panic("boom")
	})
	e.GET("/slow", func(c echo.Context) error {
		time.Sleep(5 * time.Millisecond)
		return c.NoContent(http.StatusNoContent)
	})
}

func newTestServer(opts Options) *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	m.ObserveConversion(metrics.ResultOK, 0)
	return NewServer(log, opts, m, handlers.NewPingHandler(log), echoHandler{}, nil)
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestServerRoutes(t *testing.T) {
	t.Parallel()

	s := newTestServer(Options{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `docchat_attachment_conversions_total{result="ok"} 1`)
}

func TestServerRecoversPanics(t *testing.T) {
	t.Parallel()

	rec := serve(newTestServer(Options{}), httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), resp.Message)
}

func TestServerErrorBody(t *testing.T) {
	t.Parallel()

	rec := serve(newTestServer(Options{}), httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, echo.MIMEApplicationJSON, rec.Header().Get(echo.HeaderContentType))

	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Not Found", resp.Message)
}

func TestServerLogsLatency(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	s := NewServer(log, Options{}, nil, echoHandler{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/slow", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var entry struct {
		Msg     string `json:"msg"`
		Latency int64  `json:"latency"`
	}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "request", entry.Msg)
	assert.GreaterOrEqual(t, time.Duration(entry.Latency), 5*time.Millisecond)
}

func TestServerBodyLimit(t *testing.T) {
	t.Parallel()

	s := newTestServer(Options{BodyLimit: "1K"})

	rec := serve(s, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "small", rec.Body.String())

	rec = serve(s, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 4096))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestServerCORS(t *testing.T) {
	t.Parallel()

	s := newTestServer(Options{CORSOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	rec := serve(s, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "http://evil.example")
	rec = serve(s, req)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

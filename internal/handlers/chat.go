package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/docchat/internal/chat"
)

type ChatHandler struct {
	resolver *chat.Resolver
	logger   *slog.Logger
}

func NewChatHandler(log *slog.Logger, resolver *chat.Resolver) *ChatHandler {
	return &ChatHandler{
		resolver: resolver,
		logger:   log.With(slog.String("handler", "chat")),
	}
}

func (h *ChatHandler) Register(e *echo.Echo) {
	group := e.Group("/api/chat")
	group.POST("", h.StreamChat)
	group.POST("/complete", h.Chat)
}

// Chat converts PDF attachments and returns the full assistant reply.
func (h *ChatHandler) Chat(c echo.Context) error {
	var req chat.ChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	prepared, err := h.resolver.Prepare(ctx, req)
	if err != nil {
		return httpError(err)
	}
	resp, err := h.resolver.Chat(ctx, prepared)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// StreamChat converts PDF attachments, then relays the reply as server-sent
// events terminated by "data: [DONE]". Conversion errors are returned as
// plain HTTP errors since nothing has been written yet.
func (h *ChatHandler) StreamChat(c echo.Context) error {
	var req chat.ChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	prepared, err := h.resolver.Prepare(ctx, req)
	if err != nil {
		return httpError(err)
	}

	if _, ok := c.Response().Writer.(http.Flusher); !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming not supported")
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	chunkCh, errCh := h.resolver.StreamChat(ctx, prepared)
	for chunk := range chunkCh {
		data, err := json.Marshal(chunk)
		if err != nil {
			continue
		}
		if err := writeEvent(res, string(data)); err != nil {
			h.logger.Warn("client went away", slog.Any("error", err))
			for range chunkCh {
			}
			return nil
		}
	}

	if err := <-errCh; err != nil {
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		_ = writeEvent(res, string(data))
		return nil
	}
	return writeEvent(res, "[DONE]")
}

func writeEvent(res *echo.Response, data string) error {
	if _, err := fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
		return err
	}
	res.Flush()
	return nil
}

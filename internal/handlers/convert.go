package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/docchat/internal/attachment"
	"github.com/memohai/docchat/internal/convert"
)

type ConvertHandler struct {
	pipeline *convert.Pipeline
	logger   *slog.Logger
}

func NewConvertHandler(log *slog.Logger, pipeline *convert.Pipeline) *ConvertHandler {
	return &ConvertHandler{
		pipeline: pipeline,
		logger:   log.With(slog.String("handler", "convert")),
	}
}

func (h *ConvertHandler) Register(e *echo.Echo) {
	e.POST("/api/convert", h.Convert)
}

// Convert returns the attachment with a PDF payload replaced by its XML
// conversion. Other attachments are echoed back unchanged.
func (h *ConvertHandler) Convert(c echo.Context) error {
	var att attachment.Attachment
	if err := bindAndValidate(c, &att); err != nil {
		return err
	}
	if att.Kind() != attachment.KindPDF {
		return c.JSON(http.StatusOK, att)
	}

	url, err := h.pipeline.ConvertPDFAttachment(c.Request().Context(), att.URL, att.Name)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, attachment.Attachment{
		Name:        att.Name,
		ContentType: attachment.XMLContentType,
		URL:         url,
	})
}

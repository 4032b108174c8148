package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/memohai/docchat/internal/attachment"
	"github.com/memohai/docchat/internal/dataurl"
	"github.com/memohai/docchat/internal/metrics"
)

// Pipeline converts PDF payloads into XML text documents.
type Pipeline struct {
	extractor TextExtractor
	metrics   *metrics.Metrics
	timeout   time.Duration
	logger    *slog.Logger
}

// NewPipeline builds a pipeline. timeout <= 0 means no per-document deadline;
// m may be nil.
func NewPipeline(log *slog.Logger, extractor TextExtractor, m *metrics.Metrics, timeout time.Duration) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		extractor: extractor,
		metrics:   m,
		timeout:   timeout,
		logger:    log.With(slog.String("service", "convert")),
	}
}

// ConvertPDFAttachment decodes a PDF data URL, extracts its text and returns
// a text/xml data URL holding the XML document.
func (p *Pipeline) ConvertPDFAttachment(ctx context.Context, dataURL, filename string) (string, error) {
	start := time.Now()
	data, err := dataurl.Decode(dataURL)
	if err != nil {
		p.observe(filename, 0, err, start)
		return "", fmt.Errorf("decode %q: %w", filename, err)
	}
	out, err := p.convert(ctx, filename, data)
	p.observe(filename, len(data), err, start)
	if err != nil {
		return "", err
	}
	return dataurl.Encode(out, attachment.XMLContentType), nil
}

// ConvertPDF converts raw PDF bytes into the XML document.
func (p *Pipeline) ConvertPDF(ctx context.Context, filename string, data []byte) ([]byte, error) {
	start := time.Now()
	out, err := p.convert(ctx, filename, data)
	p.observe(filename, len(data), err, start)
	return out, err
}

func (p *Pipeline) convert(ctx context.Context, filename string, data []byte) ([]byte, error) {
	text, err := p.extract(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("extract %q: %w", filename, err)
	}
	out, err := ToXML(filename, text)
	if err != nil {
		return nil, fmt.Errorf("serialize %q: %w", filename, err)
	}
	return out, nil
}

type extractResult struct {
	text string
	err  error
}

// extract runs the extractor in its own goroutine so a deadline can abandon
// it. An abandoned extraction finishes in the background and its result is
// dropped.
func (p *Pipeline) extract(ctx context.Context, data []byte) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	done := make(chan extractResult, 1)
	go func() {
		text, err := p.extractor.ExtractText(ctx, data)
		done <- extractResult{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && isContextErr(res.err) && !errors.Is(res.err, ErrConversionBackend) {
			return "", fmt.Errorf("%w: %w", ErrConversionBackend, res.err)
		}
		return res.text, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrConversionBackend, ctx.Err())
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (p *Pipeline) observe(filename string, size int, err error, start time.Time) {
	elapsed := time.Since(start)
	result := resultLabel(err)
	p.metrics.ObserveConversion(result, elapsed)
	if err != nil {
		p.logger.Warn("pdf conversion failed",
			slog.String("filename", filename),
			slog.String("result", result),
			slog.Any("error", err),
		)
		return
	}
	p.logger.Debug("pdf converted",
		slog.String("filename", filename),
		slog.Int("bytes", size),
		slog.Duration("elapsed", elapsed),
	)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, dataurl.ErrMalformed):
		return metrics.ResultMalformed
	case errors.Is(err, ErrUnsupportedDocument):
		return metrics.ResultUnsupported
	default:
		return metrics.ResultBackend
	}
}

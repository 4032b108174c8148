package convert

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/memohai/docchat/internal/media"
)

// TextExtractor turns raw document bytes into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

var pdfMagic = []byte("%PDF-")

// PDFExtractor reads the embedded text layer of a PDF. Scanned (image-only)
// pages yield no text.
type PDFExtractor struct {
	maxBytes int64
}

// NewPDFExtractor returns an extractor. maxBytes <= 0 disables the size ceiling.
func NewPDFExtractor(maxBytes int64) *PDFExtractor {
	return &PDFExtractor{maxBytes: maxBytes}
}

// ExtractText walks pages in ascending order and joins their plain text with
// newlines.
func (e *PDFExtractor) ExtractText(ctx context.Context, data []byte) (text string, err error) {
	if err := media.CheckSize(data, e.maxBytes); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedDocument, err)
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return "", fmt.Errorf("%w: missing %s header", ErrUnsupportedDocument, pdfMagic)
	}

	// The parser panics on some corrupt inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrUnsupportedDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedDocument, err)
	}

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrConversionBackend, err)
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %w", ErrUnsupportedDocument, i, err)
		}
		pages = append(pages, pageText)
	}
	return strings.Join(pages, "\n"), nil
}

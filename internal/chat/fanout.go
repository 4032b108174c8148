package chat

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/memohai/docchat/internal/attachment"
)

// PDFConverter turns a PDF data URL into a text/xml data URL.
type PDFConverter interface {
	ConvertPDFAttachment(ctx context.Context, dataURL, filename string) (string, error)
}

// AttachmentConverter rewrites the PDF attachments of a conversation.
type AttachmentConverter struct {
	converter PDFConverter
	limit     int
}

// NewAttachmentConverter returns a converter. maxConcurrency <= 0 runs every
// conversion at once.
func NewAttachmentConverter(converter PDFConverter, maxConcurrency int) *AttachmentConverter {
	return &AttachmentConverter{converter: converter, limit: maxConcurrency}
}

// ConvertMessages returns a copy of msgs in which every PDF attachment has
// been replaced by its XML conversion. Conversions run concurrently; the
// first failure aborts the call and no partial result is returned. msgs is
// never modified.
func (c *AttachmentConverter) ConvertMessages(ctx context.Context, msgs []Message) ([]Message, error) {
	out := make([]Message, len(msgs))
	copy(out, msgs)

	g, gctx := errgroup.WithContext(ctx)
	if c.limit > 0 {
		g.SetLimit(c.limit)
	}

	for i := range out {
		if len(out[i].Attachments) == 0 {
			continue
		}
		atts := make([]attachment.Attachment, len(out[i].Attachments))
		copy(atts, out[i].Attachments)
		out[i].Attachments = atts

		for j, src := range atts {
			if src.Kind() != attachment.KindPDF {
				continue
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				url, err := c.converter.ConvertPDFAttachment(gctx, src.URL, src.Name)
				if err != nil {
					return fmt.Errorf("message %d attachment %d (%s): %w", i, j, src.Name, err)
				}
				atts[j] = attachment.Attachment{
					Name:        src.Name,
					ContentType: attachment.XMLContentType,
					URL:         url,
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

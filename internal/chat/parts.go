package chat

import (
	"fmt"

	"github.com/memohai/docchat/internal/attachment"
	"github.com/memohai/docchat/internal/dataurl"
)

type partKind int

const (
	partText partKind = iota
	partImage
)

// contentPart is a provider-neutral piece of message content.
type contentPart struct {
	kind      partKind
	text      string
	url       string
	mediaType string
	data      []byte // decoded image payload; nil for remote URLs
}

// messageParts expands a message into its text followed by one part per
// attachment. Images stay URLs, text attachments are inlined and anything
// else is rejected.
func messageParts(m Message) ([]contentPart, error) {
	parts := make([]contentPart, 0, len(m.Attachments)+1)
	if m.Content != "" {
		parts = append(parts, contentPart{kind: partText, text: m.Content})
	}
	for _, att := range m.Attachments {
		switch att.Kind() {
		case attachment.KindImage:
			part := contentPart{kind: partImage, url: att.URL, mediaType: att.ContentType}
			if dataurl.IsDataURL(att.URL) {
				parsed, err := dataurl.Parse(att.URL)
				if err != nil {
					return nil, fmt.Errorf("attachment %q: %w", att.Name, err)
				}
				part.data = parsed.Data
				part.mediaType = parsed.MediaType
			}
			parts = append(parts, part)
		case attachment.KindText:
			if !dataurl.IsDataURL(att.URL) {
				return nil, fmt.Errorf("%w: %q: remote text attachments are not fetched", ErrUnsupportedAttachment, att.Name)
			}
			data, err := dataurl.Decode(att.URL)
			if err != nil {
				return nil, fmt.Errorf("attachment %q: %w", att.Name, err)
			}
			parts = append(parts, contentPart{kind: partText, text: string(data)})
		default:
			return nil, fmt.Errorf("%w: %q has content type %q", ErrUnsupportedAttachment, att.Name, att.ContentType)
		}
	}
	return parts, nil
}

package attachment

import "strings"

// Kind classifies an attachment by its declared content type.
type Kind string

const (
	KindImage Kind = "image"
	KindText  Kind = "text"
	KindPDF   Kind = "pdf"
	KindOther Kind = "other"
)

// XMLContentType is the content type of converted PDF attachments.
const XMLContentType = "text/xml"

// Attachment is a file attached to a chat message. URL carries the payload,
// normally as a base64 data URL.
type Attachment struct {
	Name        string `json:"name,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	URL         string `json:"url" validate:"required"`
}

// Kind returns the classification of the attachment's content type.
func (a Attachment) Kind() Kind {
	return Classify(a.ContentType)
}

// Classify maps a content type onto a Kind. Matching is case-insensitive:
// "image/" and "text/" prefixes win first, then strings whose last four
// bytes are literally "/pdf". "application/x-pdf" and "+pdf" suffixes do not
// match. An empty content type is KindOther.
func Classify(contentType string) Kind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return KindImage
	case strings.HasPrefix(ct, "text/"):
		return KindText
	case strings.HasSuffix(ct, "/pdf"):
		return KindPDF
	default:
		return KindOther
	}
}

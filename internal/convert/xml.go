package convert

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// Document is the XML envelope sent to the model in place of a PDF.
type Document struct {
	XMLName  xml.Name `xml:"pdf"`
	Filename string   `xml:"filename"`
	Content  string   `xml:"content"`
}

// ToXML renders filename and text into an indented XML document. Characters
// that XML 1.0 cannot represent are replaced with U+FFFD.
func ToXML(filename, text string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(Document{Filename: filename, Content: text}); err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// ParseXML decodes a document produced by ToXML.
func ParseXML(data []byte) (Document, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode xml: %w", err)
	}
	return doc, nil
}

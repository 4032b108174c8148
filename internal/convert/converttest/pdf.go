// Package converttest builds small PDF fixtures for tests.
package converttest

import (
	"bytes"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

// PDF renders one page per entry, each holding a single line of text.
func PDF(t testing.TB, pages ...string) []byte {
	t.Helper()
	return render(t, nil, pages)
}

// EncryptedPDF renders a document that requires userPassword to open.
func EncryptedPDF(t testing.TB, userPassword string, pages ...string) []byte {
	t.Helper()
	return render(t, func(doc *gofpdf.Fpdf) {
		doc.SetProtection(gofpdf.CnProtectPrint, userPassword, "owner-"+userPassword)
	}, pages)
}

func render(t testing.TB, setup func(*gofpdf.Fpdf), pages []string) []byte {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	if setup != nil {
		setup(doc)
	}
	doc.SetFont("Helvetica", "", 14)
	for _, text := range pages {
		doc.AddPage()
		doc.Text(20, 30, text)
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("render pdf fixture: %v", err)
	}
	return buf.Bytes()
}

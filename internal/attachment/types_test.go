package attachment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		contentType string
		want        Kind
	}{
		{contentType: "application/pdf", want: KindPDF},
		{contentType: "APPLICATION/PDF", want: KindPDF},
		{contentType: "application/x-pdf", want: KindOther},
		{contentType: "Application/Pdf", want: KindPDF},
		{contentType: "application/vnd.custom+pdf", want: KindOther},
		{contentType: "application/pdf; charset=binary", want: KindOther},
		{contentType: "image/png", want: KindImage},
		{contentType: "IMAGE/JPEG", want: KindImage},
		{contentType: "text/plain", want: KindText},
		{contentType: "text/xml", want: KindText},
		{contentType: "application/json", want: KindOther},
		{contentType: "", want: KindOther},
		{contentType: "pdf", want: KindOther},
	}

	for _, tc := range cases {
		got := Classify(tc.contentType)
		assert.Equal(t, tc.want, got, "content type %q", tc.contentType)
	}
}

func TestAttachmentKind(t *testing.T) {
	t.Parallel()

	var missing Attachment
	assert.Equal(t, KindOther, missing.Kind())
	assert.Equal(t, KindPDF, Attachment{Name: "a.pdf", ContentType: "application/pdf"}.Kind())
}

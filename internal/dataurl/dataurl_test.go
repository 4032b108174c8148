package dataurl

import (
	"bytes"
	"encoding/base64"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	payload := base64.StdEncoding.EncodeToString([]byte("payload"))
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "pdf", input: "data:application/pdf;base64," + payload, want: "payload"},
		{name: "upper case scheme", input: "DATA:text/plain;base64," + payload, want: "payload"},
		{name: "extra params", input: "data:text/plain;charset=utf-8;base64," + payload, want: "payload"},
		{name: "unpadded", input: "data:text/plain;base64," + base64.RawStdEncoding.EncodeToString([]byte("ab")), want: "ab"},
		{name: "empty payload", input: "data:text/plain;base64,", want: ""},
		{name: "not a data url", input: "not-a-data-url", wantErr: true},
		{name: "missing comma", input: "data:application/pdf;base64", wantErr: true},
		{name: "wrong scheme", input: "http://example.com/a.pdf,abc", wantErr: true},
		{name: "missing media type", input: "data:;base64," + payload, wantErr: true},
		{name: "missing semicolon", input: "data:application/pdf," + payload, wantErr: true},
		{name: "not base64 encoded", input: "data:text/plain;charset=utf-8,hello", wantErr: true},
		{name: "invalid base64", input: "data:text/plain;base64,!!!!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Decode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestParseErrorReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "data:application/pdf,AAAA", want: "only base64 payloads are supported"},
		{input: "data:text/plain;charset=utf-8,hello", want: "only base64 payloads are supported"},
		{input: "data:;base64,AAAA", want: "missing media type"},
		{input: "data:,AAAA", want: "missing media type"},
		{input: "data:application/pdf;base64", want: "missing comma separator"},
	}

	for _, tt := range tests {
		_, err := Parse(tt.input)
		require.ErrorIs(t, err, ErrMalformed, tt.input)
		assert.Contains(t, err.Error(), tt.want, tt.input)
	}
}

func TestParseKeepsMediaType(t *testing.T) {
	t.Parallel()

	parsed, err := Parse(Encode([]byte("<a/>"), "text/xml"))
	require.NoError(t, err)
	assert.Equal(t, "text/xml", parsed.MediaType)
	assert.Equal(t, "<a/>", string(parsed.Data))
}

func TestEncodeFormat(t *testing.T) {
	t.Parallel()

	got := Encode([]byte("hello"), "image/png")
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", got)
	assert.True(t, IsDataURL(got))
	assert.False(t, IsDataURL("https://example.com/a.png"))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	inputs := [][]byte{nil, {}, {0}, {0xff, 0xfe, 0x00}, []byte("%PDF-1.4")}
	for i := 0; i < 64; i++ {
		buf := make([]byte, rng.Intn(512))
		rng.Read(buf)
		inputs = append(inputs, buf)
	}
	mimes := []string{"application/pdf", "text/xml", "application/octet-stream"}

	for i, in := range inputs {
		mime := mimes[i%len(mimes)]
		out, err := Decode(Encode(in, mime))
		require.NoError(t, err)
		if !bytes.Equal(in, out) {
			t.Fatalf("round trip mismatch for input %d (len %d)", i, len(in))
		}
	}
}

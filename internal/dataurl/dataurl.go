// Package dataurl encodes and decodes base64 data URLs of the form
// data:<mime>;base64,<payload>.
package dataurl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed indicates the input is not a well-formed base64 data URL.
var ErrMalformed = errors.New("malformed data url")

const (
	scheme       = "data:"
	base64Marker = ";base64"
)

// DataURL is a decoded data URL.
type DataURL struct {
	MediaType string
	Data      []byte
}

// IsDataURL reports whether raw looks like a data URL. It does not validate it.
func IsDataURL(raw string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), scheme)
}

// Encode wraps data into a base64 data URL with the given media type.
func Encode(data []byte, mime string) string {
	return scheme + mime + base64Marker + "," + base64.StdEncoding.EncodeToString(data)
}

// Decode returns the payload bytes of a base64 data URL.
func Decode(raw string) ([]byte, error) {
	parsed, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return parsed.Data, nil
}

// Parse splits a data URL on its first comma, validates the header and
// decodes the payload.
func Parse(raw string) (DataURL, error) {
	value := strings.TrimSpace(raw)
	header, payload, ok := strings.Cut(value, ",")
	if !ok {
		return DataURL{}, fmt.Errorf("%w: missing comma separator", ErrMalformed)
	}
	if len(header) < len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return DataURL{}, fmt.Errorf("%w: missing %q prefix", ErrMalformed, scheme)
	}
	meta := header[len(scheme):]
	mime, params, hasParams := strings.Cut(meta, ";")
	if strings.TrimSpace(mime) == "" {
		return DataURL{}, fmt.Errorf("%w: missing media type", ErrMalformed)
	}
	if !hasParams || !hasBase64Param(params) {
		return DataURL{}, fmt.Errorf("%w: only base64 payloads are supported", ErrMalformed)
	}
	data, err := decodeBase64(payload)
	if err != nil {
		return DataURL{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return DataURL{MediaType: strings.TrimSpace(mime), Data: data}, nil
}

// hasBase64Param reports whether the last header parameter is "base64".
func hasBase64Param(params string) bool {
	idx := strings.LastIndex(params, ";")
	last := params
	if idx >= 0 {
		last = params[idx+1:]
	}
	return strings.EqualFold(strings.TrimSpace(last), "base64")
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	if strings.HasSuffix(payload, "=") {
		return nil, err
	}
	return base64.RawStdEncoding.DecodeString(payload)
}

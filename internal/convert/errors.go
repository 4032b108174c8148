package convert

import "errors"

var (
	// ErrUnsupportedDocument indicates the bytes could not be parsed as a PDF
	// or its text layer could not be read (including encrypted documents).
	ErrUnsupportedDocument = errors.New("unsupported document")
	// ErrConversionBackend indicates the extraction backend failed to finish,
	// for example because the conversion deadline elapsed.
	ErrConversionBackend = errors.New("conversion backend failure")
)

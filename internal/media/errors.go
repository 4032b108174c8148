package media

import "errors"

var (
	// ErrTooLarge indicates the payload exceeds the configured max document size.
	ErrTooLarge = errors.New("document too large")
	// ErrEmpty indicates an empty payload where content was required.
	ErrEmpty = errors.New("document is empty")
)

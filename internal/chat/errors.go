package chat

import "errors"

var (
	// ErrUpstream wraps failures reported by the completion API.
	ErrUpstream = errors.New("upstream completion failure")
	// ErrUnsupportedAttachment is returned for attachments a provider cannot
	// turn into message content.
	ErrUnsupportedAttachment = errors.New("unsupported attachment")
)

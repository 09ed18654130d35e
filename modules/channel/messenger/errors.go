package messenger

import "errors"

// Sentinel errors for the messenger channel.
var (
	ErrUnknownSource   = errors.New("messenger: unknown payload source")
	ErrInvalidPayload  = errors.New("messenger: invalid payload")
	ErrNilMessage      = errors.New("messenger: nil message")
	ErrMalformedXMD    = errors.New("messenger: malformed platform metadata")
	ErrNoTransport     = errors.New("messenger: no transport configured")
	ErrMissingThreadID = errors.New("messenger: thread id is required")
)

package message

import (
	"errors"
	"fmt"
)

// Lookup errors.
var (
	ErrUnknownEmojiSize      = errors.New("message: unknown emoji size")
	ErrUnknownThreadType     = errors.New("message: unknown thread type")
	ErrUnknownAttachmentKind = errors.New("message: unknown attachment kind")
	ErrUnknownQuickReplyKind = errors.New("message: unknown quick reply content type")
)

// Mention template errors.
var (
	ErrMentionFormat  = errors.New("message: invalid mention template")
	ErrFieldNumbering = fmt.Errorf("%w: cannot switch from automatic field numbering to manual field specification", ErrMentionFormat)
	ErrMissingArg     = fmt.Errorf("%w: missing argument", ErrMentionFormat)
)

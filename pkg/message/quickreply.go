package message

import (
	"fmt"
	"strings"
)

// QuickReplyKind is the content type of a suggested reply.
type QuickReplyKind string

// Supported quick reply content types.
const (
	QuickReplyKindText        QuickReplyKind = "text"
	QuickReplyKindLocation    QuickReplyKind = "location"
	QuickReplyKindPhoneNumber QuickReplyKind = "user_phone_number"
	QuickReplyKindEmail       QuickReplyKind = "user_email"
)

// QuickReplyBase holds the fields every quick reply variant carries.
// Payload, ExternalPayload and Data are opaque JSON values.
type QuickReplyBase struct {
	Payload         any  `json:"payload,omitempty"`
	ExternalPayload any  `json:"external_payload,omitempty"`
	Data            any  `json:"data,omitempty"`
	IsResponse      bool `json:"is_response,omitempty"`
}

// QuickReply is a suggested canned response offered alongside a message,
// or the response a user picked.
type QuickReply interface {
	QuickReplyKind() QuickReplyKind
	Common() *QuickReplyBase
	quickReply()
}

// QuickReplyText suggests a text answer.
type QuickReplyText struct {
	QuickReplyBase
	Title    string `json:"title,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// QuickReplyLocation asks the user to share a location.
type QuickReplyLocation struct {
	QuickReplyBase
}

// QuickReplyPhoneNumber asks the user to share a phone number.
type QuickReplyPhoneNumber struct {
	QuickReplyBase
	ImageURL string `json:"image_url,omitempty"`
}

// QuickReplyEmail asks the user to share an email address.
type QuickReplyEmail struct {
	QuickReplyBase
	ImageURL string `json:"image_url,omitempty"`
}

func (*QuickReplyText) QuickReplyKind() QuickReplyKind        { return QuickReplyKindText }
func (*QuickReplyLocation) QuickReplyKind() QuickReplyKind    { return QuickReplyKindLocation }
func (*QuickReplyPhoneNumber) QuickReplyKind() QuickReplyKind { return QuickReplyKindPhoneNumber }
func (*QuickReplyEmail) QuickReplyKind() QuickReplyKind       { return QuickReplyKindEmail }

// Common returns the shared fields.
func (b *QuickReplyBase) Common() *QuickReplyBase { return b }

func (*QuickReplyText) quickReply()        {}
func (*QuickReplyLocation) quickReply()    {}
func (*QuickReplyPhoneNumber) quickReply() {}
func (*QuickReplyEmail) quickReply()       {}

var (
	_ QuickReply = (*QuickReplyText)(nil)
	_ QuickReply = (*QuickReplyLocation)(nil)
	_ QuickReply = (*QuickReplyPhoneNumber)(nil)
	_ QuickReply = (*QuickReplyEmail)(nil)
)

// NewQuickReply returns an empty quick reply of the given content type.
// The lookup is case-insensitive.
func NewQuickReply(contentType string) (QuickReply, error) {
	newFn, ok := quickReplyFactories[QuickReplyKind(strings.ToLower(contentType))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuickReplyKind, contentType)
	}
	return newFn(), nil
}

// QuickReplyImageURL returns the image url of q, or "" for variants that
// have none.
func QuickReplyImageURL(q QuickReply) string {
	switch v := q.(type) {
	case *QuickReplyText:
		return v.ImageURL
	case *QuickReplyPhoneNumber:
		return v.ImageURL
	case *QuickReplyEmail:
		return v.ImageURL
	}
	return ""
}

// SetQuickReplyImageURL sets the image url on variants that support one.
func SetQuickReplyImageURL(q QuickReply, url string) {
	switch v := q.(type) {
	case *QuickReplyText:
		v.ImageURL = url
	case *QuickReplyPhoneNumber:
		v.ImageURL = url
	case *QuickReplyEmail:
		v.ImageURL = url
	}
}

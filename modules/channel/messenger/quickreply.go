package messenger

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/flemzord/mercury/pkg/message"
)

// quickReplyIn is a quick reply descriptor as received.
type quickReplyIn struct {
	ContentType     string  `json:"content_type"`
	Payload         any     `json:"payload"`
	ExternalPayload any     `json:"external_payload"`
	Data            any     `json:"data"`
	Title           *string `json:"title"`
	ImageURL        *string `json:"image_url"`
}

// quickReplyOut is a quick reply descriptor as sent. Title and ImageURL are
// raw so that a present-but-empty value encodes as null and an absent one is
// omitted.
type quickReplyOut struct {
	ContentType      string          `json:"content_type"`
	Payload          any             `json:"payload"`
	ExternalPayload  any             `json:"external_payload"`
	Data             any             `json:"data"`
	IgnoreForWebhook *bool           `json:"ignore_for_webhook,omitempty"`
	Title            json.RawMessage `json:"title,omitempty"`
	ImageURL         json.RawMessage `json:"image_url,omitempty"`
}

// platformXMD is the envelope quick replies travel in.
type platformXMD struct {
	QuickReplies json.RawMessage `json:"quick_replies"`
}

// DecodeQuickReplies expands a "quick_replies" value into canonical quick
// replies. A list yields one reply per element. A single object is a reply
// the user already picked: it yields one reply with IsResponse set.
// Absent, null or non-container values yield an empty list.
func DecodeQuickReplies(raw json.RawMessage) ([]message.QuickReply, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []message.QuickReply{}, nil
	}

	switch raw[0] {
	case '[':
		var items []quickReplyIn
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("messenger: decode quick replies: %w", err)
		}
		out := make([]message.QuickReply, 0, len(items))
		for i := range items {
			q, err := items[i].toQuickReply(false)
			if err != nil {
				return nil, err
			}
			out = append(out, q)
		}
		return out, nil

	case '{':
		var item quickReplyIn
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("messenger: decode quick reply: %w", err)
		}
		q, err := item.toQuickReply(true)
		if err != nil {
			return nil, err
		}
		return []message.QuickReply{q}, nil

	default:
		return []message.QuickReply{}, nil
	}
}

func (in *quickReplyIn) toQuickReply(isResponse bool) (message.QuickReply, error) {
	q, err := message.NewQuickReply(in.ContentType)
	if err != nil {
		return nil, err
	}

	base := q.Common()
	base.Payload = in.Payload
	base.ExternalPayload = in.ExternalPayload
	base.Data = in.Data
	base.IsResponse = isResponse

	if in.ImageURL != nil {
		message.SetQuickReplyImageURL(q, *in.ImageURL)
	}
	if t, ok := q.(*message.QuickReplyText); ok && in.Title != nil {
		t.Title = *in.Title
	}
	return q, nil
}

// EncodeQuickReplies is the inverse of DecodeQuickReplies. It collapses the
// list to a single object when it holds exactly one reply and that reply is
// a response.
func EncodeQuickReplies(replies []message.QuickReply) (json.RawMessage, error) {
	items := make([]quickReplyOut, 0, len(replies))
	for _, q := range replies {
		if q == nil {
			continue
		}
		items = append(items, encodeQuickReply(q))
	}

	if len(replies) == 1 && replies[0] != nil && replies[0].Common().IsResponse {
		return json.Marshal(items[0])
	}
	return json.Marshal(items)
}

func encodeQuickReply(q message.QuickReply) quickReplyOut {
	base := q.Common()
	out := quickReplyOut{
		ContentType:     string(q.QuickReplyKind()),
		Payload:         base.Payload,
		ExternalPayload: base.ExternalPayload,
		Data:            base.Data,
	}
	if base.IsResponse {
		ignore := false
		out.IgnoreForWebhook = &ignore
	}
	if t, ok := q.(*message.QuickReplyText); ok {
		out.Title = nullableString(t.Title)
	}
	if q.QuickReplyKind() != message.QuickReplyKindLocation {
		out.ImageURL = nullableString(message.QuickReplyImageURL(q))
	}
	return out
}

// EncodePlatformXMD wraps encoded quick replies in the platform metadata
// envelope.
func EncodePlatformXMD(replies []message.QuickReply) (string, error) {
	encoded, err := EncodeQuickReplies(replies)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(platformXMD{QuickReplies: encoded})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodePlatformXMD extracts quick replies from a platform metadata string.
// An empty string yields an empty list.
func DecodePlatformXMD(xmd string) ([]message.QuickReply, error) {
	if xmd == "" {
		return []message.QuickReply{}, nil
	}
	var env platformXMD
	if err := json.Unmarshal([]byte(xmd), &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedXMD, err)
	}
	return DecodeQuickReplies(env.QuickReplies)
}

func nullableString(s string) json.RawMessage {
	if s == "" {
		return json.RawMessage("null")
	}
	b, _ := json.Marshal(s)
	return b
}

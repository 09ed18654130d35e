package message

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var attachmentFactories = map[AttachmentKind]func() Attachment{
	KindGeneric:      func() Attachment { return &GenericAttachment{} },
	KindFile:         func() Attachment { return &FileAttachment{} },
	KindAudio:        func() Attachment { return &AudioAttachment{} },
	KindImage:        func() Attachment { return &ImageAttachment{} },
	KindVideo:        func() Attachment { return &VideoAttachment{} },
	KindSticker:      func() Attachment { return &Sticker{} },
	KindLocation:     func() Attachment { return &LocationAttachment{} },
	KindLiveLocation: func() Attachment { return &LiveLocationAttachment{} },
	KindShare:        func() Attachment { return &ShareAttachment{} },
	KindUnsent:       func() Attachment { return &UnsentMessage{} },
}

var quickReplyFactories = map[QuickReplyKind]func() QuickReply{
	QuickReplyKindText:        func() QuickReply { return &QuickReplyText{} },
	QuickReplyKindLocation:    func() QuickReply { return &QuickReplyLocation{} },
	QuickReplyKindPhoneNumber: func() QuickReply { return &QuickReplyPhoneNumber{} },
	QuickReplyKindEmail:       func() QuickReply { return &QuickReplyEmail{} },
}

// withType prefixes an encoded JSON object with a "type" member.
func withType(kind string, v any) (json.RawMessage, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("message: %s does not encode to an object", kind)
	}

	tag, err := json.Marshal(kind)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(tag) + 9)
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	if rest := body[1:]; !bytes.Equal(rest, []byte("}")) {
		buf.WriteByte(',')
		buf.Write(rest)
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

func readType(raw json.RawMessage) (string, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", err
	}
	return head.Type, nil
}

func encodeAttachments(list []Attachment) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(list))
	for _, a := range list {
		if a == nil {
			continue
		}
		raw, err := withType(string(a.AttachmentKind()), a)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func decodeAttachments(list []json.RawMessage) ([]Attachment, error) {
	if list == nil {
		return nil, nil
	}
	out := make([]Attachment, 0, len(list))
	for i, raw := range list {
		kind, err := readType(raw)
		if err != nil {
			return nil, fmt.Errorf("message: attachment %d: %w", i, err)
		}
		newFn, ok := attachmentFactories[AttachmentKind(kind)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAttachmentKind, kind)
		}
		a := newFn()
		if err := json.Unmarshal(raw, a); err != nil {
			return nil, fmt.Errorf("message: attachment %d: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func encodeQuickReplies(list []QuickReply) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(list))
	for _, q := range list {
		if q == nil {
			continue
		}
		raw, err := withType(string(q.QuickReplyKind()), q)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func decodeQuickReplies(list []json.RawMessage) ([]QuickReply, error) {
	if list == nil {
		return nil, nil
	}
	out := make([]QuickReply, 0, len(list))
	for i, raw := range list {
		kind, err := readType(raw)
		if err != nil {
			return nil, fmt.Errorf("message: quick reply %d: %w", i, err)
		}
		q, err := NewQuickReply(kind)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, q); err != nil {
			return nil, fmt.Errorf("message: quick reply %d: %w", i, err)
		}
		out = append(out, q)
	}
	return out, nil
}

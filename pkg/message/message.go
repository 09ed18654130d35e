package message

import "encoding/json"

// Defaults applied when a wire mention record omits its span fields.
const (
	DefaultMentionOffset = 0
	DefaultMentionLength = 10
)

// Mention marks a span of the parent message text as referring to a thread
// or user. Spans are not validated against the text.
type Mention struct {
	ThreadID string `json:"thread_id"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
}

// Message is the canonical representation of one chat message, whatever
// payload shape it was decoded from.
type Message struct {
	ID         string          `json:"id,omitempty"`
	AuthorID   string          `json:"author_id,omitempty"`
	ThreadID   string          `json:"thread_id,omitempty"`
	ThreadType ThreadType      `json:"thread_type,omitempty"`
	Timestamp  *int64          `json:"timestamp,omitempty"`
	Location   *ThreadLocation `json:"location,omitempty"`

	Text         *string      `json:"text,omitempty"`
	Mentions     []Mention    `json:"mentions"`
	EmojiSize    EmojiSize    `json:"emoji_size,omitempty"`
	Sticker      *Sticker     `json:"sticker,omitempty"`
	Attachments  []Attachment `json:"-"`
	QuickReplies []QuickReply `json:"-"`
	ReplyToID    string       `json:"reply_to_id,omitempty"`
	RepliedTo    *Message     `json:"replied_to,omitempty"`

	IsRead    *bool               `json:"is_read,omitempty"`
	ReadBy    []string            `json:"read_by"`
	Reactions map[string]Reaction `json:"reactions"`
	Unsent    bool                `json:"unsent"`
	Forwarded bool                `json:"forwarded"`
}

// New returns a message with every collection initialized and no text.
func New() *Message {
	m := &Message{}
	m.EnsureDefaults()
	return m
}

// NewText returns an outgoing message carrying text.
func NewText(text string) *Message {
	m := New()
	m.Text = &text
	return m
}

// EnsureDefaults replaces nil collections with empty ones.
func (m *Message) EnsureDefaults() {
	if m.Mentions == nil {
		m.Mentions = []Mention{}
	}
	if m.Attachments == nil {
		m.Attachments = []Attachment{}
	}
	if m.QuickReplies == nil {
		m.QuickReplies = []QuickReply{}
	}
	if m.ReadBy == nil {
		m.ReadBy = []string{}
	}
	if m.Reactions == nil {
		m.Reactions = map[string]Reaction{}
	}
}

// HasText reports whether the message carries a text body.
func (m *Message) HasText() bool {
	return m.Text != nil && *m.Text != ""
}

// TextValue returns the text body, or "" when absent.
func (m *Message) TextValue() string {
	if m.Text == nil {
		return ""
	}
	return *m.Text
}

// MarshalJSON encodes attachments and quick replies as type-tagged objects.
func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message
	attachments, err := encodeAttachments(m.Attachments)
	if err != nil {
		return nil, err
	}
	replies, err := encodeQuickReplies(m.QuickReplies)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		alias
		Attachments  []json.RawMessage `json:"attachments"`
		QuickReplies []json.RawMessage `json:"quick_replies"`
	}{alias(m), attachments, replies})
}

// UnmarshalJSON restores the concrete attachment and quick reply variants.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	aux := struct {
		*alias
		Attachments  []json.RawMessage `json:"attachments"`
		QuickReplies []json.RawMessage `json:"quick_replies"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	attachments, err := decodeAttachments(aux.Attachments)
	if err != nil {
		return err
	}
	replies, err := decodeQuickReplies(aux.QuickReplies)
	if err != nil {
		return err
	}
	m.Attachments = attachments
	m.QuickReplies = replies
	m.EnsureDefaults()
	return nil
}

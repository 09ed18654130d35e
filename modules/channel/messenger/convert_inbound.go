package messenger

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flemzord/mercury/pkg/message"
)

var errMissingMercury = errors.New("missing mercury payload")

// Source names one of the payload shapes the normalizer accepts.
type Source string

// Supported payload sources.
const (
	SourceGraphQL    Source = "graphql"
	SourceDelta      Source = "delta"
	SourceDeltaReply Source = "delta_reply"
	SourcePull       Source = "pull"
)

// ParseSource maps a source name (any case) to a Source.
func ParseSource(s string) (Source, error) {
	switch src := Source(strings.ToLower(s)); src {
	case SourceGraphQL, SourceDelta, SourceDeltaReply, SourcePull:
		return src, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

// Thread is the conversation context a payload is normalized in. The payload
// alone does not say whether a thread is a user or a group.
type Thread struct {
	ID   string
	Type message.ThreadType
}

// Normalizer converts raw payloads into canonical messages. It holds no
// mutable state; the zero value is ready to use.
type Normalizer struct {
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used to report skipped attachments, mentions
// and quick replies.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) { n.logger = logger }
}

// WithMetrics sets the collectors updated on every normalization.
func WithMetrics(m *Metrics) Option {
	return func(n *Normalizer) { n.metrics = m }
}

// NewNormalizer returns a Normalizer configured with opts.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Normalizer) log() *slog.Logger {
	if n == nil || n.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return n.logger
}

func (n *Normalizer) stats() *Metrics {
	if n == nil {
		return nil
	}
	return n.metrics
}

// NormalizeRaw decodes data as the given source shape and normalizes it.
func (n *Normalizer) NormalizeRaw(source Source, thread Thread, data []byte) (*message.Message, error) {
	switch source {
	case SourceGraphQL:
		raw, err := decodePayload[GraphQLMessage](data)
		if err != nil {
			return nil, err
		}
		return n.FromGraphQL(thread, raw)
	case SourceDelta:
		raw, err := decodePayload[DeltaMessage](data)
		if err != nil {
			return nil, err
		}
		return n.FromDelta(thread, raw)
	case SourceDeltaReply:
		raw, err := decodePayload[DeltaReply](data)
		if err != nil {
			return nil, err
		}
		return n.FromDeltaReply(thread, raw)
	case SourcePull:
		raw, err := decodePayload[PullDelta](data)
		if err != nil {
			return nil, err
		}
		return n.FromPull(thread, raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
}

func decodePayload[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return &v, nil
}

// FromGraphQL normalizes a bulk query message node. A nested replied-to
// message is normalized recursively. A nil node yields nil.
func (n *Normalizer) FromGraphQL(thread Thread, raw *GraphQLMessage) (*message.Message, error) {
	if raw == nil {
		return nil, nil
	}
	m, err := n.fromGraphQL(thread, raw)
	n.stats().observe(SourceGraphQL, m, err)
	return m, err
}

func (n *Normalizer) fromGraphQL(thread Thread, raw *GraphQLMessage) (*message.Message, error) {
	m := message.New()
	m.ID = raw.MessageID
	m.ThreadID = thread.ID
	m.ThreadType = thread.Type
	if raw.MessageSender != nil {
		m.AuthorID = string(raw.MessageSender.ID)
	}
	m.Timestamp = raw.TimestampPrecise.Ptr()

	if raw.Message != nil {
		m.Text = copyString(raw.Message.Text)
		for _, r := range raw.Message.Ranges {
			m.Mentions = append(m.Mentions, mentionFromRange(r))
		}
	}

	if err := applyTags(m, raw.TagsList); err != nil {
		return nil, fmt.Errorf("messenger: normalize %s message %s: %w", SourceGraphQL, m.ID, err)
	}

	if sticker, err := classifySticker(raw.Sticker); err != nil {
		n.log().Warn("sticker dropped", "source", SourceGraphQL, "message_id", m.ID, "error", err)
	} else {
		m.Sticker = sticker
	}

	if raw.Unread != nil {
		read := !*raw.Unread
		m.IsRead = &read
	}
	for _, r := range raw.MessageReactions {
		if r.User == nil {
			continue
		}
		m.Reactions[string(r.User.ID)] = message.ParseReaction(r.Reaction)
	}

	for i, blob := range raw.BlobAttachments {
		a, err := classifyBlob(blob)
		if err != nil {
			n.dropAttachment(SourceGraphQL, m.ID, i, err)
			continue
		}
		m.Attachments = append(m.Attachments, a)
	}

	m.QuickReplies = n.quickReplies(SourceGraphQL, m.ID, raw.PlatformXMDEncoded)
	n.addExtensible(SourceGraphQL, m, len(raw.BlobAttachments), raw.ExtensibleAttachment)

	if raw.RepliedToMessage != nil && raw.RepliedToMessage.Message != nil {
		replied, err := n.fromGraphQL(thread, raw.RepliedToMessage.Message)
		if err != nil {
			return nil, err
		}
		m.RepliedTo = replied
		m.ReplyToID = replied.ID
	}
	return m, nil
}

// FromDelta normalizes a realtime message delta. The folder comes from the
// metadata tags.
func (n *Normalizer) FromDelta(thread Thread, raw *DeltaMessage) (*message.Message, error) {
	if raw == nil {
		return nil, nil
	}
	m, err := n.fromDelta(SourceDelta, thread, raw)
	n.stats().observe(SourceDelta, m, err)
	return m, err
}

// FromDeltaReply normalizes a realtime reply delta, attaching the replied-to
// message when present.
func (n *Normalizer) FromDeltaReply(thread Thread, raw *DeltaReply) (*message.Message, error) {
	if raw == nil || raw.Message == nil {
		return nil, nil
	}
	m, err := n.fromDeltaReply(thread, raw)
	n.stats().observe(SourceDeltaReply, m, err)
	return m, err
}

func (n *Normalizer) fromDeltaReply(thread Thread, raw *DeltaReply) (*message.Message, error) {
	m, err := n.fromDelta(SourceDeltaReply, thread, raw.Message)
	if err != nil {
		return nil, err
	}
	if raw.RepliedToMessage != nil {
		replied, err := n.fromDelta(SourceDeltaReply, thread, raw.RepliedToMessage)
		if err != nil {
			return nil, err
		}
		m.RepliedTo = replied
		m.ReplyToID = replied.ID
	}
	return m, nil
}

func (n *Normalizer) fromDelta(source Source, thread Thread, raw *DeltaMessage) (*message.Message, error) {
	m := message.New()
	meta := applyMetadata(m, thread, raw.MessageMetadata)
	m.Text = copyString(raw.Body)

	if err := applyTags(m, meta.Tags); err != nil {
		return nil, fmt.Errorf("messenger: normalize %s message %s: %w", source, m.ID, err)
	}
	if folder, ok := message.FolderFromTags(meta.Tags); ok {
		m.Location = &folder
	}

	if raw.Data != nil {
		m.Mentions = n.mentionsFromPrng(source, m.ID, raw.Data.Prng)
		m.QuickReplies = n.quickReplies(source, m.ID, raw.Data.PlatformXMD)
	}

	for i, item := range raw.Attachments {
		var att deltaAttachment
		if err := json.Unmarshal(item, &att); err != nil {
			n.dropAttachment(source, m.ID, i, err)
			continue
		}
		var payload mercury
		if err := json.Unmarshal([]byte(att.MercuryJSON), &payload); err != nil {
			n.dropAttachment(source, m.ID, i, fmt.Errorf("decode mercuryJSON: %w", err))
			continue
		}

		if !isEmptyJSON(payload.BlobAttachment) {
			if a, err := classifyBlob(payload.BlobAttachment); err != nil {
				n.dropAttachment(source, m.ID, i, err)
			} else {
				m.Attachments = append(m.Attachments, a)
			}
		}
		n.addExtensible(source, m, i, payload.ExtensibleAttachment)
		if !isEmptyJSON(payload.StickerAttachment) {
			if s, err := classifySticker(payload.StickerAttachment); err != nil {
				n.dropAttachment(source, m.ID, i, err)
			} else {
				m.Sticker = s
			}
		}
	}
	return m, nil
}

// FromPull normalizes an offline queue delta. The folder comes from the
// metadata folder id, and attachment byte sizes are stamped onto file, video
// and audio attachments.
func (n *Normalizer) FromPull(thread Thread, raw *PullDelta) (*message.Message, error) {
	if raw == nil {
		return nil, nil
	}
	m, err := n.fromPull(thread, raw)
	n.stats().observe(SourcePull, m, err)
	return m, err
}

func (n *Normalizer) fromPull(thread Thread, raw *PullDelta) (*message.Message, error) {
	m := message.New()
	meta := applyMetadata(m, thread, raw.MessageMetadata)
	m.Text = copyString(raw.Body)

	if meta.FolderID != nil {
		if folder, ok := message.ParseThreadLocation(meta.FolderID.SystemFolderID); ok {
			m.Location = &folder
		}
	}

	if raw.Data != nil {
		m.Mentions = n.mentionsFromPrng(SourcePull, m.ID, raw.Data.Prng)
	}

	for i, item := range raw.Attachments {
		var att pullAttachment
		if err := json.Unmarshal(item, &att); err != nil {
			n.dropAttachment(SourcePull, m.ID, i, err)
			continue
		}
		if att.Mercury == nil {
			n.dropAttachment(SourcePull, m.ID, i, errMissingMercury)
			continue
		}

		switch {
		case !isEmptyJSON(att.Mercury.BlobAttachment):
			a, err := classifyBlob(att.Mercury.BlobAttachment)
			if err != nil {
				n.dropAttachment(SourcePull, m.ID, i, err)
				continue
			}
			stampSize(a, att.FileSize)
			m.Attachments = append(m.Attachments, a)
		case !isEmptyJSON(att.Mercury.StickerAttachment):
			s, err := classifySticker(att.Mercury.StickerAttachment)
			if err != nil {
				n.dropAttachment(SourcePull, m.ID, i, err)
				continue
			}
			m.Sticker = s
		default:
			n.addExtensible(SourcePull, m, i, att.Mercury.ExtensibleAttachment)
		}
	}

	if err := applyTags(m, meta.Tags); err != nil {
		return nil, fmt.Errorf("messenger: normalize %s message %s: %w", SourcePull, m.ID, err)
	}
	return m, nil
}

// applyMetadata fills identity fields from a delta envelope. When the caller
// supplied no thread id, the envelope's thread key is used instead.
func applyMetadata(m *message.Message, thread Thread, meta *MessageMetadata) *MessageMetadata {
	if meta == nil {
		meta = &MessageMetadata{}
	}
	m.ID = meta.MessageID
	m.AuthorID = string(meta.ActorFbID)
	m.Timestamp = meta.Timestamp.Ptr()
	m.ThreadID = thread.ID
	m.ThreadType = thread.Type

	if thread.ID == "" && meta.ThreadKey != nil {
		switch {
		case meta.ThreadKey.ThreadFbID != "":
			m.ThreadID = string(meta.ThreadKey.ThreadFbID)
			if m.ThreadType == "" {
				m.ThreadType = message.ThreadGroup
			}
		case meta.ThreadKey.OtherUserFbID != "":
			m.ThreadID = string(meta.ThreadKey.OtherUserFbID)
			if m.ThreadType == "" {
				m.ThreadType = message.ThreadUser
			}
		}
	}
	return meta
}

// applyTags sets the emoji size and forwarded flag. Only the emoji size can
// fail.
func applyTags(m *message.Message, tags []string) error {
	size, err := message.EmojiSizeFromTags(tags)
	if err != nil {
		return err
	}
	m.EmojiSize = size
	m.Forwarded = message.ForwardedFromTags(tags)
	return nil
}

// addExtensible classifies an extensible attachment. An unsent marker flags
// the message instead of being appended.
func (n *Normalizer) addExtensible(source Source, m *message.Message, index int, raw json.RawMessage) {
	if isEmptyJSON(raw) {
		return
	}
	a, err := classifyExtensible(raw)
	if err != nil {
		n.dropAttachment(source, m.ID, index, err)
		return
	}
	switch a.(type) {
	case nil:
	case *message.UnsentMessage:
		m.Unsent = true
	default:
		m.Attachments = append(m.Attachments, a)
	}
}

func (n *Normalizer) dropAttachment(source Source, messageID string, index int, err error) {
	n.log().Warn("attachment dropped",
		"source", source,
		"message_id", messageID,
		"index", index,
		"error", err,
	)
	n.stats().attachmentDropped(source)
}

// mentionsFromPrng decodes the JSON-encoded mention list of a delta. A
// malformed list is logged and yields no mentions.
func (n *Normalizer) mentionsFromPrng(source Source, messageID, prng string) []message.Mention {
	mentions := []message.Mention{}
	if prng == "" {
		return mentions
	}
	var entries []prngEntry
	if err := json.Unmarshal([]byte(prng), &entries); err != nil {
		n.log().Warn("mentions dropped", "source", source, "message_id", messageID, "error", err)
		return mentions
	}
	for _, e := range entries {
		mentions = append(mentions, message.Mention{
			ThreadID: string(e.I),
			Offset:   intOr(e.O, message.DefaultMentionOffset),
			Length:   intOr(e.L, message.DefaultMentionLength),
		})
	}
	return mentions
}

// quickReplies decodes a platform metadata string. Failures are logged and
// yield no quick replies.
func (n *Normalizer) quickReplies(source Source, messageID, xmd string) []message.QuickReply {
	replies, err := DecodePlatformXMD(xmd)
	if err != nil {
		n.log().Warn("quick replies dropped", "source", source, "message_id", messageID, "error", err)
		return []message.QuickReply{}
	}
	return replies
}

func mentionFromRange(r Range) message.Mention {
	var id string
	if r.Entity != nil {
		id = string(r.Entity.ID)
	}
	return message.Mention{
		ThreadID: id,
		Offset:   intOr(r.Offset, message.DefaultMentionOffset),
		Length:   intOr(r.Length, message.DefaultMentionLength),
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

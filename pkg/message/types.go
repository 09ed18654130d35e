// Package message defines the canonical chat message model shared by every
// payload source. It covers messages, mentions, attachments, quick replies and
// the enums that annotate them, plus the tag interpreter and the mention
// template formatter used when building outgoing messages.
package message

import (
	"fmt"
	"strings"
)

// ThreadType indicates the kind of conversation a message belongs to.
type ThreadType string

const (
	// ThreadUser is a one-to-one conversation.
	ThreadUser ThreadType = "USER"
	// ThreadGroup is a multi-participant conversation.
	ThreadGroup ThreadType = "GROUP"
)

// ParseThreadType maps "user" or "group" (any case) to a ThreadType.
func ParseThreadType(s string) (ThreadType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(ThreadUser):
		return ThreadUser, nil
	case string(ThreadGroup):
		return ThreadGroup, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownThreadType, s)
	}
}

// IsGroup reports whether the thread is a group conversation.
func (t ThreadType) IsGroup() bool {
	return t == ThreadGroup
}

// ThreadLocation is the mailbox folder a message is filed under.
// Values outside the known set are kept verbatim.
type ThreadLocation string

// Known folders.
const (
	LocationInbox    ThreadLocation = "INBOX"
	LocationArchived ThreadLocation = "ARCHIVED"
	LocationPending  ThreadLocation = "PENDING"
	LocationOther    ThreadLocation = "OTHER"
)

// ParseThreadLocation returns raw as a location. The value is not
// normalized, so unknown folders round-trip unchanged; ok is false only
// for an empty value.
func ParseThreadLocation(raw string) (loc ThreadLocation, ok bool) {
	if raw == "" {
		return "", false
	}
	return ThreadLocation(raw), true
}

// IsKnown reports whether l is one of the documented folders.
func (l ThreadLocation) IsKnown() bool {
	switch l {
	case LocationInbox, LocationArchived, LocationPending, LocationOther:
		return true
	}
	return false
}

// Reaction is a message reaction glyph. Unknown glyphs are kept as-is so
// they survive a round trip.
type Reaction string

// Known reactions.
const (
	ReactionHeart Reaction = "❤"
	ReactionLove  Reaction = "\U0001f60d"
	ReactionSmile Reaction = "\U0001f606"
	ReactionWow   Reaction = "\U0001f62e"
	ReactionSad   Reaction = "\U0001f622"
	ReactionAngry Reaction = "\U0001f620"
	ReactionYes   Reaction = "\U0001f44d"
	ReactionNo    Reaction = "\U0001f44e"
)

var reactionNames = map[Reaction]string{
	ReactionHeart: "HEART",
	ReactionLove:  "LOVE",
	ReactionSmile: "SMILE",
	ReactionWow:   "WOW",
	ReactionSad:   "SAD",
	ReactionAngry: "ANGRY",
	ReactionYes:   "YES",
	ReactionNo:    "NO",
}

// ParseReaction never fails: an unrecognized glyph becomes an extended
// Reaction holding the raw value.
func ParseReaction(glyph string) Reaction {
	return Reaction(glyph)
}

// IsKnown reports whether r is one of the documented reactions.
func (r Reaction) IsKnown() bool {
	_, ok := reactionNames[r]
	return ok
}

// Name returns the upper-case constant name, or "" for extended values.
func (r Reaction) Name() string {
	return reactionNames[r]
}

// EmojiSize is the display size of a message that consists of a single emoji.
type EmojiSize int

// Emoji sizes. EmojiNone means the message carries no size hint.
const (
	EmojiNone EmojiSize = iota
	EmojiSmall
	EmojiMedium
	EmojiLarge
)

var emojiSizeNames = [...]string{
	EmojiNone:   "",
	EmojiSmall:  "small",
	EmojiMedium: "medium",
	EmojiLarge:  "large",
}

// Sticker ids the platform uses to render a sized bare emoji.
var emojiStickerIDs = [...]string{
	EmojiSmall:  "369239263222822",
	EmojiMedium: "369239343222814",
	EmojiLarge:  "369239383222810",
}

// ParseEmojiSize maps a tag value (large, medium, small, l, m, s) to a size.
// The match is case-sensitive.
func ParseEmojiSize(value string) (EmojiSize, error) {
	switch value {
	case "large", "l":
		return EmojiLarge, nil
	case "medium", "m":
		return EmojiMedium, nil
	case "small", "s":
		return EmojiSmall, nil
	default:
		return EmojiNone, fmt.Errorf("%w: %q", ErrUnknownEmojiSize, value)
	}
}

// String returns the lower-case size name.
func (s EmojiSize) String() string {
	if s < EmojiNone || s > EmojiLarge {
		return fmt.Sprintf("EmojiSize(%d)", int(s))
	}
	return emojiSizeNames[s]
}

// StickerID returns the sticker id used to send a bare emoji of this size.
func (s EmojiSize) StickerID() string {
	if s <= EmojiNone || s > EmojiLarge {
		return ""
	}
	return emojiStickerIDs[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s EmojiSize) MarshalText() ([]byte, error) {
	if s < EmojiNone || s > EmojiLarge {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEmojiSize, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *EmojiSize) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = EmojiNone
		return nil
	}
	size, err := ParseEmojiSize(string(text))
	if err != nil {
		return err
	}
	*s = size
	return nil
}

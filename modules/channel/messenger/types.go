package messenger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// --- Bulk query (GraphQL) shape ---

// GraphQLMessage is one message node returned by the thread history query.
type GraphQLMessage struct {
	MessageID            string            `json:"message_id"`
	MessageSender        *Actor            `json:"message_sender"`
	Message              *TextBody         `json:"message"`
	TagsList             []string          `json:"tags_list"`
	Sticker              json.RawMessage   `json:"sticker"`
	TimestampPrecise     *FlexInt          `json:"timestamp_precise"`
	Unread               *bool             `json:"unread"`
	MessageReactions     []ReactionEntry   `json:"message_reactions"`
	BlobAttachments      []json.RawMessage `json:"blob_attachments"`
	ExtensibleAttachment json.RawMessage   `json:"extensible_attachment"`
	PlatformXMDEncoded   string            `json:"platform_xmd_encoded"`
	RepliedToMessage     *RepliedTo        `json:"replied_to_message"`
}

// Actor identifies a user in GraphQL payloads.
type Actor struct {
	ID FlexString `json:"id"`
}

// TextBody is the text part of a GraphQL message.
type TextBody struct {
	Text   *string `json:"text"`
	Ranges []Range `json:"ranges"`
}

// Range is a mention span in a GraphQL message.
type Range struct {
	Entity *Actor `json:"entity"`
	Offset *int   `json:"offset"`
	Length *int   `json:"length"`
}

// ReactionEntry is one user's reaction to a message.
type ReactionEntry struct {
	User     *Actor `json:"user"`
	Reaction string `json:"reaction"`
}

// RepliedTo wraps the message a GraphQL message replies to.
type RepliedTo struct {
	Message *GraphQLMessage `json:"message"`
}

// --- Realtime push (delta) shape ---

// DeltaMessage is a "NewMessage" delta pushed over the realtime channel.
type DeltaMessage struct {
	MessageMetadata *MessageMetadata  `json:"messageMetadata"`
	Body            *string           `json:"body"`
	Data            *DeltaData        `json:"data"`
	Attachments     []json.RawMessage `json:"attachments"`
}

// DeltaReply is a "ClientPayload" reply delta carrying both the new message
// and the message it replies to.
type DeltaReply struct {
	Message          *DeltaMessage `json:"message"`
	RepliedToMessage *DeltaMessage `json:"repliedToMessage"`
}

// MessageMetadata is the envelope shared by delta and pull payloads.
type MessageMetadata struct {
	MessageID string     `json:"messageId"`
	ActorFbID FlexString `json:"actorFbId"`
	Timestamp *FlexInt   `json:"timestamp"`
	Tags      []string   `json:"tags"`
	ThreadKey *ThreadKey `json:"threadKey"`
	FolderID  *FolderID  `json:"folderId"`
}

// ThreadKey identifies the conversation of a delta.
type ThreadKey struct {
	ThreadFbID    FlexString `json:"threadFbId"`
	OtherUserFbID FlexString `json:"otherUserFbId"`
}

// FolderID carries the system folder of an offline pull message.
type FolderID struct {
	SystemFolderID string `json:"systemFolderId"`
}

// DeltaData holds the JSON-encoded side channels of a delta.
type DeltaData struct {
	Prng        string `json:"prng"`
	PlatformXMD string `json:"platform_xmd"`
}

// deltaAttachment is one realtime attachment. Its payload is a JSON string.
type deltaAttachment struct {
	MercuryJSON string `json:"mercuryJSON"`
}

// mercury groups the three attachment payload families.
type mercury struct {
	BlobAttachment       json.RawMessage `json:"blob_attachment"`
	ExtensibleAttachment json.RawMessage `json:"extensible_attachment"`
	StickerAttachment    json.RawMessage `json:"sticker_attachment"`
}

// --- Offline pull shape ---

// PullDelta is a message delta returned by the offline queue.
type PullDelta struct {
	MessageMetadata *MessageMetadata  `json:"messageMetadata"`
	Body            *string           `json:"body"`
	Data            *DeltaData        `json:"data"`
	Attachments     []json.RawMessage `json:"attachments"`
}

// pullAttachment nests the attachment payload under "mercury".
type pullAttachment struct {
	Mercury  *mercury `json:"mercury"`
	FileSize *FlexInt `json:"fileSize"`
}

// prngEntry is one mention record of the "prng" JSON string.
type prngEntry struct {
	I FlexString `json:"i"`
	O *int       `json:"o"`
	L *int       `json:"l"`
}

// --- Attachment payloads ---

type blobAttachment struct {
	Typename             string      `json:"__typename"`
	LegacyAttachmentID   FlexString  `json:"legacy_attachment_id"`
	Filename             string      `json:"filename"`
	URL                  string      `json:"url"`
	PlayableURL          string      `json:"playable_url"`
	PlayableDurationInMS *FlexInt    `json:"playable_duration_in_ms"`
	AudioType            string      `json:"audio_type"`
	OriginalExtension    string      `json:"original_extension"`
	OriginalDimensions   *dimensions `json:"original_dimensions"`
	IsAnimated           bool        `json:"is_animated"`
	Thumbnail            *imageURI   `json:"thumbnail"`
	Preview              *imageURI   `json:"preview"`
	PreviewImage         *imageURI   `json:"preview_image"`
	LargePreview         *imageURI   `json:"large_preview"`
	AnimatedImage        *imageURI   `json:"animated_image"`
	ChatImage            *imageURI   `json:"chat_image"`
	InboxImage           *imageURI   `json:"inbox_image"`
	LargeImage           *imageURI   `json:"large_image"`
	IsMalicious          bool        `json:"is_malicious"`
	MessageFileFbID      FlexString  `json:"message_file_fbid"`
}

// dimensions accepts both the x/y and width/height spellings.
type dimensions struct {
	X      *int `json:"x"`
	Y      *int `json:"y"`
	Width  *int `json:"width"`
	Height *int `json:"height"`
}

func (d *dimensions) size() (int, int) {
	if d == nil {
		return 0, 0
	}
	return firstInt(d.Width, d.X), firstInt(d.Height, d.Y)
}

type imageURI struct {
	URI    string `json:"uri"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type stickerPayload struct {
	ID              FlexString   `json:"id"`
	Pack            *stickerPack `json:"pack"`
	SpriteImage     *imageURI    `json:"sprite_image"`
	SpriteImage2x   *imageURI    `json:"sprite_image_2x"`
	FramesPerRow    int          `json:"frames_per_row"`
	FramesPerColumn int          `json:"frames_per_column"`
	FrameRate       int          `json:"frame_rate"`
	URL             string       `json:"url"`
	Width           int          `json:"width"`
	Height          int          `json:"height"`
	Label           string       `json:"label"`
}

type stickerPack struct {
	ID FlexString `json:"id"`
}

type extensibleAttachment struct {
	LegacyAttachmentID FlexString      `json:"legacy_attachment_id"`
	StoryAttachment    json.RawMessage `json:"story_attachment"`
}

type storyAttachment struct {
	Target            json.RawMessage   `json:"target"`
	URL               string            `json:"url"`
	DeduplicationKey  FlexString        `json:"deduplication_key"`
	TitleWithEntities *textValue        `json:"title_with_entities"`
	Description       *textValue        `json:"description"`
	Source            *textValue        `json:"source"`
	Media             *storyMedia       `json:"media"`
	Subattachments    []storyAttachment `json:"subattachments"`
}

type storyTarget struct {
	Typename       string      `json:"__typename"`
	LiveLocationID FlexString  `json:"live_location_id"`
	Coordinate     *coordinate `json:"coordinate"`
	ExpirationTime *FlexInt    `json:"expiration_time"`
	IsExpired      bool        `json:"is_expired"`
	Actors         []Actor     `json:"actors"`
	VideoID        FlexString  `json:"video_id"`
}

type coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type storyMedia struct {
	Image                *imageURI `json:"image"`
	PlayableURL          string    `json:"playable_url"`
	PlayableDurationInMS *FlexInt  `json:"playable_duration_in_ms"`
}

type textValue struct {
	Text string `json:"text"`
}

// --- Lenient scalars ---

// FlexString decodes a JSON string or number into a string.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("messenger: expected string or number, got %s", b)
	}
	*s = FlexString(n.String())
	return nil
}

// FlexInt decodes a JSON number or a numeric string into an int64.
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	if v, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		*n = FlexInt(v)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("messenger: expected integer, got %s", b)
	}
	*n = FlexInt(f)
	return nil
}

// Ptr returns the value as *int64, nil when n is nil.
func (n *FlexInt) Ptr() *int64 {
	if n == nil {
		return nil
	}
	v := int64(*n)
	return &v
}

func (n *FlexInt) value() int64 {
	if n == nil {
		return 0
	}
	return int64(*n)
}

func firstInt(vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// isEmptyJSON reports whether raw is absent, null or an empty object.
func isEmptyJSON(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return true
	}
	if raw[0] != '{' {
		return false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	return len(obj) == 0
}

package message

import "encoding/json"

// AttachmentKind discriminates the concrete Attachment variant.
type AttachmentKind string

// Supported attachment kinds.
const (
	KindFile         AttachmentKind = "file"
	KindAudio        AttachmentKind = "audio"
	KindImage        AttachmentKind = "image"
	KindVideo        AttachmentKind = "video"
	KindSticker      AttachmentKind = "sticker"
	KindLocation     AttachmentKind = "location"
	KindLiveLocation AttachmentKind = "live_location"
	KindShare        AttachmentKind = "share"
	KindUnsent       AttachmentKind = "unsent"
	KindGeneric      AttachmentKind = "generic"
)

// Attachment is one typed piece of media or rich content attached to a
// message. The set of implementations is closed to this package.
type Attachment interface {
	AttachmentKind() AttachmentKind
	AttachmentID() string
	attachment()
}

// Sized is implemented by attachments that can carry a byte size reported
// outside their own payload.
type Sized interface {
	SetSize(n int64)
}

// ImageSource is one rendition of an image.
type ImageSource struct {
	URL    string `json:"url,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// GenericAttachment is a blob attachment of an unrecognized kind.
type GenericAttachment struct {
	ID string `json:"id,omitempty"`
}

// FileAttachment is an arbitrary uploaded file.
type FileAttachment struct {
	ID          string `json:"id,omitempty"`
	URL         string `json:"url,omitempty"`
	Name        string `json:"name,omitempty"`
	IsMalicious bool   `json:"is_malicious,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// AudioAttachment is a voice clip or audio file.
type AudioAttachment struct {
	ID         string `json:"id,omitempty"`
	Filename   string `json:"filename,omitempty"`
	URL        string `json:"url,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	AudioType  string `json:"audio_type,omitempty"`
	Size       int64  `json:"size,omitempty"`
}

// ImageAttachment is a still or animated picture.
type ImageAttachment struct {
	ID                string       `json:"id,omitempty"`
	OriginalExtension string       `json:"original_extension,omitempty"`
	Width             int          `json:"width,omitempty"`
	Height            int          `json:"height,omitempty"`
	IsAnimated        bool         `json:"is_animated,omitempty"`
	ThumbnailURL      string       `json:"thumbnail_url,omitempty"`
	Preview           *ImageSource `json:"preview,omitempty"`
	LargePreview      *ImageSource `json:"large_preview,omitempty"`
	AnimatedPreview   *ImageSource `json:"animated_preview,omitempty"`
}

// VideoAttachment is a video clip.
type VideoAttachment struct {
	ID          string       `json:"id,omitempty"`
	Width       int          `json:"width,omitempty"`
	Height      int          `json:"height,omitempty"`
	DurationMS  int64        `json:"duration_ms,omitempty"`
	PreviewURL  string       `json:"preview_url,omitempty"`
	SmallImage  *ImageSource `json:"small_image,omitempty"`
	MediumImage *ImageSource `json:"medium_image,omitempty"`
	LargeImage  *ImageSource `json:"large_image,omitempty"`
	Size        int64        `json:"size,omitempty"`
}

// Sticker is a sticker, possibly animated through a sprite sheet.
type Sticker struct {
	ID                string `json:"id,omitempty"`
	PackID            string `json:"pack_id,omitempty"`
	IsAnimated        bool   `json:"is_animated,omitempty"`
	MediumSpriteImage string `json:"medium_sprite_image,omitempty"`
	LargeSpriteImage  string `json:"large_sprite_image,omitempty"`
	FramesPerRow      int    `json:"frames_per_row,omitempty"`
	FramesPerColumn   int    `json:"frames_per_column,omitempty"`
	FrameRate         int    `json:"frame_rate,omitempty"`
	URL               string `json:"url,omitempty"`
	Width             int    `json:"width,omitempty"`
	Height            int    `json:"height,omitempty"`
	Label             string `json:"label,omitempty"`
}

// LocationAttachment is a pinned static location. Coordinates are nil when
// the payload only carried a free-form address.
type LocationAttachment struct {
	ID          string   `json:"id,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Address     string   `json:"address,omitempty"`
	URL         string   `json:"url,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	ImageWidth  int      `json:"image_width,omitempty"`
	ImageHeight int      `json:"image_height,omitempty"`
}

// LiveLocationAttachment is a location shared for a limited time.
type LiveLocationAttachment struct {
	LocationAttachment
	Name      string `json:"name,omitempty"`
	ExpiresAt *int64 `json:"expires_at,omitempty"`
	IsExpired bool   `json:"is_expired,omitempty"`
}

// ShareAttachment is a shared link or story.
type ShareAttachment struct {
	ID               string       `json:"id,omitempty"`
	AuthorID         string       `json:"author_id,omitempty"`
	URL              string       `json:"url,omitempty"`
	OriginalURL      string       `json:"original_url,omitempty"`
	Title            string       `json:"title,omitempty"`
	Description      string       `json:"description,omitempty"`
	Source           string       `json:"source,omitempty"`
	ImageURL         string       `json:"image_url,omitempty"`
	OriginalImageURL string       `json:"original_image_url,omitempty"`
	ImageWidth       int          `json:"image_width,omitempty"`
	ImageHeight      int          `json:"image_height,omitempty"`
	Attachments      []Attachment `json:"-"`
}

// UnsentMessage marks that the enclosing message was deleted for everyone.
// It never appears in Message.Attachments.
type UnsentMessage struct {
	ID string `json:"id,omitempty"`
}

func (*GenericAttachment) AttachmentKind() AttachmentKind      { return KindGeneric }
func (*FileAttachment) AttachmentKind() AttachmentKind         { return KindFile }
func (*AudioAttachment) AttachmentKind() AttachmentKind        { return KindAudio }
func (*ImageAttachment) AttachmentKind() AttachmentKind        { return KindImage }
func (*VideoAttachment) AttachmentKind() AttachmentKind        { return KindVideo }
func (*Sticker) AttachmentKind() AttachmentKind                { return KindSticker }
func (*LocationAttachment) AttachmentKind() AttachmentKind     { return KindLocation }
func (*LiveLocationAttachment) AttachmentKind() AttachmentKind { return KindLiveLocation }
func (*ShareAttachment) AttachmentKind() AttachmentKind        { return KindShare }
func (*UnsentMessage) AttachmentKind() AttachmentKind          { return KindUnsent }

func (a *GenericAttachment) AttachmentID() string  { return a.ID }
func (a *FileAttachment) AttachmentID() string     { return a.ID }
func (a *AudioAttachment) AttachmentID() string    { return a.ID }
func (a *ImageAttachment) AttachmentID() string    { return a.ID }
func (a *VideoAttachment) AttachmentID() string    { return a.ID }
func (a *Sticker) AttachmentID() string            { return a.ID }
func (a *LocationAttachment) AttachmentID() string { return a.ID }
func (a *ShareAttachment) AttachmentID() string    { return a.ID }
func (a *UnsentMessage) AttachmentID() string      { return a.ID }

func (*GenericAttachment) attachment()  {}
func (*FileAttachment) attachment()     {}
func (*AudioAttachment) attachment()    {}
func (*ImageAttachment) attachment()    {}
func (*VideoAttachment) attachment()    {}
func (*Sticker) attachment()            {}
func (*LocationAttachment) attachment() {}
func (*ShareAttachment) attachment()    {}
func (*UnsentMessage) attachment()      {}

func (a *FileAttachment) SetSize(n int64)  { a.Size = n }
func (a *AudioAttachment) SetSize(n int64) { a.Size = n }
func (a *VideoAttachment) SetSize(n int64) { a.Size = n }

// Compile-time interface checks.
var (
	_ Attachment = (*GenericAttachment)(nil)
	_ Attachment = (*FileAttachment)(nil)
	_ Attachment = (*AudioAttachment)(nil)
	_ Attachment = (*ImageAttachment)(nil)
	_ Attachment = (*VideoAttachment)(nil)
	_ Attachment = (*Sticker)(nil)
	_ Attachment = (*LocationAttachment)(nil)
	_ Attachment = (*LiveLocationAttachment)(nil)
	_ Attachment = (*ShareAttachment)(nil)
	_ Attachment = (*UnsentMessage)(nil)

	_ Sized = (*FileAttachment)(nil)
	_ Sized = (*AudioAttachment)(nil)
	_ Sized = (*VideoAttachment)(nil)
)

// MarshalJSON encodes sub-attachments as type-tagged objects.
func (a ShareAttachment) MarshalJSON() ([]byte, error) {
	type alias ShareAttachment
	subs, err := encodeAttachments(a.Attachments)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		alias
		Attachments []json.RawMessage `json:"attachments,omitempty"`
	}{alias(a), subs})
}

// UnmarshalJSON restores the concrete sub-attachment variants.
func (a *ShareAttachment) UnmarshalJSON(data []byte) error {
	type alias ShareAttachment
	aux := struct {
		*alias
		Attachments []json.RawMessage `json:"attachments"`
	}{alias: (*alias)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	subs, err := decodeAttachments(aux.Attachments)
	if err != nil {
		return err
	}
	a.Attachments = subs
	return nil
}

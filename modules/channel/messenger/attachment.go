package messenger

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/flemzord/mercury/pkg/message"
)

// Blob attachment type names.
const (
	typeImage         = "MessageImage"
	typeAnimatedImage = "MessageAnimatedImage"
	typeVideo         = "MessageVideo"
	typeAudio         = "MessageAudio"
	typeFile          = "MessageFile"
)

// Story target type names.
const (
	targetLocation     = "MessageLocation"
	targetLiveLocation = "MessageLiveLocation"
	targetExternalURL  = "ExternalUrl"
	targetStory        = "Story"
	targetVideo        = "Video"
)

// classifyBlob maps a blob attachment payload to its typed attachment.
// Unrecognized type names yield a generic attachment.
func classifyBlob(raw json.RawMessage) (message.Attachment, error) {
	var b blobAttachment
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode blob attachment: %w", err)
	}

	switch b.Typename {
	case typeImage, typeAnimatedImage:
		width, height := b.OriginalDimensions.size()
		ext := b.OriginalExtension
		if ext == "" && b.Filename != "" {
			ext, _, _ = strings.Cut(b.Filename, "-")
		}
		preview := b.Preview
		if preview == nil {
			preview = b.PreviewImage
		}
		var thumb string
		if b.Thumbnail != nil {
			thumb = b.Thumbnail.URI
		}
		return &message.ImageAttachment{
			ID:                string(b.LegacyAttachmentID),
			OriginalExtension: ext,
			Width:             width,
			Height:            height,
			IsAnimated:        b.Typename == typeAnimatedImage || b.IsAnimated,
			ThumbnailURL:      thumb,
			Preview:           imageSource(preview),
			LargePreview:      imageSource(b.LargePreview),
			AnimatedPreview:   imageSource(b.AnimatedImage),
		}, nil

	case typeVideo:
		width, height := b.OriginalDimensions.size()
		return &message.VideoAttachment{
			ID:          string(b.LegacyAttachmentID),
			Width:       width,
			Height:      height,
			DurationMS:  b.PlayableDurationInMS.value(),
			PreviewURL:  b.PlayableURL,
			SmallImage:  imageSource(b.ChatImage),
			MediumImage: imageSource(b.InboxImage),
			LargeImage:  imageSource(b.LargeImage),
		}, nil

	case typeAudio:
		return &message.AudioAttachment{
			ID:         string(b.LegacyAttachmentID),
			Filename:   b.Filename,
			URL:        b.PlayableURL,
			DurationMS: b.PlayableDurationInMS.value(),
			AudioType:  b.AudioType,
		}, nil

	case typeFile:
		return &message.FileAttachment{
			ID:          string(b.MessageFileFbID),
			URL:         b.URL,
			Name:        b.Filename,
			IsMalicious: b.IsMalicious,
		}, nil

	default:
		return &message.GenericAttachment{ID: string(b.LegacyAttachmentID)}, nil
	}
}

// classifySticker builds a sticker. An absent payload yields nil.
func classifySticker(raw json.RawMessage) (*message.Sticker, error) {
	if isEmptyJSON(raw) {
		return nil, nil
	}
	var p stickerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode sticker: %w", err)
	}

	s := &message.Sticker{
		ID:     string(p.ID),
		URL:    p.URL,
		Width:  p.Width,
		Height: p.Height,
		Label:  p.Label,
	}
	if p.Pack != nil {
		s.PackID = string(p.Pack.ID)
	}
	if p.SpriteImage != nil {
		s.IsAnimated = true
		s.MediumSpriteImage = p.SpriteImage.URI
		if p.SpriteImage2x != nil {
			s.LargeSpriteImage = p.SpriteImage2x.URI
		}
		s.FramesPerRow = p.FramesPerRow
		s.FramesPerColumn = p.FramesPerColumn
		s.FrameRate = p.FrameRate
	}
	return s, nil
}

// classifyExtensible unwraps a story attachment. It returns nil for payloads
// without a story or with an unsupported target type, and an
// *message.UnsentMessage when the target is missing.
func classifyExtensible(raw json.RawMessage) (message.Attachment, error) {
	if isEmptyJSON(raw) {
		return nil, nil
	}
	var ext extensibleAttachment
	if err := json.Unmarshal(raw, &ext); err != nil {
		return nil, fmt.Errorf("decode extensible attachment: %w", err)
	}
	if isEmptyJSON(ext.StoryAttachment) {
		return nil, nil
	}

	var story storyAttachment
	if err := json.Unmarshal(ext.StoryAttachment, &story); err != nil {
		return nil, fmt.Errorf("decode story attachment: %w", err)
	}
	if isEmptyJSON(story.Target) {
		return &message.UnsentMessage{ID: string(ext.LegacyAttachmentID)}, nil
	}

	var target storyTarget
	if err := json.Unmarshal(story.Target, &target); err != nil {
		return nil, fmt.Errorf("decode story target: %w", err)
	}

	switch target.Typename {
	case targetLocation:
		return locationFromStory(&story), nil
	case targetLiveLocation:
		return liveLocationFromStory(&story, &target), nil
	case targetExternalURL, targetStory:
		return shareFromStory(&story, &target), nil
	default:
		return nil, nil
	}
}

func locationFromStory(story *storyAttachment) *message.LocationAttachment {
	loc := &message.LocationAttachment{
		ID:  string(story.DeduplicationKey),
		URL: story.URL,
	}

	address := urlParam(urlParam(story.URL, "u"), "where1")
	if lat, lon, ok := parseCoordinates(address); ok {
		loc.Latitude, loc.Longitude = &lat, &lon
	} else {
		loc.Address = address
	}

	if story.Media != nil && story.Media.Image != nil {
		loc.ImageURL = story.Media.Image.URI
		loc.ImageWidth = story.Media.Image.Width
		loc.ImageHeight = story.Media.Image.Height
	}
	return loc
}

func liveLocationFromStory(story *storyAttachment, target *storyTarget) *message.LiveLocationAttachment {
	live := &message.LiveLocationAttachment{
		LocationAttachment: message.LocationAttachment{
			ID:  string(target.LiveLocationID),
			URL: story.URL,
		},
		ExpiresAt: target.ExpirationTime.Ptr(),
		IsExpired: target.IsExpired,
	}
	if target.Coordinate != nil {
		lat, lon := target.Coordinate.Latitude, target.Coordinate.Longitude
		live.Latitude, live.Longitude = &lat, &lon
	}
	if story.TitleWithEntities != nil {
		live.Name = story.TitleWithEntities.Text
	}
	if story.Media != nil && story.Media.Image != nil {
		live.ImageURL = story.Media.Image.URI
		live.ImageWidth = story.Media.Image.Width
		live.ImageHeight = story.Media.Image.Height
	}
	return live
}

func shareFromStory(story *storyAttachment, target *storyTarget) *message.ShareAttachment {
	share := &message.ShareAttachment{
		ID:          string(story.DeduplicationKey),
		URL:         story.URL,
		OriginalURL: story.URL,
	}
	if len(target.Actors) > 0 {
		share.AuthorID = string(target.Actors[0].ID)
	}
	if strings.Contains(story.URL, "/l.php?u=") {
		share.OriginalURL = urlParam(story.URL, "u")
	}
	if story.TitleWithEntities != nil {
		share.Title = story.TitleWithEntities.Text
	}
	if story.Description != nil {
		share.Description = story.Description.Text
	}
	if story.Source != nil {
		share.Source = story.Source.Text
	}
	for i := range story.Subattachments {
		if sub := subattachment(&story.Subattachments[i]); sub != nil {
			share.Attachments = append(share.Attachments, sub)
		}
	}
	if story.Media != nil && story.Media.Image != nil {
		img := story.Media.Image
		share.ImageURL = img.URI
		share.OriginalImageURL = img.URI
		if strings.Contains(img.URI, "/safe_image.php") {
			share.OriginalImageURL = urlParam(img.URI, "url")
		}
		share.ImageWidth = img.Width
		share.ImageHeight = img.Height
	}
	return share
}

// subattachment only recognizes videos; other kinds are skipped.
func subattachment(story *storyAttachment) message.Attachment {
	if isEmptyJSON(story.Target) {
		return nil
	}
	var target storyTarget
	if err := json.Unmarshal(story.Target, &target); err != nil || target.Typename != targetVideo {
		return nil
	}
	video := &message.VideoAttachment{ID: string(target.VideoID)}
	if story.Media != nil {
		video.DurationMS = story.Media.PlayableDurationInMS.value()
		video.PreviewURL = story.Media.PlayableURL
		video.MediumImage = imageSource(story.Media.Image)
	}
	return video
}

// stampSize applies a separately reported byte size to file, video and
// audio attachments.
func stampSize(a message.Attachment, size *FlexInt) {
	if size == nil {
		return
	}
	if sized, ok := a.(message.Sized); ok {
		sized.SetSize(int64(*size))
	}
}

func imageSource(img *imageURI) *message.ImageSource {
	if img == nil {
		return nil
	}
	return &message.ImageSource{URL: img.URI, Width: img.Width, Height: img.Height}
}

// urlParam returns the first value of a query parameter, or "".
func urlParam(rawURL, name string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(name)
}

// parseCoordinates parses "lat, lon".
func parseCoordinates(s string) (float64, float64, bool) {
	parts := strings.Split(s, ", ")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

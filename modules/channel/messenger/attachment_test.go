package messenger

import (
	"encoding/json"
	"testing"

	"github.com/flemzord/mercury/pkg/message"
)

func TestClassifyBlob(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind message.AttachmentKind
	}{
		{"image", `{"__typename":"MessageImage"}`, message.KindImage},
		{"animated", `{"__typename":"MessageAnimatedImage"}`, message.KindImage},
		{"video", `{"__typename":"MessageVideo"}`, message.KindVideo},
		{"audio", `{"__typename":"MessageAudio"}`, message.KindAudio},
		{"file", `{"__typename":"MessageFile"}`, message.KindFile},
		{"unknown", `{"__typename":"MessagePoll","legacy_attachment_id":"g1"}`, message.KindGeneric},
		{"missing type", `{}`, message.KindGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := classifyBlob(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.AttachmentKind() != tt.kind {
				t.Errorf("kind = %q, want %q", a.AttachmentKind(), tt.kind)
			}
		})
	}
}

func TestClassifyBlob_AnimatedImage(t *testing.T) {
	a, err := classifyBlob(json.RawMessage(`{
		"__typename": "MessageAnimatedImage",
		"legacy_attachment_id": 42,
		"original_dimensions": {"width": 200, "height": 100},
		"preview_image": {"uri": "https://p", "width": 20, "height": 10},
		"animated_image": {"uri": "https://a"}
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img := a.(*message.ImageAttachment)
	if !img.IsAnimated {
		t.Error("IsAnimated = false, want true")
	}
	if img.ID != "42" || img.Width != 200 || img.Height != 100 {
		t.Errorf("image = %+v", img)
	}
	if img.Preview == nil || img.Preview.URL != "https://p" {
		t.Errorf("Preview = %+v, want preview_image fallback", img.Preview)
	}
	if img.AnimatedPreview == nil || img.AnimatedPreview.URL != "https://a" {
		t.Errorf("AnimatedPreview = %+v", img.AnimatedPreview)
	}
	if img.OriginalExtension != "" {
		t.Errorf("OriginalExtension = %q, want empty without filename", img.OriginalExtension)
	}
}

func TestClassifyBlob_Video(t *testing.T) {
	a, err := classifyBlob(json.RawMessage(`{
		"__typename": "MessageVideo",
		"legacy_attachment_id": "v1",
		"original_dimensions": {"x": 1280, "y": 720},
		"playable_duration_in_ms": "6000",
		"playable_url": "https://v",
		"chat_image": {"uri": "https://s"},
		"large_image": {"uri": "https://l"}
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := a.(*message.VideoAttachment)
	if v.Width != 1280 || v.Height != 720 || v.DurationMS != 6000 || v.PreviewURL != "https://v" {
		t.Errorf("video = %+v", v)
	}
	if v.SmallImage == nil || v.MediumImage != nil || v.LargeImage == nil {
		t.Errorf("renditions = %+v %+v %+v", v.SmallImage, v.MediumImage, v.LargeImage)
	}
}

func TestClassifyBlob_Malformed(t *testing.T) {
	if _, err := classifyBlob(json.RawMessage(`[1,2]`)); err == nil {
		t.Error("expected error for non-object payload")
	}
}

func TestClassifySticker(t *testing.T) {
	s, err := classifySticker(nil)
	if err != nil || s != nil {
		t.Errorf("classifySticker(nil) = %v, %v; want nil, nil", s, err)
	}
	s, err = classifySticker(json.RawMessage(`{}`))
	if err != nil || s != nil {
		t.Errorf("classifySticker({}) = %v, %v; want nil, nil", s, err)
	}

	s, err = classifySticker(json.RawMessage(`{
		"id": 144884852352448,
		"sprite_image": {"uri": "https://s1"},
		"sprite_image_2x": {"uri": "https://s2"},
		"frames_per_row": 4, "frames_per_column": 2, "frame_rate": 83,
		"label": "wave"
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID != "144884852352448" || !s.IsAnimated || s.LargeSpriteImage != "https://s2" {
		t.Errorf("sticker = %+v", s)
	}
	if s.FramesPerRow != 4 || s.FramesPerColumn != 2 || s.FrameRate != 83 || s.Label != "wave" {
		t.Errorf("sticker frames = %+v", s)
	}
}

func TestClassifyExtensible_Absent(t *testing.T) {
	for _, raw := range []string{``, `null`, `{}`, `{"legacy_attachment_id":"1"}`, `{"story_attachment":{}}`} {
		a, err := classifyExtensible(json.RawMessage(raw))
		if err != nil || a != nil {
			t.Errorf("classifyExtensible(%q) = %v, %v; want nil, nil", raw, a, err)
		}
	}
}

func TestClassifyExtensible_Unsent(t *testing.T) {
	for _, raw := range []string{
		`{"legacy_attachment_id":"u1","story_attachment":{"url":"x"}}`,
		`{"legacy_attachment_id":"u1","story_attachment":{"target":null}}`,
		`{"legacy_attachment_id":"u1","story_attachment":{"target":{}}}`,
	} {
		a, err := classifyExtensible(json.RawMessage(raw))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		u, ok := a.(*message.UnsentMessage)
		if !ok || u.ID != "u1" {
			t.Errorf("classifyExtensible(%s) = %#v, want unsent u1", raw, a)
		}
	}
}

func TestClassifyExtensible_UnsupportedTarget(t *testing.T) {
	a, err := classifyExtensible(json.RawMessage(`{"story_attachment":{"target":{"__typename":"Group"}}}`))
	if err != nil || a != nil {
		t.Errorf("got %v, %v; want nil, nil", a, err)
	}
}

func TestClassifyExtensible_LocationAddress(t *testing.T) {
	a, err := classifyExtensible(json.RawMessage(`{"story_attachment":{
		"target": {"__typename": "MessageLocation"},
		"url": "https://l.facebook.com/l.php?u=https%3A%2F%2Fwww.bing.com%2Fmaps%2Fdefault.aspx%3Fwhere1%3D10%2BDowning%2BSt",
		"deduplication_key": 7,
		"media": {"image": {"uri": "https://map", "width": 280, "height": 280}}
	}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loc := a.(*message.LocationAttachment)
	if loc.Latitude != nil || loc.Longitude != nil {
		t.Errorf("coordinates = %v, %v; want nil", loc.Latitude, loc.Longitude)
	}
	if loc.Address != "10 Downing St" {
		t.Errorf("Address = %q, want %q", loc.Address, "10 Downing St")
	}
	if loc.ID != "7" || loc.ImageURL != "https://map" || loc.ImageWidth != 280 {
		t.Errorf("location = %+v", loc)
	}
}

func TestClassifyExtensible_LiveLocation(t *testing.T) {
	a, err := classifyExtensible(json.RawMessage(`{"story_attachment":{
		"target": {
			"__typename": "MessageLiveLocation",
			"live_location_id": "ll1",
			"coordinate": {"latitude": 1.5, "longitude": -2.25},
			"expiration_time": 1600000000,
			"is_expired": true
		},
		"title_with_entities": {"text": "Home"},
		"url": "https://maps"
	}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	live := a.(*message.LiveLocationAttachment)
	if live.ID != "ll1" || live.Name != "Home" || !live.IsExpired {
		t.Errorf("live = %+v", live)
	}
	if live.Latitude == nil || *live.Latitude != 1.5 || *live.Longitude != -2.25 {
		t.Errorf("coordinates = %v, %v", live.Latitude, live.Longitude)
	}
	if live.ExpiresAt == nil || *live.ExpiresAt != 1600000000 {
		t.Errorf("ExpiresAt = %v", live.ExpiresAt)
	}
}

func TestClassifyExtensible_ShareWithVideo(t *testing.T) {
	a, err := classifyExtensible(json.RawMessage(`{"story_attachment":{
		"target": {"__typename": "Story"},
		"url": "https://example.com/direct",
		"description": {"text": "desc"},
		"source": {"text": "example.com"},
		"subattachments": [
			{"target": {"__typename": "Video", "video_id": "v7"},
			 "media": {"playable_url": "https://v7", "playable_duration_in_ms": 900, "image": {"uri": "https://v7.jpg"}}},
			{"target": {"__typename": "Photo"}},
			{}
		]
	}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	share := a.(*message.ShareAttachment)
	if share.OriginalURL != "https://example.com/direct" {
		t.Errorf("OriginalURL = %q, want the url itself when not wrapped", share.OriginalURL)
	}
	if share.Description != "desc" || share.Source != "example.com" || share.AuthorID != "" {
		t.Errorf("share = %+v", share)
	}
	if len(share.Attachments) != 1 {
		t.Fatalf("len(Attachments) = %d, want 1", len(share.Attachments))
	}
	v := share.Attachments[0].(*message.VideoAttachment)
	if v.ID != "v7" || v.DurationMS != 900 || v.PreviewURL != "https://v7" || v.MediumImage == nil {
		t.Errorf("video = %+v", v)
	}
}

func TestStampSize(t *testing.T) {
	size := FlexInt(512)
	file := &message.FileAttachment{}
	stampSize(file, &size)
	if file.Size != 512 {
		t.Errorf("file Size = %d, want 512", file.Size)
	}

	img := &message.ImageAttachment{}
	stampSize(img, &size)

	audio := &message.AudioAttachment{Size: 3}
	stampSize(audio, nil)
	if audio.Size != 3 {
		t.Errorf("audio Size = %d, want unchanged", audio.Size)
	}
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		in       string
		lat, lon float64
		ok       bool
	}{
		{"48.85, 2.29", 48.85, 2.29, true},
		{"-1, 0", -1, 0, true},
		{"48.85,2.29", 0, 0, false},
		{"Paris", 0, 0, false},
		{"a, b", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		lat, lon, ok := parseCoordinates(tt.in)
		if ok != tt.ok || lat != tt.lat || lon != tt.lon {
			t.Errorf("parseCoordinates(%q) = %v, %v, %v; want %v, %v, %v", tt.in, lat, lon, ok, tt.lat, tt.lon, tt.ok)
		}
	}
}

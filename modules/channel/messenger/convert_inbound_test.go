package messenger

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/flemzord/mercury/pkg/message"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var userThread = Thread{ID: "555", Type: message.ThreadUser}

func assertDefaults(t *testing.T, m *message.Message) {
	t.Helper()
	if m.Text != nil {
		t.Errorf("Text = %q, want nil", *m.Text)
	}
	if len(m.Mentions) != 0 || m.Mentions == nil {
		t.Errorf("Mentions = %v, want empty", m.Mentions)
	}
	if len(m.Attachments) != 0 || m.Attachments == nil {
		t.Errorf("Attachments = %v, want empty", m.Attachments)
	}
	if len(m.QuickReplies) != 0 || m.QuickReplies == nil {
		t.Errorf("QuickReplies = %v, want empty", m.QuickReplies)
	}
	if len(m.ReadBy) != 0 || len(m.Reactions) != 0 {
		t.Errorf("ReadBy/Reactions should be empty: %v %v", m.ReadBy, m.Reactions)
	}
	if m.Unsent || m.Forwarded {
		t.Error("Unsent/Forwarded should be false")
	}
	if m.Timestamp != nil || m.Location != nil || m.Sticker != nil || m.IsRead != nil {
		t.Error("Timestamp/Location/Sticker/IsRead should be nil")
	}
	if m.EmojiSize != message.EmojiNone {
		t.Errorf("EmojiSize = %v, want none", m.EmojiSize)
	}
	if m.RepliedTo != nil || m.ReplyToID != "" {
		t.Error("reply chain should be empty")
	}
}

func TestNormalize_MinimalPayloadDefaults(t *testing.T) {
	tests := []struct {
		source  Source
		payload string
	}{
		{SourceGraphQL, `{"message_id":"mid.1","message_sender":{"id":"100"}}`},
		{SourceDelta, `{"messageMetadata":{"messageId":"mid.1","actorFbId":"100"}}`},
		{SourcePull, `{"messageMetadata":{"messageId":"mid.1","actorFbId":100}}`},
	}
	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			m := normalize(t, tt.source, userThread, tt.payload)
			if m.ID != "mid.1" {
				t.Errorf("ID = %q, want %q", m.ID, "mid.1")
			}
			if m.AuthorID != "100" {
				t.Errorf("AuthorID = %q, want %q", m.AuthorID, "100")
			}
			if m.ThreadID != "555" || m.ThreadType != message.ThreadUser {
				t.Errorf("thread = %q/%q, want 555/USER", m.ThreadID, m.ThreadType)
			}
			assertDefaults(t, m)
		})
	}
}

const graphQLFull = `{
	"message_id": "mid.$abc",
	"message_sender": {"id": "100"},
	"message": {
		"text": "Hey Ann and Bob",
		"ranges": [
			{"entity": {"id": "201"}, "offset": 4, "length": 3},
			{"entity": {"id": 202}, "offset": 12}
		]
	},
	"tags_list": ["hot_emoji_size:small", "inbox", "source:chat:forward"],
	"timestamp_precise": "1500000000123",
	"unread": true,
	"message_reactions": [
		{"user": {"id": "300"}, "reaction": "😍"},
		{"user": {"id": 301}, "reaction": "🔥"}
	],
	"blob_attachments": [
		{"__typename": "MessageImage", "legacy_attachment_id": "img1", "filename": "image-123.png",
		 "original_dimensions": {"x": 640, "y": 480}, "thumbnail": {"uri": "https://t/1"}},
		{"__typename": "MessageFile", "message_file_fbid": "f1", "filename": "doc.pdf", "url": "https://f/1"}
	],
	"platform_xmd_encoded": "{\"quick_replies\":[{\"content_type\":\"text\",\"title\":\"Yes\",\"payload\":\"Y\"},{\"content_type\":\"location\"}]}",
	"extensible_attachment": {
		"legacy_attachment_id": "e1",
		"story_attachment": {
			"target": {"__typename": "ExternalUrl", "actors": [{"id": "900"}]},
			"url": "https://l.facebook.com/l.php?u=https%3A%2F%2Fexample.com%2Fpost&h=x",
			"deduplication_key": "dk1",
			"title_with_entities": {"text": "Post"},
			"media": {"image": {"uri": "https://external.xx/safe_image.php?d=1&url=https%3A%2F%2Fexample.com%2Fimg.png", "width": 100, "height": 50}},
			"subattachments": []
		}
	}
}`

func TestFromGraphQL_Full(t *testing.T) {
	m := normalize(t, SourceGraphQL, userThread, graphQLFull)

	if m.TextValue() != "Hey Ann and Bob" {
		t.Errorf("Text = %q", m.TextValue())
	}
	wantMentions := []message.Mention{
		{ThreadID: "201", Offset: 4, Length: 3},
		{ThreadID: "202", Offset: 12, Length: message.DefaultMentionLength},
	}
	if !reflect.DeepEqual(m.Mentions, wantMentions) {
		t.Errorf("Mentions = %+v, want %+v", m.Mentions, wantMentions)
	}
	if m.EmojiSize != message.EmojiSmall {
		t.Errorf("EmojiSize = %v, want small", m.EmojiSize)
	}
	if !m.Forwarded {
		t.Error("Forwarded = false, want true")
	}
	if m.Location != nil {
		t.Errorf("Location = %q, want nil for bulk query messages", *m.Location)
	}
	if m.Timestamp == nil || *m.Timestamp != 1500000000123 {
		t.Errorf("Timestamp = %v, want 1500000000123", m.Timestamp)
	}
	if m.IsRead == nil || *m.IsRead {
		t.Errorf("IsRead = %v, want false", m.IsRead)
	}

	if m.Reactions["300"] != message.ReactionLove {
		t.Errorf("Reactions[300] = %q, want LOVE", m.Reactions["300"])
	}
	if r := m.Reactions["301"]; r.IsKnown() || string(r) != "🔥" {
		t.Errorf("Reactions[301] = %q, want extended glyph preserved", r)
	}

	if len(m.Attachments) != 3 {
		t.Fatalf("len(Attachments) = %d, want 3", len(m.Attachments))
	}
	img, ok := m.Attachments[0].(*message.ImageAttachment)
	if !ok {
		t.Fatalf("Attachments[0] = %T, want *ImageAttachment", m.Attachments[0])
	}
	if img.ID != "img1" || img.OriginalExtension != "image" || img.Width != 640 || img.Height != 480 {
		t.Errorf("image = %+v", img)
	}
	if img.ThumbnailURL != "https://t/1" {
		t.Errorf("ThumbnailURL = %q", img.ThumbnailURL)
	}
	file, ok := m.Attachments[1].(*message.FileAttachment)
	if !ok || file.ID != "f1" || file.Name != "doc.pdf" {
		t.Errorf("Attachments[1] = %+v", m.Attachments[1])
	}
	share, ok := m.Attachments[2].(*message.ShareAttachment)
	if !ok {
		t.Fatalf("Attachments[2] = %T, want *ShareAttachment", m.Attachments[2])
	}
	if share.OriginalURL != "https://example.com/post" {
		t.Errorf("OriginalURL = %q", share.OriginalURL)
	}
	if share.OriginalImageURL != "https://example.com/img.png" {
		t.Errorf("OriginalImageURL = %q", share.OriginalImageURL)
	}
	if share.AuthorID != "900" || share.Title != "Post" || share.ImageWidth != 100 {
		t.Errorf("share = %+v", share)
	}

	if len(m.QuickReplies) != 2 {
		t.Fatalf("len(QuickReplies) = %d, want 2", len(m.QuickReplies))
	}
	text, ok := m.QuickReplies[0].(*message.QuickReplyText)
	if !ok || text.Title != "Yes" || text.Payload != "Y" || text.IsResponse {
		t.Errorf("QuickReplies[0] = %+v", m.QuickReplies[0])
	}
	if _, ok := m.QuickReplies[1].(*message.QuickReplyLocation); !ok {
		t.Errorf("QuickReplies[1] = %T, want *QuickReplyLocation", m.QuickReplies[1])
	}
}

func TestFromGraphQL_ReplyChain(t *testing.T) {
	payload := `{
		"message_id": "m3", "message_sender": {"id": "1"},
		"replied_to_message": {"message": {
			"message_id": "m2", "message_sender": {"id": "2"},
			"replied_to_message": {"message": {"message_id": "m1", "message_sender": {"id": "3"}}}
		}}
	}`
	m := normalize(t, SourceGraphQL, userThread, payload)

	if m.ReplyToID != "m2" {
		t.Errorf("ReplyToID = %q, want m2", m.ReplyToID)
	}
	if m.RepliedTo == nil || m.RepliedTo.ID != "m2" {
		t.Fatalf("RepliedTo = %+v, want m2", m.RepliedTo)
	}
	if m.RepliedTo.ReplyToID != "m1" {
		t.Errorf("RepliedTo.ReplyToID = %q, want m1", m.RepliedTo.ReplyToID)
	}
	if m.RepliedTo.RepliedTo == nil || m.RepliedTo.RepliedTo.ID != "m1" {
		t.Fatalf("RepliedTo.RepliedTo = %+v, want m1", m.RepliedTo.RepliedTo)
	}
	if m.RepliedTo.RepliedTo.RepliedTo != nil {
		t.Error("chain should stop where the payload stops")
	}
	if m.RepliedTo.AuthorID != "2" || m.RepliedTo.ThreadID != "555" {
		t.Errorf("nested identity = %q/%q", m.RepliedTo.AuthorID, m.RepliedTo.ThreadID)
	}
}

func TestFromGraphQL_UnsentMarkerExcluded(t *testing.T) {
	payload := `{
		"message_id": "m1",
		"blob_attachments": [{"__typename": "MessageAudio", "filename": "a.mp4"}],
		"extensible_attachment": {"legacy_attachment_id": "u1", "story_attachment": {"url": "https://x"}}
	}`
	m := normalize(t, SourceGraphQL, userThread, payload)

	if !m.Unsent {
		t.Error("Unsent = false, want true")
	}
	if len(m.Attachments) != 1 {
		t.Fatalf("len(Attachments) = %d, want 1", len(m.Attachments))
	}
	if _, ok := m.Attachments[0].(*message.AudioAttachment); !ok {
		t.Errorf("Attachments[0] = %T, want *AudioAttachment", m.Attachments[0])
	}
}

func TestFromGraphQL_UnknownEmojiSizeFails(t *testing.T) {
	n := NewNormalizer()
	_, err := n.NormalizeRaw(SourceGraphQL, userThread,
		[]byte(`{"message_id":"m1","tags_list":["hot_emoji_size:huge"]}`))
	if !errors.Is(err, message.ErrUnknownEmojiSize) {
		t.Fatalf("err = %v, want ErrUnknownEmojiSize", err)
	}
}

func TestFromGraphQL_NestedEmojiErrorFailsWholeChain(t *testing.T) {
	n := NewNormalizer()
	_, err := n.NormalizeRaw(SourceGraphQL, userThread, []byte(`{
		"message_id": "m2",
		"replied_to_message": {"message": {"message_id": "m1", "tags_list": ["hot_emoji_size:xl"]}}
	}`))
	if !errors.Is(err, message.ErrUnknownEmojiSize) {
		t.Fatalf("err = %v, want ErrUnknownEmojiSize", err)
	}
}

func TestFromGraphQL_SingleResponseQuickReply(t *testing.T) {
	payload := `{"message_id":"m1","platform_xmd_encoded":"{\"quick_replies\":{\"content_type\":\"user_email\",\"payload\":\"p\",\"image_url\":\"https://i\"}}"}`
	m := normalize(t, SourceGraphQL, userThread, payload)

	if len(m.QuickReplies) != 1 {
		t.Fatalf("len(QuickReplies) = %d, want 1", len(m.QuickReplies))
	}
	q, ok := m.QuickReplies[0].(*message.QuickReplyEmail)
	if !ok {
		t.Fatalf("QuickReplies[0] = %T, want *QuickReplyEmail", m.QuickReplies[0])
	}
	if !q.IsResponse || q.ImageURL != "https://i" {
		t.Errorf("quick reply = %+v", q)
	}
}

func TestFromGraphQL_BadQuickRepliesLogged(t *testing.T) {
	logger, buf := bufferLogger()
	n := NewNormalizer(WithLogger(logger))
	m, err := n.NormalizeRaw(SourceGraphQL, userThread,
		[]byte(`{"message_id":"m1","message":{"text":"hi"},"platform_xmd_encoded":"{\"quick_replies\":[{\"content_type\":\"carousel\"}]}"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.QuickReplies) != 0 {
		t.Errorf("QuickReplies = %v, want empty", m.QuickReplies)
	}
	if m.TextValue() != "hi" {
		t.Errorf("Text = %q, sibling fields must survive", m.TextValue())
	}
	if !strings.Contains(buf.String(), "quick replies dropped") {
		t.Errorf("expected log entry, got %q", buf.String())
	}
}

func TestFromGraphQL_Nil(t *testing.T) {
	m, err := NewNormalizer().FromGraphQL(userThread, nil)
	if err != nil || m != nil {
		t.Errorf("FromGraphQL(nil) = %v, %v; want nil, nil", m, err)
	}
}

const deltaFull = `{
	"messageMetadata": {
		"messageId": "mid.d1",
		"actorFbId": "100",
		"timestamp": "1500000000000",
		"tags": ["source:messenger:web", "pending", "inbox"],
		"threadKey": {"otherUserFbId": "777"}
	},
	"body": "hi @Ann",
	"data": {"prng": "[{\"i\":\"201\",\"o\":3,\"l\":4}]"},
	"attachments": [
		{"mercuryJSON": "{\"blob_attachment\":{\"__typename\":\"MessageAudio\",\"filename\":\"clip.mp4\",\"playable_url\":\"https://a/1\",\"playable_duration_in_ms\":1500,\"audio_type\":\"VOICE_MESSAGE\"}}"},
		{"mercuryJSON": "not json"},
		{"mercuryJSON": "{\"sticker_attachment\":{\"id\":\"369239263222822\",\"pack\":{\"id\":\"p1\"},\"url\":\"https://s/1\",\"width\":32,\"height\":32}}"}
	]
}`

func TestFromDelta_Full(t *testing.T) {
	metrics := newTestMetrics(t)
	n := NewNormalizer(WithLogger(discardLogger()), WithMetrics(metrics))
	m, err := n.NormalizeRaw(SourceDelta, Thread{}, []byte(deltaFull))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.ThreadID != "777" || m.ThreadType != message.ThreadUser {
		t.Errorf("thread = %q/%q, want 777/USER from thread key", m.ThreadID, m.ThreadType)
	}
	if m.Location == nil || *m.Location != message.LocationInbox {
		t.Errorf("Location = %v, want INBOX", m.Location)
	}
	if m.Timestamp == nil || *m.Timestamp != 1500000000000 {
		t.Errorf("Timestamp = %v", m.Timestamp)
	}
	want := []message.Mention{{ThreadID: "201", Offset: 3, Length: 4}}
	if !reflect.DeepEqual(m.Mentions, want) {
		t.Errorf("Mentions = %+v, want %+v", m.Mentions, want)
	}
	if m.IsRead != nil {
		t.Error("IsRead should only be set from bulk query payloads")
	}

	if len(m.Attachments) != 1 {
		t.Fatalf("len(Attachments) = %d, want 1", len(m.Attachments))
	}
	audio, ok := m.Attachments[0].(*message.AudioAttachment)
	if !ok || audio.DurationMS != 1500 || audio.AudioType != "VOICE_MESSAGE" || audio.URL != "https://a/1" {
		t.Errorf("Attachments[0] = %+v", m.Attachments[0])
	}
	if m.Sticker == nil {
		t.Fatal("Sticker = nil")
	}
	if m.Sticker.ID != "369239263222822" || m.Sticker.PackID != "p1" {
		t.Errorf("Sticker = %+v", m.Sticker)
	}
	if m.Sticker.IsAnimated {
		t.Error("sticker without sprite should not be animated")
	}

	if got := testutil.ToFloat64(metrics.dropped.WithLabelValues(string(SourceDelta))); got != 1 {
		t.Errorf("dropped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.normalized.WithLabelValues(string(SourceDelta))); got != 1 {
		t.Errorf("normalized = %v, want 1", got)
	}
}

func TestFromDelta_GroupThreadKeyAndUnsent(t *testing.T) {
	payload := `{
		"messageMetadata": {"messageId": "m1", "actorFbId": 5, "threadKey": {"threadFbId": 9001}},
		"attachments": [
			{"mercuryJSON": "{\"extensible_attachment\":{\"legacy_attachment_id\":\"u9\",\"story_attachment\":{\"title_with_entities\":{\"text\":\"gone\"}}}}"}
		]
	}`
	m := normalize(t, SourceDelta, Thread{}, payload)

	if m.ThreadID != "9001" || m.ThreadType != message.ThreadGroup {
		t.Errorf("thread = %q/%q, want 9001/GROUP", m.ThreadID, m.ThreadType)
	}
	if m.AuthorID != "5" {
		t.Errorf("AuthorID = %q, want 5", m.AuthorID)
	}
	if !m.Unsent {
		t.Error("Unsent = false, want true")
	}
	if len(m.Attachments) != 0 {
		t.Errorf("Attachments = %v, want empty", m.Attachments)
	}
}

func TestFromDelta_MalformedPrngKeepsMessage(t *testing.T) {
	payload := `{"messageMetadata":{"messageId":"m1"},"body":"hello","data":{"prng":"[{"}}`
	m := normalize(t, SourceDelta, userThread, payload)
	if len(m.Mentions) != 0 {
		t.Errorf("Mentions = %v, want empty", m.Mentions)
	}
	if m.TextValue() != "hello" {
		t.Errorf("Text = %q", m.TextValue())
	}
}

func TestFromDeltaReply(t *testing.T) {
	payload := `{
		"message": {"messageMetadata": {"messageId": "m2", "actorFbId": "1"}, "body": "yes"},
		"repliedToMessage": {"messageMetadata": {"messageId": "m1", "actorFbId": "2"}, "body": "ok?"}
	}`
	m := normalize(t, SourceDeltaReply, userThread, payload)

	if m.ReplyToID != "m1" {
		t.Errorf("ReplyToID = %q, want m1", m.ReplyToID)
	}
	if m.RepliedTo == nil || m.RepliedTo.TextValue() != "ok?" {
		t.Errorf("RepliedTo = %+v", m.RepliedTo)
	}
}

const pullFull = `{
	"messageMetadata": {
		"messageId": "mid.p1",
		"actorFbId": "100",
		"timestamp": 1500000000000,
		"tags": ["hot_emoji_size:l", "inbox"],
		"folderId": {"systemFolderId": "ARCHIVED"}
	},
	"body": "files",
	"data": {"prng": "[{\"i\":201,\"o\":0}]"},
	"attachments": [
		{"mercury": {"blob_attachment": {"__typename": "MessageFile", "message_file_fbid": "f9", "filename": "a.zip", "url": "https://f/9"}}, "fileSize": "2048"},
		{"mercury": {"blob_attachment": {"__typename": "MessageImage", "legacy_attachment_id": "i9", "original_extension": "jpg"}}, "fileSize": "999"},
		{"mercury": {"blob_attachment": {"__typename": ["broken"]}}},
		{"fileSize": "1"},
		{"mercury": {"extensible_attachment": {"legacy_attachment_id": "loc", "story_attachment": {
			"target": {"__typename": "MessageLocation"},
			"url": "https://l.facebook.com/l.php?u=https%3A%2F%2Fwww.bing.com%2Fmaps%2Fdefault.aspx%3Fwhere1%3D48.8584%252C%2B2.2945",
			"deduplication_key": "400"
		}}}}
	]
}`

func TestFromPull_Full(t *testing.T) {
	logger, buf := bufferLogger()
	metrics := newTestMetrics(t)
	n := NewNormalizer(WithLogger(logger), WithMetrics(metrics))
	m, err := n.NormalizeRaw(SourcePull, userThread, []byte(pullFull))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Location == nil || *m.Location != message.LocationArchived {
		t.Errorf("Location = %v, want ARCHIVED from folder id", m.Location)
	}
	if m.EmojiSize != message.EmojiLarge {
		t.Errorf("EmojiSize = %v, want large", m.EmojiSize)
	}
	want := []message.Mention{{ThreadID: "201", Offset: 0, Length: message.DefaultMentionLength}}
	if !reflect.DeepEqual(m.Mentions, want) {
		t.Errorf("Mentions = %+v, want %+v", m.Mentions, want)
	}

	if len(m.Attachments) != 3 {
		t.Fatalf("len(Attachments) = %d, want 3", len(m.Attachments))
	}
	file, ok := m.Attachments[0].(*message.FileAttachment)
	if !ok || file.Size != 2048 || file.ID != "f9" {
		t.Errorf("Attachments[0] = %+v", m.Attachments[0])
	}
	if img, ok := m.Attachments[1].(*message.ImageAttachment); !ok || img.OriginalExtension != "jpg" {
		t.Errorf("Attachments[1] = %+v", m.Attachments[1])
	}
	loc, ok := m.Attachments[2].(*message.LocationAttachment)
	if !ok {
		t.Fatalf("Attachments[2] = %T, want *LocationAttachment", m.Attachments[2])
	}
	if loc.Latitude == nil || *loc.Latitude != 48.8584 || loc.Longitude == nil || *loc.Longitude != 2.2945 {
		t.Errorf("coordinates = %v, %v", loc.Latitude, loc.Longitude)
	}
	if loc.ID != "400" || loc.Address != "" {
		t.Errorf("location = %+v", loc)
	}

	if got := testutil.ToFloat64(metrics.dropped.WithLabelValues(string(SourcePull))); got != 2 {
		t.Errorf("dropped = %v, want 2", got)
	}
	if strings.Count(buf.String(), "attachment dropped") != 2 {
		t.Errorf("expected two drop log entries, got %q", buf.String())
	}
}

func TestFromPull_EmojiErrorCounted(t *testing.T) {
	metrics := newTestMetrics(t)
	n := NewNormalizer(WithMetrics(metrics))
	_, err := n.NormalizeRaw(SourcePull, userThread,
		[]byte(`{"messageMetadata":{"messageId":"m1","tags":["hot_emoji_size:XL"]}}`))
	if !errors.Is(err, message.ErrUnknownEmojiSize) {
		t.Fatalf("err = %v, want ErrUnknownEmojiSize", err)
	}
	if got := testutil.ToFloat64(metrics.failed.WithLabelValues(string(SourcePull))); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
}

func TestFromPull_UnknownFolderPreserved(t *testing.T) {
	m := normalize(t, SourcePull, userThread,
		`{"messageMetadata":{"messageId":"m1","folderId":{"systemFolderId":"SPAM"}}}`)
	if m.Location == nil || *m.Location != "SPAM" {
		t.Fatalf("Location = %v, want SPAM", m.Location)
	}
	if m.Location.IsKnown() {
		t.Error("SPAM should be an extended location")
	}
}

func TestNormalizeRaw_Errors(t *testing.T) {
	n := NewNormalizer()
	if _, err := n.NormalizeRaw("carrier-pigeon", userThread, []byte(`{}`)); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("err = %v, want ErrUnknownSource", err)
	}
	if _, err := n.NormalizeRaw(SourceDelta, userThread, []byte(`{`)); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("err = %v, want ErrInvalidPayload", err)
	}
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource("GraphQL")
	if err != nil || src != SourceGraphQL {
		t.Errorf("ParseSource = %q, %v", src, err)
	}
	if _, err := ParseSource("smoke"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("err = %v, want ErrUnknownSource", err)
	}
}

package messenger

import (
	"fmt"
	"maps"
	"net/url"
	"strconv"

	"github.com/flemzord/mercury/pkg/message"
)

// userGeneratedAction marks a send request carrying user content.
const userGeneratedAction = "ma-type:user-generated-message"

// SendData is the flat field set of a send request.
type SendData map[string]string

// Values converts the fields to form values.
func (d SendData) Values() url.Values {
	v := make(url.Values, len(d))
	for k, val := range d {
		v.Set(k, val)
	}
	return v
}

// Merge copies every field of other into d.
func (d SendData) Merge(other SendData) SendData {
	maps.Copy(d, other)
	return d
}

// ToSendData serializes an outgoing message into send request fields.
func ToSendData(msg *message.Message) (SendData, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}
	data := SendData{}

	if msg.HasText() || msg.Sticker != nil || msg.EmojiSize != message.EmojiNone {
		data["action_type"] = userGeneratedAction
	}
	if msg.HasText() {
		data["body"] = *msg.Text
	}

	for i, mention := range msg.Mentions {
		prefix := "profile_xmd[" + strconv.Itoa(i) + "]"
		data[prefix+"[id]"] = mention.ThreadID
		data[prefix+"[offset]"] = strconv.Itoa(mention.Offset)
		data[prefix+"[length]"] = strconv.Itoa(mention.Length)
		data[prefix+"[type]"] = "p"
	}

	if msg.EmojiSize != message.EmojiNone {
		if msg.HasText() {
			data["tags[0]"] = message.EmojiSizeTag(msg.EmojiSize)
		} else {
			data["sticker_id"] = msg.EmojiSize.StickerID()
		}
	}
	if msg.Sticker != nil {
		data["sticker_id"] = msg.Sticker.ID
	}

	if len(msg.QuickReplies) > 0 {
		xmd, err := EncodePlatformXMD(msg.QuickReplies)
		if err != nil {
			return nil, fmt.Errorf("messenger: encode quick replies: %w", err)
		}
		data["platform_xmd"] = xmd
	}

	if msg.ReplyToID != "" {
		data["replied_to_message_id"] = msg.ReplyToID
	}
	return data, nil
}

// ThreadFields addresses a send request to a thread.
func ThreadFields(thread Thread) (SendData, error) {
	if thread.ID == "" {
		return nil, ErrMissingThreadID
	}
	if thread.Type.IsGroup() {
		return SendData{"thread_fbid": thread.ID}, nil
	}
	return SendData{"other_user_fbid": thread.ID}, nil
}

package message

import "strings"

const emojiSizeTagPrefix = "hot_emoji_size:"

// folderPriority is the scan order for folder tags. The first folder present
// wins regardless of where it sits in the tag list.
var folderPriority = [...]string{"inbox", "archived", "pending", "other"}

// EmojiSizeFromTags returns the size named by the first "hot_emoji_size:"
// tag. It returns EmojiNone when no tag has the prefix and an
// ErrUnknownEmojiSize error when the first such tag has an unknown value.
func EmojiSizeFromTags(tags []string) (EmojiSize, error) {
	for _, tag := range tags {
		value, ok := strings.CutPrefix(tag, emojiSizeTagPrefix)
		if !ok {
			continue
		}
		return ParseEmojiSize(value)
	}
	return EmojiNone, nil
}

// EmojiSizeTag returns the tag that encodes s.
func EmojiSizeTag(s EmojiSize) string {
	return emojiSizeTagPrefix + s.String()
}

// ForwardedFromTags reports whether any tag contains "forward" or "copy".
func ForwardedFromTags(tags []string) bool {
	for _, tag := range tags {
		if strings.Contains(tag, "forward") || strings.Contains(tag, "copy") {
			return true
		}
	}
	return false
}

// FolderFromTags returns the highest-priority folder present verbatim in
// tags, upper-cased.
func FolderFromTags(tags []string) (ThreadLocation, bool) {
	if len(tags) == 0 {
		return "", false
	}
	present := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		present[tag] = struct{}{}
	}
	for _, folder := range folderPriority {
		if _, ok := present[folder]; ok {
			return ThreadLocation(strings.ToUpper(folder)), true
		}
	}
	return "", false
}

// Package store defines persistence for canonical messages and the read
// receipts that populate their ReadBy lists.
package store

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/flemzord/mercury/pkg/message"
)

// ServiceName is the AppContext service key under which a MessageStore is
// registered.
const ServiceName = "store.messages"

// DefaultListLimit bounds ListThread when the caller passes no limit.
const DefaultListLimit = 50

var (
	// ErrNotFound indicates the requested message does not exist.
	ErrNotFound = errors.New("store: message not found")

	// ErrMissingID is returned when saving a message without an id.
	ErrMissingID = errors.New("store: message id is required")
)

// MessageStore persists canonical messages.
// Implementations must be safe for concurrent use.
type MessageStore interface {
	// Save inserts or replaces the message with the same id.
	Save(ctx context.Context, msg *message.Message) error

	// Get returns the message with ReadBy merged from recorded receipts.
	Get(ctx context.Context, id string) (*message.Message, error)

	// ListThread returns up to limit messages of a thread, newest first.
	ListThread(ctx context.Context, threadID string, limit int) ([]*message.Message, error)

	// MarkRead records that readerID has read every message of the thread
	// with a timestamp at or below watermark. Watermarks only move forward.
	MarkRead(ctx context.Context, threadID, readerID string, watermark int64) error

	// Prune deletes messages older than before and returns how many went.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// NormalizeLimit maps a non-positive limit to DefaultListLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

// MergeReaders adds readers to msg.ReadBy, keeping the list sorted and
// free of duplicates.
func MergeReaders(msg *message.Message, readers []string) {
	merged := append(slices.Clone(msg.ReadBy), readers...)
	slices.Sort(merged)
	msg.ReadBy = slices.Compact(merged)
	if msg.ReadBy == nil {
		msg.ReadBy = []string{}
	}
}

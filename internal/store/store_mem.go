package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/flemzord/mercury/pkg/message"
)

type memEntry struct {
	body      []byte
	threadID  string
	timestamp int64
}

// InMemoryStore is a MessageStore kept in process memory. Messages are
// stored as canonical JSON so callers never share pointers with it.
type InMemoryStore struct {
	mu       sync.RWMutex
	messages map[string]memEntry
	receipts map[string]map[string]int64 // thread -> reader -> watermark
	now      func() time.Time
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		messages: make(map[string]memEntry),
		receipts: make(map[string]map[string]int64),
		now:      time.Now,
	}
}

var _ MessageStore = (*InMemoryStore)(nil)

// Save implements MessageStore.
func (s *InMemoryStore) Save(_ context.Context, msg *message.Message) error {
	if msg == nil || msg.ID == "" {
		return ErrMissingID
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("store: encode message: %w", err)
	}

	ts := s.now().UnixMilli()
	if msg.Timestamp != nil {
		ts = *msg.Timestamp
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ID] = memEntry{body: body, threadID: msg.ThreadID, timestamp: ts}
	return nil
}

// Get implements MessageStore.
func (s *InMemoryStore) Get(_ context.Context, id string) (*message.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.decode(e)
}

// ListThread implements MessageStore.
func (s *InMemoryStore) ListThread(_ context.Context, threadID string, limit int) ([]*message.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []memEntry
	for _, e := range s.messages {
		if e.threadID == threadID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].timestamp > entries[j].timestamp })
	if n := NormalizeLimit(limit); len(entries) > n {
		entries = entries[:n]
	}

	out := make([]*message.Message, 0, len(entries))
	for _, e := range entries {
		msg, err := s.decode(e)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

// MarkRead implements MessageStore.
func (s *InMemoryStore) MarkRead(_ context.Context, threadID, readerID string, watermark int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	readers, ok := s.receipts[threadID]
	if !ok {
		readers = make(map[string]int64)
		s.receipts[threadID] = readers
	}
	if watermark > readers[readerID] {
		readers[readerID] = watermark
	}
	return nil
}

// Prune implements MessageStore.
func (s *InMemoryStore) Prune(_ context.Context, before time.Time) (int64, error) {
	cutoff := before.UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, e := range s.messages {
		if e.timestamp < cutoff {
			delete(s.messages, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored messages.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// decode must be called with s.mu held.
func (s *InMemoryStore) decode(e memEntry) (*message.Message, error) {
	var msg message.Message
	if err := json.Unmarshal(e.body, &msg); err != nil {
		return nil, fmt.Errorf("store: decode message: %w", err)
	}
	msg.EnsureDefaults()

	var readers []string
	for reader, watermark := range s.receipts[e.threadID] {
		if watermark >= e.timestamp {
			readers = append(readers, reader)
		}
	}
	MergeReaders(&msg, readers)
	return &msg, nil
}

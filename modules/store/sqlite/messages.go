package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flemzord/mercury/internal/store"
	"github.com/flemzord/mercury/pkg/message"
)

// MessageStore implements store.MessageStore on top of SQLite. Messages are
// kept as canonical JSON next to the columns used for lookups.
type MessageStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.MessageStore = (*MessageStore)(nil)

func (s *MessageStore) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Save implements store.MessageStore. A message without a timestamp is
// stamped with the current time so retention still applies to it.
func (s *MessageStore) Save(ctx context.Context, msg *message.Message) error {
	if msg == nil || msg.ID == "" {
		return store.ErrMissingID
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("sqlite: encode message %s: %w", msg.ID, err)
	}

	ts := s.clock().UnixMilli()
	if msg.Timestamp != nil {
		ts = *msg.Timestamp
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, thread_id, author_id, timestamp, unsent, body)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			thread_id = excluded.thread_id,
			author_id = excluded.author_id,
			timestamp = excluded.timestamp,
			unsent    = excluded.unsent,
			body      = excluded.body`,
		msg.ID, msg.ThreadID, msg.AuthorID, ts, boolToInt(msg.Unsent), string(body),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save message %s: %w", msg.ID, err)
	}
	return nil
}

// Get implements store.MessageStore.
func (s *MessageStore) Get(ctx context.Context, id string) (*message.Message, error) {
	var (
		body     string
		threadID string
		ts       int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT body, thread_id, timestamp FROM messages WHERE id = ?", id,
	).Scan(&body, &threadID, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get message %s: %w", id, err)
	}

	receipts, err := s.receipts(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return decodeMessage(body, ts, receipts)
}

// ListThread implements store.MessageStore.
func (s *MessageStore) ListThread(ctx context.Context, threadID string, limit int) ([]*message.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT body, timestamp FROM messages
		WHERE thread_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`,
		threadID, store.NormalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list thread %s: %w", threadID, err)
	}
	defer func() { _ = rows.Close() }()

	type row struct {
		body string
		ts   int64
	}
	var raw []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.body, &r.ts); err != nil {
			return nil, fmt.Errorf("sqlite: scan message: %w", err)
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate messages: %w", err)
	}

	// Receipts are read after the rows are closed: the pool has one connection.
	_ = rows.Close()
	receipts, err := s.receipts(ctx, threadID)
	if err != nil {
		return nil, err
	}

	out := make([]*message.Message, 0, len(raw))
	for _, r := range raw {
		msg, err := decodeMessage(r.body, r.ts, receipts)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

// MarkRead implements store.MessageStore.
func (s *MessageStore) MarkRead(ctx context.Context, threadID, readerID string, watermark int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO read_receipts (thread_id, reader_id, watermark)
		VALUES (?, ?, ?)
		ON CONFLICT(thread_id, reader_id) DO UPDATE SET
			watermark  = MAX(watermark, excluded.watermark),
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')`,
		threadID, readerID, watermark,
	)
	if err != nil {
		return fmt.Errorf("sqlite: mark read %s/%s: %w", threadID, readerID, err)
	}
	return nil
}

// Prune implements store.MessageStore.
func (s *MessageStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE timestamp < ?", before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune messages: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	return n, nil
}

// Count returns the number of stored messages.
func (s *MessageStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count messages: %w", err)
	}
	return n, nil
}

type receipt struct {
	reader    string
	watermark int64
}

func (s *MessageStore) receipts(ctx context.Context, threadID string) ([]receipt, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT reader_id, watermark FROM read_receipts WHERE thread_id = ?", threadID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: read receipts %s: %w", threadID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []receipt
	for rows.Next() {
		var r receipt
		if err := rows.Scan(&r.reader, &r.watermark); err != nil {
			return nil, fmt.Errorf("sqlite: scan receipt: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate receipts: %w", err)
	}
	return out, nil
}

func decodeMessage(body string, ts int64, receipts []receipt) (*message.Message, error) {
	var msg message.Message
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return nil, fmt.Errorf("sqlite: decode message: %w", err)
	}
	msg.EnsureDefaults()

	var readers []string
	for _, r := range receipts {
		if r.watermark >= ts {
			readers = append(readers, r.reader)
		}
	}
	store.MergeReaders(&msg, readers)
	return &msg, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Package storetest provides a behavioural test suite shared by every
// store.MessageStore implementation.
package storetest

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/flemzord/mercury/internal/store"
	"github.com/flemzord/mercury/pkg/message"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.MessageStore

// Message builds a stored-message fixture.
func Message(id, threadID string, ts int64) *message.Message {
	msg := message.NewText("body of " + id)
	msg.ID = id
	msg.ThreadID = threadID
	msg.ThreadType = message.ThreadGroup
	msg.AuthorID = "100"
	msg.Timestamp = &ts
	return msg
}

// Run exercises the MessageStore contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("SaveGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		msg := Message("m1", "t1", 1000)
		msg.Mentions = []message.Mention{{ThreadID: "7", Offset: 0, Length: 4}}
		msg.Attachments = []message.Attachment{
			&message.ImageAttachment{ID: "img", OriginalExtension: "png", Width: 10, Height: 20},
			&message.FileAttachment{ID: "f", Name: "a.txt", Size: 12},
		}
		msg.QuickReplies = []message.QuickReply{&message.QuickReplyLocation{}}
		msg.Reactions = map[string]message.Reaction{"200": message.ReactionLove}

		if err := s.Save(ctx, msg); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := s.Get(ctx, "m1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.TextValue() != "body of m1" {
			t.Errorf("text = %q, want %q", got.TextValue(), "body of m1")
		}
		if len(got.Attachments) != 2 {
			t.Fatalf("attachments = %d, want 2", len(got.Attachments))
		}
		if _, ok := got.Attachments[0].(*message.ImageAttachment); !ok {
			t.Errorf("attachment[0] = %T, want *message.ImageAttachment", got.Attachments[0])
		}
		if _, ok := got.Attachments[1].(*message.FileAttachment); !ok {
			t.Errorf("attachment[1] = %T, want *message.FileAttachment", got.Attachments[1])
		}
		if len(got.QuickReplies) != 1 || got.QuickReplies[0].QuickReplyKind() != message.QuickReplyKindLocation {
			t.Errorf("quick replies = %v", got.QuickReplies)
		}
		if got.Reactions["200"] != message.ReactionLove {
			t.Errorf("reactions = %v", got.Reactions)
		}
		if len(got.Mentions) != 1 || got.Mentions[0].ThreadID != "7" {
			t.Errorf("mentions = %v", got.Mentions)
		}
	})

	t.Run("SaveReplaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first := Message("m1", "t1", 1000)
		if err := s.Save(ctx, first); err != nil {
			t.Fatalf("Save: %v", err)
		}
		second := Message("m1", "t1", 1000)
		second.Unsent = true
		if err := s.Save(ctx, second); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := s.Get(ctx, "m1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !got.Unsent {
			t.Error("second save should replace the first")
		}
	})

	t.Run("SaveWithoutID", func(t *testing.T) {
		s := newStore(t)
		if err := s.Save(context.Background(), message.New()); !errors.Is(err, store.ErrMissingID) {
			t.Errorf("err = %v, want ErrMissingID", err)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListThreadNewestFirst", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for _, m := range []*message.Message{
			Message("a", "t1", 1000),
			Message("b", "t1", 3000),
			Message("c", "t1", 2000),
			Message("x", "t2", 5000),
		} {
			if err := s.Save(ctx, m); err != nil {
				t.Fatalf("Save: %v", err)
			}
		}

		got, err := s.ListThread(ctx, "t1", 0)
		if err != nil {
			t.Fatalf("ListThread: %v", err)
		}
		if ids := idsOf(got); !slices.Equal(ids, []string{"b", "c", "a"}) {
			t.Errorf("ids = %v, want [b c a]", ids)
		}

		got, err = s.ListThread(ctx, "t1", 2)
		if err != nil {
			t.Fatalf("ListThread: %v", err)
		}
		if ids := idsOf(got); !slices.Equal(ids, []string{"b", "c"}) {
			t.Errorf("limited ids = %v, want [b c]", ids)
		}

		got, err = s.ListThread(ctx, "empty", 10)
		if err != nil {
			t.Fatalf("ListThread: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("empty thread returned %d messages", len(got))
		}
	})

	t.Run("MarkReadMergesReadBy", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		old := Message("old", "t1", 1000)
		old.ReadBy = []string{"300"}
		if err := s.Save(ctx, old); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := s.Save(ctx, Message("new", "t1", 5000)); err != nil {
			t.Fatalf("Save: %v", err)
		}

		if err := s.MarkRead(ctx, "t1", "200", 2000); err != nil {
			t.Fatalf("MarkRead: %v", err)
		}
		if err := s.MarkRead(ctx, "t1", "100", 5000); err != nil {
			t.Fatalf("MarkRead: %v", err)
		}
		// Watermarks never move backwards.
		if err := s.MarkRead(ctx, "t1", "100", 10); err != nil {
			t.Fatalf("MarkRead: %v", err)
		}
		if err := s.MarkRead(ctx, "other", "999", 9000); err != nil {
			t.Fatalf("MarkRead: %v", err)
		}

		got, err := s.Get(ctx, "old")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !slices.Equal(got.ReadBy, []string{"100", "200", "300"}) {
			t.Errorf("old ReadBy = %v, want [100 200 300]", got.ReadBy)
		}

		got, err = s.Get(ctx, "new")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !slices.Equal(got.ReadBy, []string{"100"}) {
			t.Errorf("new ReadBy = %v, want [100]", got.ReadBy)
		}
	})

	t.Run("Prune", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for _, m := range []*message.Message{
			Message("a", "t1", 1000),
			Message("b", "t1", 2000),
			Message("c", "t1", 3000),
		} {
			if err := s.Save(ctx, m); err != nil {
				t.Fatalf("Save: %v", err)
			}
		}

		n, err := s.Prune(ctx, time.UnixMilli(2500))
		if err != nil {
			t.Fatalf("Prune: %v", err)
		}
		if n != 2 {
			t.Errorf("pruned = %d, want 2", n)
		}
		if _, err := s.Get(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("a should be pruned, err = %v", err)
		}
		if _, err := s.Get(ctx, "c"); err != nil {
			t.Errorf("c should survive: %v", err)
		}
	})
}

func idsOf(msgs []*message.Message) []string {
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	return ids
}

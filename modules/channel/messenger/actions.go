package messenger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/flemzord/mercury/pkg/message"
)

// Request paths of the message actions.
const (
	PathSend     = "/messaging/send/"
	PathMutation = "/webgraphql/mutation"
	PathUnsend   = "/messaging/unsend_message/?dpr=1"
)

// reactionDocID is the persisted GraphQL mutation that adds or removes a
// reaction.
const reactionDocID = 1491398900900362

// Transport posts form data on behalf of an authenticated session. Session
// handling, retries and rate limiting belong to the implementation.
type Transport interface {
	Post(ctx context.Context, path string, form url.Values) error
}

type reactionData struct {
	Action           string  `json:"action"`
	ClientMutationID string  `json:"client_mutation_id"`
	ActorID          string  `json:"actor_id"`
	MessageID        string  `json:"message_id"`
	Reaction         *string `json:"reaction"`
}

// ReactionRequest builds the mutation form that sets or, with a nil
// reaction, removes actorID's reaction to a message.
func ReactionRequest(actorID, messageID string, reaction *message.Reaction) (url.Values, error) {
	data := reactionData{
		Action:           "ADD_REACTION",
		ClientMutationID: "1",
		ActorID:          actorID,
		MessageID:        messageID,
	}
	if reaction == nil {
		data.Action = "REMOVE_REACTION"
	} else {
		glyph := string(*reaction)
		data.Reaction = &glyph
	}

	variables, err := json.Marshal(map[string]reactionData{"data": data})
	if err != nil {
		return nil, fmt.Errorf("messenger: encode reaction: %w", err)
	}
	return url.Values{
		"doc_id":    {strconv.FormatInt(reactionDocID, 10)},
		"variables": {string(variables)},
	}, nil
}

// ReplyFields builds the send fields of a text reply to messageID.
func ReplyFields(thread Thread, text, messageID string) (SendData, error) {
	msg := message.NewText(text)
	msg.ReplyToID = messageID
	data, err := ToSendData(msg)
	if err != nil {
		return nil, err
	}
	addr, err := ThreadFields(thread)
	if err != nil {
		return nil, err
	}
	return data.Merge(addr), nil
}

// UnsendFields builds the form that deletes a message for everyone.
func UnsendFields(messageID string) url.Values {
	return url.Values{"message_id": {messageID}}
}

// Actions performs message actions through a Transport.
type Actions struct {
	transport Transport
	actorID   string
}

// NewActions returns Actions that act as actorID.
func NewActions(transport Transport, actorID string) *Actions {
	return &Actions{transport: transport, actorID: actorID}
}

// Send posts an outgoing message to a thread.
func (a *Actions) Send(ctx context.Context, thread Thread, msg *message.Message) error {
	if a.transport == nil {
		return ErrNoTransport
	}
	data, err := ToSendData(msg)
	if err != nil {
		return err
	}
	addr, err := ThreadFields(thread)
	if err != nil {
		return err
	}
	return a.transport.Post(ctx, PathSend, data.Merge(addr).Values())
}

// React sets or, with a nil reaction, removes a reaction.
func (a *Actions) React(ctx context.Context, messageID string, reaction *message.Reaction) error {
	if a.transport == nil {
		return ErrNoTransport
	}
	form, err := ReactionRequest(a.actorID, messageID, reaction)
	if err != nil {
		return err
	}
	return a.transport.Post(ctx, PathMutation, form)
}

// Reply sends a text reply to messageID.
func (a *Actions) Reply(ctx context.Context, thread Thread, text, messageID string) error {
	if a.transport == nil {
		return ErrNoTransport
	}
	data, err := ReplyFields(thread, text, messageID)
	if err != nil {
		return err
	}
	return a.transport.Post(ctx, PathSend, data.Values())
}

// Unsend deletes a message for everyone.
func (a *Actions) Unsend(ctx context.Context, messageID string) error {
	if a.transport == nil {
		return ErrNoTransport
	}
	return a.transport.Post(ctx, PathUnsend, UnsendFields(messageID))
}

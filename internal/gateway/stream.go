package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/flemzord/mercury/modules/channel/messenger"
	"go.opentelemetry.io/otel/attribute"
)

// streamError is the reply frame for a delta that failed to normalize.
type streamError struct {
	Error string `json:"error"`
}

// handleStream upgrades to a websocket and answers every text frame, a
// realtime delta, with its normalized message or a streamError. The query
// selects the thread context and, with source=delta_reply, the reply shape.
func (g *Gateway) handleStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		thread, persist, err := parseThreadQuery(r)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		source := messenger.SourceDelta
		if raw := r.URL.Query().Get("source"); raw != "" {
			s, err := messenger.ParseSource(raw)
			if err != nil || (s != messenger.SourceDelta && s != messenger.SourceDeltaReply) {
				badRequest(w, "source must be delta or delta_reply")
				return
			}
			source = s
		}
		if persist && g.store == nil {
			writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "no message store configured")
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			g.logger.Error("gateway: websocket accept failed", "error", err)
			return
		}
		defer func() {
			_ = conn.Close(websocket.StatusInternalError, "unexpected close")
		}()
		conn.SetReadLimit(g.config.MaxBodyBytes)

		g.logger.Debug("gateway: stream opened", "thread_id", thread.ID, "source", source,
			"request_id", RequestIDFrom(r.Context()))
		err = g.streamLoop(r.Context(), conn, source, thread, persist)
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			_ = conn.Close(websocket.StatusNormalClosure, "")
		default:
			if !errors.Is(err, context.Canceled) {
				g.logger.Debug("gateway: stream closed", "error", err)
			}
		}
	}
}

func (g *Gateway) streamLoop(ctx context.Context, conn *websocket.Conn, source messenger.Source, thread messenger.Thread, persist bool) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			g.metrics.frame("rejected")
			if err := writeFrame(ctx, conn, streamError{Error: "expected a text frame"}); err != nil {
				return err
			}
			continue
		}

		reply := g.normalizeFrame(ctx, source, thread, data, persist)
		if err := writeFrame(ctx, conn, reply); err != nil {
			return err
		}
	}
}

func (g *Gateway) normalizeFrame(ctx context.Context, source messenger.Source, thread messenger.Thread, data []byte, persist bool) any {
	ctx, span := g.tracer.Start(ctx, "mercury.normalize")
	defer span.End()
	span.SetAttributes(
		attribute.String("mercury.source", string(source)),
		attribute.Bool("mercury.stream", true),
	)

	msg, err := g.normalizer.NormalizeRaw(source, thread, data)
	if err == nil && msg == nil {
		err = errors.New("empty payload")
	}
	if err != nil {
		failSpan(span, err)
		g.metrics.frame("error")
		return streamError{Error: err.Error()}
	}
	if persist {
		if err := g.save(ctx, msg); err != nil {
			g.logger.Error("gateway: store streamed message failed", "message_id", msg.ID, "error", err)
			g.metrics.frame("error")
			return streamError{Error: "store: " + err.Error()}
		}
	}
	g.metrics.frame("ok")
	return msg
}

func writeFrame(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

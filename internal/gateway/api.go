package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flemzord/mercury/modules/channel/messenger"
	"github.com/flemzord/mercury/pkg/message"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// threadQuery is the thread context of normalize and stream requests.
type threadQuery struct {
	ThreadID   string `query:"thread_id" validate:"omitempty,max=64"`
	ThreadType string `query:"thread_type" validate:"omitempty,oneof=user group USER GROUP"`
	Store      string `query:"store" validate:"omitempty,oneof=true false"`
}

func parseThreadQuery(r *http.Request) (messenger.Thread, bool, error) {
	q := r.URL.Query()
	tq := threadQuery{
		ThreadID:   q.Get("thread_id"),
		ThreadType: q.Get("thread_type"),
		Store:      q.Get("store"),
	}
	if err := validateStruct(&tq); err != nil {
		return messenger.Thread{}, false, err
	}

	thread := messenger.Thread{ID: tq.ThreadID, Type: message.ThreadUser}
	if tq.ThreadType != "" {
		tt, err := message.ParseThreadType(tq.ThreadType)
		if err != nil {
			return messenger.Thread{}, false, err
		}
		thread.Type = tt
	}
	return thread, tq.Store == "true", nil
}

func (g *Gateway) handleNormalize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := g.tracer.Start(r.Context(), "mercury.normalize")
		defer span.End()

		source, err := messenger.ParseSource(chi.URLParam(r, "source"))
		if err != nil {
			failSpan(span, err)
			badRequest(w, err.Error())
			return
		}
		thread, persist, err := parseThreadQuery(r)
		if err != nil {
			failSpan(span, err)
			badRequest(w, err.Error())
			return
		}
		span.SetAttributes(
			attribute.String("mercury.source", string(source)),
			attribute.String("mercury.thread_type", string(thread.Type)),
		)

		body, err := readBody(r)
		if err != nil {
			failSpan(span, err)
			writeBodyError(w, err)
			return
		}

		msg, err := g.normalizer.NormalizeRaw(source, thread, body)
		if err != nil {
			failSpan(span, err)
			if errors.Is(err, messenger.ErrInvalidPayload) {
				badRequest(w, err.Error())
				return
			}
			writeError(w, http.StatusUnprocessableEntity, ErrCodeUnprocessable, err.Error())
			return
		}
		if msg == nil {
			badRequest(w, "empty payload")
			return
		}
		span.SetAttributes(
			attribute.String("mercury.message_id", msg.ID),
			attribute.Int("mercury.attachments", len(msg.Attachments)),
		)

		if persist {
			if g.store == nil {
				writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "no message store configured")
				return
			}
			if err := g.save(ctx, msg); err != nil {
				g.logger.Error("gateway: store message failed", "message_id", msg.ID, "error", err,
					"request_id", RequestIDFrom(ctx))
				internalError(w)
				return
			}
		}

		writeJSON(w, http.StatusOK, msg)
	}
}

func (g *Gateway) save(ctx context.Context, msg *message.Message) error {
	ctx, span := g.tracer.Start(ctx, "mercury.store.save",
		trace.WithAttributes(attribute.String("mercury.message_id", msg.ID)))
	defer span.End()
	if err := g.store.Save(ctx, msg); err != nil {
		failSpan(span, err)
		return err
	}
	return nil
}

func (g *Gateway) handleSerialize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := g.tracer.Start(r.Context(), "mercury.serialize")
		defer span.End()

		body, err := readBody(r)
		if err != nil {
			failSpan(span, err)
			writeBodyError(w, err)
			return
		}
		var msg message.Message
		if err := json.Unmarshal(bytes.TrimSpace(body), &msg); err != nil {
			failSpan(span, err)
			badRequest(w, "invalid message JSON: "+err.Error())
			return
		}
		msg.EnsureDefaults()

		data, err := messenger.ToSendData(&msg)
		if err != nil {
			failSpan(span, err)
			writeError(w, http.StatusUnprocessableEntity, ErrCodeUnprocessable, err.Error())
			return
		}
		span.SetAttributes(attribute.Int("mercury.fields", len(data)))
		writeJSON(w, http.StatusOK, data)
	}
}

func writeBodyError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, err.Error())
		return
	}
	badRequest(w, err.Error())
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

package gateway

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/flemzord/mercury/internal/store"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
)

const maxListLimit = 500

// markReadRequest is the body of POST /v1/threads/{id}/read.
type markReadRequest struct {
	ReaderID  string `json:"reader_id" validate:"required,max=64"`
	Watermark *int64 `json:"watermark" validate:"required,gte=0"`
}

// threadMessagesResponse is the body of GET /v1/threads/{id}/messages.
type threadMessagesResponse struct {
	ThreadID string `json:"thread_id"`
	Messages any    `json:"messages"`
}

func (g *Gateway) handleGetMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		ctx, span := g.tracer.Start(r.Context(), "mercury.store.get")
		defer span.End()
		span.SetAttributes(attribute.String("mercury.message_id", id))

		msg, err := g.store.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "message not found")
			return
		}
		if err != nil {
			failSpan(span, err)
			g.logger.Error("gateway: get message failed", "message_id", id, "error", err)
			internalError(w)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}

func (g *Gateway) handleListThread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threadID := chi.URLParam(r, "id")

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 || n > maxListLimit {
				badRequest(w, "limit must be an integer between 0 and "+strconv.Itoa(maxListLimit))
				return
			}
			limit = n
		}

		ctx, span := g.tracer.Start(r.Context(), "mercury.store.list")
		defer span.End()
		span.SetAttributes(
			attribute.String("mercury.thread_id", threadID),
			attribute.Int("mercury.limit", store.NormalizeLimit(limit)),
		)

		msgs, err := g.store.ListThread(ctx, threadID, limit)
		if err != nil {
			failSpan(span, err)
			g.logger.Error("gateway: list thread failed", "thread_id", threadID, "error", err)
			internalError(w)
			return
		}
		writeJSON(w, http.StatusOK, threadMessagesResponse{ThreadID: threadID, Messages: msgs})
	}
}

func (g *Gateway) handleMarkRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threadID := chi.URLParam(r, "id")

		var req markReadRequest
		if err := decodeAndValidate(r.Body, &req); err != nil {
			writeBodyError(w, err)
			return
		}

		ctx, span := g.tracer.Start(r.Context(), "mercury.store.mark_read")
		defer span.End()
		span.SetAttributes(
			attribute.String("mercury.thread_id", threadID),
			attribute.String("mercury.reader_id", req.ReaderID),
		)

		if err := g.store.MarkRead(ctx, threadID, req.ReaderID, *req.Watermark); err != nil {
			failSpan(span, err)
			g.logger.Error("gateway: mark read failed", "thread_id", threadID, "error", err)
			internalError(w)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

package gateway

import (
	"context"
	"net/http"
	"time"
)

// messageCounter is implemented by stores that can count their messages.
type messageCounter interface {
	Count(ctx context.Context) (int, error)
}

// StatusResponse is the JSON response for GET /v1/status.
type StatusResponse struct {
	UptimeSeconds int64 `json:"uptime_seconds"`
	Store         bool  `json:"store"`
	Messages      *int  `json:"messages,omitempty"`
}

func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			UptimeSeconds: int64(time.Since(g.startedAt).Truncate(time.Second).Seconds()),
			Store:         g.store != nil,
		}
		if c, ok := g.store.(messageCounter); ok {
			if n, err := c.Count(r.Context()); err == nil {
				resp.Messages = &n
			} else {
				g.logger.Warn("gateway: count messages failed", "error", err)
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

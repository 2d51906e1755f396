package logger

import (
	"context"
	"log/slog"

	"transcriptrag/internal/middleware"
)

// ContextHandler decorates a slog.Handler so that records logged with a
// request or worker context automatically carry the correlation id.
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ctx.Value(middleware.CorrelationKey).(string); ok && id != "" {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

package graph

import (
	"context"
	"log/slog"
	"time"
)

// OpEvent describes one completed workspace operation.
type OpEvent struct {
	Name      string
	ProjectID string
	StartedAt time.Time
	Duration  time.Duration
	Err       error
	Fields    map[string]any
}

// Observer receives workspace operation events.
type Observer interface {
	ObserveOp(ctx context.Context, event OpEvent)
}

type NoopObserver struct{}

func (NoopObserver) ObserveOp(context.Context, OpEvent) {}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver logs operations through logger. A nil logger yields a
// NoopObserver.
func NewLogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		return NoopObserver{}
	}
	return &logObserver{logger: logger}
}

func (o *logObserver) ObserveOp(ctx context.Context, event OpEvent) {
	attrs := make([]any, 0, 8+len(event.Fields)*2)
	attrs = append(attrs,
		"op", event.Name,
		"project", event.ProjectID,
		"duration_ms", event.Duration.Milliseconds(),
		"success", event.Err == nil,
	)
	for k, v := range event.Fields {
		attrs = append(attrs, k, v)
	}
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
		o.logger.ErrorContext(ctx, "workspace_op", attrs...)
		return
	}
	o.logger.InfoContext(ctx, "workspace_op", attrs...)
}

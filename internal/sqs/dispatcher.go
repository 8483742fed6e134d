package sqs

import (
	"context"
	"log/slog"
)

// Dispatcher routes notifications to a handler registered for their resource
// kind. Kinds without a handler fall through to the fallback.
type Dispatcher struct {
	handlers map[string]Handler
	fallback Handler
}

// NewDispatcher returns a dispatcher that sends unrouted messages to fallback,
// or to LogMessage when fallback is nil.
func NewDispatcher(fallback Handler) *Dispatcher {
	if fallback == nil {
		fallback = LogMessage
	}
	return &Dispatcher{handlers: map[string]Handler{}, fallback: fallback}
}

// On registers h for every event whose type starts with kind and a dot.
func (d *Dispatcher) On(kind string, h Handler) *Dispatcher {
	d.handlers[kind] = h
	return d
}

// Handle is a Handler.
func (d *Dispatcher) Handle(ctx context.Context, msg EventMessage) error {
	if h, ok := d.handlers[msg.ResourceKind()]; ok {
		return h(ctx, msg)
	}
	return d.fallback(ctx, msg)
}

// NotificationHandlers wires the handlers the notification service runs with.
func NotificationHandlers() *Dispatcher {
	return NewDispatcher(LogMessage).
		On("course", logEnrollment).
		On("review", logReview)
}

func logEnrollment(ctx context.Context, msg EventMessage) error {
	if msg.UserID == "" {
		return LogMessage(ctx, msg)
	}
	slog.InfoContext(ctx, "Enrollment changed",
		slog.String("type", msg.Type),
		slog.String("course_id", msg.ResourceID),
		slog.String("course", msg.Name),
		slog.String("student_id", msg.UserID),
	)
	return nil
}

func logReview(ctx context.Context, msg EventMessage) error {
	slog.InfoContext(ctx, "Review changed",
		slog.String("type", msg.Type),
		slog.String("review_id", msg.ResourceID),
		slog.String("product_id", msg.ProductID),
		slog.String("user_id", msg.UserID),
		slog.Int("rating", msg.Rating),
	)
	return nil
}

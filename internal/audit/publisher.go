package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"gramsuvidha/pkg/requestcontext"
)

// Publisher captures structured audit events synchronously. A failing sink is
// logged and swallowed: an audit outage must never fail the user's request.
type Publisher struct {
	store  Store
	logger *slog.Logger
}

func NewPublisher(store Store, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, logger: logger}
}

// Emit stamps id and time and appends the event.
func (p *Publisher) Emit(ctx context.Context, e Event) {
	if p == nil {
		return
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = requestcontext.Now(ctx)
	}
	if err := p.store.Append(ctx, e); err != nil {
		p.logger.ErrorContext(ctx, "audit append failed",
			"action", e.Action,
			"entity", e.Entity,
			"error", err,
		)
	}
}

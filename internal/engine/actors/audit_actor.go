package actors

import (
	stdctx "context"
	"log/slog"
	"time"

	"github.com/asynkron/protoactor-go/actor"

	"newsroom/internal/events"
)

// AuditMsg carries one audit event. It is sent, never requested.
type AuditMsg struct {
	Event events.Event
}

// AuditActor publishes audit events. Failures are logged and dropped.
type AuditActor struct {
	publisher events.Publisher
	timeout   time.Duration
}

func NewAuditActor(publisher events.Publisher, timeout time.Duration) actor.Actor {
	if publisher == nil {
		publisher = events.NewLogPublisher(nil)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AuditActor{publisher: publisher, timeout: timeout}
}

func (a *AuditActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *AuditMsg:
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), a.timeout)
		defer cancel()
		if err := a.publisher.Publish(ctx, msg.Event); err != nil {
			slog.Warn("audit event dropped", "type", msg.Event.Type, "subject", msg.Event.SubjectID, "error", err)
		}
	case *actor.Stopping:
		if err := a.publisher.Close(); err != nil {
			slog.Warn("closing audit publisher", "error", err)
		}
	default:
		logUnhandled("AuditActor", msg)
	}
}

package actors

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/asynkron/protoactor-go/actor"

	"newsroom/internal/database"
	"newsroom/internal/events"
	"newsroom/internal/models"
	"newsroom/internal/utils"
)

// Deps are the collaborators shared by every domain actor.
type Deps struct {
	DB      database.DBAdapter
	Metrics *utils.MetricsCollector
	// Timeout bounds each store call made while handling one message.
	Timeout time.Duration
	// IdleTimeout retires a per-user actor after this long without messages.
	IdleTimeout time.Duration
	// Audit receives AuditMsg events; nil disables auditing.
	Audit *actor.PID
}

type base struct {
	Deps
}

func newBase(deps Deps) base {
	if deps.Timeout <= 0 {
		deps.Timeout = 5 * time.Second
	}
	if deps.IdleTimeout <= 0 {
		deps.IdleTimeout = 10 * time.Minute
	}
	if deps.Metrics == nil {
		deps.Metrics = utils.NewMetricsCollector()
	}
	return base{Deps: deps}
}

func (b *base) opContext() (stdctx.Context, stdctx.CancelFunc) {
	return stdctx.WithTimeout(stdctx.Background(), b.Timeout)
}

// reply responds with result, or with an *utils.AppError when err is set,
// and records the operation latency.
func (b *base) reply(context actor.Context, op string, start time.Time, result interface{}, err error) {
	b.Metrics.AddOperationLatency(op, time.Since(start))
	if err != nil {
		appErr := utils.AsAppError(err)
		b.Metrics.IncrementErrors()
		if utils.AppErrorToHTTPStatus(appErr.Code) >= 500 {
			slog.Error("operation failed", "op", op, "error", appErr)
		}
		context.Respond(appErr)
		return
	}
	context.Respond(result)
}

// emit hands an audit event to the AuditActor without waiting.
func (b *base) emit(context actor.Context, e events.Event) {
	if b.Audit == nil {
		return
	}
	context.Send(b.Audit, &AuditMsg{Event: e})
}

func requireCaller(caller *models.Caller) error {
	if !caller.Authenticated() {
		return utils.NewUnauthorizedError("authentication required")
	}
	return nil
}

func requireAdmin(caller *models.Caller) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return utils.NewForbiddenError("Admin access required")
	}
	return nil
}

// logUnhandled logs lifecycle notifications and unknown messages.
func logUnhandled(name string, msg interface{}) {
	switch msg.(type) {
	case *actor.Started:
		slog.Debug(name + " started")
	case *actor.Stopping:
		slog.Debug(name + " stopping")
	case *actor.Stopped:
		slog.Debug(name + " stopped")
	case *actor.Restarting:
		slog.Warn(name + " restarting")
	default:
		slog.Warn(name+": unknown message", "type", fmt.Sprintf("%T", msg))
	}
}

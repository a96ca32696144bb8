package engine

import (
	"time"

	"github.com/asynkron/protoactor-go/actor"

	"newsroom/internal/database"
	"newsroom/internal/engine/actors"
	"newsroom/internal/events"
	"newsroom/internal/moderation"
	"newsroom/internal/utils"
	"newsroom/internal/viewtrack"
)

// Options configures the actors spawned by NewEngine.
type Options struct {
	DB          database.DBAdapter
	Metrics     *utils.MetricsCollector
	Tracker     viewtrack.Tracker
	Publisher   events.Publisher
	Policy      moderation.Policy
	AdminEmails []string
	Timeout     time.Duration

	// UserIdleTimeout bounds how long an idle per-user actor stays alive.
	UserIdleTimeout time.Duration
}

// Engine coordinates communication between actors
type Engine struct {
	system       *actor.ActorSystem
	userActor    *actor.PID
	postActor    *actor.PID
	commentActor *actor.PID
	adminActor   *actor.PID
	auditActor   *actor.PID
}

func NewEngine(system *actor.ActorSystem, opts Options) *Engine {
	context := system.Root

	auditPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewAuditActor(opts.Publisher, opts.Timeout)
	}))

	deps := actors.Deps{
		DB:          opts.DB,
		Metrics:     opts.Metrics,
		Timeout:     opts.Timeout,
		IdleTimeout: opts.UserIdleTimeout,
		Audit:       auditPID,
	}

	userPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewUserSupervisor(deps, opts.AdminEmails)
	}))
	postPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewPostActor(deps, opts.Policy, opts.Tracker)
	}))
	commentPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewCommentActor(deps)
	}))
	adminPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewAdminActor(deps)
	}))

	return &Engine{
		system:       system,
		userActor:    userPID,
		postActor:    postPID,
		commentActor: commentPID,
		adminActor:   adminPID,
		auditActor:   auditPID,
	}
}

// GetUserActor returns the PID of the user supervisor
func (e *Engine) GetUserActor() *actor.PID {
	return e.userActor
}

// GetPostActor returns the PID of the post actor
func (e *Engine) GetPostActor() *actor.PID {
	return e.postActor
}

func (e *Engine) GetCommentActor() *actor.PID {
	return e.commentActor
}

func (e *Engine) GetAdminActor() *actor.PID {
	return e.adminActor
}

// Stop stops the domain actors, then the audit actor so pending events flush.
func (e *Engine) Stop() {
	root := e.system.Root
	for _, pid := range []*actor.PID{e.userActor, e.postActor, e.commentActor, e.adminActor} {
		_ = root.StopFuture(pid).Wait()
	}
	_ = root.StopFuture(e.auditActor).Wait()
}

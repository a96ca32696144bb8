package actors

import (
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"newsroom/internal/database"
	"newsroom/internal/events/eventstest"
	"newsroom/internal/moderation"
	"newsroom/internal/models"
	"newsroom/internal/utils"
)

const adminEmail = "editor@example.com"

type harness struct {
	t        *testing.T
	system   *actor.ActorSystem
	db       *database.MemoryDB
	audit    *eventstest.Recorder
	users    *actor.PID
	posts    *actor.PID
	comments *actor.PID
	admin    *actor.PID
}

func newHarness(t *testing.T, policy moderation.Policy) *harness {
	t.Helper()
	system := actor.NewActorSystem()
	db := database.NewMemoryDB()
	audit := eventstest.NewRecorder(64)

	auditPID := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewAuditActor(audit, time.Second)
	}))
	deps := Deps{DB: db, Metrics: utils.NewMetricsCollector(), Timeout: 2 * time.Second, Audit: auditPID}

	h := &harness{t: t, system: system, db: db, audit: audit}
	h.users = system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewUserSupervisor(deps, []string{adminEmail})
	}))
	h.posts = system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewPostActor(deps, policy, nil)
	}))
	h.comments = system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewCommentActor(deps)
	}))
	h.admin = system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewAdminActor(deps)
	}))
	t.Cleanup(func() { system.Shutdown() })
	return h
}

// request sends msg and splits the reply into a value or an application error.
func (h *harness) request(pid *actor.PID, msg interface{}) (interface{}, *utils.AppError) {
	h.t.Helper()
	res, err := h.system.Root.RequestFuture(pid, msg, 5*time.Second).Result()
	require.NoError(h.t, err)
	if appErr, ok := res.(*utils.AppError); ok {
		return nil, appErr
	}
	return res, nil
}

// must is request for calls expected to succeed.
func must[T any](h *harness, pid *actor.PID, msg interface{}) T {
	h.t.Helper()
	res, appErr := h.request(pid, msg)
	require.Nil(h.t, appErr, "unexpected error reply")
	out, ok := res.(T)
	require.True(h.t, ok, "unexpected reply type %T", res)
	return out
}

// fails is request for calls expected to fail with code.
func (h *harness) fails(pid *actor.PID, msg interface{}, code string) {
	h.t.Helper()
	_, appErr := h.request(pid, msg)
	require.NotNil(h.t, appErr, "expected %s", code)
	require.Equal(h.t, code, appErr.Code)
}

func (h *harness) register(username string) *models.Caller {
	h.t.Helper()
	email := username + "@example.com"
	if username == "editor" {
		email = adminEmail
	}
	user := must[*models.User](h, h.users, &RegisterUserMsg{
		FullName: username,
		Username: username,
		Email:    email,
		Password: "password123",
	})
	return user.Caller()
}

func (h *harness) publish(author *models.Caller, title string) *models.PostView {
	h.t.Helper()
	return must[*models.PostView](h, h.posts, &CreatePostMsg{Caller: author, Title: title, Content: title + " body"})
}

func (h *harness) approve(adminCaller *models.Caller, postID uuid.UUID) {
	h.t.Helper()
	post := must[*models.PostView](h, h.posts, &ModeratePostMsg{Caller: adminCaller, PostID: postID, Action: moderation.ActionApprove})
	require.True(h.t, post.IsApproved)
}

func (h *harness) feed(msg *GetFeedMsg) []*models.PostView {
	h.t.Helper()
	return must[[]*models.PostView](h, h.posts, msg)
}

func postIDs(views []*models.PostView) []uuid.UUID {
	out := make([]uuid.UUID, len(views))
	for i, v := range views {
		out[i] = v.ID
	}
	return out
}

package simulator

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsroom/internal/database"
	"newsroom/internal/engine"
	"newsroom/internal/events"
	"newsroom/internal/handlers"
	"newsroom/internal/middleware"
	"newsroom/internal/utils"
)

const editorEmail = "sim-editor@example.com"

var loopback = []netip.Prefix{netip.MustParsePrefix("127.0.0.0/8"), netip.MustParsePrefix("::1/128")}

func startServer(t *testing.T) string {
	t.Helper()
	system := actor.NewActorSystem()
	db := database.NewMemoryDB()
	metrics := utils.NewMetricsCollector()
	eng := engine.NewEngine(system, engine.Options{
		DB:          db,
		Metrics:     metrics,
		Publisher:   events.NewLogPublisher(slog.Default()),
		AdminEmails: []string{editorEmail},
		Timeout:     2 * time.Second,
	})
	srv := handlers.NewServer(system, eng, handlers.Options{
		Metrics: metrics,
		Tokens:  middleware.NewTokenManager("sim-secret", time.Hour),
		Media:   db,
		// anonymous readers arrive through X-Forwarded-For from loopback
		TrustedProxies: loopback,
	})
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		ts.Close()
		eng.Stop()
		system.Shutdown()
	})
	return ts.URL
}

func testConfig(url string) SimConfig {
	cfg := DefaultSimConfig()
	cfg.BaseURL = url
	cfg.NumUsers = 4
	cfg.NumCategories = 3
	cfg.Workers = 2
	cfg.Seed = 1
	cfg.PostChance = 1
	cfg.CommentChance = 1
	cfg.LikeChance = 1
	cfg.ViewChance = 1
	cfg.FollowChance = 0
	cfg.BookmarkChance = 0
	cfg.ApproveChance = 1
	cfg.DisconnectRate = 0
	cfg.ReconnectRate = 1
	cfg.EditorEmail = editorEmail
	return cfg
}

func TestInitializeIsIdempotent(t *testing.T) {
	url := startServer(t)
	ctx := context.Background()

	first := NewSimulator(testConfig(url))
	require.NoError(t, first.Initialize(ctx))
	assert.Len(t, first.users, 4)
	assert.Len(t, first.categories, 3)

	second := NewSimulator(testConfig(url))
	require.NoError(t, second.Initialize(ctx))
	assert.ElementsMatch(t, first.categories, second.categories)
	assert.Equal(t, first.users[0].ID, findUser(second.users, first.users[0].Username).ID)
}

func findUser(users []*SimulatedUser, username string) *SimulatedUser {
	for _, u := range users {
		if u.Username == username {
			return u
		}
	}
	return &SimulatedUser{}
}

func TestStepDrivesTheApi(t *testing.T) {
	url := startServer(t)
	ctx := context.Background()

	sim := NewSimulator(testConfig(url))
	require.NoError(t, sim.Initialize(ctx))

	sim.Step(ctx)
	m := sim.GetMetrics()
	assert.Equal(t, 4, m.TotalPosts)
	assert.Equal(t, 4, m.ApprovedPosts)
	assert.Zero(t, m.TotalComments, "nothing is readable before the first approval")

	sim.Step(ctx)
	m = sim.GetMetrics()
	assert.Equal(t, 8, m.TotalPosts)
	assert.Equal(t, 8, m.ApprovedPosts)
	assert.Equal(t, 4, m.TotalComments)
	assert.Equal(t, 4, m.TotalViews)
	assert.Equal(t, 4, m.TotalLikes)
	assert.Zero(t, m.ErrorCount)
	assert.Equal(t, 4, m.ActiveUsers)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	url := startServer(t)
	sim := NewSimulator(testConfig(url))

	err := sim.call(context.Background(), "GET", "/api/users/me", "", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, "Authorization header required", apiErr.Message)
	assert.Equal(t, 1, sim.GetMetrics().ErrorCount)
}

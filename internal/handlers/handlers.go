package handlers

import (
	"context"
	"net/netip"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"newsroom/internal/database"
	"newsroom/internal/engine"
	"newsroom/internal/engine/actors"
	"newsroom/internal/media"
	"newsroom/internal/middleware"
	"newsroom/internal/models"
	"newsroom/internal/utils"
	"newsroom/internal/websocket"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Metrics        *utils.MetricsCollector
	Tokens         *middleware.TokenManager
	Auth           *middleware.Authenticator
	Uploader       media.Uploader
	Media          database.MediaStore
	RequestTimeout time.Duration
	MetricsEnabled bool
	CORS           *middleware.CORSConfig
	Hub            *websocket.Hub
	TrustedProxies []netip.Prefix

	validate *validator.Validate
}

// Options configures NewServer.
type Options struct {
	Metrics        *utils.MetricsCollector
	Tokens         *middleware.TokenManager
	Media          database.MediaStore
	RequestTimeout time.Duration
	MetricsEnabled bool
	AllowedOrigins []string
	// Hub enables the admin audit stream when set. The caller runs it.
	Hub *websocket.Hub
	// TrustedProxies may set X-Forwarded-For and X-Real-IP. Other peers
	// are identified by their socket address alone.
	TrustedProxies []netip.Prefix
}

// NewServer creates a new Server instance with the given components
func NewServer(system *actor.ActorSystem, eng *engine.Engine, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}
	if opts.Metrics == nil {
		opts.Metrics = utils.NewMetricsCollector()
	}
	s := &Server{
		System:         system,
		Context:        system.Root,
		Engine:         eng,
		Metrics:        opts.Metrics,
		Tokens:         opts.Tokens,
		Media:          opts.Media,
		Uploader:       media.NewStoreUploader(opts.Media),
		RequestTimeout: opts.RequestTimeout,
		MetricsEnabled: opts.MetricsEnabled,
		CORS:           middleware.DefaultCORSConfig(opts.AllowedOrigins),
		Hub:            opts.Hub,
		TrustedProxies: opts.TrustedProxies,
		validate:       newValidator(),
	}
	s.Auth = middleware.NewAuthenticator(opts.Tokens, s.loadUser)
	return s
}

// loadUser resolves token subjects through the user supervisor.
func (s *Server) loadUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	return ask[*models.User](s, s.Engine.GetUserActor(), &actors.GetUserProfileMsg{UserID: id})
}

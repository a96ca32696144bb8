package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsroom/internal/middleware"
	"newsroom/internal/moderation"
)

// Routes mounts every endpoint and wraps the mux in the logging and CORS middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	auth, admin, optional := s.Auth.RequireAuth, s.Auth.RequireAdmin, s.Auth.OptionalAuth

	mux.HandleFunc("GET /health", s.HandleHealth())
	if s.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.Metrics.Registry(), promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("GET /media/{id}", s.HandleMedia())

	// Identity
	mux.HandleFunc("POST /api/auth/register", s.HandleRegister())
	mux.HandleFunc("POST /api/auth/login", s.HandleLogin())

	// Users
	mux.HandleFunc("GET /api/users/me", auth(s.HandleGetMe()))
	mux.HandleFunc("PUT /api/users/me", auth(s.HandleUpdateMe()))
	mux.HandleFunc("PUT /api/users/me/avatar", auth(s.HandleUpdateAvatar()))
	mux.HandleFunc("GET /api/users/me/bookmarks", auth(s.HandleGetBookmarks()))
	mux.HandleFunc("PATCH /api/users/me/bookmark/{postId}", auth(s.HandleToggleBookmark()))
	mux.HandleFunc("GET /api/users/{id}", s.HandleGetUser())
	mux.HandleFunc("GET /api/users/{id}/posts", s.HandleGetUserPosts())
	mux.HandleFunc("PATCH /api/users/{id}/follow", auth(s.HandleToggleFollow()))
	mux.HandleFunc("GET /api/users/{id}/is-following", auth(s.HandleIsFollowing()))
	mux.HandleFunc("GET /api/users/{id}/followers", s.HandleGetFollows(false))
	mux.HandleFunc("GET /api/users/{id}/following", s.HandleGetFollows(true))

	// Posts
	mux.HandleFunc("GET /api/posts", s.HandleFeed(moderation.FeedAll))
	mux.HandleFunc("GET /api/posts/following", auth(s.HandleFeed(moderation.FeedFollowing)))
	mux.HandleFunc("GET /api/posts/editor", s.HandleFeed(moderation.FeedEditor))
	mux.HandleFunc("GET /api/posts/trending", s.HandleFeed(moderation.FeedTrending))
	mux.HandleFunc("GET /api/posts/search", s.HandleFeed(moderation.FeedSearch))
	mux.HandleFunc("GET /api/posts/my-posts", auth(s.HandleFeed(moderation.FeedMine)))
	mux.HandleFunc("GET /api/posts/{id}", optional(s.HandleGetPost()))
	mux.HandleFunc("POST /api/posts", auth(s.HandleCreatePost()))
	mux.HandleFunc("PATCH /api/posts/{id}", auth(s.HandleUpdatePost(false)))
	mux.HandleFunc("PATCH /api/posts/{id}/like", auth(s.HandleLikePost()))
	mux.HandleFunc("PATCH /api/posts/{id}/pick", admin(s.HandleModeratePost(moderation.ActionPick)))

	// Comments
	mux.HandleFunc("POST /api/comments/{postId}", auth(s.HandleCreateComment()))
	mux.HandleFunc("GET /api/comments/{postId}", s.HandleGetComments())
	mux.HandleFunc("DELETE /api/comments/{id}", auth(s.HandleDeleteComment()))
	mux.HandleFunc("PATCH /api/comments/{id}/like", auth(s.HandleLikeComment()))

	// Public catalog
	mux.HandleFunc("GET /api/categories", s.HandleListCategories())
	mux.HandleFunc("GET /api/banners", s.HandleListBanners(false))
	mux.HandleFunc("GET /api/public/banners", s.HandleListBanners(true))

	// Administration
	mux.HandleFunc("GET /api/admin/stats", admin(s.HandleStats()))
	mux.HandleFunc("GET /api/admin/users", admin(s.HandleListUsers()))
	mux.HandleFunc("PATCH /api/admin/users/{id}/role", admin(s.HandleSetRole()))
	mux.HandleFunc("DELETE /api/admin/users/{id}", admin(s.HandleDeleteUser()))
	mux.HandleFunc("GET /api/admin/posts", admin(s.HandleFeed(moderation.FeedAdmin)))
	mux.HandleFunc("POST /api/admin/posts", admin(s.HandleCreatePost()))
	mux.HandleFunc("PATCH /api/admin/posts/{id}", admin(s.HandleUpdatePost(true)))
	mux.HandleFunc("PATCH /api/admin/posts/{id}/approve", admin(s.HandleModeratePost(moderation.ActionApprove)))
	mux.HandleFunc("PATCH /api/admin/posts/{id}/reject", admin(s.HandleModeratePost(moderation.ActionReject)))
	mux.HandleFunc("PATCH /api/admin/posts/{id}/pick", admin(s.HandleModeratePost(moderation.ActionPick)))
	mux.HandleFunc("DELETE /api/admin/posts/{id}", admin(s.HandleDeletePost()))
	mux.HandleFunc("GET /api/admin/categories", admin(s.HandleListCategories()))
	mux.HandleFunc("POST /api/admin/categories", admin(s.HandleCreateCategory()))
	mux.HandleFunc("PATCH /api/admin/categories/{id}", admin(s.HandleUpdateCategory()))
	mux.HandleFunc("DELETE /api/admin/categories/{id}", admin(s.HandleDeleteCategory()))
	mux.HandleFunc("GET /api/admin/banners", admin(s.HandleListBanners(false)))
	mux.HandleFunc("POST /api/admin/banners", admin(s.HandleCreateBanner()))
	mux.HandleFunc("PATCH /api/admin/banners/{id}", admin(s.HandleUpdateBanner()))
	mux.HandleFunc("DELETE /api/admin/banners/{id}", admin(s.HandleDeleteBanner()))
	if s.Hub != nil {
		mux.HandleFunc("GET /api/admin/live", middleware.QueryToken(admin(s.HandleAuditStream())))
	}

	return middleware.Chain(mux, middleware.Logger(s.Metrics), middleware.CORS(s.CORS))
}

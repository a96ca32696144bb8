package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

type toggleResult struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`
}

type likeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

func (s *Simulator) runActivities(ctx context.Context) {
	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step(ctx)
		}
	}
}

// Step runs one round: connectivity changes, one action roll per connected
// user spread over the worker pool, then an editorial pass.
func (s *Simulator) Step(ctx context.Context) {
	s.simulateConnectivity()

	s.mu.RLock()
	users := make([]*SimulatedUser, 0, len(s.users))
	for _, u := range s.users {
		if u.IsConnected {
			users = append(users, u)
		}
	}
	s.mu.RUnlock()

	jobs := make(chan *SimulatedUser)
	var wg sync.WaitGroup
	for w := 0; w < s.config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range jobs {
				s.act(ctx, user)
			}
		}()
	}
	for _, u := range users {
		jobs <- u
	}
	close(jobs)
	wg.Wait()

	s.moderate(ctx)
}

func (s *Simulator) simulateConnectivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.IsConnected {
			user.IsConnected = !s.chance(s.config.DisconnectRate)
		} else {
			user.IsConnected = s.chance(s.config.ReconnectRate)
		}
	}
}

func (s *Simulator) act(ctx context.Context, user *SimulatedUser) {
	if s.chance(s.config.PostChance) {
		s.writePost(ctx, user)
	}
	if s.chance(s.config.FollowChance) {
		s.follow(ctx, user)
	}

	postID, ok := s.pickPost()
	if !ok {
		return
	}
	if s.chance(s.config.ViewChance) {
		s.view(ctx, user, postID)
	}
	if s.chance(s.config.CommentChance) {
		s.comment(ctx, user, postID)
	}
	if s.chance(s.config.LikeChance) {
		s.like(ctx, user, postID)
	}
	if s.chance(s.config.BookmarkChance) {
		s.bookmark(ctx, user, postID)
	}
}

func (s *Simulator) writePost(ctx context.Context, user *SimulatedUser) {
	body := map[string]interface{}{
		"title":   fmt.Sprintf("Dispatch from %s at %d", user.Username, time.Now().UnixNano()),
		"content": fmt.Sprintf("Filed by %s on %s", user.Username, time.Now().Format(time.RFC3339)),
		"tags":    []string{themes[s.intn(len(themes))]},
	}
	if len(s.categories) > 0 {
		body["categoryId"] = s.categories[s.intn(len(s.categories))].String()
	}

	var created struct {
		ID uuid.UUID `json:"id"`
	}
	if err := s.call(ctx, http.MethodPost, "/api/posts", user.Token, body, &created); err != nil {
		slog.Debug("failed to create post", "user", user.Username, "error", err)
		return
	}
	s.mu.Lock()
	user.Posts = append(user.Posts, created.ID)
	s.mu.Unlock()

	s.stats.mu.Lock()
	s.stats.TotalPosts++
	s.stats.mu.Unlock()
}

// moderate has the editor approve a share of the pending queue.
func (s *Simulator) moderate(ctx context.Context) {
	if s.editor == nil {
		return
	}
	var pending []struct {
		ID uuid.UUID `json:"id"`
	}
	if err := s.call(ctx, http.MethodGet, "/api/admin/posts?status=pending", s.editor.Token, nil, &pending); err != nil {
		slog.Debug("failed to list pending posts", "error", err)
		return
	}
	for _, p := range pending {
		if !s.chance(s.config.ApproveChance) {
			continue
		}
		path := fmt.Sprintf("/api/admin/posts/%s/approve", p.ID)
		if err := s.call(ctx, http.MethodPatch, path, s.editor.Token, nil, nil); err != nil {
			slog.Debug("failed to approve post", "post", p.ID, "error", err)
			continue
		}
		s.mu.Lock()
		s.posts = append(s.posts, p.ID)
		s.mu.Unlock()

		s.stats.mu.Lock()
		s.stats.ApprovedPosts++
		s.stats.mu.Unlock()
	}
}

// pickPost favours recently approved posts.
func (s *Simulator) pickPost() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.posts) == 0 {
		return uuid.Nil, false
	}
	n := len(s.posts)
	window := min(n, 20)
	return s.posts[n-1-s.intn(window)], true
}

// view reads a post either signed in or as an anonymous visitor from a random address.
func (s *Simulator) view(ctx context.Context, user *SimulatedUser, postID uuid.UUID) {
	var (
		token   string
		headers map[string]string
	)
	if s.chance(0.5) {
		token = user.Token
	} else {
		headers = map[string]string{"X-Forwarded-For": fmt.Sprintf("198.51.100.%d", s.intn(254)+1)}
	}
	if err := s.callWithHeaders(ctx, http.MethodGet, "/api/posts/"+postID.String(), token, headers, nil, nil); err != nil {
		slog.Debug("failed to view post", "post", postID, "error", err)
		return
	}
	s.stats.mu.Lock()
	s.stats.TotalViews++
	s.stats.mu.Unlock()
}

func (s *Simulator) comment(ctx context.Context, user *SimulatedUser, postID uuid.UUID) {
	body := map[string]string{"content": fmt.Sprintf("Comment from %s at %s", user.Username, time.Now().Format(time.RFC3339))}
	if err := s.call(ctx, http.MethodPost, "/api/comments/"+postID.String(), user.Token, body, nil); err != nil {
		slog.Debug("failed to comment", "user", user.Username, "post", postID, "error", err)
		return
	}
	s.stats.mu.Lock()
	s.stats.TotalComments++
	s.stats.mu.Unlock()
}

func (s *Simulator) like(ctx context.Context, user *SimulatedUser, postID uuid.UUID) {
	var res likeResult
	if err := s.call(ctx, http.MethodPatch, "/api/posts/"+postID.String()+"/like", user.Token, nil, &res); err != nil {
		slog.Debug("failed to like post", "user", user.Username, "post", postID, "error", err)
		return
	}
	if res.Liked {
		s.stats.mu.Lock()
		s.stats.TotalLikes++
		s.stats.mu.Unlock()
	}
}

func (s *Simulator) follow(ctx context.Context, user *SimulatedUser) {
	s.mu.RLock()
	if len(s.users) < 2 {
		s.mu.RUnlock()
		return
	}
	target := s.users[s.popularUser()%len(s.users)]
	s.mu.RUnlock()
	if target.ID == user.ID {
		return
	}

	var res toggleResult
	if err := s.call(ctx, http.MethodPatch, "/api/users/"+target.ID.String()+"/follow", user.Token, nil, &res); err != nil {
		slog.Debug("failed to follow", "user", user.Username, "target", target.Username, "error", err)
		return
	}
	if res.Active {
		s.stats.mu.Lock()
		s.stats.TotalFollows++
		s.stats.mu.Unlock()
	}
}

func (s *Simulator) bookmark(ctx context.Context, user *SimulatedUser, postID uuid.UUID) {
	var res toggleResult
	if err := s.call(ctx, http.MethodPatch, "/api/users/me/bookmark/"+postID.String(), user.Token, nil, &res); err != nil {
		slog.Debug("failed to bookmark", "user", user.Username, "post", postID, "error", err)
		return
	}
	if res.Active {
		s.stats.mu.Lock()
		s.stats.TotalBookmarks++
		s.stats.mu.Unlock()
	}
}

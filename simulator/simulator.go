// Package simulator drives synthetic readers and writers against a running
// newsroom API.
package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

type SimConfig struct {
	BaseURL       string
	NumUsers      int
	NumCategories int
	Duration      time.Duration
	TickInterval  time.Duration
	Workers       int

	// Per-tick probabilities for each connected user.
	PostChance     float64
	CommentChance  float64
	LikeChance     float64
	FollowChance   float64
	BookmarkChance float64
	ViewChance     float64
	// ApproveChance is the per-tick probability that the editor approves
	// each pending post.
	ApproveChance float64
	DisconnectRate float64
	ReconnectRate  float64

	// ZipfS skews follows and reads towards a few popular authors.
	ZipfS float64
	Seed  int64

	// EditorEmail must be listed in the server's ADMIN_EMAILS.
	EditorEmail    string
	EditorPassword string
}

// DefaultSimConfig is a light load against a local server.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		BaseURL:        "http://localhost:8080",
		NumUsers:       20,
		NumCategories:  5,
		Duration:       5 * time.Minute,
		TickInterval:   500 * time.Millisecond,
		Workers:        5,
		PostChance:     0.02,
		CommentChance:  0.05,
		LikeChance:     0.08,
		FollowChance:   0.02,
		BookmarkChance: 0.01,
		ViewChance:     0.2,
		ApproveChance:  0.3,
		DisconnectRate: 0.01,
		ReconnectRate:  0.05,
		ZipfS:          1.07,
		Seed:           time.Now().UnixNano(),
		EditorEmail:    "editor@newsroom.local",
		EditorPassword: "editorpass123",
	}
}

type SimulationStats struct {
	mu              sync.RWMutex
	StartTime       time.Time
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	AverageLatency  time.Duration
	TotalPosts      int
	ApprovedPosts   int
	TotalComments   int
	TotalLikes      int
	TotalFollows    int
	TotalBookmarks  int
	TotalViews      int
}

// SimulatedUser is an account the simulator logged in as.
type SimulatedUser struct {
	ID          uuid.UUID
	Username    string
	Email       string
	Token       string
	IsConnected bool
	Posts       []uuid.UUID
}

type Simulator struct {
	config     SimConfig
	stats      *SimulationStats
	client     *http.Client
	editor     *SimulatedUser
	users      []*SimulatedUser
	categories []uuid.UUID
	posts      []uuid.UUID // approved posts, oldest first
	mu         sync.RWMutex

	rngMu sync.Mutex
	rng   *rand.Rand
	zipf  *rand.Zipf
}

func NewSimulator(config SimConfig) *Simulator {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.TickInterval <= 0 {
		config.TickInterval = 500 * time.Millisecond
	}
	if config.ZipfS <= 1 {
		config.ZipfS = 1.07
	}
	rng := rand.New(rand.NewSource(config.Seed))
	return &Simulator{
		config: config,
		stats:  &SimulationStats{StartTime: time.Now()},
		client: &http.Client{Timeout: 10 * time.Second},
		rng:    rng,
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

func (s *Simulator) Run(ctx context.Context) error {
	slog.Info("starting simulation", "url", s.config.BaseURL, "users", s.config.NumUsers, "duration", s.config.Duration)

	if err := s.Initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.runActivities(ctx)
	}()
	go func() {
		defer wg.Done()
		s.collectMetrics(ctx)
	}()
	wg.Wait()
	return nil
}

// Initialize signs in the editor, registers the user base and creates categories.
func (s *Simulator) Initialize(ctx context.Context) error {
	editor, err := s.signIn(ctx, "editor", s.config.EditorEmail, s.config.EditorPassword)
	if err != nil {
		return fmt.Errorf("failed to sign in editor: %w", err)
	}
	s.editor = editor

	if err := s.createUsers(ctx); err != nil {
		return err
	}
	if err := s.createCategories(ctx); err != nil {
		return err
	}
	slog.Info("initialization completed", "users", len(s.users), "categories", len(s.categories))
	return nil
}

func (s *Simulator) createUsers(ctx context.Context) error {
	jobs := make(chan int)
	results := make(chan *SimulatedUser)

	var wg sync.WaitGroup
	for w := 0; w < s.config.Workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for n := range jobs {
				username := fmt.Sprintf("reader_%d", n)
				var (
					user *SimulatedUser
					err  error
				)
				for attempt := 0; attempt < 3; attempt++ {
					if user, err = s.signIn(ctx, username, username+"@newsroom.local", "readerpass123"); err == nil {
						break
					}
					backoff := time.Duration(1<<attempt) * 200 * time.Millisecond
					slog.Debug("retrying registration", "worker", workerID, "user", username, "backoff", backoff, "error", err)
					select {
					case <-ctx.Done():
						return
					case <-time.After(backoff):
					}
				}
				if err != nil {
					slog.Warn("failed to register user", "user", username, "error", err)
					continue
				}
				results <- user
			}
		}(w)
	}

	go func() {
		defer close(jobs)
		for i := 0; i < s.config.NumUsers; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	users := make([]*SimulatedUser, 0, s.config.NumUsers)
	for user := range results {
		users = append(users, user)
	}
	if len(users) == 0 && s.config.NumUsers > 0 {
		return errors.New("no users could be registered")
	}

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	s.zipf = rand.NewZipf(s.rng, s.config.ZipfS, 1, uint64(max(len(users)-1, 1)))
	return nil
}

// signIn registers the account if needed and logs in.
func (s *Simulator) signIn(ctx context.Context, username, email, password string) (*SimulatedUser, error) {
	register := map[string]string{"fullName": username, "username": username, "email": email, "password": password}
	err := s.call(ctx, http.MethodPost, "/api/auth/register", "", register, nil)
	var apiErr *APIError
	if err != nil && !(errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest) {
		return nil, err
	}

	var login struct {
		Token string `json:"token"`
		User  struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
	}
	if err := s.call(ctx, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password}, &login); err != nil {
		return nil, err
	}
	return &SimulatedUser{ID: login.User.ID, Username: username, Email: email, Token: login.Token, IsConnected: true}, nil
}

var themes = []string{
	"world", "politics", "business", "technology", "science",
	"health", "sports", "culture", "travel", "opinion",
}

func (s *Simulator) createCategories(ctx context.Context) error {
	var existing []struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}
	if err := s.call(ctx, http.MethodGet, "/api/categories", "", nil, &existing); err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	known := make(map[string]uuid.UUID, len(existing))
	for _, c := range existing {
		known[c.Name] = c.ID
	}

	for i := 0; i < s.config.NumCategories && i < len(themes); i++ {
		name := themes[i]
		if id, ok := known[name]; ok {
			s.categories = append(s.categories, id)
			continue
		}
		var created struct {
			ID uuid.UUID `json:"id"`
		}
		body := map[string]string{"name": name, "description": "Coverage of " + name}
		if err := s.call(ctx, http.MethodPost, "/api/admin/categories", s.editor.Token, body, &created); err != nil {
			slog.Warn("failed to create category", "name", name, "error", err)
			continue
		}
		s.categories = append(s.categories, created.ID)
	}
	return nil
}

// call sends a JSON request and decodes a JSON response into out when non-nil.
func (s *Simulator) call(ctx context.Context, method, path, token string, in, out interface{}) error {
	return s.callWithHeaders(ctx, method, path, token, nil, in, out)
}

func (s *Simulator) callWithHeaders(ctx context.Context, method, path, token string, headers map[string]string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.config.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.recordRequest(start, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		err = &APIError{Status: resp.StatusCode, Message: e.Message}
		s.recordRequest(start, err)
		return err
	}
	s.recordRequest(start, nil)
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *Simulator) recordRequest(start time.Time, err error) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	latency := time.Since(start)
	s.stats.TotalRequests++
	if err != nil {
		s.stats.FailedRequests++
	} else {
		s.stats.SuccessRequests++
	}
	total := s.stats.AverageLatency * time.Duration(s.stats.TotalRequests-1)
	s.stats.AverageLatency = (total + latency) / time.Duration(s.stats.TotalRequests)
}

func (s *Simulator) chance(p float64) bool {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64() < p
}

func (s *Simulator) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

// popularUser picks a user index skewed towards the start of the list.
func (s *Simulator) popularUser() int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return int(s.zipf.Uint64())
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := s.GetMetrics()
			slog.Info("simulation progress",
				"elapsed", time.Since(s.stats.StartTime).Round(time.Second),
				"rps", fmt.Sprintf("%.2f", m.RequestsPerSecond),
				"latency", m.AverageLatency,
				"active", m.ActiveUsers,
				"posts", m.TotalPosts,
				"approved", m.ApprovedPosts,
				"comments", m.TotalComments,
				"likes", m.TotalLikes,
				"views", m.TotalViews,
				"errors", m.ErrorCount,
			)
		}
	}
}

// SimulationMetrics is a snapshot of the simulation counters.
type SimulationMetrics struct {
	TotalUsers        int
	ActiveUsers       int
	TotalPosts        int
	ApprovedPosts     int
	TotalComments     int
	TotalLikes        int
	TotalFollows      int
	TotalBookmarks    int
	TotalViews        int
	AverageLatency    time.Duration
	ErrorCount        int
	RequestsPerSecond float64
}

func (s *Simulator) GetMetrics() SimulationMetrics {
	s.mu.RLock()
	active := 0
	for _, u := range s.users {
		if u.IsConnected {
			active++
		}
	}
	total := len(s.users)
	s.mu.RUnlock()

	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()
	elapsed := time.Since(s.stats.StartTime).Seconds()
	rps := 0.0
	if elapsed > 0 {
		rps = float64(s.stats.TotalRequests) / elapsed
	}
	return SimulationMetrics{
		TotalUsers:        total,
		ActiveUsers:       active,
		TotalPosts:        s.stats.TotalPosts,
		ApprovedPosts:     s.stats.ApprovedPosts,
		TotalComments:     s.stats.TotalComments,
		TotalLikes:        s.stats.TotalLikes,
		TotalFollows:      s.stats.TotalFollows,
		TotalBookmarks:    s.stats.TotalBookmarks,
		TotalViews:        s.stats.TotalViews,
		AverageLatency:    s.stats.AverageLatency,
		ErrorCount:        int(s.stats.FailedRequests),
		RequestsPerSecond: rps,
	}
}

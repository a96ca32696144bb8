package actors

import (
	stdctx "context"
	"log/slog"
	"strings"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"newsroom/internal/events"
	"newsroom/internal/moderation"
	"newsroom/internal/models"
	"newsroom/internal/utils"
	"newsroom/internal/viewtrack"
)

// Message types for Post operations
type (
	CreatePostMsg struct {
		Caller     *models.Caller
		Title      string
		Content    string
		Image      string
		CategoryID *uuid.UUID
		Tags       []string
		// EditorPick is honoured only for administrators.
		EditorPick bool
	}

	// GetPostMsg fetches one post and counts a unique view for Viewer.
	GetPostMsg struct {
		PostID uuid.UUID
		Viewer models.ViewerKey
	}

	GetFeedMsg struct {
		Caller     *models.Caller
		Feed       moderation.Feed
		Text       string
		CategoryID *uuid.UUID
		Sort       models.PostSort
		Status     models.PostStatus
		AuthorID   uuid.UUID
	}

	UpdatePostMsg struct {
		Caller *models.Caller
		PostID uuid.UUID
		Update models.PostUpdate
		// AsAdmin selects the administrative edit, which may change moderation flags.
		AsAdmin bool
	}

	ModeratePostMsg struct {
		Caller *models.Caller
		PostID uuid.UUID
		Action moderation.Action
	}

	LikePostMsg struct {
		Caller *models.Caller
		PostID uuid.UUID
	}

	DeletePostMsg struct {
		Caller *models.Caller
		PostID uuid.UUID
	}

	GetBookmarkedPostsMsg struct {
		Caller *models.Caller
	}

	GetCountsMsg struct{}
)

// PostActor owns the post lifecycle: creation, moderation, feeds and views.
type PostActor struct {
	base
	policy  moderation.Policy
	tracker viewtrack.Tracker
}

func NewPostActor(deps Deps, policy moderation.Policy, tracker viewtrack.Tracker) actor.Actor {
	b := newBase(deps)
	if tracker == nil {
		tracker = viewtrack.NewStoreTracker(b.DB)
	}
	return &PostActor{base: b, policy: policy, tracker: tracker}
}

func (a *PostActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *CreatePostMsg:
		a.handleCreatePost(context, msg)
	case *GetPostMsg:
		a.handleGetPost(context, msg)
	case *GetFeedMsg:
		a.handleGetFeed(context, msg)
	case *UpdatePostMsg:
		a.handleUpdatePost(context, msg)
	case *ModeratePostMsg:
		a.handleModerate(context, msg)
	case *LikePostMsg:
		a.handleLike(context, msg)
	case *DeletePostMsg:
		a.handleDelete(context, msg)
	case *GetBookmarkedPostsMsg:
		a.handleBookmarks(context, msg)
	case *GetCountsMsg:
		ctx, cancel := a.opContext()
		defer cancel()
		n, err := a.DB.CountPosts(ctx, nil)
		a.reply(context, "count_posts", time.Now(), int(n), err)
	default:
		logUnhandled("PostActor", msg)
	}
}

func (a *PostActor) handleCreatePost(context actor.Context, msg *CreatePostMsg) {
	start := time.Now()
	post, err := a.createPost(msg)
	if err != nil {
		a.reply(context, "create_post", start, nil, err)
		return
	}
	slog.Info("post created", "post", post.ID, "author", post.AuthorID, "approved", post.IsApproved)
	ctx, cancel := a.opContext()
	defer cancel()
	views, err := populatePosts(ctx, a.DB, []*models.Post{post}, moderation.Populate{Author: true, Category: true})
	if err != nil {
		a.reply(context, "create_post", start, nil, err)
		return
	}
	a.reply(context, "create_post", start, views[0], nil)
}

func (a *PostActor) createPost(msg *CreatePostMsg) (*models.Post, error) {
	if err := requireCaller(msg.Caller); err != nil {
		return nil, err
	}
	title, content := strings.TrimSpace(msg.Title), strings.TrimSpace(msg.Content)
	if title == "" || content == "" {
		return nil, utils.NewInvalidInputError("Title and content are required")
	}

	ctx, cancel := a.opContext()
	defer cancel()

	if msg.CategoryID != nil {
		if _, err := a.DB.GetCategory(ctx, *msg.CategoryID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	post := &models.Post{
		ID:         uuid.New(),
		AuthorID:   msg.Caller.ID,
		Title:      title,
		Content:    content,
		Image:      msg.Image,
		CategoryID: msg.CategoryID,
		Tags:       cleanTags(msg.Tags),
		Comments:   []uuid.UUID{},
		Likes:      []uuid.UUID{},
		ViewedBy:   []uuid.UUID{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	moderation.SanitizeNew(post, msg.Caller.IsAdmin(), msg.EditorPick)

	if err := a.DB.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (a *PostActor) handleGetPost(context actor.Context, msg *GetPostMsg) {
	start := time.Now()
	ctx, cancel := a.opContext()
	defer cancel()

	post, err := a.DB.GetPost(ctx, msg.PostID)
	if err != nil {
		a.reply(context, "get_post", start, nil, err)
		return
	}

	counted, err := a.countView(ctx, post.ID, msg.Viewer)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			a.reply(context, "get_post", start, nil, err)
			return
		}
		slog.Warn("view not recorded", "post", post.ID, "viewer", msg.Viewer.String(), "error", err)
	}
	if counted {
		post.Views++
		if msg.Viewer.Authenticated() {
			post.ViewedBy = append(post.ViewedBy, msg.Viewer.UserID)
		}
	}

	views, err := populatePosts(ctx, a.DB, []*models.Post{post}, moderation.Populate{Author: true, Category: true, Comments: true})
	if err != nil {
		a.reply(context, "get_post", start, nil, err)
		return
	}
	a.reply(context, "get_post", start, views[0], nil)
}

// countView increments the post's views once per viewer key.
func (a *PostActor) countView(ctx stdctx.Context, postID uuid.UUID, viewer models.ViewerKey) (bool, error) {
	switch {
	case viewer.Authenticated():
		return a.DB.RecordUserView(ctx, postID, viewer.UserID)
	case viewer.Addr != "":
		return a.tracker.CountView(ctx, postID, viewer.Addr)
	default:
		return false, nil
	}
}

// plan resolves a feed request into a query plan.
func (a *PostActor) plan(msg *GetFeedMsg) (moderation.Plan, error) {
	switch msg.Feed {
	case moderation.FeedAll:
		return a.policy.AllFeed(), nil
	case moderation.FeedEditor:
		return a.policy.EditorFeed(), nil
	case moderation.FeedTrending:
		return a.policy.TrendingFeed(), nil
	case moderation.FeedSearch:
		return a.policy.SearchFeed(msg.Text, msg.CategoryID, msg.Sort), nil
	case moderation.FeedUser:
		return a.policy.UserPosts(msg.AuthorID), nil
	case moderation.FeedFollowing:
		if err := requireCaller(msg.Caller); err != nil {
			return moderation.Plan{}, err
		}
		ctx, cancel := a.opContext()
		defer cancel()
		user, err := a.DB.GetUser(ctx, msg.Caller.ID)
		if err != nil {
			return moderation.Plan{}, err
		}
		return a.policy.FollowingFeed(user.Following), nil
	case moderation.FeedMine:
		if err := requireCaller(msg.Caller); err != nil {
			return moderation.Plan{}, err
		}
		return a.policy.MyPosts(msg.Caller.ID), nil
	case moderation.FeedAdmin:
		if err := requireAdmin(msg.Caller); err != nil {
			return moderation.Plan{}, err
		}
		return a.policy.AdminPosts(msg.Status), nil
	}
	return moderation.Plan{}, utils.NewInvalidInputError("Unknown feed: " + string(msg.Feed))
}

func (a *PostActor) handleGetFeed(context actor.Context, msg *GetFeedMsg) {
	start := time.Now()
	op := "feed_" + string(msg.Feed)

	plan, err := a.plan(msg)
	if err != nil {
		a.reply(context, op, start, nil, err)
		return
	}
	if plan.Empty {
		a.reply(context, op, start, []*models.PostView{}, nil)
		return
	}

	ctx, cancel := a.opContext()
	defer cancel()
	posts, err := a.DB.FindPosts(ctx, plan.Query)
	if err != nil {
		a.reply(context, op, start, nil, err)
		return
	}
	views, err := populatePosts(ctx, a.DB, posts, plan.Populate)
	a.reply(context, op, start, views, err)
}

func (a *PostActor) handleUpdatePost(context actor.Context, msg *UpdatePostMsg) {
	start := time.Now()
	post, err := a.updatePost(msg)
	if err != nil {
		a.reply(context, "update_post", start, nil, err)
		return
	}
	if msg.AsAdmin {
		a.emit(context, events.New(events.PostEdited, msg.Caller.ID, post.ID, nil))
	}
	ctx, cancel := a.opContext()
	defer cancel()
	views, err := populatePosts(ctx, a.DB, []*models.Post{post}, moderation.Populate{Author: true, Category: true})
	if err != nil {
		a.reply(context, "update_post", start, nil, err)
		return
	}
	a.reply(context, "update_post", start, views[0], nil)
}

func (a *PostActor) updatePost(msg *UpdatePostMsg) (*models.Post, error) {
	if err := requireCaller(msg.Caller); err != nil {
		return nil, err
	}
	update := msg.Update
	if msg.AsAdmin {
		if !msg.Caller.IsAdmin() {
			return nil, utils.NewForbiddenError("Admin access required")
		}
	} else {
		update = moderation.AuthorUpdate(update)
	}
	if err := validatePostUpdate(&update); err != nil {
		return nil, err
	}

	ctx, cancel := a.opContext()
	defer cancel()

	existing, err := a.DB.GetPost(ctx, msg.PostID)
	if err != nil {
		return nil, err
	}
	if !msg.AsAdmin && existing.AuthorID != msg.Caller.ID {
		return nil, utils.NewForbiddenError("You can only edit your own posts")
	}
	if update.Empty() {
		return existing, nil
	}
	if update.CategoryID != nil {
		if _, err := a.DB.GetCategory(ctx, *update.CategoryID); err != nil {
			return nil, err
		}
	}
	return a.DB.UpdatePost(ctx, msg.PostID, update)
}

func validatePostUpdate(u *models.PostUpdate) error {
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		if t == "" {
			return utils.NewInvalidInputError("Title cannot be empty")
		}
		u.Title = &t
	}
	if u.Content != nil {
		c := strings.TrimSpace(*u.Content)
		if c == "" {
			return utils.NewInvalidInputError("Content cannot be empty")
		}
		u.Content = &c
	}
	if u.Tags != nil {
		tags := cleanTags(*u.Tags)
		u.Tags = &tags
	}
	return nil
}

func (a *PostActor) handleModerate(context actor.Context, msg *ModeratePostMsg) {
	start := time.Now()
	op := "moderate_" + string(msg.Action)
	if err := requireAdmin(msg.Caller); err != nil {
		a.reply(context, op, start, nil, err)
		return
	}

	ctx, cancel := a.opContext()
	defer cancel()

	var (
		post *models.Post
		err  error
		kind events.Type
	)
	switch msg.Action {
	case moderation.ActionApprove, moderation.ActionReject:
		approved, _ := moderation.ApprovalFor(msg.Action)
		post, err = a.DB.SetPostApproval(ctx, msg.PostID, approved)
		kind = events.PostRejected
		if approved {
			kind = events.PostApproved
		}
	case moderation.ActionPick:
		post, err = a.DB.ToggleEditorPick(ctx, msg.PostID)
		kind = events.PostPickToggled
	default:
		err = utils.NewInvalidInputError("Unknown moderation action: " + string(msg.Action))
	}
	if err != nil {
		a.reply(context, op, start, nil, err)
		return
	}

	slog.Info("post moderated", "post", post.ID, "action", msg.Action, "approved", post.IsApproved, "editorPick", post.IsEditorPick)
	a.emit(context, events.New(kind, msg.Caller.ID, post.ID, map[string]string{"title": post.Title}))

	views, err := populatePosts(ctx, a.DB, []*models.Post{post}, moderation.Populate{Author: true, Category: true})
	if err != nil {
		a.reply(context, op, start, nil, err)
		return
	}
	a.reply(context, op, start, views[0], nil)
}

func (a *PostActor) handleLike(context actor.Context, msg *LikePostMsg) {
	start := time.Now()
	if err := requireCaller(msg.Caller); err != nil {
		a.reply(context, "like_post", start, nil, err)
		return
	}
	ctx, cancel := a.opContext()
	defer cancel()
	result, err := a.DB.TogglePostLike(ctx, msg.PostID, msg.Caller.ID)
	a.reply(context, "like_post", start, result, err)
}

func (a *PostActor) handleDelete(context actor.Context, msg *DeletePostMsg) {
	start := time.Now()
	if err := requireAdmin(msg.Caller); err != nil {
		a.reply(context, "delete_post", start, nil, err)
		return
	}
	ctx, cancel := a.opContext()
	defer cancel()
	if err := a.DB.DeletePost(ctx, msg.PostID); err != nil {
		a.reply(context, "delete_post", start, nil, err)
		return
	}
	a.emit(context, events.New(events.PostDeleted, msg.Caller.ID, msg.PostID, nil))
	a.reply(context, "delete_post", start, true, nil)
}

func (a *PostActor) handleBookmarks(context actor.Context, msg *GetBookmarkedPostsMsg) {
	start := time.Now()
	if err := requireCaller(msg.Caller); err != nil {
		a.reply(context, "get_bookmarks", start, nil, err)
		return
	}
	ctx, cancel := a.opContext()
	defer cancel()

	user, err := a.DB.GetUser(ctx, msg.Caller.ID)
	if err != nil {
		a.reply(context, "get_bookmarks", start, nil, err)
		return
	}
	posts, err := a.DB.GetPostsByIDs(ctx, user.Bookmarks)
	if err != nil {
		a.reply(context, "get_bookmarks", start, nil, err)
		return
	}
	views, err := populatePosts(ctx, a.DB, posts, moderation.Populate{Author: true, Category: true})
	a.reply(context, "get_bookmarks", start, views, err)
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

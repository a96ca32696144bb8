package database

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsroom/internal/models"
	"newsroom/internal/utils"
)

// MemoryDB is a process-local DBAdapter and MediaStore. Every method runs
// under one lock, so two-sided writes are atomic. Returned values are copies.
type MemoryDB struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]*models.User
	posts      map[uuid.UUID]*models.Post
	comments   map[uuid.UUID]*models.Comment
	categories map[uuid.UUID]*models.Category
	banners    map[uuid.UUID]*models.Banner
	media      map[string]*memoryMedia
}

type memoryMedia struct {
	name        string
	contentType string
	data        []byte
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:      make(map[uuid.UUID]*models.User),
		posts:      make(map[uuid.UUID]*models.Post),
		comments:   make(map[uuid.UUID]*models.Comment),
		categories: make(map[uuid.UUID]*models.Category),
		banners:    make(map[uuid.UUID]*models.Banner),
		media:      make(map[string]*memoryMedia),
	}
}

func (db *MemoryDB) Close(context.Context) error { return nil }

func cloneIDs(ids []uuid.UUID) []uuid.UUID {
	return append([]uuid.UUID{}, ids...)
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Following = cloneIDs(u.Following)
	c.Followers = cloneIDs(u.Followers)
	c.Bookmarks = cloneIDs(u.Bookmarks)
	return &c
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	if p.CategoryID != nil {
		id := *p.CategoryID
		c.CategoryID = &id
	}
	c.Tags = append([]string{}, p.Tags...)
	c.Comments = cloneIDs(p.Comments)
	c.Likes = cloneIDs(p.Likes)
	c.ViewedBy = cloneIDs(p.ViewedBy)
	c.ViewedByAddr = append([]string{}, p.ViewedByAddr...)
	return &c
}

func cloneComment(cm *models.Comment) *models.Comment {
	c := *cm
	c.Likes = cloneIDs(cm.Likes)
	return &c
}

func cloneCategory(cat *models.Category) *models.Category {
	c := *cat
	return &c
}

func cloneBanner(b *models.Banner) *models.Banner {
	c := *b
	return &c
}

// Users

func (db *MemoryDB) CreateUser(_ context.Context, user *models.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, u := range db.users {
		if strings.EqualFold(u.Email, user.Email) || strings.EqualFold(u.Username, user.Username) {
			return utils.NewAppError(utils.ErrUserAlreadyExists, "Email or username already registered", nil)
		}
	}
	db.users[user.ID] = cloneUser(user)
	return nil
}

func (db *MemoryDB) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	u, ok := db.users[id]
	if !ok {
		return nil, utils.NewNotFoundError("User")
	}
	return cloneUser(u), nil
}

func (db *MemoryDB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, u := range db.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, utils.NewNotFoundError("User")
}

func (db *MemoryDB) GetUsersByIDs(_ context.Context, ids []uuid.UUID) ([]*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := db.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (db *MemoryDB) ListUsers(context.Context) ([]*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*models.User, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (db *MemoryDB) UpdateUserProfile(_ context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.users[id]
	if !ok {
		return nil, utils.NewNotFoundError("User")
	}
	for _, other := range db.users {
		if other.ID == id {
			continue
		}
		if (update.Email != nil && strings.EqualFold(other.Email, *update.Email)) ||
			(update.Username != nil && strings.EqualFold(other.Username, *update.Username)) {
			return nil, utils.NewAppError(utils.ErrUserAlreadyExists, "Email or username already registered", nil)
		}
	}
	update.Apply(u)
	u.UpdatedAt = time.Now()
	return cloneUser(u), nil
}

func (db *MemoryDB) UpdateUserRole(_ context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.users[id]
	if !ok {
		return nil, utils.NewNotFoundError("User")
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	return cloneUser(u), nil
}

func (db *MemoryDB) DeleteUser(_ context.Context, id uuid.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.users[id]; !ok {
		return utils.NewNotFoundError("User")
	}
	delete(db.users, id)
	for _, u := range db.users {
		u.Following = models.RemoveID(u.Following, id)
		u.Followers = models.RemoveID(u.Followers, id)
	}
	return nil
}

func (db *MemoryDB) ToggleFollow(_ context.Context, followerID, targetID uuid.UUID) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	follower, ok := db.users[followerID]
	if !ok {
		return false, utils.NewNotFoundError("User")
	}
	target, ok := db.users[targetID]
	if !ok {
		return false, utils.NewNotFoundError("User")
	}
	var following bool
	follower.Following, following = models.ToggleID(follower.Following, targetID)
	if following {
		if !models.ContainsID(target.Followers, followerID) {
			target.Followers = append(target.Followers, followerID)
		}
	} else {
		target.Followers = models.RemoveID(target.Followers, followerID)
	}
	return following, nil
}

func (db *MemoryDB) ToggleBookmark(_ context.Context, userID, postID uuid.UUID) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.users[userID]
	if !ok {
		return false, utils.NewNotFoundError("User")
	}
	var active bool
	u.Bookmarks, active = models.ToggleID(u.Bookmarks, postID)
	return active, nil
}

func (db *MemoryDB) CountUsers(context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return int64(len(db.users)), nil
}

// Posts

func (db *MemoryDB) CreatePost(_ context.Context, post *models.Post) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.posts[post.ID] = clonePost(post)
	return nil
}

func (db *MemoryDB) GetPost(_ context.Context, id uuid.UUID) (*models.Post, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	p, ok := db.posts[id]
	if !ok {
		return nil, utils.NewNotFoundError("Post")
	}
	return clonePost(p), nil
}

func (db *MemoryDB) FindPosts(_ context.Context, q models.PostQuery) ([]*models.Post, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*models.Post, 0)
	for _, p := range db.posts {
		if q.Matches(p) {
			out = append(out, clonePost(p))
		}
	}
	models.SortPosts(out, q.Sort)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (db *MemoryDB) GetPostsByIDs(_ context.Context, ids []uuid.UUID) ([]*models.Post, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := db.posts[id]; ok {
			out = append(out, clonePost(p))
		}
	}
	models.SortPosts(out, models.SortNewest)
	return out, nil
}

func (db *MemoryDB) mutatePost(id uuid.UUID, fn func(p *models.Post)) (*models.Post, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.posts[id]
	if !ok {
		return nil, utils.NewNotFoundError("Post")
	}
	fn(p)
	p.UpdatedAt = time.Now()
	return clonePost(p), nil
}

func (db *MemoryDB) UpdatePost(_ context.Context, id uuid.UUID, update models.PostUpdate) (*models.Post, error) {
	return db.mutatePost(id, update.Apply)
}

func (db *MemoryDB) SetPostApproval(_ context.Context, id uuid.UUID, approved bool) (*models.Post, error) {
	return db.mutatePost(id, func(p *models.Post) { p.IsApproved = approved })
}

func (db *MemoryDB) ToggleEditorPick(_ context.Context, id uuid.UUID) (*models.Post, error) {
	return db.mutatePost(id, func(p *models.Post) { p.IsEditorPick = !p.IsEditorPick })
}

func (db *MemoryDB) TogglePostLike(_ context.Context, postID, userID uuid.UUID) (*models.LikeResult, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.posts[postID]
	if !ok {
		return nil, utils.NewNotFoundError("Post")
	}
	var liked bool
	p.Likes, liked = models.ToggleID(p.Likes, userID)
	return &models.LikeResult{Liked: liked, LikesCount: len(p.Likes)}, nil
}

func (db *MemoryDB) RecordUserView(_ context.Context, postID, userID uuid.UUID) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.posts[postID]
	if !ok {
		return false, utils.NewNotFoundError("Post")
	}
	if models.ContainsID(p.ViewedBy, userID) {
		return false, nil
	}
	p.ViewedBy = append(p.ViewedBy, userID)
	p.Views++
	return true, nil
}

func (db *MemoryDB) MarkAddrViewed(_ context.Context, postID uuid.UUID, addr string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.posts[postID]
	if !ok {
		return false, utils.NewNotFoundError("Post")
	}
	for _, a := range p.ViewedByAddr {
		if a == addr {
			return false, nil
		}
	}
	p.ViewedByAddr = append(p.ViewedByAddr, addr)
	p.Views++
	return true, nil
}

func (db *MemoryDB) IncrementViews(_ context.Context, postID uuid.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.posts[postID]
	if !ok {
		return utils.NewNotFoundError("Post")
	}
	p.Views++
	return nil
}

func (db *MemoryDB) DeletePost(_ context.Context, id uuid.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.posts[id]; !ok {
		return utils.NewNotFoundError("Post")
	}
	delete(db.posts, id)
	for cid, c := range db.comments {
		if c.PostID == id {
			delete(db.comments, cid)
		}
	}
	for _, u := range db.users {
		u.Bookmarks = models.RemoveID(u.Bookmarks, id)
	}
	return nil
}

func (db *MemoryDB) CountPosts(_ context.Context, approved *bool) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var n int64
	for _, p := range db.posts {
		if approved == nil || p.IsApproved == *approved {
			n++
		}
	}
	return n, nil
}

// Comments

func (db *MemoryDB) CreateComment(_ context.Context, comment *models.Comment) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.posts[comment.PostID]
	if !ok {
		return utils.NewNotFoundError("Post")
	}
	db.comments[comment.ID] = cloneComment(comment)
	p.Comments = append(p.Comments, comment.ID)
	return nil
}

func (db *MemoryDB) GetComment(_ context.Context, id uuid.UUID) (*models.Comment, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	c, ok := db.comments[id]
	if !ok {
		return nil, utils.NewNotFoundError("Comment")
	}
	return cloneComment(c), nil
}

func sortCommentsNewest(cs []*models.Comment) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].CreatedAt.After(cs[j].CreatedAt) })
}

func (db *MemoryDB) GetPostComments(_ context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*models.Comment, 0)
	for _, c := range db.comments {
		if c.PostID == postID {
			out = append(out, cloneComment(c))
		}
	}
	sortCommentsNewest(out)
	return out, nil
}

func (db *MemoryDB) GetCommentsByIDs(_ context.Context, ids []uuid.UUID) ([]*models.Comment, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*models.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := db.comments[id]; ok {
			out = append(out, cloneComment(c))
		}
	}
	sortCommentsNewest(out)
	return out, nil
}

func (db *MemoryDB) DeleteComment(_ context.Context, id uuid.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.comments[id]
	if !ok {
		return utils.NewNotFoundError("Comment")
	}
	delete(db.comments, id)
	if p, ok := db.posts[c.PostID]; ok {
		p.Comments = models.RemoveID(p.Comments, id)
	}
	return nil
}

func (db *MemoryDB) ToggleCommentLike(_ context.Context, commentID, userID uuid.UUID) (*models.LikeResult, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.comments[commentID]
	if !ok {
		return nil, utils.NewNotFoundError("Comment")
	}
	var liked bool
	c.Likes, liked = models.ToggleID(c.Likes, userID)
	return &models.LikeResult{Liked: liked, LikesCount: len(c.Likes)}, nil
}

func (db *MemoryDB) CountComments(context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return int64(len(db.comments)), nil
}

// Categories

func (db *MemoryDB) categoryConflict(id uuid.UUID, name, slug string) bool {
	for _, c := range db.categories {
		if c.ID != id && (strings.EqualFold(c.Name, name) || c.Slug == slug) {
			return true
		}
	}
	return false
}

func (db *MemoryDB) CreateCategory(_ context.Context, category *models.Category) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.categoryConflict(category.ID, category.Name, category.Slug) {
		return utils.NewAppError(utils.ErrDuplicate, "Category with this name or slug already exists", nil)
	}
	db.categories[category.ID] = cloneCategory(category)
	return nil
}

func (db *MemoryDB) GetCategory(_ context.Context, id uuid.UUID) (*models.Category, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	c, ok := db.categories[id]
	if !ok {
		return nil, utils.NewNotFoundError("Category")
	}
	return cloneCategory(c), nil
}

func (db *MemoryDB) GetCategoriesByIDs(_ context.Context, ids []uuid.UUID) ([]*models.Category, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*models.Category, 0, len(ids))
	for _, id := range ids {
		if c, ok := db.categories[id]; ok {
			out = append(out, cloneCategory(c))
		}
	}
	return out, nil
}

func (db *MemoryDB) ListCategories(context.Context) ([]*models.Category, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*models.Category, 0, len(db.categories))
	for _, c := range db.categories {
		out = append(out, cloneCategory(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (db *MemoryDB) UpdateCategory(_ context.Context, id uuid.UUID, update models.CategoryUpdate) (*models.Category, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.categories[id]
	if !ok {
		return nil, utils.NewNotFoundError("Category")
	}
	next := cloneCategory(c)
	update.Apply(next)
	if db.categoryConflict(id, next.Name, next.Slug) {
		return nil, utils.NewAppError(utils.ErrDuplicate, "Category with this name or slug already exists", nil)
	}
	next.UpdatedAt = time.Now()
	db.categories[id] = next
	return cloneCategory(next), nil
}

func (db *MemoryDB) DeleteCategory(_ context.Context, id uuid.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.categories[id]; !ok {
		return utils.NewNotFoundError("Category")
	}
	delete(db.categories, id)
	for _, p := range db.posts {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
		}
	}
	return nil
}

// Banners

func (db *MemoryDB) CreateBanner(_ context.Context, banner *models.Banner) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.banners[banner.ID] = cloneBanner(banner)
	return nil
}

func (db *MemoryDB) GetBanner(_ context.Context, id uuid.UUID) (*models.Banner, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	b, ok := db.banners[id]
	if !ok {
		return nil, utils.NewNotFoundError("Banner")
	}
	return cloneBanner(b), nil
}

func (db *MemoryDB) ListBanners(_ context.Context, activeOnly bool) ([]*models.Banner, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*models.Banner, 0, len(db.banners))
	for _, b := range db.banners {
		if !activeOnly || b.IsActive {
			out = append(out, cloneBanner(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (db *MemoryDB) UpdateBanner(_ context.Context, id uuid.UUID, update models.BannerUpdate) (*models.Banner, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	b, ok := db.banners[id]
	if !ok {
		return nil, utils.NewNotFoundError("Banner")
	}
	update.Apply(b)
	b.UpdatedAt = time.Now()
	return cloneBanner(b), nil
}

func (db *MemoryDB) DeleteBanner(_ context.Context, id uuid.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.banners[id]; !ok {
		return utils.NewNotFoundError("Banner")
	}
	delete(db.banners, id)
	return nil
}

// Media

func (db *MemoryDB) SaveMedia(_ context.Context, name, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", utils.NewDatabaseError("failed to read media", err)
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	db.mu.Lock()
	db.media[id] = &memoryMedia{name: name, contentType: contentType, data: data}
	db.mu.Unlock()
	return id, nil
}

func (db *MemoryDB) OpenMedia(_ context.Context, id string) (*MediaFile, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	m, ok := db.media[id]
	if !ok {
		return nil, utils.NewNotFoundError("Media")
	}
	return &MediaFile{
		ReadCloser:  io.NopCloser(bytes.NewReader(m.data)),
		Name:        m.name,
		ContentType: m.contentType,
		Size:        int64(len(m.data)),
	}, nil
}

var (
	_ DBAdapter  = (*MemoryDB)(nil)
	_ MediaStore = (*MemoryDB)(nil)
	_ DBAdapter  = (*MongoDB)(nil)
	_ MediaStore = (*MongoDB)(nil)
)

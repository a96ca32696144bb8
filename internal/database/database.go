// internal/database/database.go
package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"newsroom/internal/models"
	"newsroom/internal/utils"
)

// DBAdapter is the store contract used by the engine actors.
// Two-sided writes (follow, comment create/delete, user and post deletion)
// are atomic from the caller's point of view.
type DBAdapter interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error)
	UpdateUserRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ToggleFollow(ctx context.Context, followerID, targetID uuid.UUID) (bool, error)
	ToggleBookmark(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	CountUsers(ctx context.Context) (int64, error)

	// Posts
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error)
	FindPosts(ctx context.Context, query models.PostQuery) ([]*models.Post, error)
	GetPostsByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Post, error)
	UpdatePost(ctx context.Context, id uuid.UUID, update models.PostUpdate) (*models.Post, error)
	SetPostApproval(ctx context.Context, id uuid.UUID, approved bool) (*models.Post, error)
	ToggleEditorPick(ctx context.Context, id uuid.UUID) (*models.Post, error)
	TogglePostLike(ctx context.Context, postID, userID uuid.UUID) (*models.LikeResult, error)
	RecordUserView(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	MarkAddrViewed(ctx context.Context, postID uuid.UUID, addr string) (bool, error)
	IncrementViews(ctx context.Context, postID uuid.UUID) error
	DeletePost(ctx context.Context, id uuid.UUID) error
	CountPosts(ctx context.Context, approved *bool) (int64, error)

	// Comments
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error)
	GetCommentsByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
	ToggleCommentLike(ctx context.Context, commentID, userID uuid.UUID) (*models.LikeResult, error)
	CountComments(ctx context.Context) (int64, error)

	// Categories
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	GetCategoriesByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Category, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, update models.CategoryUpdate) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	// Banners
	CreateBanner(ctx context.Context, banner *models.Banner) error
	GetBanner(ctx context.Context, id uuid.UUID) (*models.Banner, error)
	ListBanners(ctx context.Context, activeOnly bool) ([]*models.Banner, error)
	UpdateBanner(ctx context.Context, id uuid.UUID, update models.BannerUpdate) (*models.Banner, error)
	DeleteBanner(ctx context.Context, id uuid.UUID) error

	Close(ctx context.Context) error
}

// MediaStore keeps uploaded image bytes.
type MediaStore interface {
	SaveMedia(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	OpenMedia(ctx context.Context, id string) (*MediaFile, error)
}

// MediaFile is an open stored upload. Callers must Close it.
type MediaFile struct {
	io.ReadCloser
	Name        string
	ContentType string
	Size        int64
}

// caseInsensitive is the collation for email, username and category name
// uniqueness. MemoryDB compares the same fields with strings.EqualFold.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type MongoDB struct {
	Client       *mongo.Client
	Users        *mongo.Collection
	Posts        *mongo.Collection
	Comments     *mongo.Collection
	Categories   *mongo.Collection
	Banners      *mongo.Collection
	Media        *gridfs.Bucket
	transactions bool
}

// MongoOptions configures the MongoDB adapter.
type MongoOptions struct {
	URI          string
	Database     string
	Transactions bool
}

func NewMongoDB(ctx context.Context, opt MongoOptions) (*MongoDB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(opt.URI).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	slog.Info("connected to MongoDB", "database", opt.Database, "transactions", opt.Transactions)

	db := client.Database(opt.Database)
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("media"))
	if err != nil {
		return nil, fmt.Errorf("failed to open media bucket: %w", err)
	}

	m := &MongoDB{
		Client:       client,
		Users:        db.Collection("users"),
		Posts:        db.Collection("posts"),
		Comments:     db.Collection("comments"),
		Categories:   db.Collection("categories"),
		Banners:      db.Collection("banners"),
		Media:        bucket,
		transactions: opt.Transactions,
	}

	if err := m.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// EnsureIndexes creates the unique and lookup indexes for every collection.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	if err := m.EnsureUserIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	if err := m.EnsurePostIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create post indexes: %w", err)
	}
	if err := m.EnsureCommentIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create comment indexes: %w", err)
	}
	if err := m.EnsureCategoryIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create category indexes: %w", err)
	}
	return nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// withTransaction runs fn inside a multi-document transaction when enabled,
// otherwise it runs fn directly and the caller is responsible for compensation.
func (m *MongoDB) withTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.transactions {
		return fn(ctx)
	}
	session, err := m.Client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", s, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func findOneError(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return utils.NewAppError(utils.ErrNotFound, what+" not found", err)
	}
	return utils.NewDatabaseError("failed to load "+what, err)
}

func duplicateError(err error, code, message string) error {
	if mongo.IsDuplicateKeyError(err) {
		return utils.NewAppError(code, message, err)
	}
	return utils.NewDatabaseError("database write failed", err)
}

// afterUpdate returns the post-update document from FindOneAndUpdate.
func afterUpdate() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

func idsIn(ids []uuid.UUID) bson.M {
	return bson.M{"_id": bson.M{"$in": idStrings(ids)}}
}

// internal/database/post_repository.go
package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsroom/internal/models"
	"newsroom/internal/utils"
)

// PostDocument represents the MongoDB schema for a post.
type PostDocument struct {
	ID           string    `bson:"_id"`
	AuthorID     string    `bson:"authorId"`
	Title        string    `bson:"title"`
	Content      string    `bson:"content"`
	Image        string    `bson:"image"`
	CategoryID   *string   `bson:"categoryId"`
	Tags         []string  `bson:"tags"`
	Comments     []string  `bson:"comments"`
	Likes        []string  `bson:"likes"`
	Views        int       `bson:"views"`
	ViewedBy     []string  `bson:"viewedBy"`
	ViewedByAddr []string  `bson:"viewedByAddr"`
	IsEditorPick bool      `bson:"isEditorPick"`
	IsApproved   bool      `bson:"isApproved"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func postToDocument(post *models.Post) *PostDocument {
	doc := &PostDocument{
		ID:           post.ID.String(),
		AuthorID:     post.AuthorID.String(),
		Title:        post.Title,
		Content:      post.Content,
		Image:        post.Image,
		Tags:         append([]string{}, post.Tags...),
		Comments:     idStrings(post.Comments),
		Likes:        idStrings(post.Likes),
		Views:        post.Views,
		ViewedBy:     idStrings(post.ViewedBy),
		ViewedByAddr: append([]string{}, post.ViewedByAddr...),
		IsEditorPick: post.IsEditorPick,
		IsApproved:   post.IsApproved,
		CreatedAt:    post.CreatedAt,
		UpdatedAt:    post.UpdatedAt,
	}
	if post.CategoryID != nil {
		s := post.CategoryID.String()
		doc.CategoryID = &s
	}
	return doc
}

func documentToPost(doc *PostDocument) (*models.Post, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %w", err)
	}
	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %w", err)
	}
	comments, err := parseIDs(doc.Comments)
	if err != nil {
		return nil, err
	}
	likes, err := parseIDs(doc.Likes)
	if err != nil {
		return nil, err
	}
	viewedBy, err := parseIDs(doc.ViewedBy)
	if err != nil {
		return nil, err
	}
	post := &models.Post{
		ID:           id,
		AuthorID:     authorID,
		Title:        doc.Title,
		Content:      doc.Content,
		Image:        doc.Image,
		Tags:         doc.Tags,
		Comments:     comments,
		Likes:        likes,
		Views:        doc.Views,
		ViewedBy:     viewedBy,
		ViewedByAddr: doc.ViewedByAddr,
		IsEditorPick: doc.IsEditorPick,
		IsApproved:   doc.IsApproved,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	if doc.CategoryID != nil {
		categoryID, err := uuid.Parse(*doc.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("invalid category ID: %w", err)
		}
		post.CategoryID = &categoryID
	}
	return post, nil
}

// EnsurePostIndexes indexes the feed filters and orderings.
func (m *MongoDB) EnsurePostIndexes(ctx context.Context) error {
	_, err := m.Posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "isApproved", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "authorId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "categoryId", Value: 1}}},
	})
	return err
}

func (m *MongoDB) CreatePost(ctx context.Context, post *models.Post) error {
	if _, err := m.Posts.InsertOne(ctx, postToDocument(post)); err != nil {
		return utils.NewDatabaseError("failed to create post", err)
	}
	return nil
}

// GetPost retrieves a post by its ID.
func (m *MongoDB) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var doc PostDocument
	if err := m.Posts.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return nil, findOneError(err, "Post")
	}
	return documentToPost(&doc)
}

// postFilter translates a PostQuery into a MongoDB filter.
func postFilter(q models.PostQuery) bson.M {
	filter := bson.M{}
	if q.Approved != nil {
		filter["isApproved"] = *q.Approved
	}
	if q.EditorPick != nil {
		filter["isEditorPick"] = *q.EditorPick
	}
	if q.AuthorIDs != nil {
		filter["authorId"] = bson.M{"$in": idStrings(q.AuthorIDs)}
	}
	if q.CategoryID != nil {
		filter["categoryId"] = q.CategoryID.String()
	}
	if q.Text != "" {
		pattern := regexp.QuoteMeta(q.Text)
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"content": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	return filter
}

// FindPosts runs a feed query. Like-count ordering is computed server side
// from the size of the likes array.
func (m *MongoDB) FindPosts(ctx context.Context, q models.PostQuery) ([]*models.Post, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: postFilter(q)}}}

	switch q.Sort {
	case models.SortLikes:
		pipeline = append(pipeline,
			bson.D{{Key: "$addFields", Value: bson.M{
				"likesCount": bson.M{"$size": bson.M{"$ifNull": bson.A{"$likes", bson.A{}}}},
			}}},
			bson.D{{Key: "$sort", Value: bson.D{{Key: "likesCount", Value: -1}, {Key: "createdAt", Value: -1}}}},
		)
	case models.SortViews:
		pipeline = append(pipeline,
			bson.D{{Key: "$sort", Value: bson.D{{Key: "views", Value: -1}, {Key: "createdAt", Value: -1}}}})
	default:
		pipeline = append(pipeline,
			bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}})
	}
	if q.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: q.Limit}})
	}

	cursor, err := m.Posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, utils.NewDatabaseError("failed to query posts", err)
	}
	return decodePosts(ctx, cursor)
}

func decodePosts(ctx context.Context, cursor *mongo.Cursor) ([]*models.Post, error) {
	defer cursor.Close(ctx)

	var docs []PostDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, utils.NewDatabaseError("failed to decode posts", err)
	}
	posts := make([]*models.Post, 0, len(docs))
	for i := range docs {
		post, err := documentToPost(&docs[i])
		if err != nil {
			return nil, utils.NewDatabaseError("corrupt post document", err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (m *MongoDB) GetPostsByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Post, error) {
	if len(ids) == 0 {
		return []*models.Post{}, nil
	}
	cursor, err := m.Posts.Find(ctx, idsIn(ids), options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, utils.NewDatabaseError("failed to query posts", err)
	}
	return decodePosts(ctx, cursor)
}

func (m *MongoDB) UpdatePost(ctx context.Context, id uuid.UUID, update models.PostUpdate) (*models.Post, error) {
	set := bson.M{"updatedAt": time.Now()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Content != nil {
		set["content"] = *update.Content
	}
	if update.Image != nil {
		set["image"] = *update.Image
	}
	if update.CategoryID != nil {
		set["categoryId"] = update.CategoryID.String()
	}
	if update.Tags != nil {
		set["tags"] = append([]string{}, (*update.Tags)...)
	}
	if update.IsEditorPick != nil {
		set["isEditorPick"] = *update.IsEditorPick
	}
	if update.IsApproved != nil {
		set["isApproved"] = *update.IsApproved
	}
	return m.updatePost(ctx, id, bson.M{"$set": set})
}

// SetPostApproval moves a post between pending and approved. Repeating a transition is a no-op.
func (m *MongoDB) SetPostApproval(ctx context.Context, id uuid.UUID, approved bool) (*models.Post, error) {
	return m.updatePost(ctx, id, bson.M{"$set": bson.M{"isApproved": approved, "updatedAt": time.Now()}})
}

// ToggleEditorPick flips isEditorPick in a single pipeline update.
func (m *MongoDB) ToggleEditorPick(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	flip := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "isEditorPick", Value: bson.D{{Key: "$not", Value: bson.A{"$isEditorPick"}}}},
		{Key: "updatedAt", Value: "$$NOW"},
	}}}}
	return m.updatePost(ctx, id, flip)
}

func (m *MongoDB) updatePost(ctx context.Context, id uuid.UUID, update interface{}) (*models.Post, error) {
	var doc PostDocument
	if err := m.Posts.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, update, afterUpdate()).Decode(&doc); err != nil {
		return nil, findOneError(err, "Post")
	}
	return documentToPost(&doc)
}

// TogglePostLike adds or removes userID from the post's likes.
func (m *MongoDB) TogglePostLike(ctx context.Context, postID, userID uuid.UUID) (*models.LikeResult, error) {
	return toggleMember(ctx, m.Posts, postID, "likes", userID.String(), "Post")
}

// toggleMember flips membership of member in the array field of one document
// using conditional updates, retrying when another writer wins the race.
func toggleMember(ctx context.Context, coll *mongo.Collection, id uuid.UUID, field, member, what string) (*models.LikeResult, error) {
	opts := afterUpdate().SetProjection(bson.M{field: 1})
	for attempt := 0; attempt < toggleAttempts; attempt++ {
		raw, err := coll.FindOneAndUpdate(ctx,
			bson.M{"_id": id.String(), field: member},
			bson.M{"$pull": bson.M{field: member}}, opts).Raw()
		if err == nil {
			return &models.LikeResult{Liked: false, LikesCount: arrayLen(raw, field)}, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewDatabaseError("failed to toggle "+field, err)
		}

		raw, err = coll.FindOneAndUpdate(ctx,
			bson.M{"_id": id.String(), field: bson.M{"$ne": member}},
			bson.M{"$addToSet": bson.M{field: member}}, opts).Raw()
		if err == nil {
			return &models.LikeResult{Liked: true, LikesCount: arrayLen(raw, field)}, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewDatabaseError("failed to toggle "+field, err)
		}

		if n, err := coll.CountDocuments(ctx, bson.M{"_id": id.String()}); err == nil && n == 0 {
			return nil, utils.NewNotFoundError(what)
		}
	}
	return nil, utils.NewAppError(utils.ErrMessageRejected, what+" "+field+" changed concurrently", nil)
}

func arrayLen(raw bson.Raw, field string) int {
	arr, ok := raw.Lookup(field).ArrayOK()
	if !ok {
		return 0
	}
	values, err := arr.Values()
	if err != nil {
		return 0
	}
	return len(values)
}

// RecordUserView counts a view from userID once per post. It reports whether the view was new.
func (m *MongoDB) RecordUserView(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	return m.recordView(ctx, postID, "viewedBy", userID.String())
}

// MarkAddrViewed counts a view from an anonymous network address once per post.
func (m *MongoDB) MarkAddrViewed(ctx context.Context, postID uuid.UUID, addr string) (bool, error) {
	return m.recordView(ctx, postID, "viewedByAddr", addr)
}

func (m *MongoDB) recordView(ctx context.Context, postID uuid.UUID, field, key string) (bool, error) {
	res, err := m.Posts.UpdateOne(ctx,
		bson.M{"_id": postID.String(), field: bson.M{"$ne": key}},
		bson.M{"$inc": bson.M{"views": 1}, "$addToSet": bson.M{field: key}},
	)
	if err != nil {
		return false, utils.NewDatabaseError("failed to record view", err)
	}
	if res.ModifiedCount == 1 {
		return true, nil
	}
	n, err := m.Posts.CountDocuments(ctx, bson.M{"_id": postID.String()})
	if err != nil {
		return false, utils.NewDatabaseError("failed to load post", err)
	}
	if n == 0 {
		return false, utils.NewNotFoundError("Post")
	}
	return false, nil
}

func (m *MongoDB) IncrementViews(ctx context.Context, postID uuid.UUID) error {
	res, err := m.Posts.UpdateOne(ctx, bson.M{"_id": postID.String()}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return utils.NewDatabaseError("failed to increment views", err)
	}
	if res.MatchedCount == 0 {
		return utils.NewNotFoundError("Post")
	}
	return nil
}

// DeletePost removes the post with its comments and drops it from every bookmark list.
func (m *MongoDB) DeletePost(ctx context.Context, id uuid.UUID) error {
	return m.withTransaction(ctx, func(ctx context.Context) error {
		res, err := m.Posts.DeleteOne(ctx, bson.M{"_id": id.String()})
		if err != nil {
			return utils.NewDatabaseError("failed to delete post", err)
		}
		if res.DeletedCount == 0 {
			return utils.NewNotFoundError("Post")
		}
		if _, err := m.Comments.DeleteMany(ctx, bson.M{"postId": id.String()}); err != nil {
			return utils.NewDatabaseError("failed to delete post comments", err)
		}
		if _, err := m.Users.UpdateMany(ctx,
			bson.M{"bookmarks": id.String()},
			bson.M{"$pull": bson.M{"bookmarks": id.String()}},
		); err != nil {
			return utils.NewDatabaseError("failed to clear bookmarks", err)
		}
		return nil
	})
}

func (m *MongoDB) CountPosts(ctx context.Context, approved *bool) (int64, error) {
	filter := bson.M{}
	if approved != nil {
		filter["isApproved"] = *approved
	}
	n, err := m.Posts.CountDocuments(ctx, filter)
	if err != nil {
		return 0, utils.NewDatabaseError("failed to count posts", err)
	}
	return n, nil
}

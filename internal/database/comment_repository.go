package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsroom/internal/models"
	"newsroom/internal/utils"
)

// CommentDocument represents comment data in MongoDB
type CommentDocument struct {
	ID        string    `bson:"_id"`
	PostID    string    `bson:"postId"`
	AuthorID  string    `bson:"authorId"`
	Content   string    `bson:"content"`
	Likes     []string  `bson:"likes"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func commentToDocument(c *models.Comment) *CommentDocument {
	return &CommentDocument{
		ID:        c.ID.String(),
		PostID:    c.PostID.String(),
		AuthorID:  c.AuthorID.String(),
		Content:   c.Content,
		Likes:     idStrings(c.Likes),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func documentToComment(doc *CommentDocument) (*models.Comment, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid comment ID: %w", err)
	}
	postID, err := uuid.Parse(doc.PostID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %w", err)
	}
	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %w", err)
	}
	likes, err := parseIDs(doc.Likes)
	if err != nil {
		return nil, err
	}
	return &models.Comment{
		ID:        id,
		PostID:    postID,
		AuthorID:  authorID,
		Content:   doc.Content,
		Likes:     likes,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// EnsureCommentIndexes creates required indexes for the comments collection
func (m *MongoDB) EnsureCommentIndexes(ctx context.Context) error {
	_, err := m.Comments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "authorId", Value: 1}}},
	})
	return err
}

// CreateComment stores the comment and appends it to its post in one transaction.
func (m *MongoDB) CreateComment(ctx context.Context, comment *models.Comment) error {
	doc := commentToDocument(comment)
	return m.withTransaction(ctx, func(ctx context.Context) error {
		res, err := m.Posts.UpdateOne(ctx,
			bson.M{"_id": doc.PostID},
			bson.M{"$push": bson.M{"comments": doc.ID}},
		)
		if err != nil {
			return utils.NewDatabaseError("failed to attach comment", err)
		}
		if res.MatchedCount == 0 {
			return utils.NewNotFoundError("Post")
		}
		if _, err := m.Comments.InsertOne(ctx, doc); err != nil {
			if !m.transactions {
				_, _ = m.Posts.UpdateOne(ctx, bson.M{"_id": doc.PostID}, bson.M{"$pull": bson.M{"comments": doc.ID}})
			}
			return utils.NewDatabaseError("failed to save comment", err)
		}
		return nil
	})
}

func (m *MongoDB) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var doc CommentDocument
	if err := m.Comments.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return nil, findOneError(err, "Comment")
	}
	return documentToComment(&doc)
}

func (m *MongoDB) findComments(ctx context.Context, filter bson.M) ([]*models.Comment, error) {
	cursor, err := m.Comments.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, utils.NewDatabaseError("failed to query comments", err)
	}
	defer cursor.Close(ctx)

	var docs []CommentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, utils.NewDatabaseError("failed to decode comments", err)
	}
	comments := make([]*models.Comment, 0, len(docs))
	for i := range docs {
		c, err := documentToComment(&docs[i])
		if err != nil {
			return nil, utils.NewDatabaseError("corrupt comment document", err)
		}
		comments = append(comments, c)
	}
	return comments, nil
}

// GetPostComments lists a post's comments, newest first.
func (m *MongoDB) GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	return m.findComments(ctx, bson.M{"postId": postID.String()})
}

func (m *MongoDB) GetCommentsByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Comment, error) {
	if len(ids) == 0 {
		return []*models.Comment{}, nil
	}
	return m.findComments(ctx, idsIn(ids))
}

// DeleteComment removes the comment and pulls its id from the parent post in one transaction.
func (m *MongoDB) DeleteComment(ctx context.Context, id uuid.UUID) error {
	return m.withTransaction(ctx, func(ctx context.Context) error {
		var doc CommentDocument
		if err := m.Comments.FindOneAndDelete(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
			return findOneError(err, "Comment")
		}
		if _, err := m.Posts.UpdateOne(ctx,
			bson.M{"_id": doc.PostID},
			bson.M{"$pull": bson.M{"comments": doc.ID}},
		); err != nil {
			if !m.transactions {
				_, _ = m.Comments.InsertOne(ctx, doc)
			}
			return utils.NewDatabaseError("failed to detach comment", err)
		}
		return nil
	})
}

func (m *MongoDB) ToggleCommentLike(ctx context.Context, commentID, userID uuid.UUID) (*models.LikeResult, error) {
	return toggleMember(ctx, m.Comments, commentID, "likes", userID.String(), "Comment")
}

func (m *MongoDB) CountComments(ctx context.Context) (int64, error) {
	n, err := m.Comments.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, utils.NewDatabaseError("failed to count comments", err)
	}
	return n, nil
}

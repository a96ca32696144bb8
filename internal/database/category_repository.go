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

type CategoryDocument struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Slug        string    `bson:"slug"`
	Description string    `bson:"description"`
	Color       string    `bson:"color"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func documentToCategory(doc *CategoryDocument) (*models.Category, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid category ID: %w", err)
	}
	color := doc.Color
	if color == "" {
		color = models.DefaultCategoryColor
	}
	return &models.Category{
		ID:          id,
		Name:        doc.Name,
		Slug:        doc.Slug,
		Description: doc.Description,
		Color:       color,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

// EnsureCategoryIndexes makes name (ignoring case) and slug unique.
func (m *MongoDB) EnsureCategoryIndexes(ctx context.Context) error {
	_, err := m.Categories.Indexes().CreateMany(ctx, categoryIndexes())
	return err
}

func categoryIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetCollation(caseInsensitive)},
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
}

func (m *MongoDB) CreateCategory(ctx context.Context, c *models.Category) error {
	_, err := m.Categories.InsertOne(ctx, &CategoryDocument{
		ID:          c.ID.String(),
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Color:       c.Color,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	})
	if err != nil {
		return duplicateError(err, utils.ErrDuplicate, "Category with this name or slug already exists")
	}
	return nil
}

func (m *MongoDB) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var doc CategoryDocument
	if err := m.Categories.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return nil, findOneError(err, "Category")
	}
	return documentToCategory(&doc)
}

func (m *MongoDB) findCategories(ctx context.Context, filter bson.M) ([]*models.Category, error) {
	cursor, err := m.Categories.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, utils.NewDatabaseError("failed to query categories", err)
	}
	defer cursor.Close(ctx)

	var docs []CategoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, utils.NewDatabaseError("failed to decode categories", err)
	}
	out := make([]*models.Category, 0, len(docs))
	for i := range docs {
		c, err := documentToCategory(&docs[i])
		if err != nil {
			return nil, utils.NewDatabaseError("corrupt category document", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *MongoDB) GetCategoriesByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Category, error) {
	if len(ids) == 0 {
		return []*models.Category{}, nil
	}
	return m.findCategories(ctx, idsIn(ids))
}

// ListCategories returns every category sorted by name.
func (m *MongoDB) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return m.findCategories(ctx, bson.M{})
}

func (m *MongoDB) UpdateCategory(ctx context.Context, id uuid.UUID, update models.CategoryUpdate) (*models.Category, error) {
	set := bson.M{"updatedAt": time.Now()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Slug != nil {
		set["slug"] = *update.Slug
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Color != nil {
		set["color"] = *update.Color
	}
	var doc CategoryDocument
	err := m.Categories.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set}, afterUpdate()).Decode(&doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateError(err, utils.ErrDuplicate, "Category with this name or slug already exists")
		}
		return nil, findOneError(err, "Category")
	}
	return documentToCategory(&doc)
}

// DeleteCategory removes the category and clears it from every post that referenced it.
func (m *MongoDB) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return m.withTransaction(ctx, func(ctx context.Context) error {
		res, err := m.Categories.DeleteOne(ctx, bson.M{"_id": id.String()})
		if err != nil {
			return utils.NewDatabaseError("failed to delete category", err)
		}
		if res.DeletedCount == 0 {
			return utils.NewNotFoundError("Category")
		}
		if _, err := m.Posts.UpdateMany(ctx,
			bson.M{"categoryId": id.String()},
			bson.M{"$set": bson.M{"categoryId": nil}},
		); err != nil {
			return utils.NewDatabaseError("failed to detach category from posts", err)
		}
		return nil
	})
}

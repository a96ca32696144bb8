package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsroom/internal/models"
	"newsroom/internal/utils"
)

type BannerDocument struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Subtitle  string    `bson:"subtitle"`
	Link      string    `bson:"link"`
	Image     string    `bson:"image"`
	Position  string    `bson:"position"`
	IsActive  bool      `bson:"isActive"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func documentToBanner(doc *BannerDocument) (*models.Banner, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid banner ID: %w", err)
	}
	return &models.Banner{
		ID:        id,
		Title:     doc.Title,
		Subtitle:  doc.Subtitle,
		Link:      doc.Link,
		Image:     doc.Image,
		Position:  models.BannerPosition(doc.Position),
		IsActive:  doc.IsActive,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (m *MongoDB) CreateBanner(ctx context.Context, b *models.Banner) error {
	_, err := m.Banners.InsertOne(ctx, &BannerDocument{
		ID:        b.ID.String(),
		Title:     b.Title,
		Subtitle:  b.Subtitle,
		Link:      b.Link,
		Image:     b.Image,
		Position:  string(b.Position),
		IsActive:  b.IsActive,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	})
	if err != nil {
		return utils.NewDatabaseError("failed to create banner", err)
	}
	return nil
}

func (m *MongoDB) GetBanner(ctx context.Context, id uuid.UUID) (*models.Banner, error) {
	var doc BannerDocument
	if err := m.Banners.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return nil, findOneError(err, "Banner")
	}
	return documentToBanner(&doc)
}

// ListBanners returns banners newest first, optionally only the active ones.
func (m *MongoDB) ListBanners(ctx context.Context, activeOnly bool) ([]*models.Banner, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	cursor, err := m.Banners.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, utils.NewDatabaseError("failed to query banners", err)
	}
	defer cursor.Close(ctx)

	var docs []BannerDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, utils.NewDatabaseError("failed to decode banners", err)
	}
	out := make([]*models.Banner, 0, len(docs))
	for i := range docs {
		b, err := documentToBanner(&docs[i])
		if err != nil {
			return nil, utils.NewDatabaseError("corrupt banner document", err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *MongoDB) UpdateBanner(ctx context.Context, id uuid.UUID, update models.BannerUpdate) (*models.Banner, error) {
	set := bson.M{"updatedAt": time.Now()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Subtitle != nil {
		set["subtitle"] = *update.Subtitle
	}
	if update.Link != nil {
		set["link"] = *update.Link
	}
	if update.Image != nil {
		set["image"] = *update.Image
	}
	if update.Position != nil {
		set["position"] = string(*update.Position)
	}
	if update.IsActive != nil {
		set["isActive"] = *update.IsActive
	}
	var doc BannerDocument
	if err := m.Banners.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set}, afterUpdate()).Decode(&doc); err != nil {
		return nil, findOneError(err, "Banner")
	}
	return documentToBanner(&doc)
}

func (m *MongoDB) DeleteBanner(ctx context.Context, id uuid.UUID) error {
	res, err := m.Banners.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return utils.NewDatabaseError("failed to delete banner", err)
	}
	if res.DeletedCount == 0 {
		return utils.NewNotFoundError("Banner")
	}
	return nil
}

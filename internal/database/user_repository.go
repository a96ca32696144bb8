// internal/database/user_repository.go
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

// toggleAttempts bounds the conditional-update loop used by every toggle.
const toggleAttempts = 3

// UserDocument represents the MongoDB schema for a user
type UserDocument struct {
	ID           string          `bson:"_id"`
	FullName     string          `bson:"fullName"`
	Username     string          `bson:"username"`
	Email        string          `bson:"email"`
	PasswordHash string          `bson:"passwordHash"`
	Bio          string          `bson:"bio"`
	Profession   string          `bson:"profession"`
	Experience   string          `bson:"experience"`
	Contact      ContactDocument `bson:"contact"`
	ProfileImage string          `bson:"profileImage"`
	Role         string          `bson:"role"`
	Following    []string        `bson:"following"`
	Followers    []string        `bson:"followers"`
	Bookmarks    []string        `bson:"bookmarks"`
	CreatedAt    time.Time       `bson:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt"`
}

type ContactDocument struct {
	Phone   string `bson:"phone"`
	Website string `bson:"website"`
	Address string `bson:"address"`
}

func userToDocument(u *models.User) *UserDocument {
	return &UserDocument{
		ID:           u.ID.String(),
		FullName:     u.FullName,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Bio:          u.Bio,
		Profession:   u.Profession,
		Experience:   u.Experience,
		Contact:      ContactDocument(u.Contact),
		ProfileImage: u.ProfileImage,
		Role:         string(u.Role),
		Following:    idStrings(u.Following),
		Followers:    idStrings(u.Followers),
		Bookmarks:    idStrings(u.Bookmarks),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func documentToUser(doc *UserDocument) (*models.User, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in database: %w", err)
	}
	following, err := parseIDs(doc.Following)
	if err != nil {
		return nil, err
	}
	followers, err := parseIDs(doc.Followers)
	if err != nil {
		return nil, err
	}
	bookmarks, err := parseIDs(doc.Bookmarks)
	if err != nil {
		return nil, err
	}
	return &models.User{
		ID:           id,
		FullName:     doc.FullName,
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Bio:          doc.Bio,
		Profession:   doc.Profession,
		Experience:   doc.Experience,
		Contact:      models.Contact(doc.Contact),
		ProfileImage: doc.ProfileImage,
		Role:         models.Role(doc.Role),
		Following:    following,
		Followers:    followers,
		Bookmarks:    bookmarks,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

// EnsureUserIndexes makes email and username unique regardless of case.
func (m *MongoDB) EnsureUserIndexes(ctx context.Context) error {
	_, err := m.Users.Indexes().CreateMany(ctx, userIndexes())
	return err
}

func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetCollation(caseInsensitive)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetCollation(caseInsensitive)},
	}
}

func (m *MongoDB) CreateUser(ctx context.Context, user *models.User) error {
	if _, err := m.Users.InsertOne(ctx, userToDocument(user)); err != nil {
		return duplicateError(err, utils.ErrUserAlreadyExists, "Email or username already registered")
	}
	return nil
}

func (m *MongoDB) findUser(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.User, error) {
	var doc UserDocument
	if err := m.Users.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		return nil, findOneError(err, "User")
	}
	return documentToUser(&doc)
}

// GetUser retrieves a user from MongoDB by their ID
func (m *MongoDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id.String()})
}

func (m *MongoDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"email": email}, options.FindOne().SetCollation(caseInsensitive))
}

func (m *MongoDB) findUsers(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*models.User, error) {
	cursor, err := m.Users.Find(ctx, filter, opts...)
	if err != nil {
		return nil, utils.NewDatabaseError("failed to query users", err)
	}
	defer cursor.Close(ctx)

	var docs []UserDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, utils.NewDatabaseError("failed to decode users", err)
	}
	users := make([]*models.User, 0, len(docs))
	for i := range docs {
		user, err := documentToUser(&docs[i])
		if err != nil {
			return nil, utils.NewDatabaseError("corrupt user document", err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (m *MongoDB) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	return m.findUsers(ctx, idsIn(ids))
}

// ListUsers returns all accounts, newest first.
func (m *MongoDB) ListUsers(ctx context.Context) ([]*models.User, error) {
	return m.findUsers(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (m *MongoDB) UpdateUserProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now()}
	if update.FullName != nil {
		set["fullName"] = *update.FullName
	}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.Profession != nil {
		set["profession"] = *update.Profession
	}
	if update.Experience != nil {
		set["experience"] = *update.Experience
	}
	if update.Contact != nil {
		set["contact"] = ContactDocument(*update.Contact)
	}
	if update.ProfileImage != nil {
		set["profileImage"] = *update.ProfileImage
	}
	return m.updateUser(ctx, id, bson.M{"$set": set})
}

func (m *MongoDB) UpdateUserRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	return m.updateUser(ctx, id, bson.M{"$set": bson.M{"role": string(role), "updatedAt": time.Now()}})
}

func (m *MongoDB) updateUser(ctx context.Context, id uuid.UUID, update bson.M) (*models.User, error) {
	var doc UserDocument
	err := m.Users.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, update, afterUpdate()).Decode(&doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateError(err, utils.ErrUserAlreadyExists, "Email or username already registered")
		}
		return nil, findOneError(err, "User")
	}
	return documentToUser(&doc)
}

// DeleteUser removes the account and pulls it out of every follow set.
func (m *MongoDB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return m.withTransaction(ctx, func(ctx context.Context) error {
		res, err := m.Users.DeleteOne(ctx, bson.M{"_id": id.String()})
		if err != nil {
			return utils.NewDatabaseError("failed to delete user", err)
		}
		if res.DeletedCount == 0 {
			return utils.NewNotFoundError("User")
		}
		_, err = m.Users.UpdateMany(ctx,
			bson.M{"$or": bson.A{bson.M{"following": id.String()}, bson.M{"followers": id.String()}}},
			bson.M{"$pull": bson.M{"following": id.String(), "followers": id.String()}},
		)
		if err != nil {
			return utils.NewDatabaseError("failed to detach user from follow graph", err)
		}
		return nil
	})
}

// ToggleFollow flips followerID's follow of targetID on both documents.
// It returns true when followerID follows targetID afterwards.
// The target is looked up inside the write so a concurrent delete cannot
// leave a dangling edge.
func (m *MongoDB) ToggleFollow(ctx context.Context, followerID, targetID uuid.UUID) (bool, error) {
	follower, target := followerID.String(), targetID.String()
	for attempt := 0; attempt < toggleAttempts; attempt++ {
		current, err := m.Users.CountDocuments(ctx, bson.M{"_id": follower, "following": target})
		if err != nil {
			return false, utils.NewDatabaseError("failed to read follow state", err)
		}
		follow := current == 0

		op, undo := "$addToSet", "$pull"
		guard := bson.M{"_id": follower, "following": bson.M{"$ne": target}}
		if !follow {
			op, undo = "$pull", "$addToSet"
			guard = bson.M{"_id": follower, "following": target}
		}

		raced := false
		err = m.withTransaction(ctx, func(ctx context.Context) error {
			raced = false
			if follow {
				n, err := m.Users.CountDocuments(ctx, bson.M{"_id": target})
				if err != nil {
					return err
				}
				if n == 0 {
					return utils.NewNotFoundError("User")
				}
			}
			res, err := m.Users.UpdateOne(ctx, guard, bson.M{op: bson.M{"following": target}})
			if err != nil {
				return err
			}
			if res.ModifiedCount == 0 {
				raced = true
				return nil
			}
			res, err = m.Users.UpdateOne(ctx, bson.M{"_id": target}, bson.M{op: bson.M{"followers": follower}})
			if err == nil && follow && res.MatchedCount == 0 {
				err = utils.NewNotFoundError("User")
			}
			if err != nil {
				if !m.transactions {
					// compensate the first write
					_, _ = m.Users.UpdateOne(ctx, bson.M{"_id": follower}, bson.M{undo: bson.M{"following": target}})
				}
				return err
			}
			return nil
		})
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			return false, err
		}
		if err != nil {
			return false, utils.NewDatabaseError("failed to toggle follow", err)
		}
		if !raced {
			return follow, nil
		}
	}
	return false, utils.NewAppError(utils.ErrMessageRejected, "follow state changed concurrently", nil)
}

// ToggleBookmark flips postID in the user's bookmarks and reports the new membership.
func (m *MongoDB) ToggleBookmark(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	user, post := userID.String(), postID.String()
	for attempt := 0; attempt < toggleAttempts; attempt++ {
		res, err := m.Users.UpdateOne(ctx,
			bson.M{"_id": user, "bookmarks": post},
			bson.M{"$pull": bson.M{"bookmarks": post}},
		)
		if err != nil {
			return false, utils.NewDatabaseError("failed to toggle bookmark", err)
		}
		if res.ModifiedCount == 1 {
			return false, nil
		}
		res, err = m.Users.UpdateOne(ctx,
			bson.M{"_id": user, "bookmarks": bson.M{"$ne": post}},
			bson.M{"$addToSet": bson.M{"bookmarks": post}},
		)
		if err != nil {
			return false, utils.NewDatabaseError("failed to toggle bookmark", err)
		}
		if res.ModifiedCount == 1 {
			return true, nil
		}
		if n, _ := m.Users.CountDocuments(ctx, bson.M{"_id": user}); n == 0 {
			return false, utils.NewNotFoundError("User")
		}
	}
	return false, utils.NewAppError(utils.ErrMessageRejected, "bookmark state changed concurrently", nil)
}

func (m *MongoDB) CountUsers(ctx context.Context) (int64, error) {
	n, err := m.Users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, utils.NewDatabaseError("failed to count users", err)
	}
	return n, nil
}

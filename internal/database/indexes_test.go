package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"newsroom/internal/models"
	"newsroom/internal/utils"
)

func indexOn(t *testing.T, indexes []mongo.IndexModel, field string) mongo.IndexModel {
	t.Helper()
	for _, idx := range indexes {
		keys, ok := idx.Keys.(bson.D)
		require.True(t, ok)
		if len(keys) == 1 && keys[0].Key == field {
			return idx
		}
	}
	t.Fatalf("no index on %s", field)
	return mongo.IndexModel{}
}

func TestUniqueIndexesIgnoreCase(t *testing.T) {
	cases := []struct {
		indexes []mongo.IndexModel
		field   string
	}{
		{userIndexes(), "email"},
		{userIndexes(), "username"},
		{categoryIndexes(), "name"},
	}
	for _, tc := range cases {
		idx := indexOn(t, tc.indexes, tc.field)
		require.NotNil(t, idx.Options.Unique, tc.field)
		assert.True(t, *idx.Options.Unique, tc.field)
		require.NotNil(t, idx.Options.Collation, tc.field)
		assert.Equal(t, 2, idx.Options.Collation.Strength, tc.field)
	}
}

func TestMemoryDB_UniquenessIgnoresCase(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()
	alice := newUser(t, db, "alice")

	got, err := db.GetUserByEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	err = db.CreateUser(ctx, &models.User{ID: uuid.New(), Username: "ALICE", Email: "someone@example.com"})
	assert.True(t, utils.IsErrorCode(err, utils.ErrUserAlreadyExists))

	require.NoError(t, db.CreateCategory(ctx, &models.Category{ID: uuid.New(), Name: "World", Slug: "world"}))
	err = db.CreateCategory(ctx, &models.Category{ID: uuid.New(), Name: "WORLD", Slug: "world-news"})
	assert.True(t, utils.IsErrorCode(err, utils.ErrDuplicate))
}

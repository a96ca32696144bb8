package viewtrack

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsroom/internal/database"
	"newsroom/internal/models"
)

func seedPost(t *testing.T, db *database.MemoryDB) uuid.UUID {
	t.Helper()
	post := &models.Post{ID: uuid.New(), AuthorID: uuid.New(), Title: "t", Content: "c", CreatedAt: time.Now()}
	require.NoError(t, db.CreatePost(context.Background(), post))
	return post.ID
}

func views(t *testing.T, db *database.MemoryDB, id uuid.UUID) int {
	t.Helper()
	p, err := db.GetPost(context.Background(), id)
	require.NoError(t, err)
	return p.Views
}

func TestStoreTracker_CountsEachAddressOnce(t *testing.T) {
	db := database.NewMemoryDB()
	postID := seedPost(t, db)
	tracker := NewStoreTracker(db)

	counted, err := tracker.CountView(context.Background(), postID, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, counted)

	counted, err = tracker.CountView(context.Background(), postID, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, counted)

	_, err = tracker.CountView(context.Background(), postID, "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, 2, views(t, db, postID))
}

func TestRedisTracker_CountsEachAddressOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	db := database.NewMemoryDB()
	postID := seedPost(t, db)
	tracker := NewRedisTracker(client, db, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := tracker.CountView(ctx, postID, "10.0.0.1")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, views(t, db, postID))

	key := tracker.viewSetKey(postID)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))

	// After the window expires the address counts again.
	mr.FastForward(2 * time.Hour)
	counted, err := tracker.CountView(ctx, postID, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, counted)
	assert.Equal(t, 2, views(t, db, postID))
}

func TestRedisTracker_FallsBackToStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	db := database.NewMemoryDB()
	postID := seedPost(t, db)
	tracker := NewRedisTracker(client, db, time.Hour)

	counted, err := tracker.CountView(context.Background(), postID, "10.0.0.9")
	require.NoError(t, err)
	assert.True(t, counted)

	counted, err = tracker.CountView(context.Background(), postID, "10.0.0.9")
	require.NoError(t, err)
	assert.False(t, counted)
	assert.Equal(t, 1, views(t, db, postID))
}

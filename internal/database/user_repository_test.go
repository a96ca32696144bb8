package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"newsroom/internal/utils"
)

func countReply(mt *mtest.T, n int32) bson.D {
	ns := mtest.TestDb + "." + mt.Coll.Name()
	if n == 0 {
		return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch)
	}
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: n}})
}

func updateReply(matched, modified int32) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: matched}, bson.E{Key: "nModified", Value: modified})
}

func commandNames(mt *mtest.T) []string {
	var out []string
	for _, e := range mt.GetAllStartedEvents() {
		out = append(out, e.CommandName)
	}
	return out
}

func TestMongoDB_ToggleFollowMissingTarget(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("target gone before the write", func(mt *mtest.T) {
		m := &MongoDB{Client: mt.Client, Users: mt.Coll}
		mt.AddMockResponses(
			countReply(mt, 0), // not following yet
			countReply(mt, 0), // target lookup inside the write
		)

		_, err := m.ToggleFollow(context.Background(), uuid.New(), uuid.New())
		assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound), "got %v", err)
		assert.Equal(t, []string{"aggregate", "aggregate"}, commandNames(mt))
	})

	mt.Run("target deleted between lookup and update", func(mt *mtest.T) {
		m := &MongoDB{Client: mt.Client, Users: mt.Coll}
		mt.AddMockResponses(
			countReply(mt, 0),
			countReply(mt, 1),
			updateReply(1, 1), // follower gains the edge
			updateReply(0, 0), // target document is gone
			updateReply(1, 1), // edge is removed again
		)

		_, err := m.ToggleFollow(context.Background(), uuid.New(), uuid.New())
		assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound), "got %v", err)
		assert.Equal(t, []string{"aggregate", "aggregate", "update", "update", "update"}, commandNames(mt))
	})
}

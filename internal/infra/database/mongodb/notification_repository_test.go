package mongodb

import (
	"context"
	"testing"
	"time"

	"schoolbridge/internal/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func notificationBSON(id primitive.ObjectID, recipients []string, readers ...string) bson.D {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	read := bson.A{}
	for _, p := range readers {
		read = append(read, bson.D{{Key: "parent", Value: p}, {Key: "readAt", Value: created.Add(time.Hour)}})
	}
	rs := bson.A{}
	for _, r := range recipients {
		rs = append(rs, r)
	}
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: "Announcement: Field trip"},
		{Key: "message", Value: "Bring lunch"},
		{Key: "type", Value: "announcement"},
		{Key: "classroom", Value: "cls1"},
		{Key: "recipients", Value: rs},
		{Key: "read", Value: read},
		{Key: "createdAt", Value: created},
	}
}

func notificationsNS(mt *mtest.T) string {
	return mt.DB.Name() + "." + notificationsCollection
}

func TestNotificationRepository_MarkRead(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("pushes receipt only when absent", func(mt *mtest.T) {
		repo := NewNotificationRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateCursorResponse(0, notificationsNS(mt), mtest.FirstBatch, notificationBSON(id, []string{"p1", "p2"}, "p1")),
		)

		n, err := repo.MarkRead(context.Background(), id.Hex(), "p1")
		require.NoError(mt, err)
		assert.True(mt, n.IsReadBy("p1"))
		assert.False(mt, n.IsReadBy("p2"))

		update := mt.GetStartedEvent()
		require.NotNil(mt, update)
		assert.Equal(mt, "update", update.CommandName)
		q := update.Command.Lookup("updates", "0", "q")
		assert.Equal(mt, id, q.Document().Lookup("_id").ObjectID())
		assert.Equal(mt, "p1", q.Document().Lookup("recipients").StringValue())
		assert.Equal(mt, "p1", q.Document().Lookup("read.parent", "$ne").StringValue())
		assert.Equal(mt, "p1", update.Command.Lookup("updates", "0", "u", "$push", "read", "parent").StringValue())

		find := mt.GetStartedEvent()
		require.NotNil(mt, find)
		assert.Equal(mt, "find", find.CommandName)
		assert.Equal(mt, "p1", find.Command.Lookup("filter", "recipients").StringValue())
	})

	mt.Run("already read leaves record unchanged", func(mt *mtest.T) {
		repo := NewNotificationRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, notificationsNS(mt), mtest.FirstBatch, notificationBSON(id, []string{"p1"}, "p1")),
		)

		n, err := repo.MarkRead(context.Background(), id.Hex(), "p1")
		require.NoError(mt, err)
		assert.Len(mt, n.Read, 1)
	})

	mt.Run("non-recipient is not found", func(mt *mtest.T) {
		repo := NewNotificationRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, notificationsNS(mt), mtest.FirstBatch),
		)

		_, err := repo.MarkRead(context.Background(), primitive.NewObjectID().Hex(), "stranger")
		assert.ErrorIs(mt, err, notification.ErrNotificationNotFound)
	})

	mt.Run("malformed id never reaches the server", func(mt *mtest.T) {
		repo := NewNotificationRepository(mt.DB)

		_, err := repo.MarkRead(context.Background(), "not-an-id", "p1")
		assert.ErrorIs(mt, err, notification.ErrNotificationNotFound)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestNotificationRepository_ListForParent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("filters by recipient newest first", func(mt *mtest.T) {
		repo := NewNotificationRepository(mt.DB)
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, notificationsNS(mt), mtest.FirstBatch,
			notificationBSON(second, []string{"p1"}, "p1"),
			notificationBSON(first, []string{"p1", "p2"}),
		))

		views, err := repo.ListForParent(context.Background(), "p1", 20, 5)
		require.NoError(mt, err)
		require.Len(mt, views, 2)
		assert.Equal(mt, second.Hex(), views[0].ID)
		assert.True(mt, views[0].IsRead)
		assert.False(mt, views[1].IsRead)

		find := mt.GetStartedEvent()
		require.NotNil(mt, find)
		assert.Equal(mt, "p1", find.Command.Lookup("filter", "recipients").StringValue())
		assert.EqualValues(mt, -1, find.Command.Lookup("sort", "createdAt").AsInt64())
		assert.EqualValues(mt, -1, find.Command.Lookup("sort", "_id").AsInt64())
		assert.EqualValues(mt, 5, find.Command.Lookup("skip").AsInt64())
		assert.EqualValues(mt, 20, find.Command.Lookup("limit").AsInt64())
	})
}

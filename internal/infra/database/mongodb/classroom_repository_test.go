package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestClassroomRepository_ListAssignmentsDueBetween(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("unwinds assignments inside the window", func(mt *mtest.T) {
		repo := NewClassroomRepository(mt.DB)
		from := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
		to := from.Add(24 * time.Hour)
		classID, assignmentID := primitive.NewObjectID(), primitive.NewObjectID()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+classroomsCollection, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: classID},
				{Key: "name", Value: "Grade 5B"},
				{Key: "assignments", Value: bson.D{
					{Key: "_id", Value: assignmentID},
					{Key: "title", Value: "Essay"},
					{Key: "dueDate", Value: from.Add(3 * time.Hour)},
				}},
			},
		))

		due, err := repo.ListAssignmentsDueBetween(context.Background(), from, to)
		require.NoError(mt, err)
		require.Len(mt, due, 1)
		assert.Equal(mt, classID.Hex(), due[0].ClassroomID)
		assert.Equal(mt, "Grade 5B", due[0].ClassroomName)
		assert.Equal(mt, assignmentID.Hex(), due[0].Assignment.ID)
		assert.Equal(mt, "Essay", due[0].Assignment.Title)
		assert.True(mt, due[0].Assignment.DueDate.Equal(from.Add(3*time.Hour)))

		agg := mt.GetStartedEvent()
		require.NotNil(mt, agg)
		assert.Equal(mt, "aggregate", agg.CommandName)
		assert.True(mt, agg.Command.Lookup("pipeline", "0", "$match", "assignments.dueDate", "$gte").Time().Equal(from))
		assert.True(mt, agg.Command.Lookup("pipeline", "0", "$match", "assignments.dueDate", "$lte").Time().Equal(to))
		assert.Equal(mt, "$assignments", agg.Command.Lookup("pipeline", "1", "$unwind").StringValue())
		assert.True(mt, agg.Command.Lookup("pipeline", "2", "$match", "assignments.dueDate", "$lte").Time().Equal(to))
	})

	mt.Run("server error is wrapped", func(mt *mtest.T) {
		repo := NewClassroomRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad pipeline", Name: "BadValue"}))

		_, err := repo.ListAssignmentsDueBetween(context.Background(), time.Now(), time.Now().Add(time.Hour))
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "error aggregating due assignments")
	})
}

package database

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"schoolbridge/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepository connects to TEST_DATABASE_URL, skipping the test when it
// is unset.
func newTestRepository(t *testing.T) *PostgresNotificationRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := NewPostgresConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, EnsureSchema(ctx, db))
	return NewPostgresNotificationRepository(db)
}

func TestPostgresNotificationRepository_MarkReadMalformedID(t *testing.T) {
	repo := NewPostgresNotificationRepository(nil)

	_, err := repo.MarkRead(context.Background(), "not-a-uuid", "p1")
	assert.ErrorIs(t, err, notification.ErrNotificationNotFound)
}

func TestPostgresNotificationRepository_MarkRead(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	reader, other := "p-"+uuid.NewString(), "p-"+uuid.NewString()

	n := &notification.Notification{
		Title:       "Announcement: Field trip",
		Message:     "Bring lunch",
		Type:        notification.TypeAnnouncement,
		ClassroomID: "cls1",
		Recipients:  []string{reader, other},
	}
	require.NoError(t, repo.Create(ctx, n))
	require.NotEmpty(t, n.ID)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.MarkRead(ctx, n.ID, reader)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.MarkRead(ctx, n.ID, reader)
	require.NoError(t, err)
	assert.Len(t, got.Read, 1)
	assert.True(t, got.IsReadBy(reader))
	assert.False(t, got.IsReadBy(other))

	_, err = repo.MarkRead(ctx, n.ID, "p-"+uuid.NewString())
	assert.ErrorIs(t, err, notification.ErrNotificationNotFound)
	_, err = repo.MarkRead(ctx, uuid.NewString(), reader)
	assert.ErrorIs(t, err, notification.ErrNotificationNotFound)
}

func TestPostgresNotificationRepository_ListForParent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	parentID := "p-" + uuid.NewString()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	ids := make([]string, 3)
	for i := range ids {
		n := &notification.Notification{
			Title:       "n",
			Message:     "m",
			Type:        notification.TypeAssignment,
			ClassroomID: "cls1",
			Recipients:  []string{parentID},
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.Create(ctx, n))
		ids[i] = n.ID
	}
	_, err := repo.MarkRead(ctx, ids[1], parentID)
	require.NoError(t, err)

	views, err := repo.ListForParent(ctx, parentID, 2, 0)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, ids[2], views[0].ID)
	assert.False(t, views[0].IsRead)
	assert.Equal(t, ids[1], views[1].ID)
	assert.True(t, views[1].IsRead)

	views, err = repo.ListForParent(ctx, parentID, 2, 2)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, ids[0], views[0].ID)

	views, err = repo.ListForParent(ctx, "p-"+uuid.NewString(), 20, 0)
	require.NoError(t, err)
	assert.Empty(t, views)
}

package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"eventhub/internal/model"
	"eventhub/internal/monitoring"
	"eventhub/internal/service"
	"eventhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookmarkService_Toggle(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemoryRepository()
	svc := service.NewBookmarkService(repo, monitoring.Noop())

	user := testutil.CreateUser(t, repo, model.RoleStudent)
	event := testutil.CreateEvent(t, repo, "Go Meetup", time.Now().Add(time.Hour))

	result, err := svc.Toggle(ctx, user.ID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookmarkAdded, result.Action)
	assert.Equal(t, []string{event.ID}, result.Bookmarks)

	events, err := svc.Bookmarks(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.ID, events[0].ID)

	result, err = svc.Toggle(ctx, user.ID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookmarkRemoved, result.Action)
	assert.Empty(t, result.Bookmarks)
}

func TestBookmarkService_ToggleParity(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemoryRepository()
	svc := service.NewBookmarkService(repo, monitoring.Noop())

	user := testutil.CreateUser(t, repo, model.RoleStudent)
	event := testutil.CreateEvent(t, repo, "Go Meetup", time.Now().Add(time.Hour))

	for _, toggles := range []int{2, 3} {
		var wg sync.WaitGroup
		for range toggles {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Toggle(ctx, user.ID, event.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
	}

	// five toggles in total leave the bookmark set exactly once
	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{event.ID}, stored.Bookmarks)
}

func TestBookmarkService_Errors(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemoryRepository()
	svc := service.NewBookmarkService(repo, monitoring.Noop())

	user := testutil.CreateUser(t, repo, model.RoleStudent)
	event := testutil.CreateEvent(t, repo, "Go Meetup", time.Now().Add(time.Hour))

	_, err := svc.Toggle(ctx, "missing", event.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, "User not found", model.Message(err))

	_, err = svc.Toggle(ctx, user.ID, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, "Event not found", model.Message(err))
}

func TestBookmarkService_DeletedEventDropsBookmark(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemoryRepository()
	svc := service.NewBookmarkService(repo, monitoring.Noop())

	user := testutil.CreateUser(t, repo, model.RoleStudent)
	event := testutil.CreateEvent(t, repo, "Go Meetup", time.Now().Add(time.Hour))

	_, err := svc.Toggle(ctx, user.ID, event.ID)
	require.NoError(t, err)
	require.NoError(t, repo.DeleteEvent(ctx, event.ID))

	events, err := svc.Bookmarks(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

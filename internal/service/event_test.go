package service_test

import (
	"context"
	"testing"
	"time"

	"eventhub/internal/model"
	"eventhub/internal/service"
	"eventhub/internal/testutil"
	"eventhub/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEventRequest(startsAt time.Time) service.EventRequest {
	return service.EventRequest{
		Title:        "Campus Hackathon",
		Description:  "24 hours of building",
		Category:     "hackathon",
		StartsAt:     startsAt,
		Venue:        "Innovation Lab",
		LocationText: "Pune, India",
		Latitude:     18.52,
		Longitude:    73.85,
		BannerURL:    "https://example.com/banner.png",
	}
}

func TestEventService_Create(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemoryRepository()
	svc := service.NewEventService(repo, validator.New())

	start := time.Date(2030, 3, 1, 9, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	event, err := svc.Create(ctx, "admin-1", validEventRequest(start))
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, model.CategoryHackathon, event.Category)
	assert.Equal(t, time.UTC, event.StartsAt.Location())
	assert.True(t, start.Equal(event.StartsAt))
	assert.Equal(t, model.SourceLocal, event.Source)
	assert.False(t, event.IsExternal)
	assert.Equal(t, "admin-1", event.CreatedBy)
}

func TestEventService_CreateValidation(t *testing.T) {
	svc := service.NewEventService(testutil.NewMemoryRepository(), validator.New())
	start := time.Now().Add(time.Hour)

	missingTitle := validEventRequest(start)
	missingTitle.Title = " "
	_, err := svc.Create(context.Background(), "admin-1", missingTitle)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, "title is required", model.Message(err))

	badCategory := validEventRequest(start)
	badCategory.Category = "Party"
	_, err = svc.Create(context.Background(), "admin-1", badCategory)
	assert.ErrorIs(t, err, model.ErrValidation)

	endsBefore := validEventRequest(start)
	end := start.Add(-time.Hour)
	endsBefore.EndsAt = &end
	_, err = svc.Create(context.Background(), "admin-1", endsBefore)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestEventService_Update(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemoryRepository()
	svc := service.NewEventService(repo, validator.New())

	start := time.Now().Add(24 * time.Hour).UTC()
	event, err := svc.Create(ctx, "admin-1", validEventRequest(start))
	require.NoError(t, err)

	title := "Renamed"
	category := "Technical"
	updated, err := svc.Update(ctx, event.ID, service.EventUpdateRequest{Title: &title, Category: &category})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, model.CategoryTechnical, updated.Category)
	assert.Equal(t, event.Venue, updated.Venue)

	end := start.Add(-time.Minute)
	_, err = svc.Update(ctx, event.ID, service.EventUpdateRequest{EndsAt: &end})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.Update(ctx, "missing", service.EventUpdateRequest{Title: &title})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestEventService_List(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemoryRepository()
	svc := service.NewEventService(repo, validator.New())

	now := time.Now().UTC()
	past := testutil.CreateEvent(t, repo, "Past Jazz", now.Add(-48*time.Hour))
	soon := testutil.CreateEvent(t, repo, "Soon Jazz", now.Add(time.Hour))
	later := testutil.CreateEvent(t, repo, "Later Talk", now.Add(48*time.Hour))

	page, err := svc.List(ctx, model.EventFilter{})
	require.NoError(t, err)
	require.Len(t, page.Events, 3)
	assert.Equal(t, []string{past.ID, soon.ID, later.ID}, []string{page.Events[0].ID, page.Events[1].ID, page.Events[2].ID})
	assert.Equal(t, model.Pagination{Page: 1, Limit: model.DefaultPageLimit, Total: 3, Pages: 1}, page.Pagination)

	page, err = svc.List(ctx, model.EventFilter{Upcoming: true})
	require.NoError(t, err)
	assert.Len(t, page.Events, 2)

	page, err = svc.List(ctx, model.EventFilter{Search: "JAZZ"})
	require.NoError(t, err)
	assert.Len(t, page.Events, 2)

	page, err = svc.List(ctx, model.EventFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	assert.Equal(t, later.ID, page.Events[0].ID)
	assert.Equal(t, 2, page.Pagination.Pages)

	page, err = svc.List(ctx, model.EventFilter{Category: model.CategorySports})
	require.NoError(t, err)
	assert.Empty(t, page.Events)
	assert.Zero(t, page.Pagination.Total)
}

func TestEventService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemoryRepository()
	svc := service.NewEventService(repo, validator.New())

	event := testutil.CreateEvent(t, repo, "Go Meetup", time.Now())
	require.NoError(t, svc.Delete(ctx, event.ID))

	_, err := svc.Get(ctx, event.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, event.ID), model.ErrNotFound)
}

package model

import (
	"testing"
	"time"

	"eventhub/internal/util"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory(" hackathon ")
	assert.True(t, ok)
	assert.Equal(t, CategoryHackathon, c)

	c, ok = ParseCategory("SPORTS")
	assert.True(t, ok)
	assert.Equal(t, CategorySports, c)

	_, ok = ParseCategory("Party")
	assert.False(t, ok)
}

func TestEventFilter_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		in    EventFilter
		page  int
		limit int
	}{
		{"defaults", EventFilter{}, 1, DefaultPageLimit},
		{"negative page", EventFilter{Page: -3, Limit: 5}, 1, 5},
		{"limit capped", EventFilter{Page: 2, Limit: 1000}, 2, MaxPageLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.in.Normalize()
			assert.Equal(t, tt.page, f.Page)
			assert.Equal(t, tt.limit, f.Limit)
		})
	}

	f := EventFilter{Page: 3, Limit: 10, Search: "  jazz "}.Normalize()
	assert.Equal(t, 20, f.Offset())
	assert.Equal(t, "jazz", f.Search)
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, Limit: 12, Total: 0, Pages: 0}, NewPagination(1, 12, 0))
	assert.Equal(t, 1, NewPagination(1, 12, 12).Pages)
	assert.Equal(t, 2, NewPagination(1, 12, 13).Pages)
	assert.Equal(t, 0, NewPagination(1, 0, 13).Pages)
}

func TestEventUpdate_Apply(t *testing.T) {
	start := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	e := Event{Title: "Old", Venue: "Hall A", StartsAt: start, Latitude: 1}

	end := start.Add(2 * time.Hour)
	EventUpdate{
		Title:  util.Some("New"),
		EndsAt: util.Some(&end),
	}.Apply(&e)

	assert.Equal(t, "New", e.Title)
	assert.Equal(t, "Hall A", e.Venue)
	assert.Equal(t, start, e.StartsAt)
	assert.Equal(t, 1.0, e.Latitude)
	if assert.NotNil(t, e.EndsAt) {
		assert.Equal(t, end, *e.EndsAt)
	}
}

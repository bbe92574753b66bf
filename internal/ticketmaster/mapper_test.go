package ticketmaster

import (
	"testing"
	"time"

	"eventhub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classification(segment, genre string) []Classification {
	var c Classification
	c.Segment.Name = segment
	c.Genre.Name = genre
	return []Classification{c}
}

func TestMapCategory(t *testing.T) {
	tests := []struct {
		name     string
		input    []Classification
		expected model.Category
	}{
		{"sports segment", classification("Sports", "Football"), model.CategorySports},
		{"music segment", classification("Music", "Rock"), model.CategoryCultural},
		{"arts and theatre", classification("Arts & Theatre", "Theatre"), model.CategoryCultural},
		{"film segment", classification("Film", ""), model.CategoryCultural},
		{"genre fallback", classification("Miscellaneous", "Science Fair"), model.CategoryTechnical},
		{"conference genre", classification("Miscellaneous", "Conference"), model.CategorySeminar},
		{"online genre", classification("Undefined", "Online Event"), model.CategoryWebinar},
		{"hackathon genre", classification("", "Hackathon"), model.CategoryHackathon},
		{"unknown", classification("Miscellaneous", "Undefined"), model.CategoryOther},
		{"no classifications", nil, model.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapCategory(tt.input))
		})
	}
}

func TestBannerURL(t *testing.T) {
	assert.Equal(t, "", BannerURL(nil))
	assert.Equal(t, "small", BannerURL([]Image{{URL: "small", Width: 300}, {URL: "medium", Width: 640}}))
	assert.Equal(t, "wide", BannerURL([]Image{{URL: "small", Width: 300}, {URL: "wide", Width: 2048}}))
	assert.Equal(t, "first-wide", BannerURL([]Image{{URL: "first-wide", Width: 1024}, {URL: "second-wide", Width: 2048}}))
}

func sampleEvent() Event {
	var e Event
	e.ID = "tm-1"
	e.Name = "City Marathon"
	e.URL = "https://ticketmaster.com/tm-1"
	e.Info = "Run through the city"
	e.Dates.Start.DateTime = "2030-05-01T09:30:00Z"
	e.Dates.Start.LocalDate = "2030-05-01"
	e.Classifications = classification("Sports", "Running")
	e.Images = []Image{{URL: "https://img/large.jpg", Width: 2048}}

	var v Venue
	v.Name = "Stadium"
	v.City.Name = "Mumbai"
	v.Country.Name = "India"
	v.Location.Latitude = "19.07"
	v.Location.Longitude = "72.87"
	e.Embedded.Venues = []Venue{v}
	return e
}

func TestToEvent(t *testing.T) {
	event, err := ToEvent(sampleEvent())
	require.NoError(t, err)

	assert.Equal(t, "City Marathon", event.Title)
	assert.Equal(t, "Run through the city", event.Description)
	assert.Equal(t, model.CategorySports, event.Category)
	assert.Equal(t, time.Date(2030, 5, 1, 9, 30, 0, 0, time.UTC), event.StartsAt)
	assert.Equal(t, "2030-05-01T09:30:00Z", event.ExternalDate)
	assert.Equal(t, "Stadium", event.Venue)
	assert.Equal(t, "Mumbai, India", event.LocationText)
	assert.InDelta(t, 19.07, event.Latitude, 1e-9)
	assert.InDelta(t, 72.87, event.Longitude, 1e-9)
	assert.Equal(t, "https://img/large.jpg", event.BannerURL)
	assert.True(t, event.IsExternal)
	assert.Equal(t, model.SourceTicketmaster, event.Source)
	assert.Equal(t, "tm-1", event.ExternalID)
	assert.Equal(t, "https://ticketmaster.com/tm-1", event.ExternalURL)
}

func TestToEvent_LocalDateFallback(t *testing.T) {
	e := sampleEvent()
	e.Dates.Start.DateTime = ""
	e.Dates.Start.LocalDate = "2030-06-15"
	e.Dates.Start.LocalTime = "19:00:00"

	event, err := ToEvent(e)
	require.NoError(t, err)
	assert.Equal(t, "2030-06-15", event.ExternalDate)
	assert.Equal(t, time.Date(2030, 6, 15, 19, 0, 0, 0, time.UTC), event.StartsAt)
}

func TestToEvent_Defaults(t *testing.T) {
	e := sampleEvent()
	e.Info = ""
	e.PleaseNote = ""
	e.Embedded.Venues = nil
	e.Images = nil

	event, err := ToEvent(e)
	require.NoError(t, err)
	assert.Equal(t, "City Marathon", event.Description)
	assert.Equal(t, "Unknown Venue", event.Venue)
	assert.Equal(t, "Unknown City", event.LocationText)
	assert.Zero(t, event.Latitude)
	assert.Zero(t, event.Longitude)
	assert.Empty(t, event.BannerURL)
}

func TestToEvent_UnparseableCoordinates(t *testing.T) {
	e := sampleEvent()
	e.Embedded.Venues[0].Location.Latitude = "north"
	e.Embedded.Venues[0].Location.Longitude = ""
	e.Embedded.Venues[0].Country.Name = ""

	event, err := ToEvent(e)
	require.NoError(t, err)
	assert.Zero(t, event.Latitude)
	assert.Zero(t, event.Longitude)
	assert.Equal(t, "Mumbai", event.LocationText)
}

func TestToEvent_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Event)
		err    error
	}{
		{"missing id", func(e *Event) { e.ID = "" }, ErrMissingID},
		{"missing name", func(e *Event) { e.Name = "  " }, ErrMissingName},
		{"missing date", func(e *Event) {
			e.Dates.Start.DateTime = ""
			e.Dates.Start.LocalDate = ""
		}, ErrMissingDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := sampleEvent()
			tt.mutate(&e)
			_, err := ToEvent(e)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	e := sampleEvent()
	e.Dates.Start.DateTime = "not-a-date"
	_, err := ToEvent(e)
	assert.Error(t, err)
}

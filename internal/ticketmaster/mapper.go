package ticketmaster

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"eventhub/internal/model"
)

const (
	unknownVenue = "Unknown Venue"
	unknownCity  = "Unknown City"

	wideImageWidth = 1000
)

var (
	ErrMissingID   = errors.New("missing id")
	ErrMissingName = errors.New("missing name")
	ErrMissingDate = errors.New("missing start date")
)

// categoryRules are tried in order against the segment name, then the genre name.
var categoryRules = []struct {
	keywords []string
	category model.Category
}{
	{[]string{"sport"}, model.CategorySports},
	{[]string{"music", "arts", "theatre", "theater", "film", "comedy", "family"}, model.CategoryCultural},
	{[]string{"hackathon"}, model.CategoryHackathon},
	{[]string{"tech", "science", "education"}, model.CategoryTechnical},
	{[]string{"seminar", "lecture", "conference"}, model.CategorySeminar},
	{[]string{"webinar", "online"}, model.CategoryWebinar},
}

// ToEvent maps a Discovery API event onto an external model.Event. Items
// without an id, a name or a parseable start date are rejected.
func ToEvent(e Event) (model.Event, error) {
	if strings.TrimSpace(e.ID) == "" {
		return model.Event{}, ErrMissingID
	}
	if strings.TrimSpace(e.Name) == "" {
		return model.Event{}, ErrMissingName
	}

	externalDate, startsAt, err := startDate(e.Dates)
	if err != nil {
		return model.Event{}, err
	}

	venue, locationText, lat, lng := location(e.Embedded.Venues)

	return model.Event{
		Title:        strings.TrimSpace(e.Name),
		Description:  description(e),
		Category:     MapCategory(e.Classifications),
		StartsAt:     startsAt,
		Venue:        venue,
		LocationText: locationText,
		Latitude:     lat,
		Longitude:    lng,
		BannerURL:    BannerURL(e.Images),
		IsExternal:   true,
		ExternalURL:  e.URL,
		Source:       model.SourceTicketmaster,
		ExternalID:   e.ID,
		ExternalDate: externalDate,
	}, nil
}

// MapCategory picks a category from the first classification by keyword
// match over the lowercased segment name, then the genre name.
func MapCategory(classifications []Classification) model.Category {
	if len(classifications) == 0 {
		return model.CategoryOther
	}

	c := classifications[0]
	for _, name := range []string{c.Segment.Name, c.Genre.Name} {
		name = strings.ToLower(name)
		if name == "" {
			continue
		}
		for _, rule := range categoryRules {
			for _, kw := range rule.keywords {
				if strings.Contains(name, kw) {
					return rule.category
				}
			}
		}
	}
	return model.CategoryOther
}

// BannerURL prefers the first image wider than 1000px, then the first image.
func BannerURL(images []Image) string {
	for _, img := range images {
		if img.Width > wideImageWidth {
			return img.URL
		}
	}
	if len(images) > 0 {
		return images[0].URL
	}
	return ""
}

func location(venues []Venue) (venue, locationText string, lat, lng float64) {
	if len(venues) == 0 {
		return unknownVenue, unknownCity, 0, 0
	}

	v := venues[0]
	venue = strings.TrimSpace(v.Name)
	if venue == "" {
		venue = unknownVenue
	}
	city := strings.TrimSpace(v.City.Name)
	if city == "" {
		city = unknownCity
	}
	locationText = city
	if country := strings.TrimSpace(v.Country.Name); country != "" {
		locationText = city + ", " + country
	}

	return venue, locationText, parseCoord(v.Location.Latitude), parseCoord(v.Location.Longitude)
}

func parseCoord(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// startDate returns the provider date string as given plus its parsed UTC
// instant. dateTime wins over localDate.
func startDate(d Dates) (string, time.Time, error) {
	if dt := strings.TrimSpace(d.Start.DateTime); dt != "" {
		t, err := time.Parse(time.RFC3339, dt)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("invalid start dateTime %q: %w", dt, err)
		}
		return dt, t.UTC(), nil
	}

	ld := strings.TrimSpace(d.Start.LocalDate)
	if ld == "" {
		return "", time.Time{}, ErrMissingDate
	}
	t, err := time.Parse(time.DateOnly, ld)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid start localDate %q: %w", ld, err)
	}
	if lt := strings.TrimSpace(d.Start.LocalTime); lt != "" {
		if clock, err := time.Parse(time.TimeOnly, lt); err == nil {
			t = t.Add(time.Duration(clock.Hour())*time.Hour +
				time.Duration(clock.Minute())*time.Minute +
				time.Duration(clock.Second())*time.Second)
		}
	}
	return ld, t, nil
}

func description(e Event) string {
	if info := strings.TrimSpace(e.Info); info != "" {
		return info
	}
	if note := strings.TrimSpace(e.PleaseNote); note != "" {
		return note
	}
	return e.Name
}

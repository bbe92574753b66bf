package model

import (
	"strings"
	"time"

	"eventhub/internal/util"
)

type Category string

const (
	CategoryHackathon Category = "Hackathon"
	CategoryTechnical Category = "Technical"
	CategoryCultural  Category = "Cultural"
	CategorySports    Category = "Sports"
	CategoryWebinar   Category = "Webinar"
	CategorySeminar   Category = "Seminar"
	CategoryOther     Category = "Other"
)

var Categories = []Category{
	CategoryHackathon,
	CategoryTechnical,
	CategoryCultural,
	CategorySports,
	CategoryWebinar,
	CategorySeminar,
	CategoryOther,
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

const (
	SourceLocal        = "NextEvent"
	SourceTicketmaster = "Ticketmaster"
)

type Event struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     Category   `json:"category"`
	StartsAt     time.Time  `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	Venue        string     `json:"venue"`
	LocationText string     `json:"location_text"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	BannerURL    string     `json:"banner_url"`
	Rules        string     `json:"rules"`
	Requirements string     `json:"requirements"`
	IsExternal   bool       `json:"is_external"`
	ExternalURL  string     `json:"external_url,omitempty"`
	Source       string     `json:"source"`
	ExternalID   string     `json:"external_id,omitempty"`
	ExternalDate string     `json:"external_date,omitempty"`
	CreatedBy    string     `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// EventUpdate is a partial update; only set fields are written.
type EventUpdate struct {
	Title        util.Optional[string]
	Description  util.Optional[string]
	Category     util.Optional[Category]
	StartsAt     util.Optional[time.Time]
	EndsAt       util.Optional[*time.Time]
	Venue        util.Optional[string]
	LocationText util.Optional[string]
	Latitude     util.Optional[float64]
	Longitude    util.Optional[float64]
	BannerURL    util.Optional[string]
	Rules        util.Optional[string]
	Requirements util.Optional[string]
	ExternalURL  util.Optional[string]
}

// Apply writes the set fields of u onto e.
func (u EventUpdate) Apply(e *Event) {
	u.Title.ApplyTo(&e.Title)
	u.Description.ApplyTo(&e.Description)
	u.Category.ApplyTo(&e.Category)
	u.StartsAt.ApplyTo(&e.StartsAt)
	u.EndsAt.ApplyTo(&e.EndsAt)
	u.Venue.ApplyTo(&e.Venue)
	u.LocationText.ApplyTo(&e.LocationText)
	u.Latitude.ApplyTo(&e.Latitude)
	u.Longitude.ApplyTo(&e.Longitude)
	u.BannerURL.ApplyTo(&e.BannerURL)
	u.Rules.ApplyTo(&e.Rules)
	u.Requirements.ApplyTo(&e.Requirements)
	u.ExternalURL.ApplyTo(&e.ExternalURL)
}

const (
	DefaultPageLimit = 12
	MaxPageLimit     = 100
)

type EventFilter struct {
	Category Category
	Search   string
	Upcoming bool
	Page     int
	Limit    int
}

// Normalize clamps paging to sane bounds.
func (f EventFilter) Normalize() EventFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

func (f EventFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

type EventPage struct {
	Events     []Event    `json:"events"`
	Pagination Pagination `json:"pagination"`
}

package model

import "time"

type RegistrationStatus string

const (
	RegistrationActive    RegistrationStatus = "registered"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

type Registration struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	EventID      string             `json:"event_id"`
	Status       RegistrationStatus `json:"status"`
	RegisteredAt time.Time          `json:"registered_at"`
	CancelledAt  *time.Time         `json:"cancelled_at,omitempty"`
}

func (r Registration) IsActive() bool {
	return r.Status == RegistrationActive
}

// RegistrationDetail is a registration joined with its user and event.
// Either side is nil when the referenced record no longer exists.
type RegistrationDetail struct {
	Registration
	User  *UserContact `json:"user"`
	Event *EventBrief  `json:"event"`
}

type UserContact struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	StudentID  string `json:"student_id"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
}

type EventBrief struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Category     Category  `json:"category"`
	StartsAt     time.Time `json:"starts_at"`
	Venue        string    `json:"venue"`
	LocationText string    `json:"location_text"`
	BannerURL    string    `json:"banner_url"`
	IsExternal   bool      `json:"is_external"`
}

func ContactOf(u User) *UserContact {
	return &UserContact{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		StudentID:  u.StudentID,
		Department: u.Department,
		Phone:      u.Phone,
	}
}

func BriefOf(e Event) *EventBrief {
	return &EventBrief{
		ID:           e.ID,
		Title:        e.Title,
		Category:     e.Category,
		StartsAt:     e.StartsAt,
		Venue:        e.Venue,
		LocationText: e.LocationText,
		BannerURL:    e.BannerURL,
		IsExternal:   e.IsExternal,
	}
}

package model

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

func (r *Role) Scan(value any) error {
	switch v := value.(type) {
	case string:
		*r = Role(v)
		return nil
	case []byte:
		*r = Role(v)
		return nil
	}
	return fmt.Errorf("cannot scan %T into Role", value)
}

type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	StudentID    string    `json:"student_id"`
	Department   string    `json:"department"`
	Phone        string    `json:"phone"`
	Role         Role      `json:"role"`
	GitHubID     string    `json:"-"`
	Bookmarks    []string  `json:"bookmarks"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasBookmark reports whether eventID is in the user's bookmark set.
func (u User) HasBookmark(eventID string) bool {
	for _, id := range u.Bookmarks {
		if id == eventID {
			return true
		}
	}
	return false
}

// ProfileUpdate holds the self-editable profile fields. Empty fields are left unchanged.
type ProfileUpdate struct {
	FullName   string
	StudentID  string
	Department string
	Phone      string
}

type BookmarkAction string

const (
	BookmarkAdded   BookmarkAction = "added"
	BookmarkRemoved BookmarkAction = "removed"
)

type BookmarkResult struct {
	Action    BookmarkAction `json:"action"`
	Bookmarks []string       `json:"bookmarks"`
}

type AdminStats struct {
	TotalEvents        int64 `json:"total_events"`
	ExternalEvents     int64 `json:"external_events"`
	TotalUsers         int64 `json:"total_users"`
	TotalRegistrations int64 `json:"total_registrations"`
	TotalReviews       int64 `json:"total_reviews"`
	TodayRegistrations int64 `json:"today_registrations"`
}

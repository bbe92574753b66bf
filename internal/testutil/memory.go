package testutil

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"eventhub/internal/model"
	"eventhub/internal/repository"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process repository.Repository. It enforces the
// same uniqueness rules and cascades as the database backends.
type MemoryRepository struct {
	mu            sync.Mutex
	users         map[string]model.User
	events        map[string]model.Event
	registrations map[string]model.Registration
	reviews       map[string]model.Review

	// Now is the repository clock.
	Now func() time.Time
	// HealthErr is returned from HealthCheck when set.
	HealthErr error
}

var _ repository.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:         make(map[string]model.User),
		events:        make(map[string]model.Event),
		registrations: make(map[string]model.Registration),
		reviews:       make(map[string]model.Review),
		Now:           func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) CreateUser(_ context.Context, user model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	for _, u := range r.users {
		if u.Email == user.Email {
			return model.User{}, repository.ErrEmailExists
		}
		if user.GitHubID != "" && u.GitHubID == user.GitHubID {
			return model.User{}, repository.ErrGitHubAccountExists
		}
	}

	user.ID = uuid.NewString()
	if user.Role == "" {
		user.Role = model.RoleStudent
	}
	user.Bookmarks = []string{}
	user.CreatedAt = r.Now()
	r.users[user.ID] = user
	return copyUser(user), nil
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	return r.findUser(func(u model.User) bool { return u.Email == strings.ToLower(email) })
}

func (r *MemoryRepository) GetUserByGitHubID(_ context.Context, githubID string) (model.User, error) {
	return r.findUser(func(u model.User) bool { return githubID != "" && u.GitHubID == githubID })
}

func (r *MemoryRepository) findUser(match func(model.User) bool) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (r *MemoryRepository) UpdateUserProfile(_ context.Context, id string, update model.ProfileUpdate) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	if update.FullName != "" {
		u.FullName = update.FullName
	}
	if update.StudentID != "" {
		u.StudentID = update.StudentID
	}
	if update.Department != "" {
		u.Department = update.Department
	}
	if update.Phone != "" {
		u.Phone = update.Phone
	}
	r.users[id] = u
	return copyUser(u), nil
}

func (r *MemoryRepository) UpdateUserRole(_ context.Context, id string, role model.Role) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	u.Role = role
	r.users[id] = u
	return copyUser(u), nil
}

func (r *MemoryRepository) ListUsers(_ context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, copyUser(u))
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (r *MemoryRepository) DeleteUser(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.users, id)
	for rid, reg := range r.registrations {
		if reg.UserID == id {
			delete(r.registrations, rid)
		}
	}
	return nil
}

func (r *MemoryRepository) ToggleBookmark(_ context.Context, userID, eventID string) (model.BookmarkResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return model.BookmarkResult{}, repository.ErrUserNotFound
	}

	action := model.BookmarkAdded
	if i := slices.Index(u.Bookmarks, eventID); i >= 0 {
		u.Bookmarks = slices.Delete(slices.Clone(u.Bookmarks), i, i+1)
		action = model.BookmarkRemoved
	} else {
		u.Bookmarks = append(slices.Clone(u.Bookmarks), eventID)
	}
	r.users[userID] = u
	return model.BookmarkResult{Action: action, Bookmarks: slices.Clone(u.Bookmarks)}, nil
}

func (r *MemoryRepository) CreateEvent(_ context.Context, event model.Event) (model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.ExternalID != "" {
		for _, e := range r.events {
			if e.ExternalID == event.ExternalID {
				return model.Event{}, repository.ErrExternalIDExists
			}
		}
	}

	now := r.Now()
	event.ID = uuid.NewString()
	event.CreatedAt = now
	event.UpdatedAt = now
	r.events[event.ID] = event
	return event, nil
}

func (r *MemoryRepository) GetEvent(_ context.Context, id string) (model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return model.Event{}, repository.ErrEventNotFound
	}
	return e, nil
}

func (r *MemoryRepository) GetEventsByIDs(_ context.Context, ids []string) ([]model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := make([]model.Event, 0, len(ids))
	for _, id := range ids {
		if e, ok := r.events[id]; ok {
			events = append(events, e)
		}
	}
	sortEvents(events)
	return events, nil
}

func (r *MemoryRepository) ListEvents(_ context.Context, filter model.EventFilter) ([]model.Event, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	filter = filter.Normalize()
	search := strings.ToLower(filter.Search)
	now := r.Now()

	matched := make([]model.Event, 0)
	for _, e := range r.events {
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.Upcoming && e.StartsAt.Before(now) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Title), search) &&
			!strings.Contains(strings.ToLower(e.Description), search) &&
			!strings.Contains(strings.ToLower(e.LocationText), search) {
			continue
		}
		matched = append(matched, e)
	}
	sortEvents(matched)

	total := int64(len(matched))
	start := min(filter.Offset(), len(matched))
	end := min(start+filter.Limit, len(matched))
	return matched[start:end], total, nil
}

func (r *MemoryRepository) UpdateEvent(_ context.Context, id string, update model.EventUpdate) (model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return model.Event{}, repository.ErrEventNotFound
	}
	update.Apply(&e)
	e.UpdatedAt = r.Now()
	r.events[id] = e
	return e, nil
}

func (r *MemoryRepository) DeleteEvent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return repository.ErrEventNotFound
	}
	delete(r.events, id)
	for rid, reg := range r.registrations {
		if reg.EventID == id {
			delete(r.registrations, rid)
		}
	}
	for uid, u := range r.users {
		if i := slices.Index(u.Bookmarks, id); i >= 0 {
			u.Bookmarks = slices.Delete(slices.Clone(u.Bookmarks), i, i+1)
			r.users[uid] = u
		}
	}
	return nil
}

func (r *MemoryRepository) UpsertExternalEvent(_ context.Context, event model.Event) (bool, error) {
	if event.ExternalID == "" {
		return false, model.NewValidationError("external id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.Now()
	event.IsExternal = true
	event.UpdatedAt = now
	for id, e := range r.events {
		if e.ExternalID == event.ExternalID {
			event.ID = id
			event.CreatedAt = e.CreatedAt
			event.Rules = e.Rules
			event.Requirements = e.Requirements
			event.CreatedBy = e.CreatedBy
			event.EndsAt = e.EndsAt
			r.events[id] = event
			return false, nil
		}
	}

	event.ID = uuid.NewString()
	event.CreatedAt = now
	r.events[event.ID] = event
	return true, nil
}

func (r *MemoryRepository) CreateRegistration(_ context.Context, registration model.Registration) (model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, reg := range r.registrations {
		if reg.UserID == registration.UserID && reg.EventID == registration.EventID && reg.IsActive() {
			return model.Registration{}, repository.ErrAlreadyRegistered
		}
	}

	registration.ID = uuid.NewString()
	registration.Status = model.RegistrationActive
	registration.RegisteredAt = r.Now()
	registration.CancelledAt = nil
	r.registrations[registration.ID] = registration
	return registration, nil
}

func (r *MemoryRepository) CancelRegistration(_ context.Context, userID, eventID string, at time.Time) (model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, reg := range r.registrations {
		if reg.UserID == userID && reg.EventID == eventID && reg.IsActive() {
			reg.Status = model.RegistrationCancelled
			reg.CancelledAt = &at
			r.registrations[id] = reg
			return reg, nil
		}
	}
	return model.Registration{}, repository.ErrRegistrationNotFound
}

func (r *MemoryRepository) GetActiveRegistration(_ context.Context, userID, eventID string) (model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, reg := range r.registrations {
		if reg.UserID == userID && reg.EventID == eventID && reg.IsActive() {
			return reg, nil
		}
	}
	return model.Registration{}, repository.ErrRegistrationNotFound
}

func (r *MemoryRepository) ListRegistrationsByUser(_ context.Context, userID string) ([]model.RegistrationDetail, error) {
	return r.joinRegistrations(func(reg model.Registration) bool { return reg.UserID == userID }, false, true), nil
}

func (r *MemoryRepository) ListRegistrationsByEvent(_ context.Context, eventID string) ([]model.RegistrationDetail, error) {
	return r.joinRegistrations(func(reg model.Registration) bool { return reg.EventID == eventID }, true, false), nil
}

func (r *MemoryRepository) ListRegistrations(_ context.Context) ([]model.RegistrationDetail, error) {
	return r.joinRegistrations(func(model.Registration) bool { return true }, true, true), nil
}

func (r *MemoryRepository) joinRegistrations(match func(model.Registration) bool, withUser, withEvent bool) []model.RegistrationDetail {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.RegistrationDetail, 0)
	for _, reg := range r.registrations {
		if !match(reg) {
			continue
		}
		detail := model.RegistrationDetail{Registration: reg}
		if u, ok := r.users[reg.UserID]; ok && withUser {
			detail.User = model.ContactOf(u)
		}
		if e, ok := r.events[reg.EventID]; ok && withEvent {
			detail.Event = model.BriefOf(e)
		}
		out = append(out, detail)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].RegisteredAt.After(out[j].RegisteredAt)
	})
	return out
}

func (r *MemoryRepository) CreateReview(_ context.Context, review model.Review) (model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rv := range r.reviews {
		if rv.UserID == review.UserID && rv.EventID == review.EventID {
			return model.Review{}, repository.ErrAlreadyReviewed
		}
	}

	review.ID = uuid.NewString()
	review.CreatedAt = r.Now()
	r.reviews[review.ID] = review
	return review, nil
}

func (r *MemoryRepository) ListReviewsByEvent(_ context.Context, eventID string) ([]model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reviews := make([]model.Review, 0)
	for _, rv := range r.reviews {
		if rv.EventID != eventID {
			continue
		}
		if u, ok := r.users[rv.UserID]; ok {
			rv.AuthorName = u.FullName
		}
		reviews = append(reviews, rv)
	}
	sort.SliceStable(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })
	return reviews, nil
}

func (r *MemoryRepository) Stats(_ context.Context, since time.Time) (model.AdminStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := model.AdminStats{
		TotalEvents:  int64(len(r.events)),
		TotalUsers:   int64(len(r.users)),
		TotalReviews: int64(len(r.reviews)),
	}
	for _, e := range r.events {
		if e.IsExternal {
			stats.ExternalEvents++
		}
	}
	for _, reg := range r.registrations {
		if reg.IsActive() {
			stats.TotalRegistrations++
		}
		if !reg.RegisteredAt.Before(since) {
			stats.TodayRegistrations++
		}
	}
	return stats, nil
}

func (r *MemoryRepository) HealthCheck(context.Context) error {
	return r.HealthErr
}

// EventCount returns the number of stored events.
func (r *MemoryRepository) EventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Registrations returns every stored registration, active or not.
func (r *MemoryRepository) Registrations() []model.Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Registration, 0, len(r.registrations))
	for _, reg := range r.registrations {
		out = append(out, reg)
	}
	return out
}

func sortEvents(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].StartsAt.Equal(events[j].StartsAt) {
			return events[i].ID < events[j].ID
		}
		return events[i].StartsAt.Before(events[j].StartsAt)
	})
}

func copyUser(u model.User) model.User {
	u.Bookmarks = slices.Clone(u.Bookmarks)
	if u.Bookmarks == nil {
		u.Bookmarks = []string{}
	}
	return u
}

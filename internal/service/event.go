package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"eventhub/internal/model"
	"eventhub/internal/repository"
	"eventhub/internal/util"
	"eventhub/internal/validator"
)

type EventRequest struct {
	Title        string     `json:"title" validate:"required,notblank,max=200"`
	Description  string     `json:"description" validate:"required,notblank"`
	Category     string     `json:"category" validate:"required,category"`
	StartsAt     time.Time  `json:"starts_at" validate:"required"`
	EndsAt       *time.Time `json:"ends_at"`
	Venue        string     `json:"venue" validate:"required,notblank,max=200"`
	LocationText string     `json:"location_text" validate:"required,notblank,max=200"`
	Latitude     float64    `json:"latitude" validate:"min=-90,max=90"`
	Longitude    float64    `json:"longitude" validate:"min=-180,max=180"`
	BannerURL    string     `json:"banner_url" validate:"required,notblank"`
	Rules        string     `json:"rules"`
	Requirements string     `json:"requirements"`
	ExternalURL  string     `json:"external_url" validate:"omitempty,url"`
}

// EventUpdateRequest is a partial update. Nil fields are left unchanged.
type EventUpdateRequest struct {
	Title        *string    `json:"title" validate:"omitempty,notblank,max=200"`
	Description  *string    `json:"description" validate:"omitempty,notblank"`
	Category     *string    `json:"category" validate:"omitempty,category"`
	StartsAt     *time.Time `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at"`
	Venue        *string    `json:"venue" validate:"omitempty,notblank,max=200"`
	LocationText *string    `json:"location_text" validate:"omitempty,notblank,max=200"`
	Latitude     *float64   `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude    *float64   `json:"longitude" validate:"omitempty,min=-180,max=180"`
	BannerURL    *string    `json:"banner_url" validate:"omitempty,notblank"`
	Rules        *string    `json:"rules"`
	Requirements *string    `json:"requirements"`
	ExternalURL  *string    `json:"external_url" validate:"omitempty,url"`
}

type EventService struct {
	repo      repository.Repository
	validator *validator.Validator
}

func NewEventService(repo repository.Repository, v *validator.Validator) *EventService {
	return &EventService{repo: repo, validator: v}
}

// List returns one page of events matching filter, soonest first.
func (s *EventService) List(ctx context.Context, filter model.EventFilter) (model.EventPage, error) {
	filter = filter.Normalize()

	events, total, err := s.repo.ListEvents(ctx, filter)
	if err != nil {
		return model.EventPage{}, err
	}
	return model.EventPage{
		Events:     events,
		Pagination: model.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

func (s *EventService) Get(ctx context.Context, id string) (model.Event, error) {
	return s.repo.GetEvent(ctx, id)
}

// Create stores a local event owned by adminID.
func (s *EventService) Create(ctx context.Context, adminID string, req EventRequest) (model.Event, error) {
	if err := s.validator.Validate(req); err != nil {
		return model.Event{}, err
	}
	if req.EndsAt != nil && req.EndsAt.Before(req.StartsAt) {
		return model.Event{}, model.NewValidationError("ends_at must not be before starts_at")
	}

	category, _ := model.ParseCategory(req.Category)
	event, err := s.repo.CreateEvent(ctx, model.Event{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Category:     category,
		StartsAt:     req.StartsAt.UTC(),
		EndsAt:       utcPtr(req.EndsAt),
		Venue:        strings.TrimSpace(req.Venue),
		LocationText: strings.TrimSpace(req.LocationText),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		BannerURL:    strings.TrimSpace(req.BannerURL),
		Rules:        req.Rules,
		Requirements: req.Requirements,
		ExternalURL:  req.ExternalURL,
		Source:       model.SourceLocal,
		CreatedBy:    adminID,
	})
	if err != nil {
		return model.Event{}, err
	}

	slog.InfoContext(ctx, "Event created", "event_id", event.ID, "admin_id", adminID)
	return event, nil
}

func (s *EventService) Update(ctx context.Context, id string, req EventUpdateRequest) (model.Event, error) {
	if err := s.validator.Validate(req); err != nil {
		return model.Event{}, err
	}

	current, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return model.Event{}, err
	}

	update := req.toModel()
	merged := current
	update.Apply(&merged)
	if merged.EndsAt != nil && merged.EndsAt.Before(merged.StartsAt) {
		return model.Event{}, model.NewValidationError("ends_at must not be before starts_at")
	}

	return s.repo.UpdateEvent(ctx, id, update)
}

// Delete removes the event together with its registrations and bookmarks.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Event deleted", "event_id", id)
	return nil
}

func (r EventUpdateRequest) toModel() model.EventUpdate {
	var u model.EventUpdate
	if r.Title != nil {
		u.Title = util.Some(strings.TrimSpace(*r.Title))
	}
	if r.Description != nil {
		u.Description = util.Some(strings.TrimSpace(*r.Description))
	}
	if r.Category != nil {
		category, _ := model.ParseCategory(*r.Category)
		u.Category = util.Some(category)
	}
	if r.StartsAt != nil {
		u.StartsAt = util.Some(r.StartsAt.UTC())
	}
	if r.EndsAt != nil {
		u.EndsAt = util.Some(utcPtr(r.EndsAt))
	}
	if r.Venue != nil {
		u.Venue = util.Some(strings.TrimSpace(*r.Venue))
	}
	if r.LocationText != nil {
		u.LocationText = util.Some(strings.TrimSpace(*r.LocationText))
	}
	if r.Latitude != nil {
		u.Latitude = util.Some(*r.Latitude)
	}
	if r.Longitude != nil {
		u.Longitude = util.Some(*r.Longitude)
	}
	if r.BannerURL != nil {
		u.BannerURL = util.Some(strings.TrimSpace(*r.BannerURL))
	}
	if r.Rules != nil {
		u.Rules = util.Some(*r.Rules)
	}
	if r.Requirements != nil {
		u.Requirements = util.Some(*r.Requirements)
	}
	if r.ExternalURL != nil {
		u.ExternalURL = util.Some(*r.ExternalURL)
	}
	return u
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

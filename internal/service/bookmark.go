package service

import (
	"context"

	"eventhub/internal/model"
	"eventhub/internal/monitoring"
	"eventhub/internal/repository"
)

type BookmarkService struct {
	repo      repository.Repository
	telemetry monitoring.Telemetry
}

func NewBookmarkService(repo repository.Repository, telemetry monitoring.Telemetry) *BookmarkService {
	return &BookmarkService{repo: repo, telemetry: telemetry}
}

// Toggle adds eventID to the user's bookmarks if absent and removes it
// otherwise. Only existing events can be added; a stale bookmark can always
// be removed.
func (s *BookmarkService) Toggle(ctx context.Context, userID, eventID string) (model.BookmarkResult, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return model.BookmarkResult{}, err
	}
	if !user.HasBookmark(eventID) {
		if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
			return model.BookmarkResult{}, err
		}
	}

	result, err := s.repo.ToggleBookmark(ctx, userID, eventID)
	if err != nil {
		return model.BookmarkResult{}, err
	}

	s.telemetry.RecordBookmarkToggle(ctx, string(result.Action))
	return result, nil
}

// Bookmarks returns the events the user has bookmarked.
func (s *BookmarkService) Bookmarks(ctx context.Context, userID string) ([]model.Event, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetEventsByIDs(ctx, user.Bookmarks)
}

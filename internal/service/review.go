package service

import (
	"context"
	"log/slog"
	"strings"

	"eventhub/internal/model"
	"eventhub/internal/monitoring"
	"eventhub/internal/repository"
	"eventhub/internal/validator"
)

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"required,notblank,max=2000"`
}

type ReviewService struct {
	repo      repository.Repository
	validator *validator.Validator
	telemetry monitoring.Telemetry
}

func NewReviewService(repo repository.Repository, v *validator.Validator, telemetry monitoring.Telemetry) *ReviewService {
	return &ReviewService{repo: repo, validator: v, telemetry: telemetry}
}

// AddReview stores the user's single review of eventID. Input is checked
// before the store is touched.
func (s *ReviewService) AddReview(ctx context.Context, userID, eventID string, req ReviewRequest) (model.Review, error) {
	req.Comment = strings.TrimSpace(req.Comment)
	if err := s.validator.Validate(req); err != nil {
		return model.Review{}, err
	}

	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		return model.Review{}, err
	}
	author, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return model.Review{}, err
	}

	review, err := s.repo.CreateReview(ctx, model.Review{
		UserID:     userID,
		EventID:    eventID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		AuthorName: author.FullName,
	})
	if err != nil {
		return model.Review{}, err
	}

	s.telemetry.RecordReview(ctx, review.Rating)
	slog.InfoContext(ctx, "Review added", "review_id", review.ID, "event_id", eventID)
	return review, nil
}

// ListForEvent returns the event's reviews newest first with count and average rating.
func (s *ReviewService) ListForEvent(ctx context.Context, eventID string) (model.ReviewSummary, error) {
	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		return model.ReviewSummary{}, err
	}

	reviews, err := s.repo.ListReviewsByEvent(ctx, eventID)
	if err != nil {
		return model.ReviewSummary{}, err
	}
	return model.Summarize(reviews), nil
}

package service

import (
	"context"
	"log/slog"
	"time"

	"eventhub/internal/model"
	"eventhub/internal/monitoring"
	"eventhub/internal/repository"
	"eventhub/internal/ticketmaster"
	"eventhub/internal/validator"
)

// EventSource is the upstream the sync job pulls from.
type EventSource interface {
	SearchEvents(ctx context.Context, params ticketmaster.SearchParams) ([]ticketmaster.Event, error)
}

type SyncRequest struct {
	Keyword            string `json:"keyword" validate:"omitempty,max=100"`
	CountryCode        string `json:"country_code" validate:"omitempty,len=2,alpha"`
	ClassificationName string `json:"classification_name" validate:"omitempty,max=100"`
	Size               int    `json:"size" validate:"omitempty,min=1,max=200"`
}

// SkippedItem names a provider item that could not be mapped.
type SkippedItem struct {
	ExternalID string `json:"external_id,omitempty"`
	Reason     string `json:"reason"`
}

type SyncReport struct {
	Fetched int           `json:"fetched"`
	Created int           `json:"created"`
	Updated int           `json:"updated"`
	Skipped int           `json:"skipped"`
	Errors  []SkippedItem `json:"errors,omitempty"`
}

type SyncService struct {
	repo      repository.Repository
	source    EventSource
	validator *validator.Validator
	telemetry monitoring.Telemetry
}

func NewSyncService(repo repository.Repository, source EventSource, v *validator.Validator, telemetry monitoring.Telemetry) *SyncService {
	return &SyncService{repo: repo, source: source, validator: v, telemetry: telemetry}
}

// Sync pulls one page of events from the provider and upserts each by its
// external id. A provider failure aborts the run before anything is written.
// Items that cannot be mapped are skipped and reported; a store failure stops
// the run, leaving earlier items upserted.
func (s *SyncService) Sync(ctx context.Context, req SyncRequest) (report SyncReport, err error) {
	if err := s.validator.Validate(req); err != nil {
		return SyncReport{}, err
	}

	start := time.Now()
	defer func() {
		s.telemetry.RecordSync(ctx, monitoring.SyncResult{
			Source:   model.SourceTicketmaster,
			Created:  report.Created,
			Updated:  report.Updated,
			Skipped:  report.Skipped,
			Duration: time.Since(start),
			Err:      err,
		})
	}()

	items, err := s.source.SearchEvents(ctx, ticketmaster.SearchParams{
		Keyword:            req.Keyword,
		CountryCode:        req.CountryCode,
		ClassificationName: req.ClassificationName,
		Size:               req.Size,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Ticketmaster fetch failed", "error", err)
		return SyncReport{}, err
	}

	report.Fetched = len(items)
	for _, item := range items {
		event, mapErr := ticketmaster.ToEvent(item)
		if mapErr != nil {
			report.Skipped++
			report.Errors = append(report.Errors, SkippedItem{ExternalID: item.ID, Reason: mapErr.Error()})
			slog.WarnContext(ctx, "Skipping malformed Ticketmaster event", "external_id", item.ID, "reason", mapErr)
			continue
		}

		created, upsertErr := s.repo.UpsertExternalEvent(ctx, event)
		if upsertErr != nil {
			return report, upsertErr
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}

	slog.InfoContext(ctx, "Ticketmaster sync completed",
		"fetched", report.Fetched,
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"duration", time.Since(start),
	)
	return report, nil
}

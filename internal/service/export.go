package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"eventhub/internal/model"
	"eventhub/internal/repository"
)

const notAvailable = "N/A"

var exportHeader = []string{
	"Student Name",
	"Email",
	"Student ID",
	"Department",
	"Phone",
	"Event Name",
	"Event Category",
	"Event Date",
	"Registration Date",
	"Status",
}

type ExportService struct {
	repo repository.Repository
}

func NewExportService(repo repository.Repository) *ExportService {
	return &ExportService{repo: repo}
}

// WriteRegistrationsCSV writes every registration, newest first, as CSV to w.
// Fields of a deleted user or event are written as N/A.
func (s *ExportService) WriteRegistrationsCSV(ctx context.Context, w io.Writer) error {
	registrations, err := s.repo.ListRegistrations(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range registrations {
		if err := cw.Write(registrationRecord(r)); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func registrationRecord(r model.RegistrationDetail) []string {
	var user model.UserContact
	if r.User != nil {
		user = *r.User
	}

	eventName, eventCategory, eventDate := notAvailable, notAvailable, notAvailable
	if r.Event != nil {
		eventName = orNA(r.Event.Title)
		eventCategory = orNA(string(r.Event.Category))
		eventDate = formatDate(r.Event.StartsAt)
	}

	return []string{
		orNA(user.FullName),
		orNA(user.Email),
		orNA(user.StudentID),
		orNA(user.Department),
		orNA(user.Phone),
		eventName,
		eventCategory,
		eventDate,
		formatDate(r.RegisteredAt),
		orNA(string(r.Status)),
	}
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return notAvailable
	}
	return t.UTC().Format(time.RFC3339)
}

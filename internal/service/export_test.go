package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"eventhub/internal/model"
	"eventhub/internal/repository"
	"eventhub/internal/service"
	"eventhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// danglingRepository returns registrations whose references no longer resolve.
type danglingRepository struct {
	repository.Repository
	details []model.RegistrationDetail
}

func (r danglingRepository) ListRegistrations(context.Context) ([]model.RegistrationDetail, error) {
	return r.details, nil
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExportService_WriteRegistrationsCSV(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemoryRepository()
	svc := service.NewExportService(repo)

	registeredAt := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.Now = func() time.Time { return registeredAt }

	user, err := repo.CreateUser(ctx, model.User{
		FullName:   "Asha, Kulkarni",
		Email:      "asha@example.com",
		StudentID:  "S001",
		Department: "",
		Phone:      "555-0100",
	})
	require.NoError(t, err)
	event := testutil.CreateEvent(t, repo, "Go Meetup", time.Date(2030, 2, 1, 18, 0, 0, 0, time.UTC))
	_, err = repo.CreateRegistration(ctx, model.Registration{UserID: user.ID, EventID: event.ID})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteRegistrationsCSV(ctx, &buf))

	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 2)
	assert.Equal(t, []string{
		"Student Name", "Email", "Student ID", "Department", "Phone",
		"Event Name", "Event Category", "Event Date", "Registration Date", "Status",
	}, records[0])
	assert.Equal(t, []string{
		"Asha, Kulkarni", "asha@example.com", "S001", "N/A", "555-0100",
		"Go Meetup", "Technical", "2030-02-01T18:00:00Z", "2030-01-02T03:04:05Z", "registered",
	}, records[1])
}

func TestExportService_MissingReferences(t *testing.T) {
	registeredAt := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	repo := danglingRepository{details: []model.RegistrationDetail{
		{
			Registration: model.Registration{ID: "r1", Status: model.RegistrationActive, RegisteredAt: registeredAt},
			User:         &model.UserContact{FullName: "Asha", Email: "asha@example.com"},
		},
		{
			Registration: model.Registration{ID: "r2", Status: model.RegistrationCancelled, RegisteredAt: registeredAt},
			Event:        &model.EventBrief{Title: "Go Meetup", Category: model.CategoryTechnical},
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, service.NewExportService(repo).WriteRegistrationsCSV(context.Background(), &buf))

	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 3)
	assert.Equal(t, []string{
		"Asha", "asha@example.com", "N/A", "N/A", "N/A",
		"N/A", "N/A", "N/A", "2030-01-02T03:04:05Z", "registered",
	}, records[1])
	assert.Equal(t, []string{
		"N/A", "N/A", "N/A", "N/A", "N/A",
		"Go Meetup", "Technical", "N/A", "2030-01-02T03:04:05Z", "cancelled",
	}, records[2])
}

func TestExportService_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, service.NewExportService(testutil.NewMemoryRepository()).WriteRegistrationsCSV(context.Background(), &buf))

	records := readCSV(t, buf.Bytes())
	assert.Len(t, records, 1)
}

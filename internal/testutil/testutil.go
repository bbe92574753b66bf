package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"eventhub/internal/config"
	"eventhub/internal/model"
	"eventhub/internal/ticketmaster"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const TestJWTSecret = "test-jwt-secret"

// TestConfig returns a configuration suitable for in-process tests.
func TestConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            "5000",
			Environment:     "test",
			AllowedOrigins:  []string{"http://localhost:3000"},
			FrontendURL:     "http://localhost:3000",
			RateLimitMax:    1000,
			RateLimitWindow: time.Minute,
			ShutdownTimeout: time.Second,
		},
		Auth: config.AuthConfig{
			JWTSecret:      TestJWTSecret,
			TokenTTL:       time.Hour,
			CookieName:     "token",
			CookieSameSite: "Lax",
			BcryptCost:     bcrypt.MinCost,
		},
		Database: config.DatabaseConfig{
			Driver: config.DriverMongo,
		},
		Redis: config.RedisConfig{
			LoginAttempts:  5,
			LoginWindow:    15 * time.Minute,
			SignupAttempts: 3,
			SignupWindow:   time.Hour,
		},
		Storage: config.StorageConfig{
			Type:        "local",
			URLTTL:      time.Hour,
			MaxFileSize: 5 << 20,
		},
		Telemetry: config.TelemetryConfig{
			ServiceName: "eventhub-test",
		},
	}
}

var seq atomic.Int64

// CreateUser stores a user with a unique email and the given role.
func CreateUser(t *testing.T, repo interface {
	CreateUser(context.Context, model.User) (model.User, error)
}, role model.Role) model.User {
	t.Helper()

	n := seq.Add(1)
	user, err := repo.CreateUser(context.Background(), model.User{
		FullName:   fmt.Sprintf("Test User %d", n),
		Email:      fmt.Sprintf("user%d@example.com", n),
		StudentID:  fmt.Sprintf("S%05d", n),
		Department: "Computer Science",
		Phone:      "555-0100",
		Role:       role,
	})
	require.NoError(t, err)
	return user
}

// CreateEvent stores a local event starting at startsAt.
func CreateEvent(t *testing.T, repo interface {
	CreateEvent(context.Context, model.Event) (model.Event, error)
}, title string, startsAt time.Time) model.Event {
	t.Helper()

	event, err := repo.CreateEvent(context.Background(), model.Event{
		Title:        title,
		Description:  title + " description",
		Category:     model.CategoryTechnical,
		StartsAt:     startsAt.UTC(),
		Venue:        "Main Hall",
		LocationText: "Campus, Pune",
		BannerURL:    "https://example.com/banner.png",
		Source:       model.SourceLocal,
	})
	require.NoError(t, err)
	return event
}

// MockEventSource is a testify mock of the external event provider.
type MockEventSource struct {
	mock.Mock
}

func (m *MockEventSource) SearchEvents(ctx context.Context, params ticketmaster.SearchParams) ([]ticketmaster.Event, error) {
	args := m.Called(ctx, params)
	events, _ := args.Get(0).([]ticketmaster.Event)
	return events, args.Error(1)
}

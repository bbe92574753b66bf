package ticketmaster

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventhub/internal/config"
	"eventhub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.TicketmasterConfig{
		APIKey:      "secret",
		BaseURL:     server.URL,
		PageSize:    50,
		CountryCode: "IN",
		Timeout:     5 * time.Second,
	})
}

func TestClient_SearchEvents(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/discovery/v2/events.json", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("apikey"))
		assert.Equal(t, "20", r.URL.Query().Get("size"))
		assert.Equal(t, "IN", r.URL.Query().Get("countryCode"))
		assert.Equal(t, "jazz", r.URL.Query().Get("keyword"))
		assert.Equal(t, "music", r.URL.Query().Get("classificationName"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"_embedded":{"events":[
			{"id":"a","name":"Jazz Night","dates":{"start":{"localDate":"2030-01-01"}}},
			{"id":"b","name":"Blues Night","dates":{"start":{"dateTime":"2030-01-02T20:00:00Z"}}}
		]}}`))
	})

	events, err := client.SearchEvents(context.Background(), SearchParams{
		Keyword:            "jazz",
		ClassificationName: "music",
		Size:               20,
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].ID)
	assert.Equal(t, "Blues Night", events[1].Name)
}

func TestClient_SearchEvents_EmptyPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("size"))
		_, _ = w.Write([]byte(`{"page":{"totalElements":0}}`))
	})

	events, err := client.SearchEvents(context.Background(), SearchParams{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestClient_SearchEvents_ProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"fault", http.StatusUnauthorized, `{"fault":{"faultstring":"Invalid ApiKey"}}`, "Invalid ApiKey"},
		{"errors array", http.StatusBadRequest, `{"errors":[{"code":"DIS1004","detail":"Resource not found"}]}`, "Resource not found"},
		{"plain text", http.StatusServiceUnavailable, "maintenance", "maintenance"},
		{"empty body", http.StatusInternalServerError, "", "Ticketmaster returned status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.SearchEvents(context.Background(), SearchParams{})
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrUpstream)
			assert.Equal(t, tt.message, model.Message(err))
		})
	}
}

func TestClient_SearchEvents_MissingAPIKey(t *testing.T) {
	client := NewClient(config.TicketmasterConfig{BaseURL: "http://127.0.0.1:0"})

	_, err := client.SearchEvents(context.Background(), SearchParams{})
	assert.ErrorIs(t, err, model.ErrUpstream)
}

func TestClient_SearchEvents_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client := NewClient(config.TicketmasterConfig{APIKey: "secret", BaseURL: baseURL, Timeout: time.Second})

	_, err := client.SearchEvents(context.Background(), SearchParams{})
	assert.ErrorIs(t, err, model.ErrUpstream)
}

// Package ticketmaster fetches events from the Ticketmaster Discovery API and
// maps them onto the local event model.
package ticketmaster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eventhub/internal/config"
	"eventhub/internal/model"
)

const eventsPath = "/discovery/v2/events.json"

// SearchParams narrows a Discovery API event search. Zero values fall back to
// the client's configured defaults.
type SearchParams struct {
	Keyword            string
	CountryCode        string
	ClassificationName string
	Size               int
}

type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	countryCode string
	keyword     string
	pageSize    int
}

func NewClient(cfg config.TicketmasterConfig) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		countryCode: cfg.CountryCode,
		keyword:     cfg.Keyword,
		pageSize:    cfg.PageSize,
	}
}

// SearchEvents returns one page of events. Transport failures and non-2xx
// responses become upstream errors carrying the provider's message.
func (c *Client) SearchEvents(ctx context.Context, params SearchParams) ([]Event, error) {
	if c.apiKey == "" {
		return nil, model.NewUpstreamError("Ticketmaster API key is not configured", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(params), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ticketmaster request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewUpstreamError("Failed to reach Ticketmaster", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, model.NewUpstreamError("Failed to read Ticketmaster response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, model.NewUpstreamError(errorMessage(resp.StatusCode, body), nil)
	}

	var page searchResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, model.NewUpstreamError("Invalid response from Ticketmaster", err)
	}

	slog.DebugContext(ctx, "Fetched Ticketmaster events",
		"count", len(page.Embedded.Events),
		"duration", time.Since(start),
	)
	return page.Embedded.Events, nil
}

func (c *Client) searchURL(params SearchParams) string {
	q := url.Values{}
	q.Set("apikey", c.apiKey)

	size := params.Size
	if size <= 0 {
		size = c.pageSize
	}
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}

	country := params.CountryCode
	if country == "" {
		country = c.countryCode
	}
	if country != "" {
		q.Set("countryCode", country)
	}

	keyword := params.Keyword
	if keyword == "" {
		keyword = c.keyword
	}
	if keyword != "" {
		q.Set("keyword", keyword)
	}

	if params.ClassificationName != "" {
		q.Set("classificationName", params.ClassificationName)
	}

	return c.baseURL + eventsPath + "?" + q.Encode()
}

// errorMessage extracts the provider's message from an error body. The
// Discovery API answers with either a fault object or an errors array.
func errorMessage(status int, body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Fault.FaultString != "" {
			return e.Fault.FaultString
		}
		if len(e.Errors) > 0 && e.Errors[0].Detail != "" {
			return e.Errors[0].Detail
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		return text
	}
	return fmt.Sprintf("Ticketmaster returned status %d", status)
}

// Package tournamentapi provides a client for the tournament admin JSON API.
package tournamentapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/abrezinsky/pairsync/internal/errors"
	"github.com/abrezinsky/pairsync/internal/logger"
	"github.com/abrezinsky/pairsync/internal/models"
)

const (
	teamsPath           = "/api/tournament/teams/"
	previousPartnerPath = "/api/tournament/previous-partner/"

	defaultTimeout = 30 * time.Second
)

// FlexID is an identifier that can be unmarshaled from a JSON string, number, or null.
// The backend emits integer primary keys but the admin form treats them as opaque strings.
type FlexID string

// UnmarshalJSON implements json.Unmarshaler for FlexID
func (f *FlexID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexID(n.String())
		return nil
	}

	return fmt.Errorf("FlexID: cannot unmarshal %s", string(data))
}

// String returns the string value
func (f FlexID) String() string {
	return string(f)
}

// EntityID converts the wire id into the form's identifier type
func (f FlexID) EntityID() models.EntityID {
	return models.EntityID(f)
}

// Team is one selectable team inside a tournament group
type Team struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
}

// TeamGroup is one element of the teams-by-tournament response
type TeamGroup struct {
	ID    FlexID `json:"id,omitempty"`
	Name  string `json:"name"`
	Teams []Team `json:"teams"`
}

// Group converts the wire group into a selection group, keeping team order
func (g TeamGroup) Group() models.Group {
	members := make([]models.Entity, 0, len(g.Teams))
	for _, t := range g.Teams {
		members = append(members, models.Entity{ID: t.ID.EntityID(), Name: t.Name})
	}
	return models.Group{Name: g.Name, Members: members}
}

// Groups converts a full teams response, keeping group order
func Groups(groups []TeamGroup) []models.Group {
	result := make([]models.Group, 0, len(groups))
	for _, g := range groups {
		result = append(result, g.Group())
	}
	return result
}

// PreviousPartnerResponse is the response from the previous-partner query
type PreviousPartnerResponse struct {
	PartnerID FlexID `json:"partner_id"`
}

// Client defines the interface for tournament API operations
type Client interface {
	// FetchTeamGroups retrieves the teams of a tournament grouped by tournament group
	FetchTeamGroups(ctx context.Context, tournamentID string) ([]TeamGroup, error)
	// FetchPreviousPartner returns the id of the player's last partner, or "" if none
	FetchPreviousPartner(ctx context.Context, playerID string) (string, error)
	// BaseURL returns the configured API base URL
	BaseURL() string
}

// HTTPClient is a real HTTP client for the tournament API
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	header     http.Header
	log        logger.Logger
}

// NewHTTPClient creates a new API client with cookie support. timeout bounds
// each request; zero or negative falls back to defaultTimeout.
func NewHTTPClient(baseURL string, timeout time.Duration, log logger.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	jar, _ := cookiejar.New(nil)
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		header: http.Header{},
		log:    log,
	}
}

// BaseURL returns the configured API base URL
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// SetHeader adds a header sent with every request, e.g. the admin session cookie
// of the host application. Must be called before the client is shared.
func (c *HTTPClient) SetHeader(key, value string) {
	c.header.Set(key, value)
}

// getJSON performs a GET against the API and decodes a JSON body into response.
// Transport failures, non-2xx statuses and malformed bodies are reported with
// distinct error kinds.
func (c *HTTPClient) getJSON(ctx context.Context, path string, query url.Values, response interface{}) error {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	c.log.Debug("API request", "method", "GET", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrInvalidInput, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range c.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Network(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Network(fmt.Errorf("failed to read response: %w", err))
	}

	c.log.Debug("API response", "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.BadResponse(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, response); err != nil {
		return errors.Decode(err)
	}
	return nil
}

// FetchTeamGroups retrieves the teams of a tournament grouped by tournament group.
// Group and team order is the server's.
func (c *HTTPClient) FetchTeamGroups(ctx context.Context, tournamentID string) ([]TeamGroup, error) {
	if tournamentID == "" {
		return nil, errors.InvalidInput("tournament id required")
	}

	query := url.Values{}
	query.Set("tournament", tournamentID)

	var groups []TeamGroup
	if err := c.getJSON(ctx, teamsPath, query, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// FetchPreviousPartner returns the partner the player most recently played with.
// An empty string means the player has no previous partner.
func (c *HTTPClient) FetchPreviousPartner(ctx context.Context, playerID string) (string, error) {
	if playerID == "" {
		return "", errors.InvalidInput("player_id required")
	}

	query := url.Values{}
	query.Set("player_id", playerID)

	var response PreviousPartnerResponse
	if err := c.getJSON(ctx, previousPartnerPath, query, &response); err != nil {
		return "", err
	}
	return response.PartnerID.String(), nil
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)

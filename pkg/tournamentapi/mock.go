package tournamentapi

import (
	"context"
	"sync"
	"time"

	"github.com/abrezinsky/pairsync/internal/models"
)

// MockClient is an in-memory tournament API for tests and demo mode
type MockClient struct {
	mu          sync.Mutex
	baseURL     string
	teamGroups  map[string][]TeamGroup // tournament id -> groups
	partners    map[string]string      // player id -> partner id
	teamsErr    error
	partnerErr  error
	latency     time.Duration
	teamsCalls  []string
	partnerCall []string
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithTeamGroups sets the groups returned for a tournament
func WithTeamGroups(tournamentID string, groups []TeamGroup) MockOption {
	return func(m *MockClient) {
		m.teamGroups[tournamentID] = groups
	}
}

// WithPartner records a previous partner for a player
func WithPartner(playerID, partnerID string) MockOption {
	return func(m *MockClient) {
		m.partners[playerID] = partnerID
	}
}

// WithTeamsError sets an error to return from FetchTeamGroups
func WithTeamsError(err error) MockOption {
	return func(m *MockClient) {
		m.teamsErr = err
	}
}

// WithPartnerError sets an error to return from FetchPreviousPartner
func WithPartnerError(err error) MockOption {
	return func(m *MockClient) {
		m.partnerErr = err
	}
}

// WithLatency delays every response, honoring context cancellation
func WithLatency(d time.Duration) MockOption {
	return func(m *MockClient) {
		m.latency = d
	}
}

// WithoutFixtures starts the mock with no tournaments and no partners
func WithoutFixtures() MockOption {
	return func(m *MockClient) {
		m.teamGroups = make(map[string][]TeamGroup)
		m.partners = make(map[string]string)
	}
}

// NewMockClient creates a mock client seeded with DefaultMockTeamGroups and
// DefaultMockPartners.
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		baseURL:    "http://mock-tournament.local",
		teamGroups: DefaultMockTeamGroups(),
		partners:   DefaultMockPartners(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BaseURL returns the configured base URL
func (m *MockClient) BaseURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseURL
}

func (m *MockClient) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return nil
	}
	select {
	case <-time.After(m.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FetchTeamGroups returns the configured groups for the tournament, or none
func (m *MockClient) FetchTeamGroups(ctx context.Context, tournamentID string) ([]TeamGroup, error) {
	m.mu.Lock()
	m.teamsCalls = append(m.teamsCalls, tournamentID)
	groups, err := m.teamGroups[tournamentID], m.teamsErr
	m.mu.Unlock()

	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// FetchPreviousPartner returns the configured partner for the player, or ""
func (m *MockClient) FetchPreviousPartner(ctx context.Context, playerID string) (string, error) {
	m.mu.Lock()
	m.partnerCall = append(m.partnerCall, playerID)
	partner, err := m.partners[playerID], m.partnerErr
	m.mu.Unlock()

	if err := m.wait(ctx); err != nil {
		return "", err
	}
	if err != nil {
		return "", err
	}
	return partner, nil
}

// TeamsCalls returns the tournament ids requested so far (for testing)
func (m *MockClient) TeamsCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.teamsCalls...)
}

// PartnerCalls returns the player ids requested so far (for testing)
func (m *MockClient) PartnerCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.partnerCall...)
}

// DefaultMockTeamGroups returns two sample tournaments keyed by id
func DefaultMockTeamGroups() map[string][]TeamGroup {
	return map[string][]TeamGroup{
		"1": {
			{ID: "11", Name: "Gruppe A", Teams: []Team{
				{ID: "1", Name: "Anna/Lena"},
				{ID: "2", Name: "Jonas/Max"},
				{ID: "3", Name: "Mia/Sophie"},
			}},
			{ID: "12", Name: "Gruppe B", Teams: []Team{
				{ID: "4", Name: "Paul/Felix"},
				{ID: "5", Name: "Lea/Clara"},
			}},
		},
		"2": {
			{ID: "21", Name: "Gruppe A", Teams: []Team{
				{ID: "6", Name: "Anna/Mia"},
				{ID: "7", Name: "Max/Paul"},
			}},
		},
	}
}

// DefaultMockTournaments lists the tournaments behind DefaultMockTeamGroups
func DefaultMockTournaments() []models.Entity {
	return []models.Entity{
		{ID: "1", Name: "Sommer Cup"},
		{ID: "2", Name: "Herbst Cup"},
	}
}

// DefaultMockPlayers returns sample players for the team form
func DefaultMockPlayers() []models.Entity {
	return []models.Entity{
		{ID: "1", Name: "Anna Becker"},
		{ID: "2", Name: "Lena Wolf"},
		{ID: "3", Name: "Jonas Braun"},
		{ID: "4", Name: "Max Keller"},
		{ID: "5", Name: "Mia Schulz"},
	}
}

// DefaultMockPartners maps player ids to their last partner
func DefaultMockPartners() map[string]string {
	return map[string]string{
		"1": "2",
		"2": "1",
		"3": "4",
	}
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)

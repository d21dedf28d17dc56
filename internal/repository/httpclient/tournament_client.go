// Package httpclient implements repository.TournamentStore as an HTTP call
// to the external tournament service, grounded on the teacher's
// bracket/internal/client/tournament.go.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cuesports/progression/internal/domain"
	"github.com/cuesports/progression/internal/repository"
)

type tournamentClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewTournamentClient returns a repository.TournamentStore backed by the
// tournament service at baseURL.
func NewTournamentClient(baseURL string) repository.TournamentStore {
	return &tournamentClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// tournamentResponse accepts both the canonical "registeredPlayersIds" field
// and the legacy singular "registeredPlayerIds" spelling some historical
// records still carry, per spec.md §9 open question 1: accept either on
// read, always write the canonical plural form.
type tournamentResponse struct {
	ID                      string   `json:"id"`
	HierarchicalLevel       string   `json:"hierarchicalLevel"`
	Special                 bool     `json:"special"`
	CommunityIDs            []string `json:"communityIds"`
	CountyIDs               []string `json:"countyIds"`
	RegionIDs               []string `json:"regionIds"`
	RegisteredPlayersIDs    []string `json:"registeredPlayersIds"`
	RegisteredPlayerIDsOld  []string `json:"registeredPlayerIds"`
	SchedulingPreference    string   `json:"schedulingPreference"`
}

func (r tournamentResponse) registeredIDs() []string {
	if len(r.RegisteredPlayersIDs) > 0 {
		return r.RegisteredPlayersIDs
	}
	return r.RegisteredPlayerIDsOld
}

func (c *tournamentClient) Get(ctx context.Context, tournamentID string) (domain.Tournament, error) {
	url := fmt.Sprintf("%s/internal/tournaments/%s", c.baseURL, tournamentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Tournament{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Tournament{}, fmt.Errorf("call tournament service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Tournament{}, fmt.Errorf("%w: tournament %s", domain.ErrNotFound, tournamentID)
	}
	if resp.StatusCode >= 400 {
		return domain.Tournament{}, fmt.Errorf("%w: tournament service returned status %d", domain.ErrStoreUnavailable, resp.StatusCode)
	}

	var tr tournamentResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return domain.Tournament{}, fmt.Errorf("decode tournament response: %w", err)
	}

	return domain.Tournament{
		ID:                tr.ID,
		HierarchicalLevel: domain.Level(tr.HierarchicalLevel),
		Special:           tr.Special,
		ParticipantScope: domain.ParticipantScope{
			CommunityIDs: tr.CommunityIDs,
			CountyIDs:    tr.CountyIDs,
			RegionIDs:    tr.RegionIDs,
		},
		RegisteredPlayersIDs: tr.registeredIDs(),
		SchedulingPreference: domain.SchedulingPreference(tr.SchedulingPreference),
	}, nil
}

type playerResponse struct {
	ID          string `json:"id"`
	PlayerName  string `json:"playerName,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	FullName    string `json:"fullName,omitempty"`
	Name        string `json:"name,omitempty"`
	CommunityID string `json:"communityId"`
	CountyID    string `json:"countyId"`
	RegionID    string `json:"regionId"`
	Avatar      string `json:"avatar,omitempty"`
}

func (c *tournamentClient) RegisteredPlayers(ctx context.Context, tournamentID string) ([]domain.Player, error) {
	url := fmt.Sprintf("%s/internal/tournaments/%s/players", c.baseURL, tournamentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call tournament service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: tournament service returned status %d", domain.ErrStoreUnavailable, resp.StatusCode)
	}

	var players []playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&players); err != nil {
		return nil, fmt.Errorf("decode players response: %w", err)
	}

	out := make([]domain.Player, len(players))
	for i, p := range players {
		out[i] = domain.Player{
			ID:          p.ID,
			Name:        domain.ResolveName(p.ID, p.PlayerName, p.DisplayName, p.FullName, p.Name),
			CommunityID: p.CommunityID,
			CountyID:    p.CountyID,
			RegionID:    p.RegionID,
			Avatar:      p.Avatar,
		}
	}
	return out, nil
}

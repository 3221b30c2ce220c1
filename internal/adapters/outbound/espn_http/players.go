package espn_http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/draftops/draftops/internal/players"
)

type playerResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Position string `json:"defaultPosition"`
	ProTeam  string `json:"proTeamAbbreviation"`
}

// PlayerByID fetches one player's metadata; it satisfies the resolver's
// fetcher.
func (c *Client) PlayerByID(ctx context.Context, id string) (players.Info, error) {
	path := fmt.Sprintf("/seasons/%d/players/%s?view=players_wl", c.season, id)
	body, status, err := c.Get(ctx, path)
	if err != nil {
		return players.Info{}, err
	}
	if status != http.StatusOK {
		return players.Info{}, fmt.Errorf("player %s: status %d", id, status)
	}

	var p playerResponse
	if err := json.Unmarshal(body, &p); err != nil {
		return players.Info{}, fmt.Errorf("parse player %s: %w", id, err)
	}
	if p.FullName == "" {
		return players.Info{}, fmt.Errorf("player %s: empty record", id)
	}

	return players.Info{
		ID:       id,
		FullName: p.FullName,
		Position: p.Position,
		ProTeam:  p.ProTeam,
	}, nil
}

package espn_http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/draftops/draftops/internal/protocol"
)

// draftDetailResponse is the slice of the league read we care about:
// the authoritative pick log.
type draftDetailResponse struct {
	DraftDetail struct {
		Picks []struct {
			OverallPickNumber int    `json:"overallPickNumber"`
			PlayerID          int64  `json:"playerId"`
			TeamID            int    `json:"teamId"`
			MemberID          string `json:"memberId"`
		} `json:"picks"`
	} `json:"draftDetail"`
}

// PicksInRange fetches the league's draft log and returns the picks in
// [from, to] inclusive, ordered by overall pick number. It satisfies
// the recovery coordinator's backfill source.
func (c *Client) PicksInRange(ctx context.Context, from, to int) ([]protocol.PickSelected, error) {
	path := fmt.Sprintf("/seasons/%d/segments/0/leagues/%s?view=mDraftDetail", c.season, c.leagueID)
	body, status, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("draft detail: status %d", status)
	}

	var detail draftDetailResponse
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("parse draft detail: %w", err)
	}

	var picks []protocol.PickSelected
	for _, p := range detail.DraftDetail.Picks {
		if p.OverallPickNumber < from || p.OverallPickNumber > to {
			continue
		}
		picks = append(picks, protocol.PickSelected{
			TeamID:      p.TeamID,
			PlayerID:    strconv.FormatInt(p.PlayerID, 10),
			OverallPick: p.OverallPickNumber,
			ActorID:     p.MemberID,
		})
	}

	sort.Slice(picks, func(i, j int) bool {
		return picks[i].OverallPick < picks[j].OverallPick
	})
	return picks, nil
}

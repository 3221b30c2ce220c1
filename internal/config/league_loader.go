package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// League is the per-draft settings file: which league we are watching,
// its shape, which seat is ours, and how aggressively to reconnect.
type League struct {
	LeagueID   string `yaml:"league_id"`
	TeamCount  int    `yaml:"team_count"`
	Rounds     int    `yaml:"rounds"`
	MyTeamID   int    `yaml:"my_team_id"`
	MyMemberID string `yaml:"my_member_id"`

	// Draft order by team id; empty means seats 1..team_count.
	DraftOrder []int `yaml:"draft_order"`

	Reconnect Reconnect `yaml:"reconnect"`
}

type Reconnect struct {
	BackoffSec  []int `yaml:"backoff_sec"`
	MaxAttempts int   `yaml:"max_attempts"`
}

// BackoffSchedule converts the configured delays to durations.
func (r Reconnect) BackoffSchedule() []time.Duration {
	out := make([]time.Duration, len(r.BackoffSec))
	for i, s := range r.BackoffSec {
		out[i] = time.Duration(s) * time.Second
	}
	return out
}

func LoadLeague(path string) (League, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return League{}, fmt.Errorf("read league config: %w", err)
	}

	var lg League
	if err := yaml.Unmarshal(data, &lg); err != nil {
		return League{}, fmt.Errorf("parse league config: %w", err)
	}

	if err := lg.validate(); err != nil {
		return League{}, err
	}
	return lg, nil
}

func (lg League) validate() error {
	if lg.LeagueID == "" {
		return fmt.Errorf("league config: league_id is required")
	}
	if lg.TeamCount < 2 {
		return fmt.Errorf("league config: team_count %d, need at least 2", lg.TeamCount)
	}
	if lg.Rounds < 1 {
		return fmt.Errorf("league config: rounds %d, need at least 1", lg.Rounds)
	}
	if lg.MyTeamID < 1 || lg.MyTeamID > lg.TeamCount {
		return fmt.Errorf("league config: my_team_id %d outside 1..%d", lg.MyTeamID, lg.TeamCount)
	}
	if len(lg.DraftOrder) != 0 && len(lg.DraftOrder) != lg.TeamCount {
		return fmt.Errorf("league config: draft_order has %d entries, want %d", len(lg.DraftOrder), lg.TeamCount)
	}
	if len(lg.Reconnect.BackoffSec) == 0 {
		return fmt.Errorf("league config: reconnect.backoff_sec must not be empty")
	}
	for _, s := range lg.Reconnect.BackoffSec {
		if s < 0 {
			return fmt.Errorf("league config: negative backoff delay %d", s)
		}
	}
	if lg.Reconnect.MaxAttempts < 1 {
		return fmt.Errorf("league config: reconnect.max_attempts %d, need at least 1", lg.Reconnect.MaxAttempts)
	}
	return nil
}

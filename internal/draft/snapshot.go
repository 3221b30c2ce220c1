// Package draft holds the event-sourced draft state: immutable snapshots,
// a pure apply transform, and the snake-order math derived from them.
package draft

import (
	"fmt"
	"time"

	"github.com/draftops/draftops/internal/protocol"
)

// Pick is one completed selection in the draft.
type Pick struct {
	OverallPick int
	TeamID      int
	PlayerID    string
	Timestamp   time.Time
}

// Snapshot is an immutable, fully-consistent view of the draft at a given
// sequence number. Snapshots are produced only by Apply; nothing mutates
// one in place, so any goroutine may hold and read a *Snapshot freely.
//
// Invariants, preserved by construction:
//
//	len(PickHistory) == CurrentPick - 1
//	DraftedPlayers == set of PickHistory player IDs, no duplicates
//	every team ID in PickHistory is within 1..LeagueSize
type Snapshot struct {
	SequenceNumber  uint64
	CurrentPick     int // 1-based overall pick now in progress
	PickHistory     []Pick
	DraftedPlayers  map[string]struct{}
	Rosters         map[int][]string // teamID -> ordered player IDs
	AutoDraft       map[int]bool
	Members         map[string]int // actorID -> teamID, currently in the room
	DraftOrder      []int          // round-1 slot order; DraftOrder[i] picks (i+1)th
	OnTheClockTeam  int            // 0 before the first SELECTING frame
	TimeRemainingMs int64
	LeagueSize      int
	Rounds          int
}

// Status reports the phase of the draft derived from the snapshot.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// NewSnapshot builds the starting snapshot: pick 1, empty rosters, league
// size fixed for the life of the draft. Order defaults to team IDs 1..N
// when nil.
func NewSnapshot(leagueSize, rounds int, order []int) (*Snapshot, error) {
	if leagueSize < 2 {
		return nil, fmt.Errorf("%w: league size %d", ErrInvalidLeague, leagueSize)
	}
	if rounds < 1 {
		return nil, fmt.Errorf("%w: %d rounds", ErrInvalidLeague, rounds)
	}
	if order == nil {
		order = make([]int, leagueSize)
		for i := range order {
			order[i] = i + 1
		}
	}
	if len(order) != leagueSize {
		return nil, fmt.Errorf("%w: draft order has %d slots for %d teams", ErrInvalidLeague, len(order), leagueSize)
	}
	return &Snapshot{
		CurrentPick:    1,
		DraftedPlayers: map[string]struct{}{},
		Rosters:        map[int][]string{},
		AutoDraft:      map[int]bool{},
		Members:        map[string]int{},
		DraftOrder:     order,
		LeagueSize:     leagueSize,
		Rounds:         rounds,
	}, nil
}

// Apply produces the successor snapshot for an event, or an error when the
// event must be rejected. The input snapshot is never modified. Events that
// carry no state (heartbeats, unrecognized frames) return the input
// snapshot unchanged with a nil error.
func Apply(s *Snapshot, ev protocol.DraftEvent) (*Snapshot, error) {
	switch e := ev.(type) {
	case protocol.PickSelected:
		return applyPick(s, e)

	case protocol.TeamOnClock:
		next := s.clone()
		next.OnTheClockTeam = e.TeamID
		next.TimeRemainingMs = e.ClockMs
		return next, nil

	case protocol.ClockTick:
		next := s.clone()
		next.TimeRemainingMs = max(e.RemainingMs, 0)
		return next, nil

	case protocol.AutoDraftToggled:
		next := s.clone()
		next.AutoDraft = cloneBoolMap(s.AutoDraft)
		next.AutoDraft[e.TeamID] = e.Enabled
		return next, nil

	case protocol.SessionJoined:
		next := s.clone()
		next.Members = cloneMembers(s.Members)
		next.Members[e.ActorID] = e.TeamID
		return next, nil

	case protocol.SessionLeft:
		next := s.clone()
		next.Members = cloneMembers(s.Members)
		delete(next.Members, e.ActorID)
		return next, nil

	default:
		// Heartbeat, Unrecognized: liveness and drift are not draft state.
		return s, nil
	}
}

func applyPick(s *Snapshot, e protocol.PickSelected) (*Snapshot, error) {
	if _, dup := s.DraftedPlayers[e.PlayerID]; dup {
		return nil, fmt.Errorf("pick %d: %w: player %s", e.OverallPick, ErrDuplicatePick, e.PlayerID)
	}
	if e.OverallPick != s.CurrentPick {
		return nil, fmt.Errorf("pick %d while current is %d: %w", e.OverallPick, s.CurrentPick, ErrOutOfOrder)
	}
	if e.TeamID < 1 || e.TeamID > s.LeagueSize {
		return nil, fmt.Errorf("pick %d: %w: team %d in a %d-team league", e.OverallPick, ErrUnknownTeam, e.TeamID, s.LeagueSize)
	}

	next := s.clone()

	next.PickHistory = make([]Pick, len(s.PickHistory), len(s.PickHistory)+1)
	copy(next.PickHistory, s.PickHistory)
	next.PickHistory = append(next.PickHistory, Pick{
		OverallPick: e.OverallPick,
		TeamID:      e.TeamID,
		PlayerID:    e.PlayerID,
		Timestamp:   time.Now(),
	})

	next.DraftedPlayers = make(map[string]struct{}, len(s.DraftedPlayers)+1)
	for id := range s.DraftedPlayers {
		next.DraftedPlayers[id] = struct{}{}
	}
	next.DraftedPlayers[e.PlayerID] = struct{}{}

	next.Rosters = make(map[int][]string, len(s.Rosters)+1)
	for team, roster := range s.Rosters {
		next.Rosters[team] = roster
	}
	roster := make([]string, len(s.Rosters[e.TeamID]), len(s.Rosters[e.TeamID])+1)
	copy(roster, s.Rosters[e.TeamID])
	next.Rosters[e.TeamID] = append(roster, e.PlayerID)

	next.CurrentPick = s.CurrentPick + 1
	return next, nil
}

// clone copies the snapshot shell and bumps the sequence number. Reference
// fields still alias the parent; apply paths that touch one replace it
// wholesale before the new snapshot escapes.
func (s *Snapshot) clone() *Snapshot {
	next := *s
	next.SequenceNumber = s.SequenceNumber + 1
	return &next
}

func cloneBoolMap(m map[int]bool) map[int]bool {
	out := make(map[int]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneMembers(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Drafted reports whether a player has already been selected.
func (s *Snapshot) Drafted(playerID string) bool {
	_, ok := s.DraftedPlayers[playerID]
	return ok
}

// Roster returns a copy of a team's picks in selection order.
func (s *Snapshot) Roster(teamID int) []string {
	roster := s.Rosters[teamID]
	out := make([]string, len(roster))
	copy(out, roster)
	return out
}

// TotalPicks is the number of selections in a complete draft.
func (s *Snapshot) TotalPicks() int {
	return s.LeagueSize * s.Rounds
}

// Status derives the draft phase: completed once every pick is in,
// in progress once anything has happened, waiting otherwise.
func (s *Snapshot) Status() Status {
	switch {
	case s.CurrentPick > s.TotalPicks():
		return StatusCompleted
	case len(s.PickHistory) > 0 || s.OnTheClockTeam != 0:
		return StatusInProgress
	default:
		return StatusWaiting
	}
}

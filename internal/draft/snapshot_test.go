package draft

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/draftops/draftops/internal/protocol"
)

func mustSnapshot(t *testing.T, leagueSize, rounds int) *Snapshot {
	t.Helper()
	s, err := NewSnapshot(leagueSize, rounds, nil)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return s
}

func pickAt(overall int, s *Snapshot) protocol.PickSelected {
	return protocol.PickSelected{
		TeamID:      s.TeamForPick(overall),
		PlayerID:    fmt.Sprintf("P%d", overall),
		OverallPick: overall,
		ActorID:     "{guid}",
	}
}

func checkInvariants(t *testing.T, s *Snapshot) {
	t.Helper()
	if got, want := len(s.PickHistory), s.CurrentPick-1; got != want {
		t.Fatalf("len(PickHistory) = %d, want CurrentPick-1 = %d", got, want)
	}
	if len(s.DraftedPlayers) != len(s.PickHistory) {
		t.Fatalf("DraftedPlayers has %d entries for %d picks", len(s.DraftedPlayers), len(s.PickHistory))
	}
	seen := map[string]bool{}
	for _, p := range s.PickHistory {
		if seen[p.PlayerID] {
			t.Fatalf("player %s appears twice in PickHistory", p.PlayerID)
		}
		seen[p.PlayerID] = true
		if !s.Drafted(p.PlayerID) {
			t.Fatalf("player %s in history but not in DraftedPlayers", p.PlayerID)
		}
		if p.TeamID < 1 || p.TeamID > s.LeagueSize {
			t.Fatalf("team %d out of range 1..%d", p.TeamID, s.LeagueSize)
		}
	}
}

func TestApplyFirstPick(t *testing.T) {
	s := mustSnapshot(t, 10, 16)

	next, err := Apply(s, protocol.PickSelected{TeamID: 3, PlayerID: "P1", OverallPick: 1, ActorID: "{guid}"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if next.CurrentPick != 2 {
		t.Errorf("CurrentPick = %d, want 2", next.CurrentPick)
	}
	if !next.Drafted("P1") {
		t.Errorf("P1 not in drafted set")
	}
	if got := next.Roster(3); !reflect.DeepEqual(got, []string{"P1"}) {
		t.Errorf("Roster(3) = %v, want [P1]", got)
	}
	if next.SequenceNumber != s.SequenceNumber+1 {
		t.Errorf("SequenceNumber = %d, want %d", next.SequenceNumber, s.SequenceNumber+1)
	}
	checkInvariants(t, next)

	// the parent snapshot must be untouched
	if s.CurrentPick != 1 || len(s.PickHistory) != 0 || s.Drafted("P1") {
		t.Errorf("Apply mutated the input snapshot: %+v", s)
	}
}

func TestApplyFullOrderPreservesInvariants(t *testing.T) {
	s := mustSnapshot(t, 10, 16)
	for overall := 1; overall <= s.TotalPicks(); overall++ {
		var err error
		s, err = Apply(s, pickAt(overall, s))
		if err != nil {
			t.Fatalf("pick %d: %v", overall, err)
		}
		checkInvariants(t, s)
	}
	if s.Status() != StatusCompleted {
		t.Errorf("Status = %s after final pick, want %s", s.Status(), StatusCompleted)
	}
}

func TestApplyRejections(t *testing.T) {
	s := mustSnapshot(t, 10, 16)
	s, err := Apply(s, protocol.PickSelected{TeamID: 1, PlayerID: "P1", OverallPick: 1, ActorID: "{guid}"})
	if err != nil {
		t.Fatalf("setup pick: %v", err)
	}

	cases := []struct {
		name string
		ev   protocol.PickSelected
		want error
	}{
		{
			name: "same event twice",
			ev:   protocol.PickSelected{TeamID: 1, PlayerID: "P1", OverallPick: 1, ActorID: "{guid}"},
			want: ErrDuplicatePick,
		},
		{
			name: "drafted player at the right pick number",
			ev:   protocol.PickSelected{TeamID: 2, PlayerID: "P1", OverallPick: 2, ActorID: "{guid}"},
			want: ErrDuplicatePick,
		},
		{
			name: "pick number ahead of current",
			ev:   protocol.PickSelected{TeamID: 2, PlayerID: "P9", OverallPick: 4, ActorID: "{guid}"},
			want: ErrOutOfOrder,
		},
		{
			name: "pick number behind current",
			ev:   protocol.PickSelected{TeamID: 2, PlayerID: "P9", OverallPick: 1, ActorID: "{guid}"},
			want: ErrOutOfOrder,
		},
		{
			name: "team outside the league",
			ev:   protocol.PickSelected{TeamID: 11, PlayerID: "P9", OverallPick: 2, ActorID: "{guid}"},
			want: ErrUnknownTeam,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Apply(s, tc.ev)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Apply err = %v, want %v", err, tc.want)
			}
			// rejection must leave state unchanged
			if s.CurrentPick != 2 || len(s.PickHistory) != 1 {
				t.Fatalf("rejection changed state: %+v", s)
			}
			checkInvariants(t, s)
		})
	}
}

func TestApplyStatusUpdates(t *testing.T) {
	s := mustSnapshot(t, 8, 15)

	s2, err := Apply(s, protocol.TeamOnClock{TeamID: 5, ClockMs: 90000})
	if err != nil {
		t.Fatalf("TeamOnClock: %v", err)
	}
	if s2.OnTheClockTeam != 5 || s2.TimeRemainingMs != 90000 {
		t.Errorf("on clock = (%d, %dms), want (5, 90000ms)", s2.OnTheClockTeam, s2.TimeRemainingMs)
	}
	if s2.Status() != StatusInProgress {
		t.Errorf("Status = %s, want %s", s2.Status(), StatusInProgress)
	}

	s3, err := Apply(s2, protocol.ClockTick{TeamID: 5, RemainingMs: 41000, Round: 1})
	if err != nil {
		t.Fatalf("ClockTick: %v", err)
	}
	if s3.TimeRemainingMs != 41000 {
		t.Errorf("TimeRemainingMs = %d, want 41000", s3.TimeRemainingMs)
	}

	// negative remaining clamps to zero
	s4, err := Apply(s3, protocol.ClockTick{TeamID: 5, RemainingMs: -250})
	if err != nil {
		t.Fatalf("ClockTick: %v", err)
	}
	if s4.TimeRemainingMs != 0 {
		t.Errorf("TimeRemainingMs = %d, want 0", s4.TimeRemainingMs)
	}

	// status updates are idempotent, never touch pick history
	if len(s4.PickHistory) != 0 || s4.CurrentPick != 1 {
		t.Errorf("status updates touched pick state: %+v", s4)
	}
}

func TestApplySessionAndAutodraft(t *testing.T) {
	s := mustSnapshot(t, 10, 16)

	s, err := Apply(s, protocol.SessionJoined{TeamID: 4, ActorID: "{A}"})
	if err != nil {
		t.Fatalf("SessionJoined: %v", err)
	}
	if got := s.Members["{A}"]; got != 4 {
		t.Errorf("Members[{A}] = %d, want 4", got)
	}

	s, err = Apply(s, protocol.AutoDraftToggled{TeamID: 4, Enabled: true})
	if err != nil {
		t.Fatalf("AutoDraftToggled: %v", err)
	}
	if !s.AutoDraft[4] {
		t.Errorf("AutoDraft[4] = false, want true")
	}

	s, err = Apply(s, protocol.SessionLeft{TeamID: 4, ActorID: "{A}", Reason: "timeout"})
	if err != nil {
		t.Fatalf("SessionLeft: %v", err)
	}
	if _, still := s.Members["{A}"]; still {
		t.Errorf("Members[{A}] still present after leave")
	}
}

func TestApplyControlFramesAreNoops(t *testing.T) {
	s := mustSnapshot(t, 10, 16)
	for _, ev := range []protocol.DraftEvent{
		protocol.Heartbeat{Nonce: "n"},
		protocol.Unrecognized{Raw: "TOKEN abc"},
	} {
		next, err := Apply(s, ev)
		if err != nil {
			t.Fatalf("Apply(%T): %v", ev, err)
		}
		if next != s {
			t.Errorf("Apply(%T) produced a new snapshot", ev)
		}
	}
}

func TestReplayDeterminism(t *testing.T) {
	s := mustSnapshot(t, 8, 15)
	for overall := 1; overall <= s.TotalPicks(); overall++ {
		var err error
		s, err = Apply(s, pickAt(overall, s))
		if err != nil {
			t.Fatalf("pick %d: %v", overall, err)
		}
	}

	// replaying the recorded history from a fresh snapshot reproduces the
	// final state exactly
	replay := mustSnapshot(t, 8, 15)
	for _, p := range s.PickHistory {
		var err error
		replay, err = Apply(replay, protocol.PickSelected{
			TeamID:      p.TeamID,
			PlayerID:    p.PlayerID,
			OverallPick: p.OverallPick,
			ActorID:     "{guid}",
		})
		if err != nil {
			t.Fatalf("replay pick %d: %v", p.OverallPick, err)
		}
	}

	if replay.CurrentPick != s.CurrentPick || replay.SequenceNumber != s.SequenceNumber {
		t.Fatalf("replay diverged: pick %d seq %d vs pick %d seq %d",
			replay.CurrentPick, replay.SequenceNumber, s.CurrentPick, s.SequenceNumber)
	}
	if !reflect.DeepEqual(replay.DraftedPlayers, s.DraftedPlayers) {
		t.Errorf("drafted sets differ")
	}
	if !reflect.DeepEqual(replay.Rosters, s.Rosters) {
		t.Errorf("rosters differ")
	}
	for i := range s.PickHistory {
		a, b := replay.PickHistory[i], s.PickHistory[i]
		if a.OverallPick != b.OverallPick || a.TeamID != b.TeamID || a.PlayerID != b.PlayerID {
			t.Fatalf("history diverged at %d: %+v vs %+v", i, a, b)
		}
	}
}

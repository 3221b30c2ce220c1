package draft

import "testing"

func TestRoundAndSlotAgainstHandComputedOrder(t *testing.T) {
	const rounds = 16
	for _, leagueSize := range []int{8, 10, 12} {
		s := mustSnapshot(t, leagueSize, rounds)
		pick := 1
		for round := 1; round <= rounds; round++ {
			for i := 0; i < leagueSize; i++ {
				// odd rounds run 1..N, even rounds N..1
				wantSlot := i + 1
				if round%2 == 0 {
					wantSlot = leagueSize - i
				}

				if got := Round(pick, leagueSize); got != round {
					t.Fatalf("Round(%d, %d) = %d, want %d", pick, leagueSize, got, round)
				}
				if got := SlotInRound(pick, leagueSize); got != wantSlot {
					t.Fatalf("SlotInRound(%d, %d) = %d, want %d", pick, leagueSize, got, wantSlot)
				}
				if got := s.TeamForPick(pick); got != wantSlot {
					t.Fatalf("TeamForPick(%d) = %d, want %d (league %d)", pick, got, wantSlot, leagueSize)
				}
				pick++
			}
		}
	}
}

func TestRoundTurnBoundaries(t *testing.T) {
	// the turn: last pick of a round and first pick of the next belong to
	// the same team
	for _, leagueSize := range []int{8, 10, 12} {
		s := mustSnapshot(t, leagueSize, 16)
		for round := 1; round < 16; round++ {
			last := round * leagueSize
			first := last + 1
			if s.TeamForPick(last) != s.TeamForPick(first) {
				t.Fatalf("league %d: team at pick %d (%d) != team at pick %d (%d)",
					leagueSize, last, s.TeamForPick(last), first, s.TeamForPick(first))
			}
		}
	}
}

func TestTeamForPickCustomOrder(t *testing.T) {
	s, err := NewSnapshot(4, 2, []int{7, 3, 9, 1})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	want := []int{7, 3, 9, 1, 1, 9, 3, 7}
	for pick := 1; pick <= 8; pick++ {
		if got := s.TeamForPick(pick); got != want[pick-1] {
			t.Fatalf("TeamForPick(%d) = %d, want %d", pick, got, want[pick-1])
		}
	}
	if got := s.TeamForPick(9); got != 0 {
		t.Errorf("TeamForPick past draft end = %d, want 0", got)
	}
}

func TestPicksUntil(t *testing.T) {
	s := mustSnapshot(t, 10, 16)

	cases := []struct {
		currentPick int
		teamID      int
		want        int
	}{
		{1, 1, 0},   // on the clock now
		{1, 7, 6},   // round 1, six picks away
		{5, 7, 2},   // the reconnect-gap scenario
		{10, 10, 0}, // last slot of round 1
		{10, 1, 10}, // team 1 picks again at 20 (snake turn)
		{11, 10, 0}, // first pick of round 2 is team 10 again
		{160, 10, -1},
	}

	for _, tc := range cases {
		s2 := *s
		s2.CurrentPick = tc.currentPick
		if got := s2.PicksUntil(tc.teamID); got != tc.want {
			t.Errorf("PicksUntil(team %d) at pick %d = %d, want %d",
				tc.teamID, tc.currentPick, got, tc.want)
		}
	}

	if got := s.PicksUntil(99); got != -1 {
		t.Errorf("PicksUntil(unknown team) = %d, want -1", got)
	}
}

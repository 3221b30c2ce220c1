package draft

// Round returns the 1-based round an overall pick falls in.
func Round(pick, leagueSize int) int {
	return (pick-1)/leagueSize + 1
}

// SlotInRound returns the 1-based slot within the round, accounting for the
// snake reversal on even rounds: slot 1 of round 2 belongs to the team that
// picked last in round 1.
func SlotInRound(pick, leagueSize int) int {
	idx := (pick - 1) % leagueSize
	if Round(pick, leagueSize)%2 == 0 {
		return leagueSize - idx
	}
	return idx + 1
}

// TeamForPick returns the team ID on the clock at an overall pick, walking
// the snapshot's round-1 draft order forward and back.
func (s *Snapshot) TeamForPick(pick int) int {
	if pick < 1 || pick > s.TotalPicks() {
		return 0
	}
	return s.DraftOrder[SlotInRound(pick, s.LeagueSize)-1]
}

// PicksUntil returns how many selections remain before teamID is next on
// the clock: 0 when it is on the clock now, -1 when the team has no pick
// left (or is unknown).
func (s *Snapshot) PicksUntil(teamID int) int {
	for p := s.CurrentPick; p <= s.TotalPicks(); p++ {
		if s.TeamForPick(p) == teamID {
			return p - s.CurrentPick
		}
	}
	return -1
}

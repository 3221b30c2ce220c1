package protocol

import (
	"strconv"
	"strings"
)

// Decode translates one raw frame into a DraftEvent. It is a pure function
// with no I/O or shared state, safe to call from any goroutine. It never
// fails: frames that don't match a known command shape, including known
// commands with too few or malformed fields, come back as Unrecognized.
func Decode(raw string) DraftEvent {
	parts := strings.Fields(raw)
	if len(parts) == 0 {
		return Unrecognized{Raw: raw}
	}

	switch strings.ToUpper(parts[0]) {
	case "SELECTED":
		if len(parts) < 5 {
			break
		}
		teamID, err1 := strconv.Atoi(parts[1])
		pick, err2 := strconv.Atoi(parts[3])
		if err1 != nil || err2 != nil {
			break
		}
		return PickSelected{
			TeamID:      teamID,
			PlayerID:    parts[2],
			OverallPick: pick,
			ActorID:     parts[4],
		}

	case "SELECTING":
		if len(parts) < 3 {
			break
		}
		teamID, err1 := strconv.Atoi(parts[1])
		clockMs, err2 := strconv.ParseInt(parts[2], 10, 64)
		if err1 != nil || err2 != nil {
			break
		}
		return TeamOnClock{TeamID: teamID, ClockMs: clockMs}

	case "CLOCK":
		if len(parts) < 3 {
			break
		}
		teamID, err1 := strconv.Atoi(parts[1])
		remainMs, err2 := strconv.ParseInt(parts[2], 10, 64)
		if err1 != nil || err2 != nil {
			break
		}
		round := 0
		if len(parts) > 3 {
			if r, err := strconv.Atoi(parts[3]); err == nil {
				round = r
			}
		}
		return ClockTick{TeamID: teamID, RemainingMs: remainMs, Round: round}

	case "AUTODRAFT":
		if len(parts) < 3 {
			break
		}
		teamID, err := strconv.Atoi(parts[1])
		if err != nil {
			break
		}
		return AutoDraftToggled{TeamID: teamID, Enabled: strings.EqualFold(parts[2], "true")}

	case "JOINED":
		if len(parts) < 3 {
			break
		}
		teamID, err := strconv.Atoi(parts[1])
		if err != nil {
			break
		}
		return SessionJoined{TeamID: teamID, ActorID: parts[2]}

	case "LEFT":
		if len(parts) < 3 {
			break
		}
		teamID, err := strconv.Atoi(parts[1])
		if err != nil {
			break
		}
		reason := ""
		if len(parts) > 3 {
			reason = strings.Join(parts[3:], " ")
		}
		return SessionLeft{TeamID: teamID, ActorID: parts[2], Reason: reason}

	case "PING", "PONG":
		nonce := ""
		if len(parts) > 1 {
			nonce = parts[1]
		}
		return Heartbeat{Nonce: nonce}
	}

	return Unrecognized{Raw: raw}
}

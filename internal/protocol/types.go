// Package protocol decodes the draft room's text-command frames into typed
// draft events. The upstream protocol is plain space-delimited command
// lines, discovered by observation:
//
//	SELECTED {teamId} {playerId} {overallPick} {memberId}
//	SELECTING {teamId} {clockMs}
//	CLOCK {teamId} {remainingMs} {round?}
//	AUTODRAFT {teamId} {true|false}
//	JOINED {teamId} {memberId}
//	LEFT {teamId} {memberId} {reason?}
//	PING {nonce?} / PONG {nonce?}
//
// Anything else decodes to Unrecognized so protocol drift never breaks the
// pipeline.
package protocol

// DraftEvent is the closed set of events the decoder can produce. Adding a
// new command means adding a variant here, so every switch over DraftEvent
// is a compile-time-visible change.
type DraftEvent interface {
	draftEvent()
}

// PickSelected is a completed selection: teamID drafted playerID at the
// given overall pick number.
type PickSelected struct {
	TeamID      int
	PlayerID    string
	OverallPick int
	ActorID     string
}

// TeamOnClock announces which team is now selecting and its pick clock.
type TeamOnClock struct {
	TeamID  int
	ClockMs int64
}

// ClockTick is a countdown update for the team on the clock. Round is 0
// when the frame omits it.
type ClockTick struct {
	TeamID      int
	RemainingMs int64
	Round       int
}

// AutoDraftToggled reports a team turning autodraft on or off.
type AutoDraftToggled struct {
	TeamID  int
	Enabled bool
}

// SessionJoined reports a member joining the draft room.
type SessionJoined struct {
	TeamID  int
	ActorID string
}

// SessionLeft reports a member leaving the draft room.
type SessionLeft struct {
	TeamID  int
	ActorID string
	Reason  string
}

// Heartbeat is a PING/PONG liveness echo.
type Heartbeat struct {
	Nonce string
}

// Unrecognized preserves any frame that did not match a known command
// shape, for offline analysis.
type Unrecognized struct {
	Raw string
}

func (PickSelected) draftEvent()     {}
func (TeamOnClock) draftEvent()      {}
func (ClockTick) draftEvent()        {}
func (AutoDraftToggled) draftEvent() {}
func (SessionJoined) draftEvent()    {}
func (SessionLeft) draftEvent()      {}
func (Heartbeat) draftEvent()        {}
func (Unrecognized) draftEvent()     {}

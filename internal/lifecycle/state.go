// Package lifecycle owns connection health: the
// Disconnected/Connecting/Connected/Reconnecting/Failed state machine,
// heartbeat-silence detection, and the backoff-driven reconnection loop.
package lifecycle

import "time"

// State is the connection lifecycle state.
type State string

const (
	StateDisconnected State = "DISCONNECTED"
	StateConnecting   State = "CONNECTING"
	StateConnected    State = "CONNECTED"
	StateReconnecting State = "RECONNECTING"
	StateFailed       State = "FAILED" // terminal, requires external restart
)

// Transition is published for every lifecycle state change.
type Transition struct {
	From    State
	To      State
	Reason  string
	Attempt int // reconnect attempt that caused the change, when relevant
	At      time.Time
}

// Health is the manager's view of connection liveness. Mutated only by the
// Manager; external readers get a copy via Manager.Health().
type Health struct {
	LastMessageAt    time.Time
	LastHeartbeatAt  time.Time
	ReconnectAttempt int // 0-based: attempts completed in the current cycle
	BackoffSchedule  []time.Duration
	MaxAttempts      int
}

// backoffDelay returns the wait before a given 0-based attempt: the first
// try is immediate, later tries index the schedule with a clamp so a finite
// schedule can serve any number of attempts.
func backoffDelay(attempt int, schedule []time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}
	idx := attempt - 1
	if idx >= len(schedule) {
		idx = len(schedule) - 1
	}
	return schedule[idx]
}

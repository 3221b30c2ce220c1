package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the envelope that flows through the event bus. Every signal in
// the pipeline — an accepted pick, a rejected frame, a connection-state
// transition, a detected gap — is wrapped in one.
type Event struct {
	ID        string
	Type      EventType
	Seq       uint64 // store sequence number at emission, 0 if not applicable
	Timestamp time.Time
	Payload   any
}

type EventType string

const (
	// Draft state store outcomes
	EventDraftApplied  EventType = "draft_applied"
	EventDraftRejected EventType = "draft_rejected"

	// Connection lifecycle
	EventLifecycle EventType = "lifecycle"

	// Decoder
	EventDecodeWarning EventType = "decode_warning"

	// Recovery
	EventGapDetected         EventType = "gap_detected"
	EventBackfillApplied     EventType = "backfill_applied"
	EventBackfillUnavailable EventType = "backfill_unavailable"
)

// Rejection pairs a draft event with the reason the store refused it.
// Rejections are delivered to consumers rather than swallowed: a burst
// of them usually means a missed-event gap is being replayed live.
type Rejection struct {
	Event  any
	Reason string
}

// New wraps a payload in a freshly-stamped envelope.
func New(t EventType, seq uint64, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Seq:       seq,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// Package recovery detects and repairs pick gaps caused by connection
// outages. When the connection drops, the draft keeps moving without us;
// the coordinator captures the last snapshot seen before the disconnect,
// then compares it against the first events received after reconnection
// to work out how many picks were missed. Detected gaps are announced on
// the bus and, when a backfill source is configured, filled through the
// store's normal apply path before live events resume.
package recovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/draftops/draftops/internal/draft"
	"github.com/draftops/draftops/internal/events"
	"github.com/draftops/draftops/internal/lifecycle"
	"github.com/draftops/draftops/internal/protocol"
	"github.com/draftops/draftops/internal/telemetry"
)

// maxInspect bounds how many post-reconnect events are examined for gap
// evidence before the coordinator gives up and assumes a clean resume.
const maxInspect = 5

// Gap is the missing pick range: picks FromPick..ToPick inclusive were
// made during the outage and never observed live.
type Gap struct {
	FromPick int
	ToPick   int
	Count    int
}

func (g Gap) String() string {
	if g.Count == 1 {
		return fmt.Sprintf("pick %d", g.FromPick)
	}
	return fmt.Sprintf("picks %d-%d", g.FromPick, g.ToPick)
}

// BackfillResult reports a repaired gap: Applied picks were fetched from
// the backfill source and accepted by the store.
type BackfillResult struct {
	Gap     Gap
	Applied int
}

// BackfillFailure reports a gap that could not be repaired. The gap has
// already been announced via the GapDetected event; this marks it
// unresolved rather than silently dropping it.
type BackfillFailure struct {
	Gap    Gap
	Reason string
}

// Context is the recovery bookkeeping for one outage.
type Context struct {
	PreDisconnectSnapshot *draft.Snapshot
	DisconnectedAt        time.Time
	ReconnectedAt         time.Time
	DetectedGap           int
}

// BackfillSource returns authoritative pick records for a pick-number
// range, both bounds inclusive.
type BackfillSource interface {
	PicksInRange(ctx context.Context, from, to int) ([]protocol.PickSelected, error)
}

// Coordinator owns gap detection across reconnects. It learns about
// connection transitions from the bus and about post-reconnect events
// from the frame pump, which calls Reconcile before applying each live
// event so backfilled picks land first.
type Coordinator struct {
	store  *draft.Store
	source BackfillSource // nil means gaps are announced but not repaired
	bus    *events.Bus

	mu        sync.Mutex
	rctx      *Context
	armed     bool
	inspected int
}

func NewCoordinator(store *draft.Store, source BackfillSource, bus *events.Bus) *Coordinator {
	c := &Coordinator{store: store, source: source, bus: bus}
	bus.Subscribe(events.EventLifecycle, c.onLifecycle)
	return c
}

// Context returns a copy of the active recovery context, or nil when no
// outage is being tracked.
func (c *Coordinator) Context() *Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rctx == nil {
		return nil
	}
	cp := *c.rctx
	return &cp
}

func (c *Coordinator) onLifecycle(e events.Event) error {
	t, ok := e.Payload.(lifecycle.Transition)
	if !ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch t.To {
	case lifecycle.StateReconnecting:
		// snapshot the world as it was when the connection died
		c.rctx = &Context{
			PreDisconnectSnapshot: c.store.Current(),
			DisconnectedAt:        t.At,
		}
		c.armed = false
	case lifecycle.StateConnected:
		if c.rctx != nil {
			c.rctx.ReconnectedAt = t.At
			c.armed = true
			c.inspected = 0
		}
	case lifecycle.StateDisconnected, lifecycle.StateFailed:
		c.rctx = nil
		c.armed = false
	}
	return nil
}

// Reconcile inspects one post-reconnect event for gap evidence. The
// caller is the single writer into the store, so any backfill performed
// here is fully applied before the event itself (and everything after
// it) reaches the store.
func (c *Coordinator) Reconcile(ctx context.Context, ev protocol.DraftEvent) {
	c.mu.Lock()
	if !c.armed || c.rctx == nil {
		c.mu.Unlock()
		return
	}
	pre := c.rctx.PreDisconnectSnapshot

	resumePick, ok := resumePick(pre, ev)
	if !ok {
		c.inspected++
		if c.inspected >= maxInspect {
			telemetry.Debugf("recovery: no gap evidence in first %d events, assuming clean resume", maxInspect)
			c.clearLocked()
		}
		c.mu.Unlock()
		return
	}

	gapCount := resumePick - pre.CurrentPick
	if gapCount <= 0 {
		if gapCount < 0 {
			// upstream renumbered picks during the outage; the live
			// stream is authoritative, so we warn instead of rolling back
			telemetry.Warnf("recovery: resume pick %d is behind pre-disconnect pick %d, possible upstream renumbering", resumePick, pre.CurrentPick)
		}
		c.clearLocked()
		c.mu.Unlock()
		return
	}

	gap := Gap{FromPick: pre.CurrentPick, ToPick: resumePick - 1, Count: gapCount}
	c.rctx.DetectedGap = gapCount
	c.armed = false
	c.mu.Unlock()

	telemetry.Warnf("recovery: %d pick(s) missed during outage (%s)", gap.Count, gap)
	telemetry.Metrics.GapsDetected.Inc()
	c.bus.Publish(events.New(events.EventGapDetected, c.store.Current().SequenceNumber, gap))

	c.backfill(ctx, gap)

	c.mu.Lock()
	c.clearLocked()
	c.mu.Unlock()
}

// clearLocked ends the recovery window. Caller holds mu.
func (c *Coordinator) clearLocked() {
	c.armed = false
	c.rctx = nil
}

func (c *Coordinator) backfill(ctx context.Context, gap Gap) {
	if c.source == nil {
		c.fail(gap, "no backfill source configured")
		return
	}

	picks, err := c.source.PicksInRange(ctx, gap.FromPick, gap.ToPick)
	if err != nil {
		c.fail(gap, fmt.Sprintf("backfill fetch failed: %v", err))
		return
	}
	if len(picks) != gap.Count {
		c.fail(gap, fmt.Sprintf("backfill returned %d pick(s), want %d", len(picks), gap.Count))
		return
	}

	applied := 0
	for _, pick := range picks {
		snap, err := c.store.Apply(pick)
		if err != nil {
			c.fail(gap, fmt.Sprintf("backfilled pick %d rejected: %v", pick.OverallPick, err))
			return
		}
		applied++
		c.bus.Publish(events.New(events.EventDraftApplied, snap.SequenceNumber, pick))
	}

	telemetry.Infof("recovery: backfilled %d pick(s) (%s)", applied, gap)
	telemetry.Metrics.PicksBackfilled.Add(int64(applied))
	c.bus.Publish(events.New(events.EventBackfillApplied, c.store.Current().SequenceNumber, BackfillResult{Gap: gap, Applied: applied}))
}

func (c *Coordinator) fail(gap Gap, reason string) {
	telemetry.Warnf("recovery: gap unresolved (%s): %s", gap, reason)
	c.bus.Publish(events.New(events.EventBackfillUnavailable, c.store.Current().SequenceNumber, BackfillFailure{Gap: gap, Reason: reason}))
}

// resumePick extracts the pick number the live stream has resumed at.
// PickSelected states it outright; TeamOnClock only names the team, so
// the pick is inferred as the nearest upcoming slot where the snake
// order puts that team on the clock.
func resumePick(pre *draft.Snapshot, ev protocol.DraftEvent) (int, bool) {
	switch e := ev.(type) {
	case protocol.PickSelected:
		return e.OverallPick, true
	case protocol.TeamOnClock:
		return inferPickForTeam(pre, e.TeamID)
	case protocol.ClockTick:
		return inferPickForTeam(pre, e.TeamID)
	}
	return 0, false
}

func inferPickForTeam(pre *draft.Snapshot, teamID int) (int, bool) {
	total := pre.LeagueSize * pre.Rounds
	for pick := pre.CurrentPick; pick <= total; pick++ {
		if pre.TeamForPick(pick) == teamID {
			return pick, true
		}
	}
	return 0, false
}

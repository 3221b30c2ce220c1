package process

import (
	"context"

	"github.com/draftops/draftops/internal/adapters/inbound/espn_ws"
	"github.com/draftops/draftops/internal/draft"
	"github.com/draftops/draftops/internal/events"
	"github.com/draftops/draftops/internal/lifecycle"
	"github.com/draftops/draftops/internal/players"
	"github.com/draftops/draftops/internal/protocol"
	"github.com/draftops/draftops/internal/recovery"
	"github.com/draftops/draftops/internal/telemetry"
)

// Pump is the single writer into the draft store: it decodes each
// inbound frame, feeds liveness to the lifecycle manager, gives the
// recovery coordinator first look after a reconnect, and applies the
// event. Everything downstream sees the result on the bus.
type Pump struct {
	frames   <-chan espn_ws.Frame
	store    *draft.Store
	manager  *lifecycle.Manager
	coord    *recovery.Coordinator
	resolver *players.Resolver // optional, display only
	bus      *events.Bus
}

func NewPump(frames <-chan espn_ws.Frame, store *draft.Store, manager *lifecycle.Manager, coord *recovery.Coordinator, resolver *players.Resolver, bus *events.Bus) *Pump {
	return &Pump{
		frames:   frames,
		store:    store,
		manager:  manager,
		coord:    coord,
		resolver: resolver,
		bus:      bus,
	}
}

// Run consumes frames until ctx is cancelled.
func (p *Pump) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-p.frames:
			p.handle(ctx, f)
		}
	}
}

func (p *Pump) handle(ctx context.Context, f espn_ws.Frame) {
	ev := protocol.Decode(f.Text)

	// any frame counts as liveness, even one we cannot decode
	p.manager.Observe(ev)

	switch ev.(type) {
	case protocol.Unrecognized:
		telemetry.Metrics.DecodeWarnings.Inc()
		telemetry.Debugf("pump: unrecognized frame %q", f.Text)
		p.bus.Publish(events.New(events.EventDecodeWarning, p.store.Current().SequenceNumber, ev))
		return
	case protocol.Heartbeat:
		return
	}

	// after a reconnect, missed picks must be backfilled before this
	// live event reaches the store
	p.coord.Reconcile(ctx, ev)

	prev := p.store.Current()
	snap, err := p.store.Apply(ev)
	if err != nil {
		telemetry.Metrics.EventsRejected.Inc()
		telemetry.Warnf("pump: rejected %T: %v", ev, err)
		p.bus.Publish(events.New(events.EventDraftRejected, prev.SequenceNumber, events.Rejection{Event: ev, Reason: err.Error()}))
		return
	}
	if snap == prev {
		// idempotent status frame, nothing changed
		return
	}

	telemetry.Metrics.EventsApplied.Inc()
	p.bus.Publish(events.New(events.EventDraftApplied, snap.SequenceNumber, ev))

	if pick, ok := ev.(protocol.PickSelected); ok {
		p.announcePick(ctx, pick, snap)
	}
}

// announcePick logs the human-readable pick line. Name resolution may
// hit the network, so it runs off the pump goroutine.
func (p *Pump) announcePick(ctx context.Context, pick protocol.PickSelected, snap *draft.Snapshot) {
	round := draft.Round(pick.OverallPick, snap.LeagueSize)
	slot := draft.SlotInRound(pick.OverallPick, snap.LeagueSize)

	if p.resolver == nil {
		telemetry.Infof("pick %d (%d.%02d): team %d selected player %s", pick.OverallPick, round, slot, pick.TeamID, pick.PlayerID)
		return
	}
	go func() {
		info, err := p.resolver.Resolve(ctx, pick.PlayerID)
		if err != nil {
			telemetry.Infof("pick %d (%d.%02d): team %d selected player %s", pick.OverallPick, round, slot, pick.TeamID, pick.PlayerID)
			return
		}
		telemetry.Infof("pick %d (%d.%02d): team %d selected %s (%s)", pick.OverallPick, round, slot, pick.TeamID, info.FullName, info.Position)
	}()
}

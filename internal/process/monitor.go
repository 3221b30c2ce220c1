// Package process boots and wires the draft monitor: frame source,
// decoder pump, lifecycle manager, state store, recovery coordinator,
// and the consumer-facing dispatcher.
package process

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/draftops/draftops/internal/adapters/inbound/espn_ws"
	"github.com/draftops/draftops/internal/adapters/outbound/espn_http"
	"github.com/draftops/draftops/internal/config"
	"github.com/draftops/draftops/internal/dispatch"
	"github.com/draftops/draftops/internal/draft"
	"github.com/draftops/draftops/internal/events"
	"github.com/draftops/draftops/internal/lifecycle"
	"github.com/draftops/draftops/internal/players"
	"github.com/draftops/draftops/internal/recovery"
	"github.com/draftops/draftops/internal/telemetry"
)

// Run boots the monitor process and blocks until SIGINT/SIGTERM.
func Run() {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))

	telemetry.Infof("Starting draft monitor")

	lg, err := config.LoadLeague(cfg.LeaguePath)
	if err != nil {
		telemetry.Errorf("League config: %v", err)
		os.Exit(1)
	}
	telemetry.Infof("League %s: %d teams x %d rounds, our seat is team %d", lg.LeagueID, lg.TeamCount, lg.Rounds, lg.MyTeamID)

	bus := events.NewBus()

	// ── Draft state store ──────────────────────────────────────
	initial, err := draft.NewSnapshot(lg.TeamCount, lg.Rounds, lg.DraftOrder)
	if err != nil {
		telemetry.Errorf("Initial snapshot: %v", err)
		os.Exit(1)
	}
	store := draft.NewStore(initial, draft.DefaultMaxHistory)

	// ── Frame archive ──────────────────────────────────────────
	archive, err := espn_ws.OpenArchive(cfg.ArchivePath, cfg.ArchiveMaxFrames)
	if err != nil {
		// the monitor still works without persistence
		telemetry.Warnf("Frame archive disabled: %v", err)
		archive = nil
	}

	// ── Frame source ───────────────────────────────────────────
	wsClient := espn_ws.NewClient(cfg.DraftWSURL, cfg.SWID, cfg.ESPNS2, archive)

	// ── Lifecycle manager ──────────────────────────────────────
	manager, err := lifecycle.NewManager(lifecycle.Config{
		HeartbeatTimeout: cfg.HeartbeatTimeout,
		HealthInterval:   cfg.HealthInterval,
		BackoffSchedule:  lg.Reconnect.BackoffSchedule(),
		MaxAttempts:      lg.Reconnect.MaxAttempts,
		LocalActorID:     lg.MyMemberID,
	}, wsClient, bus)
	if err != nil {
		telemetry.Errorf("Lifecycle manager: %v", err)
		os.Exit(1)
	}
	wsClient.OnClose(manager.ReportClose)

	// ── Backfill + player resolution ───────────────────────────
	httpClient := espn_http.NewClient(cfg.DraftAPIBase, lg.LeagueID, cfg.Season, cfg.SWID, cfg.ESPNS2)
	coord := recovery.NewCoordinator(store, httpClient, bus)
	resolver := players.NewResolver(httpClient)

	// ── Dispatcher ─────────────────────────────────────────────
	dispatcher := dispatch.NewDispatcher(bus, cfg.ConsumerBuffer)
	_, logFeed := dispatcher.Register("log-sink")
	go func() {
		for e := range logFeed {
			telemetry.Debugf("dispatch: %s seq=%d", e.Type, e.Seq)
		}
	}()

	// ── Pump + initial connection ──────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pump := NewPump(wsClient.Frames(), store, manager, coord, resolver, bus)
	go pump.Run(ctx)

	manager.Start(ctx)
	if err := wsClient.Connect(ctx); err != nil {
		telemetry.Warnf("Initial connect failed: %v", err)
		manager.ReportClose(err)
	}

	// ── Shutdown ───────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	telemetry.Infof("Shutting down...")
	cancel()
	wsClient.Close()
	manager.Stop()
	dispatcher.Close()
	if archive != nil {
		archive.Close()
	}

	final := store.Current()
	telemetry.Infof("Shutdown complete  pick=%d  frames=%d  applied=%d  rejected=%d  reconnects=%d  gaps=%d  backfilled=%d",
		final.CurrentPick,
		telemetry.Metrics.FramesReceived.Value(),
		telemetry.Metrics.EventsApplied.Value(),
		telemetry.Metrics.EventsRejected.Value(),
		telemetry.Metrics.Reconnects.Value(),
		telemetry.Metrics.GapsDetected.Value(),
		telemetry.Metrics.PicksBackfilled.Value(),
	)
}

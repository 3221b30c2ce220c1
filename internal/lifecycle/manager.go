package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/draftops/draftops/internal/events"
	"github.com/draftops/draftops/internal/protocol"
	"github.com/draftops/draftops/internal/telemetry"
)

const (
	// DefaultHeartbeatTimeout is how long the connection may stay silent
	// before it is treated as dead. The room echoes PINGs roughly every
	// 15s, so two missed beats mean trouble.
	DefaultHeartbeatTimeout = 30 * time.Second

	defaultHealthInterval = 5 * time.Second
)

// Reconnector re-establishes the underlying session. How that physically
// happens (new dial, new browser session) is the caller's business; the
// manager only drives when to try and how long to wait between tries.
type Reconnector interface {
	Reconnect(ctx context.Context) error
}

// Config carries the lifecycle policy knobs.
type Config struct {
	HeartbeatTimeout time.Duration
	HealthInterval   time.Duration // how often the monitor checks for silence
	BackoffSchedule  []time.Duration
	MaxAttempts      int
	LocalActorID     string // member whose JOINED confirms the handshake
}

// Manager is the single writer of connection state. It watches decoded
// events for liveness, runs one heartbeat-monitor task per connection
// instance, and runs at most one reconnection cycle at a time.
type Manager struct {
	cfg Config
	bus *events.Bus
	rc  Reconnector

	mu           sync.Mutex
	state        State
	health       Health
	reconnecting bool

	baseCtx context.Context

	monitorCancel context.CancelFunc
	monitorDone   chan struct{}
	retryCancel   context.CancelFunc
	retryDone     chan struct{}

	monitorTasks int // live heartbeat-monitor goroutines, guarded by mu
}

func NewManager(cfg Config, rc Reconnector, bus *events.Bus) (*Manager, error) {
	if len(cfg.BackoffSchedule) == 0 {
		return nil, fmt.Errorf("lifecycle: backoff schedule must not be empty")
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("lifecycle: max attempts must be at least 1")
	}
	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = DefaultHeartbeatTimeout
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = defaultHealthInterval
	}
	return &Manager{
		cfg:     cfg,
		bus:     bus,
		rc:      rc,
		state:   StateDisconnected,
		baseCtx: context.Background(),
		health: Health{
			BackoffSchedule: cfg.BackoffSchedule,
			MaxAttempts:     cfg.MaxAttempts,
		},
	}, nil
}

// Start moves Disconnected -> Connecting. The transition to Connected
// happens when Observe sees the local actor's JOINED frame.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.state != StateDisconnected {
		m.mu.Unlock()
		return
	}
	m.baseCtx = ctx
	t := m.transitionLocked(StateConnecting, "start", 0)
	m.mu.Unlock()

	m.publish(t)
}

// Stop is the explicit shutdown path: Connected -> Disconnected, all
// background tasks cancelled and awaited.
func (m *Manager) Stop() {
	m.mu.Lock()
	monitorCancel, monitorDone := m.monitorCancel, m.monitorDone
	retryCancel, retryDone := m.retryCancel, m.retryDone
	m.monitorCancel, m.monitorDone = nil, nil
	m.retryCancel, m.retryDone = nil, nil
	m.reconnecting = false
	var t *Transition
	if m.state != StateDisconnected && m.state != StateFailed {
		t = m.transitionLocked(StateDisconnected, "stop", 0)
	}
	m.mu.Unlock()

	if monitorCancel != nil {
		monitorCancel()
		<-monitorDone
	}
	if retryCancel != nil {
		retryCancel()
		<-retryDone
	}
	m.publish(t)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Health returns a copy of the current connection health.
func (m *Manager) Health() Health {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.health
}

// MonitorTasks reports how many heartbeat-monitor goroutines are alive.
// Anything other than 0 or 1 is a bug.
func (m *Manager) MonitorTasks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.monitorTasks
}

// Observe feeds every decoded inbound event to the manager. Any frame at
// all counts as liveness; heartbeats are tracked separately; the local
// actor's JOINED completes the Connecting handshake.
func (m *Manager) Observe(ev protocol.DraftEvent) {
	m.mu.Lock()

	now := time.Now()
	m.health.LastMessageAt = now

	var t *Transition
	switch e := ev.(type) {
	case protocol.Heartbeat:
		m.health.LastHeartbeatAt = now
	case protocol.SessionJoined:
		if e.ActorID == m.cfg.LocalActorID && m.state == StateConnecting {
			t = m.becomeConnectedLocked("handshake")
		}
	}
	m.mu.Unlock()

	m.publish(t)
}

// ReportClose is the explicit close/error signal from the frame source.
func (m *Manager) ReportClose(err error) {
	reason := "connection closed"
	if err != nil {
		reason = fmt.Sprintf("connection closed: %v", err)
	}
	m.beginReconnect(reason)
}

// becomeConnectedLocked transitions to Connected and starts a fresh
// heartbeat monitor for this connection instance. Caller holds mu and
// publishes the returned transition after unlocking.
func (m *Manager) becomeConnectedLocked(reason string) *Transition {
	m.health.ReconnectAttempt = 0
	t := m.transitionLocked(StateConnected, reason, 0)

	ctx, cancel := context.WithCancel(m.baseCtx)
	done := make(chan struct{})
	m.monitorCancel = cancel
	m.monitorDone = done
	m.monitorTasks++
	telemetry.Metrics.HeartbeatMonitors.Inc()
	go m.monitorHeartbeat(ctx, done)
	return t
}

// monitorHeartbeat watches for silent connection death: no frame of any
// kind inside the timeout window means the socket is gone even though it
// never said so. It only ever touches connection state, never draft state.
func (m *Manager) monitorHeartbeat(ctx context.Context, done chan struct{}) {
	defer func() {
		m.mu.Lock()
		m.monitorTasks--
		m.mu.Unlock()
		telemetry.Metrics.HeartbeatMonitors.Dec()
		close(done)
	}()

	ticker := time.NewTicker(m.cfg.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		m.mu.Lock()
		silent := m.state == StateConnected &&
			time.Since(m.health.LastMessageAt) > m.cfg.HeartbeatTimeout
		m.mu.Unlock()

		if silent {
			m.beginReconnect("heartbeat timeout")
			return
		}
	}
}

// beginReconnect starts a reconnection cycle unless one is already in
// flight. The previous connection's heartbeat monitor is cancelled first
// and awaited inside the retry task, so stale monitors can never pile up.
func (m *Manager) beginReconnect(reason string) {
	m.mu.Lock()
	if m.reconnecting || (m.state != StateConnected && m.state != StateConnecting) {
		m.mu.Unlock()
		return
	}
	m.reconnecting = true
	t := m.transitionLocked(StateReconnecting, reason, 0)

	oldMonitorCancel, oldMonitorDone := m.monitorCancel, m.monitorDone
	m.monitorCancel, m.monitorDone = nil, nil

	ctx, cancel := context.WithCancel(m.baseCtx)
	done := make(chan struct{})
	m.retryCancel = cancel
	m.retryDone = done
	m.mu.Unlock()

	m.publish(t)

	if oldMonitorCancel != nil {
		oldMonitorCancel()
	}

	go func() {
		defer close(done)
		// the old monitor must be fully gone before the new cycle runs;
		// already closed when the monitor itself triggered this reconnect
		if oldMonitorDone != nil {
			select {
			case <-oldMonitorDone:
			case <-ctx.Done():
				return
			}
		}
		m.retryLoop(ctx)
	}()
}

func (m *Manager) retryLoop(ctx context.Context) {
	for attempt := 0; attempt < m.cfg.MaxAttempts; attempt++ {
		if delay := backoffDelay(attempt, m.cfg.BackoffSchedule); delay > 0 {
			telemetry.Infof("lifecycle: retry %d/%d in %s", attempt+1, m.cfg.MaxAttempts, delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}

		m.mu.Lock()
		m.health.ReconnectAttempt = attempt
		m.mu.Unlock()

		telemetry.Metrics.Reconnects.Inc()
		err := m.rc.Reconnect(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			m.mu.Lock()
			m.reconnecting = false
			m.retryCancel, m.retryDone = nil, nil
			m.health.LastMessageAt = time.Now()
			t := m.becomeConnectedLocked(fmt.Sprintf("reconnected after %d attempt(s)", attempt+1))
			m.mu.Unlock()
			m.publish(t)
			return
		}
		telemetry.Warnf("lifecycle: reconnect attempt %d/%d failed: %v", attempt+1, m.cfg.MaxAttempts, err)
	}

	m.mu.Lock()
	m.reconnecting = false
	m.retryCancel, m.retryDone = nil, nil
	t := m.transitionLocked(StateFailed, fmt.Sprintf("reconnect exhausted after %d attempts", m.cfg.MaxAttempts), m.cfg.MaxAttempts)
	m.mu.Unlock()
	m.publish(t)

	telemetry.Errorf("lifecycle: reconnect exhausted after %d attempts; external restart required", m.cfg.MaxAttempts)
}

// transitionLocked records a state change and returns it for publishing
// once the lock is released. Caller holds mu.
func (m *Manager) transitionLocked(to State, reason string, attempt int) *Transition {
	from := m.state
	if from == to {
		return nil
	}
	m.state = to
	telemetry.Infof("lifecycle: %s -> %s (%s)", from, to, reason)
	return &Transition{From: from, To: to, Reason: reason, Attempt: attempt, At: time.Now()}
}

func (m *Manager) publish(t *Transition) {
	if t == nil || m.bus == nil {
		return
	}
	m.bus.Publish(events.New(events.EventLifecycle, 0, *t))
}

// Package espn_ws is the inbound frame source: it holds the WebSocket
// session to the ESPN draft room and hands every raw text frame to the
// pipeline. It deliberately does not retry on its own — reconnection
// policy belongs to the lifecycle manager, which calls Reconnect here.
package espn_ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/draftops/draftops/internal/telemetry"
)

const (
	readTimeout   = 90 * time.Second
	writeTimeout  = 5 * time.Second
	dialTimeout   = 15 * time.Second
	frameChanSize = 256
)

// Frame is one raw text message off the wire.
type Frame struct {
	Text       string
	ReceivedAt time.Time
}

// Client owns one draft-room WebSocket session at a time. Frames() never
// closes across reconnects; a closed connection is reported through the
// CloseFunc and the channel simply goes quiet until Reconnect succeeds.
type Client struct {
	url     string
	swid    string
	espnS2  string
	archive *Archive // optional raw-frame persistence

	// onClose reports a dead connection upward (lifecycle manager).
	onClose func(error)

	mu       sync.Mutex
	conn     *websocket.Conn
	readStop context.CancelFunc

	frames chan Frame
}

func NewClient(url, swid, espnS2 string, archive *Archive) *Client {
	return &Client{
		url:     url,
		swid:    swid,
		espnS2:  espnS2,
		archive: archive,
		frames:  make(chan Frame, frameChanSize),
	}
}

// OnClose registers the close/error signal handler. Must be set before
// Connect.
func (c *Client) OnClose(fn func(error)) { c.onClose = fn }

// Frames is the stream of raw inbound frames across all connections.
func (c *Client) Frames() <-chan Frame { return c.frames }

// Connect dials the draft room and starts the read loop. Any existing
// connection is torn down first.
func (c *Client) Connect(ctx context.Context) error {
	header := http.Header{}
	if c.swid != "" {
		header.Set("Cookie", fmt.Sprintf("SWID=%s; espn_s2=%s", c.swid, c.espnS2))
	}

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	// Server pings reset the deadline so quiet stretches between picks
	// don't look like a dead socket.
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeTimeout))
	})

	c.mu.Lock()
	if c.readStop != nil {
		c.readStop()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	readCtx, cancel := context.WithCancel(ctx)
	c.conn = conn
	c.readStop = cancel
	c.mu.Unlock()

	telemetry.Infof("espn_ws: connected to %s", c.url)
	go c.readLoop(readCtx, conn)
	return nil
}

// Reconnect re-establishes the session; it satisfies the lifecycle
// manager's reconnect trigger.
func (c *Client) Reconnect(ctx context.Context) error {
	return c.Connect(ctx)
}

// Close tears down the current connection without signalling onClose.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readStop != nil {
		c.readStop()
		c.readStop = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				// deliberate teardown, not a failure
				return
			}
			telemetry.Warnf("espn_ws: read: %v", err)
			if c.onClose != nil {
				c.onClose(err)
			}
			return
		}

		telemetry.Metrics.FramesReceived.Inc()
		frame := Frame{Text: string(raw), ReceivedAt: time.Now()}

		// Persist every raw frame before any parsing can reject it.
		c.archive.Insert(frame)

		select {
		case c.frames <- frame:
		case <-ctx.Done():
			return
		}
	}
}

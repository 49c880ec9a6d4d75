package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/cwstats/recorder/pkg/streaming"
	ws "github.com/gorilla/websocket"
)

const (
	outboxSize        = 64
	maxReconnect      = 10
	firstBackoff      = time.Second
	maxBackoff        = 30 * time.Second
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	defaultAckTimeout = 10 * time.Second
)

var errClosed = errors.New("websocket connection closed")

// connection keeps one socket to the stats server alive. Each socket gets a
// writer goroutine (messages and pings) and a reader goroutine (acks). When
// either fails, reconnect dials a new socket and replays the live round.
type connection struct {
	mu      sync.Mutex
	conn    *ws.Conn
	closed  bool
	replay  []byte                     // start_round of the live round
	waiters map[string][]chan struct{} // ack type -> senders waiting for it

	wmu    sync.Mutex // one writer at a time, as gorilla requires
	outbox chan []byte
	done   chan struct{}

	target *url.URL
	dialer *ws.Dialer
	logger *slog.Logger
}

func newConnection(logger *slog.Logger) *connection {
	return &connection{
		waiters: make(map[string][]chan struct{}),
		outbox:  make(chan []byte, outboxSize),
		done:    make(chan struct{}),
		dialer:  &ws.Dialer{HandshakeTimeout: writeWait},
		logger:  logger,
	}
}

// dial opens the first socket. The secret travels as a query parameter.
func (c *connection) dial(rawURL, secret string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("secret", secret)
	u.RawQuery = q.Encode()
	c.target = u

	conn, err := c.open()
	if err != nil {
		return err
	}
	c.start(conn)
	return nil
}

func (c *connection) open() (*ws.Conn, error) {
	conn, _, err := c.dialer.Dial(c.target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

func (c *connection) start(conn *ws.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go c.writer(conn)
	go c.reader(conn)
}

func (c *connection) live(conn *ws.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == conn
}

func (c *connection) write(conn *ws.Conn, messageType int, data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(messageType, data)
}

func (c *connection) writer(conn *ws.Conn) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		var err error
		select {
		case <-c.done:
			return
		case <-ping.C:
			if !c.live(conn) {
				return
			}
			err = c.write(conn, ws.PingMessage, nil)
		case data := <-c.outbox:
			if !c.live(conn) {
				// leave it for the replacement socket's writer
				c.enqueue(data)
				return
			}
			err = c.write(conn, ws.TextMessage, data)
		}
		if err != nil {
			c.logger.Warn("WebSocket write error", "error", err)
			go c.reconnect(conn)
			return
		}
	}
}

func (c *connection) reader(conn *ws.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.live(conn) {
				c.logger.Warn("WebSocket read error", "error", err)
				go c.reconnect(conn)
			}
			return
		}

		var ack streaming.AckMessage
		if err := json.Unmarshal(message, &ack); err != nil || ack.Type != "ack" {
			c.logger.Debug("Ignoring server message", "raw", string(message))
			continue
		}
		c.acknowledge(ack.For)
	}
}

// acknowledge wakes the oldest sender waiting for an ack of this type.
func (c *connection) acknowledge(msgType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	queue := c.waiters[msgType]
	if len(queue) == 0 {
		c.logger.Debug("Unexpected ack", "for", msgType)
		return
	}
	close(queue[0])
	c.waiters[msgType] = queue[1:]
}

func (c *connection) forget(msgType string, ch chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	queue := c.waiters[msgType]
	for i, w := range queue {
		if w == ch {
			c.waiters[msgType] = append(queue[:i:i], queue[i+1:]...)
			return
		}
	}
}

func nextBackoff(d time.Duration) time.Duration {
	return min(2*d, maxBackoff)
}

// reconnect replaces a failed socket. Only the first caller for a given socket
// does any work; the rest return at once.
func (c *connection) reconnect(failed *ws.Conn) {
	c.mu.Lock()
	if c.closed || c.conn != failed {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.mu.Unlock()
	_ = failed.Close()

	backoff := firstBackoff
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)

		conn, err := c.open()
		if err != nil {
			c.logger.Warn("Reconnect failed", "attempt", attempt, "error", err)
			continue
		}

		c.mu.Lock()
		replay := c.replay
		c.mu.Unlock()
		if replay != nil {
			if err := c.write(conn, ws.TextMessage, replay); err != nil {
				c.logger.Warn("Failed to replay start_round", "attempt", attempt, "error", err)
				_ = conn.Close()
				continue
			}
		}

		c.logger.Info("WebSocket reconnected", "attempt", attempt, "replayed", replay != nil)
		c.start(conn)
		return
	}
	c.logger.Error("Giving up on WebSocket", "attempts", maxReconnect)
}

// setReplay remembers the start_round message to resend after a reconnect.
// nil clears it once the round is over.
func (c *connection) setReplay(data []byte) {
	c.mu.Lock()
	c.replay = data
	c.mu.Unlock()
}

func (c *connection) enqueue(data []byte) bool {
	select {
	case c.outbox <- data:
		return true
	default:
		c.logger.Warn("WebSocket outbox full, dropping message")
		return false
	}
}

// request sends data and waits until the server acks msgType.
func (c *connection) request(data []byte, msgType string, timeout time.Duration) error {
	ch := make(chan struct{})
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errClosed
	}
	c.waiters[msgType] = append(c.waiters[msgType], ch)
	c.mu.Unlock()

	if !c.enqueue(data) {
		c.forget(msgType, ch)
		return fmt.Errorf("outbox full, %s not sent", msgType)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return nil
	case <-timer.C:
		c.forget(msgType, ch)
		return fmt.Errorf("timeout waiting for ack of %q", msgType)
	case <-c.done:
		return fmt.Errorf("%w while waiting for ack of %q", errClosed, msgType)
	}
}

// close sends a close frame and stops both goroutines.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = c.write(conn, ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
	return conn.Close()
}

// Package onebot is a OneBot v11 client over a forward WebSocket connection.
package onebot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	defaultCallTimeout = 30 * time.Second
	eventQueueSize     = 64
	enqueueTimeout     = 5 * time.Second
	maxRedialBackoff   = 30 * time.Second
)

var (
	// ErrDisconnected is returned by calls that were pending when the
	// connection dropped, or that were made while it was down.
	ErrDisconnected = errors.New("onebot: not connected")
	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("onebot: client closed")
)

// Handler receives message events. Each call runs in its own goroutine.
type Handler func(ctx context.Context, ev *Event)

// ActionError is a non-ok response to an action call.
type ActionError struct {
	Action  string
	RetCode int
	Message string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("onebot: %s failed (retcode %d): %s", e.Action, e.RetCode, e.Message)
}

type request struct {
	Action string `json:"action"`
	Params any    `json:"params"`
	Echo   string `json:"echo"`
}

type response struct {
	Status  string          `json:"status"`
	RetCode int             `json:"retcode"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Wording string          `json:"wording"`
	Echo    string          `json:"echo"`
}

// envelope is decoded first to tell responses from events.
type envelope struct {
	Echo     *string `json:"echo"`
	PostType string  `json:"post_type"`
}

// Client is a OneBot connection. Calls are safe for concurrent use.
type Client struct {
	url         string
	header      http.Header
	dialer      *websocket.Dialer
	callTimeout time.Duration
	waitQueue   time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	conn    *websocket.Conn
	lost    chan struct{}
	lastErr error
	closed  bool
	pending map[string]chan *response

	events chan *Event
}

// Option configures a Client.
type Option func(*Client)

// WithCallTimeout bounds how long a call waits for its response.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.callTimeout = d }
}

// WithEventQueue sets the event buffer size and how long the reader waits
// for room before dropping an event.
func WithEventQueue(size int, wait time.Duration) Option {
	return func(c *Client) {
		c.events = make(chan *Event, size)
		c.waitQueue = wait
	}
}

// Dial connects to the OneBot forward WebSocket at url. A non-empty token is
// sent as a bearer Authorization header.
func Dial(ctx context.Context, url, token string, opts ...Option) (*Client, error) {
	c := &Client{
		url:         url,
		header:      http.Header{},
		dialer:      websocket.DefaultDialer,
		callTimeout: defaultCallTimeout,
		waitQueue:   enqueueTimeout,
		pending:     make(map[string]chan *response),
		events:      make(chan *Event, eventQueueSize),
	}
	if token != "" {
		c.header.Set("Authorization", "Bearer "+token)
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect(ctx context.Context) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dialing %s: %w (status %d)", c.url, err, resp.StatusCode)
		}
		return fmt.Errorf("dialing %s: %w", c.url, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	lost := make(chan struct{})
	c.conn = conn
	c.lost = lost
	c.lastErr = nil
	c.mu.Unlock()

	go c.readLoop(conn, lost)
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn, lost chan struct{}) {
	defer close(lost)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.drop(conn, err)
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("onebot: invalid frame: %v", err)
			continue
		}

		if env.Echo != nil {
			var resp response
			if err := json.Unmarshal(data, &resp); err != nil {
				log.Printf("onebot: invalid response: %v", err)
				continue
			}
			c.mu.Lock()
			ch, ok := c.pending[resp.Echo]
			delete(c.pending, resp.Echo)
			c.mu.Unlock()
			if ok {
				ch <- &resp
			}
			continue
		}

		if env.PostType != "message" {
			continue
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Printf("onebot: invalid message event: %v", err)
			continue
		}
		c.enqueue(&ev)
	}
}

// enqueue hands ev to Run. When the queue is full it waits up to waitQueue
// for Run to catch up; replies are not read in the meantime.
func (c *Client) enqueue(ev *Event) {
	select {
	case c.events <- ev:
		return
	default:
	}
	timer := time.NewTimer(c.waitQueue)
	defer timer.Stop()
	select {
	case c.events <- ev:
	case <-timer.C:
		log.Printf("onebot: event queue full, dropping message %d", ev.MessageID)
	}
}

// drop forgets conn and fails every pending call.
func (c *Client) drop(conn *websocket.Conn, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return
	}
	c.conn = nil
	c.lastErr = err
	for echo, ch := range c.pending {
		close(ch)
		delete(c.pending, echo)
	}
	conn.Close()
}

// Call invokes action with params and decodes the response data into out,
// which may be nil.
func (c *Client) Call(ctx context.Context, action string, params any, out any) error {
	if params == nil {
		params = struct{}{}
	}
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	echo := uuid.New().String()
	ch := make(chan *response, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return ErrDisconnected
	}
	c.pending[echo] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := conn.WriteJSON(request{Action: action, Params: params, Echo: echo})
	c.writeMu.Unlock()
	if err != nil {
		c.forget(echo)
		return fmt.Errorf("sending %s: %w", action, err)
	}

	select {
	case <-ctx.Done():
		c.forget(echo)
		return fmt.Errorf("waiting for %s: %w", action, ctx.Err())
	case resp, ok := <-ch:
		if !ok {
			return ErrDisconnected
		}
		if resp.Status != "ok" && resp.Status != "async" {
			msg := resp.Wording
			if msg == "" {
				msg = resp.Message
			}
			return &ActionError{Action: action, RetCode: resp.RetCode, Message: msg}
		}
		if out == nil || len(resp.Data) == 0 || string(resp.Data) == "null" {
			return nil
		}
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return fmt.Errorf("decoding %s response: %w", action, err)
		}
		return nil
	}
}

func (c *Client) forget(echo string) {
	c.mu.Lock()
	delete(c.pending, echo)
	c.mu.Unlock()
}

// Run dispatches message events to h until ctx is done or the client is
// closed. A dropped connection is redialed with backoff.
func (c *Client) Run(ctx context.Context, h Handler) error {
	for {
		c.mu.Lock()
		lost, closed := c.lost, c.closed
		c.mu.Unlock()
		if closed {
			return ErrClosed
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			go h(ctx, ev)
		case <-lost:
			if err := c.redial(ctx); err != nil {
				return err
			}
		}
	}
}

func (c *Client) redial(ctx context.Context) error {
	c.mu.Lock()
	cause, closed := c.lastErr, c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	log.Printf("onebot: connection lost: %v", cause)

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		err := c.connect(ctx)
		if err == nil {
			log.Printf("onebot: reconnected to %s", c.url)
			return nil
		}
		if errors.Is(err, ErrClosed) {
			return err
		}
		log.Printf("onebot: reconnect: %v", err)
		backoff *= 2
		if backoff > maxRedialBackoff {
			backoff = maxRedialBackoff
		}
	}
}

// Close shuts the connection down. Pending calls fail with ErrDisconnected.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return conn.Close()
}

package onebot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

type hostReply struct {
	status  string
	retcode int
	data    any
	drop    bool
	silent  bool
	delay   time.Duration
}

// fakeHost is a scripted OneBot implementation.
type fakeHost struct {
	t      *testing.T
	srv    *httptest.Server
	script func(action string, params map[string]any) hostReply

	mu      sync.Mutex
	auth    string
	calls   []map[string]any
	conn    *websocket.Conn
	writeMu sync.Mutex
	conns   chan *websocket.Conn
}

func newFakeHost(t *testing.T, script func(string, map[string]any) hostReply) *fakeHost {
	t.Helper()
	h := &fakeHost{t: t, script: script, conns: make(chan *websocket.Conn, 4)}
	h.srv = httptest.NewServer(http.HandlerFunc(h.serve))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *fakeHost) url() string {
	return "ws" + strings.TrimPrefix(h.srv.URL, "http")
}

func (h *fakeHost) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.t.Errorf("upgrade: %v", err)
		return
	}
	h.mu.Lock()
	h.auth = r.Header.Get("Authorization")
	h.conn = conn
	h.mu.Unlock()
	h.conns <- conn

	for {
		var req map[string]any
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		h.mu.Lock()
		h.calls = append(h.calls, req)
		h.mu.Unlock()

		action, _ := req["action"].(string)
		params, _ := req["params"].(map[string]any)
		reply := hostReply{status: "ok"}
		if h.script != nil {
			reply = h.script(action, params)
		}
		if reply.drop {
			conn.Close()
			return
		}
		if reply.silent {
			continue
		}
		go func(echo any, reply hostReply) {
			time.Sleep(reply.delay)
			h.send(conn, map[string]any{
				"status":  reply.status,
				"retcode": reply.retcode,
				"data":    reply.data,
				"echo":    echo,
			})
		}(req["echo"], reply)
	}
}

func (h *fakeHost) send(conn *websocket.Conn, v any) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	_ = conn.WriteJSON(v)
}

func (h *fakeHost) push(v any) {
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()
	h.send(conn, v)
}

func dial(t *testing.T, h *fakeHost, opts ...Option) *Client {
	t.Helper()
	c, err := Dial(context.Background(), h.url(), "secret", opts...)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	<-h.conns
	return c
}

func TestGetVersionInfo(t *testing.T) {
	h := newFakeHost(t, func(action string, _ map[string]any) hostReply {
		if action != "get_version_info" {
			t.Errorf("unexpected action %q", action)
		}
		return hostReply{status: "ok", data: map[string]any{"app_name": "NapCat.Onebot", "app_version": "2.0"}}
	})
	c := dial(t, h)

	info, err := c.GetVersionInfo(context.Background())
	if err != nil {
		t.Fatalf("GetVersionInfo: %v", err)
	}
	if info.AppName != "NapCat.Onebot" {
		t.Errorf("app name = %q", info.AppName)
	}
	if h.auth != "Bearer secret" {
		t.Errorf("authorization header = %q", h.auth)
	}
}

func TestConcurrentCallsMatchByEcho(t *testing.T) {
	h := newFakeHost(t, func(action string, params map[string]any) hostReply {
		id := params["message_id"].(float64)
		return hostReply{
			status: "ok",
			// Later requests answer first.
			delay: time.Duration(20-int(id)) * time.Millisecond,
			data: map[string]any{
				"message_id": id,
				"message":    []any{map[string]any{"type": "text", "data": map[string]any{"text": "m"}}},
			},
		}
	})
	c := dial(t, h)

	var wg sync.WaitGroup
	for i := int64(1); i <= 10; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			msg, err := c.GetMsg(context.Background(), id)
			if err != nil {
				t.Errorf("GetMsg(%d): %v", id, err)
				return
			}
			if msg.MessageID != id {
				t.Errorf("GetMsg(%d) got message %d", id, msg.MessageID)
			}
		}(i)
	}
	wg.Wait()
}

func TestCallActionError(t *testing.T) {
	h := newFakeHost(t, func(string, map[string]any) hostReply {
		return hostReply{status: "failed", retcode: 100}
	})
	c := dial(t, h)

	err := c.SetMsgEmojiLike(context.Background(), 1, "424")
	var ae *ActionError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ActionError, got %v", err)
	}
	if ae.Action != "set_msg_emoji_like" || ae.RetCode != 100 {
		t.Errorf("unexpected error %+v", ae)
	}
}

func TestCallTimeout(t *testing.T) {
	h := newFakeHost(t, func(string, map[string]any) hostReply {
		return hostReply{silent: true}
	})
	c := dial(t, h, WithCallTimeout(50*time.Millisecond))

	err := c.Call(context.Background(), "get_status", nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestPendingCallFailsOnDisconnect(t *testing.T) {
	h := newFakeHost(t, func(string, map[string]any) hostReply {
		return hostReply{drop: true}
	})
	c := dial(t, h)

	err := c.Call(context.Background(), "get_status", nil, nil)
	if !errors.Is(err, ErrDisconnected) {
		t.Fatalf("expected ErrDisconnected, got %v", err)
	}
}

func TestSendMsgTargets(t *testing.T) {
	h := newFakeHost(t, func(string, map[string]any) hostReply {
		return hostReply{status: "ok", data: map[string]any{"message_id": 77}}
	})
	c := dial(t, h)
	ctx := context.Background()

	group := &Event{MessageType: "group", GroupID: 500, UserID: 9}
	id, err := c.SendMsg(ctx, group, Message{Text("hi")})
	if err != nil {
		t.Fatal(err)
	}
	if id != 77 {
		t.Errorf("message id = %d", id)
	}
	private := &Event{MessageType: "private", UserID: 9}
	if _, err := c.SendMsg(ctx, private, Message{Text("hi")}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SendPrivateMsg(ctx, 10001, Message{Text("boot failed")}); err != nil {
		t.Fatal(err)
	}
	if err := c.SetGroupReaction(ctx, 500, 3, "424", false); err != nil {
		t.Fatal(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.calls) != 4 {
		t.Fatalf("expected 4 calls, got %d", len(h.calls))
	}
	p := h.calls[0]["params"].(map[string]any)
	if p["message_type"] != "group" || p["group_id"] != float64(500) {
		t.Errorf("group send params = %v", p)
	}
	p = h.calls[1]["params"].(map[string]any)
	if p["message_type"] != "private" || p["user_id"] != float64(9) {
		t.Errorf("private send params = %v", p)
	}
	if h.calls[2]["action"] != "send_private_msg" {
		t.Errorf("unexpected action %v", h.calls[2]["action"])
	}
	p = h.calls[3]["params"].(map[string]any)
	if p["code"] != "424" || p["is_add"] != false {
		t.Errorf("reaction params = %v", p)
	}
}

func TestRunDispatchesMessageEvents(t *testing.T) {
	h := newFakeHost(t, nil)
	c := dial(t, h)

	got := make(chan *Event, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, func(_ context.Context, ev *Event) { got <- ev }) }()

	h.push(map[string]any{"post_type": "meta_event", "meta_event_type": "heartbeat"})
	h.push(map[string]any{
		"post_type":    "message",
		"message_type": "group",
		"message_id":   12,
		"group_id":     500,
		"user_id":      9,
		"message":      []any{map[string]any{"type": "text", "data": map[string]any{"text": "%hello"}}},
	})

	select {
	case ev := <-got:
		if ev.MessageID != 12 || !ev.IsGroup() {
			t.Errorf("unexpected event %+v", ev)
		}
		if text, _ := ev.Text(); text != "%hello" {
			t.Errorf("text = %q", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message event not dispatched")
	}

	select {
	case ev := <-got:
		t.Errorf("unexpected second event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v", err)
	}
}

func TestRunReconnects(t *testing.T) {
	h := newFakeHost(t, nil)
	c := dial(t, h)

	got := make(chan *Event, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, func(_ context.Context, ev *Event) { got <- ev })

	h.mu.Lock()
	h.conn.Close()
	h.mu.Unlock()

	select {
	case <-h.conns:
	case <-time.After(5 * time.Second):
		t.Fatal("client did not reconnect")
	}
	h.push(map[string]any{"post_type": "message", "message_type": "private", "message_id": 5, "message": "after"})

	select {
	case ev := <-got:
		if text, _ := ev.Text(); text != "after" {
			t.Errorf("text = %q", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event after reconnect not dispatched")
	}
}

func TestCallAfterClose(t *testing.T) {
	h := newFakeHost(t, nil)
	c := dial(t, h)
	c.Close()
	if err := c.Call(context.Background(), "get_status", nil, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestEnvelopeDecoding(t *testing.T) {
	var env envelope
	if err := json.Unmarshal([]byte(`{"status":"ok","echo":"x"}`), &env); err != nil {
		t.Fatal(err)
	}
	if env.Echo == nil || *env.Echo != "x" {
		t.Error("echo not decoded")
	}
}

func TestEventsQueuedBeforeRunAreDelivered(t *testing.T) {
	h := newFakeHost(t, nil)
	c := dial(t, h, WithEventQueue(1, 2*time.Second))

	for id := 1; id <= 3; id++ {
		h.push(map[string]any{
			"post_type":    "message",
			"message_type": "private",
			"message_id":   id,
			"user_id":      9,
			"message":      "%hi",
		})
	}
	// The buffer holds one event; the reader waits for Run with the rest.
	time.Sleep(100 * time.Millisecond)

	got := make(chan int64, 3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, func(_ context.Context, ev *Event) { got <- ev.MessageID })

	seen := make(map[int64]bool)
	for len(seen) < 3 {
		select {
		case id := <-got:
			seen[id] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of 3 events delivered: %v", len(seen), seen)
		}
	}
}

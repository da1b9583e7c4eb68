package player

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/tubecontrol/internal/log"
	"github.com/gorilla/websocket"
)

// fakePage plays the browser side of the player websocket.
type fakePage struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	calls  []string
	volume int
}

func connectPage(t *testing.T, r *Remote) (*fakePage, func()) {
	t.Helper()
	srv := httptest.NewServer(r)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}

	p := &fakePage{conn: conn, volume: 30}
	go p.serve()

	waitFor(t, r.Connected)
	return p, func() {
		conn.Close()
		srv.Close()
	}
}

func (p *fakePage) serve() {
	for {
		var c call
		if err := p.conn.ReadJSON(&c); err != nil {
			return
		}
		p.mu.Lock()
		p.calls = append(p.calls, c.Method)
		resp := map[string]any{"id": c.ID}
		switch c.Method {
		case "getVolume":
			resp["result"] = p.volume
		case "setVolume":
			if len(c.Args) == 1 {
				if f, ok := c.Args[0].(float64); ok {
					p.volume = int(f)
				}
			}
		case "mute":
			resp["error"] = "muting is disabled"
		}
		p.mu.Unlock()
		if c.Method == "pauseVideo" {
			// never answer
			continue
		}
		p.conn.WriteJSON(resp)
	}
}

func (p *fakePage) send(t *testing.T, v any) {
	t.Helper()
	data, _ := json.Marshal(v)
	if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("page write: %v", err)
	}
}

func (p *fakePage) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newTestRemote() *Remote {
	r := NewRemote(200 * time.Millisecond)
	r.logger = log.Discard()
	return r
}

func TestRemote_NotReady(t *testing.T) {
	r := newTestRemote()
	if r.Ready() {
		t.Fatal("Ready() with no page")
	}
	if err := r.PlayVideo(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("PlayVideo() error = %v, want ErrNotReady", err)
	}

	page, done := connectPage(t, r)
	defer done()

	if r.Ready() {
		t.Fatal("Ready() before the page reported ready")
	}
	if err := r.PlayVideo(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("PlayVideo() error = %v, want ErrNotReady", err)
	}

	// Loading only needs a connection.
	if err := r.LoadVideoByID(context.Background(), "dQw4w9WgXcQ"); err != nil {
		t.Fatalf("LoadVideoByID() error = %v", err)
	}

	page.send(t, map[string]any{"event": "ready"})
	waitFor(t, r.Ready)
}

func TestRemote_Calls(t *testing.T) {
	r := newTestRemote()
	page, done := connectPage(t, r)
	defer done()
	page.send(t, map[string]any{"event": "ready"})
	waitFor(t, r.Ready)

	ctx := context.Background()
	if err := r.PlayVideo(ctx); err != nil {
		t.Fatalf("PlayVideo() error = %v", err)
	}
	if err := r.UnMute(ctx); err != nil {
		t.Fatalf("UnMute() error = %v", err)
	}

	v, err := r.Volume(ctx)
	if err != nil || v != 30 {
		t.Fatalf("Volume() = %d, %v; want 30", v, err)
	}
	if err := r.SetVolume(ctx, 140); err != nil {
		t.Fatalf("SetVolume() error = %v", err)
	}
	if v, _ := r.Volume(ctx); v != 100 {
		t.Errorf("Volume() after SetVolume(140) = %d, want 100", v)
	}

	if err := r.Mute(ctx); err == nil || !strings.Contains(err.Error(), "muting is disabled") {
		t.Errorf("Mute() error = %v, want page error", err)
	}

	want := []string{"playVideo", "unMute", "getVolume", "setVolume", "getVolume", "mute"}
	if got := page.Calls(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestRemote_Timeout(t *testing.T) {
	r := newTestRemote()
	page, done := connectPage(t, r)
	defer done()
	page.send(t, map[string]any{"event": "ready"})
	waitFor(t, r.Ready)

	err := r.PauseVideo(context.Background())
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Errorf("PauseVideo() error = %v, want timeout", err)
	}
}

func TestRemote_Disconnect(t *testing.T) {
	r := newTestRemote()
	page, done := connectPage(t, r)
	page.send(t, map[string]any{"event": "ready", "volume": 45})
	waitFor(t, r.Ready)

	done()
	waitFor(t, func() bool { return !r.Connected() })
	if r.Ready() {
		t.Error("Ready() after disconnect")
	}
	if err := r.PlayVideo(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("PlayVideo() error = %v, want ErrNotReady", err)
	}
}

package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/tubecontrol/internal/log"
	"github.com/gorilla/websocket"
)

// ErrDisconnected is returned to calls pending when the page goes away.
var ErrDisconnected = errors.New("player page disconnected")

// DefaultCallTimeout bounds a single round trip to the page.
const DefaultCallTimeout = 2 * time.Second

// call is sent to the page.
type call struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Args   []any  `json:"args,omitempty"`
}

// message is received from the page: either a reply to a call (ID set) or an
// event.
type message struct {
	ID     uint64          `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Event  string          `json:"event,omitempty"`
	Volume *int            `json:"volume,omitempty"`
}

type reply struct {
	result json.RawMessage
	err    error
}

// Remote drives an iframe player hosted by a browser page connected over a
// websocket. Only the most recently connected page is controlled.
type Remote struct {
	upgrader websocket.Upgrader
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	ready   bool
	volume  int
	nextID  uint64
	pending map[uint64]chan reply

	writeMu sync.Mutex
}

// NewRemote creates a Remote. A non-positive timeout uses
// DefaultCallTimeout.
func NewRemote(timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Remote{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		timeout: timeout,
		logger:  log.Component("player"),
		volume:  -1,
		pending: make(map[uint64]chan reply),
	}
}

// ServeHTTP upgrades the page's connection and serves it until it closes.
func (r *Remote) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	r.attach(conn)
	defer r.detach(conn)

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Debug("player page read ended", "error", err)
			}
			return
		}
		r.handle(msg)
	}
}

func (r *Remote) attach(conn *websocket.Conn) {
	r.mu.Lock()
	old := r.conn
	r.conn = conn
	r.ready = false
	r.mu.Unlock()

	if old != nil {
		old.Close()
	}
	r.logger.Info("player page connected", "remote", conn.RemoteAddr().String())
}

func (r *Remote) detach(conn *websocket.Conn) {
	conn.Close()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != conn {
		return
	}
	r.conn = nil
	r.ready = false
	for id, ch := range r.pending {
		ch <- reply{err: ErrDisconnected}
		delete(r.pending, id)
	}
	r.logger.Info("player page disconnected")
}

func (r *Remote) handle(msg message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.Volume != nil {
		r.volume = ClampVolume(*msg.Volume)
	}

	if msg.ID != 0 {
		ch, ok := r.pending[msg.ID]
		if !ok {
			return
		}
		delete(r.pending, msg.ID)
		if msg.Error != "" {
			ch <- reply{err: errors.New(msg.Error)}
		} else {
			ch <- reply{result: msg.Result}
		}
		return
	}

	switch msg.Event {
	case "ready":
		r.ready = true
	case "unready", "error":
		r.ready = false
	}
}

// Connected reports whether a page is attached.
func (r *Remote) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

// Ready reports whether the page's player has loaded.
func (r *Remote) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil && r.ready
}

func (r *Remote) invoke(ctx context.Context, needReady bool, method string, args ...any) (json.RawMessage, error) {
	r.mu.Lock()
	if r.conn == nil || (needReady && !r.ready) {
		r.mu.Unlock()
		return nil, ErrNotReady
	}
	conn := r.conn
	r.nextID++
	id := r.nextID
	ch := make(chan reply, 1)
	r.pending[id] = ch
	r.mu.Unlock()

	r.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(r.timeout))
	err := conn.WriteJSON(call{ID: id, Method: method, Args: args})
	r.writeMu.Unlock()
	if err != nil {
		r.forget(id)
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case rep := <-ch:
		if rep.err != nil {
			return nil, fmt.Errorf("%s: %w", method, rep.err)
		}
		return rep.result, nil
	case <-timer.C:
		r.forget(id)
		return nil, fmt.Errorf("%s: timed out after %s", method, r.timeout)
	case <-ctx.Done():
		r.forget(id)
		return nil, ctx.Err()
	}
}

func (r *Remote) forget(id uint64) {
	r.mu.Lock()
	delete(r.pending, id)
	r.mu.Unlock()
}

// PlayVideo resumes playback on the attached page.
func (r *Remote) PlayVideo(ctx context.Context) error {
	_, err := r.invoke(ctx, true, "playVideo")
	return err
}

// PauseVideo pauses playback on the attached page.
func (r *Remote) PauseVideo(ctx context.Context) error {
	_, err := r.invoke(ctx, true, "pauseVideo")
	return err
}

// Mute silences the page's player.
func (r *Remote) Mute(ctx context.Context) error {
	_, err := r.invoke(ctx, true, "mute")
	return err
}

// UnMute restores sound on the page's player.
func (r *Remote) UnMute(ctx context.Context) error {
	_, err := r.invoke(ctx, true, "unMute")
	return err
}

// Volume asks the page for the current volume, falling back to the last
// volume it reported when the reply carries none.
func (r *Remote) Volume(ctx context.Context) (int, error) {
	res, err := r.invoke(ctx, true, "getVolume")
	if err != nil {
		return 0, err
	}
	var v int
	if len(res) > 0 && json.Unmarshal(res, &v) == nil {
		r.mu.Lock()
		r.volume = ClampVolume(v)
		r.mu.Unlock()
		return ClampVolume(v), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.volume < 0 {
		return 0, errors.New("getVolume: no volume reported")
	}
	return r.volume, nil
}

// SetVolume clamps v to 0..100, sends it, and remembers it once the page
// acknowledges.
func (r *Remote) SetVolume(ctx context.Context, v int) error {
	v = ClampVolume(v)
	if _, err := r.invoke(ctx, true, "setVolume", v); err != nil {
		return err
	}
	r.mu.Lock()
	r.volume = v
	r.mu.Unlock()
	return nil
}

// LoadVideoByID only needs a connected page; the page creates its player on
// the first load.
func (r *Remote) LoadVideoByID(ctx context.Context, id string) error {
	_, err := r.invoke(ctx, false, "loadVideoById", id)
	return err
}

var _ Player = (*Remote)(nil)

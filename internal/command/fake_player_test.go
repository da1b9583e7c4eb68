package command

import (
	"context"
	"sync"
	"time"

	"github.com/ayusman/tubecontrol/internal/player"
)

type fakePlayer struct {
	mu     sync.Mutex
	ready  bool
	volume int
	muted  bool
	state  string
	calls  []string
	err    error
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{ready: true, volume: 50}
}

func (p *fakePlayer) record(call string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
	return p.err
}

func (p *fakePlayer) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakePlayer) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

func (p *fakePlayer) PlayVideo(context.Context) error {
	p.state = "playing"
	return p.record("play")
}

func (p *fakePlayer) PauseVideo(context.Context) error {
	p.state = "paused"
	return p.record("pause")
}

func (p *fakePlayer) Mute(context.Context) error {
	p.muted = true
	return p.record("mute")
}

func (p *fakePlayer) UnMute(context.Context) error {
	p.muted = false
	return p.record("unmute")
}

func (p *fakePlayer) Volume(context.Context) (int, error) {
	return p.volume, nil
}

func (p *fakePlayer) SetVolume(_ context.Context, v int) error {
	p.volume = v
	return p.record("volume")
}

func (p *fakePlayer) LoadVideoByID(context.Context, string) error {
	return p.record("load")
}

var _ player.Player = (*fakePlayer)(nil)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

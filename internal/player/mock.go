package player

import (
	"context"
	"sync"
)

// MockPlayer is an in-memory Player that records every call.
type MockPlayer struct {
	mu      sync.Mutex
	ready   bool
	playing bool
	muted   bool
	volume  int
	videoID string
	err     error
	calls   []string
}

// NewMockPlayer returns a ready, paused player at volume 50.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{ready: true, volume: 50}
}

// SetReady sets what Ready reports.
func (m *MockPlayer) SetReady(ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = ready
}

// SetError makes every subsequent command fail with err.
func (m *MockPlayer) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the commands received so far.
func (m *MockPlayer) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// State reports playing, muted, volume and the loaded video.
func (m *MockPlayer) State() (playing, muted bool, volume int, videoID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing, m.muted, m.volume, m.videoID
}

func (m *MockPlayer) do(name string, apply func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
	if m.err != nil {
		return m.err
	}
	if !m.ready {
		return ErrNotReady
	}
	apply()
	return nil
}

func (m *MockPlayer) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *MockPlayer) PlayVideo(context.Context) error {
	return m.do("playVideo", func() { m.playing = true })
}

func (m *MockPlayer) PauseVideo(context.Context) error {
	return m.do("pauseVideo", func() { m.playing = false })
}

func (m *MockPlayer) Mute(context.Context) error {
	return m.do("mute", func() { m.muted = true })
}

func (m *MockPlayer) UnMute(context.Context) error {
	return m.do("unMute", func() { m.muted = false })
}

func (m *MockPlayer) Volume(context.Context) (int, error) {
	var v int
	err := m.do("getVolume", func() { v = m.volume })
	return v, err
}

func (m *MockPlayer) SetVolume(_ context.Context, v int) error {
	return m.do("setVolume", func() { m.volume = ClampVolume(v) })
}

func (m *MockPlayer) LoadVideoByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "loadVideoById")
	if m.err != nil {
		return m.err
	}
	m.videoID = id
	return nil
}

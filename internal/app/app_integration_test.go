package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/tubecontrol/internal/capture"
	"github.com/ayusman/tubecontrol/internal/config"
	"github.com/ayusman/tubecontrol/internal/detector"
	"github.com/ayusman/tubecontrol/internal/player"
	"github.com/ayusman/tubecontrol/internal/store"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestApp_FrameLoop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	cam := capture.NewBlankCamera(64, 48)
	defer cam.Release()

	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{
		detector.WithGesture(detector.FistLandmarks(detector.Left), "PlayVideo", 0.95),
	})
	p := player.NewMockPlayer()

	cfg := config.New()
	cfg.FPS = 60
	a, err := New(Options{Config: cfg, Store: s, Player: p, Camera: cam, Detector: det})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !a.Running() || !a.IsEnabled() {
		t.Fatal("app should be running after Start")
	}

	waitFor(t, "play dispatch", func() bool {
		playing, _, _, _ := p.State()
		return playing
	})
	waitFor(t, "preview frame", func() bool {
		_, seq := a.Preview().Latest()
		return seq > 0
	})

	// Held PlayVideo fires exactly once.
	time.Sleep(100 * time.Millisecond)
	if calls := p.Calls(); len(calls) != 1 {
		t.Errorf("player calls = %v, want one playVideo", calls)
	}

	if err := a.SetEnabled(ctx, false); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "loop exit", func() bool { return !a.Running() })
	waitFor(t, "camera closed", func() bool { return !cam.IsOpen() })

	// Re-enabling starts a fresh session.
	if err := a.SetEnabled(ctx, true); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "restart", func() bool { return a.Running() })
	a.Stop()
	if a.Running() {
		t.Error("Running() after Stop")
	}
}

func TestApp_ReenableWhileRetiring(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cam := capture.NewBlankCamera(64, 48)
	defer cam.Release()

	a, err := New(Options{
		Config:   config.New(),
		Player:   player.NewMockPlayer(),
		Camera:   cam,
		Detector: detector.NewMockDetector(),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	// A loop that has just finished a cycle, as runPipeline leaves it.
	stop, done := make(chan struct{}), make(chan struct{})
	a.mu.Lock()
	a.stopCh, a.doneCh, a.enabled = stop, done, true
	a.mu.Unlock()

	if !a.keepRunning(stop, done) {
		t.Fatal("enabled loop should keep running")
	}

	if err := a.SetEnabled(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if a.keepRunning(stop, done) {
		t.Fatal("disabled loop should exit")
	}
	if a.Running() {
		t.Fatal("retired loop still owns the session")
	}

	started := make(chan error, 1)
	go func() { started <- a.Start(context.Background()) }()

	select {
	case err := <-started:
		t.Fatalf("Start returned %v before the retiring loop finished", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(done)
	select {
	case err := <-started:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start never returned after the old loop finished")
	}

	if !a.Running() || !a.IsEnabled() {
		t.Error("re-enable after retirement did not start a new loop")
	}
	time.Sleep(50 * time.Millisecond)
	if !a.Running() {
		t.Error("new loop stopped on its own")
	}
}

func TestApp_RapidToggleEndsEnabled(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cam := capture.NewBlankCamera(64, 48)
	defer cam.Release()

	cfg := config.New()
	cfg.FPS = 120
	a, err := New(Options{Config: cfg, Player: player.NewMockPlayer(), Camera: cam, Detector: detector.NewMockDetector()})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		if err := a.SetEnabled(ctx, false); err != nil {
			t.Fatal(err)
		}
		if err := a.SetEnabled(ctx, true); err != nil {
			t.Fatalf("SetEnabled(true) #%d error = %v", i, err)
		}
		time.Sleep(time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if !a.Running() || !a.IsEnabled() {
		t.Errorf("after toggling, Running=%v IsEnabled=%v; want both true", a.Running(), a.IsEnabled())
	}
}

// Package app runs the frame cycle: camera, detection, focus classification,
// resolution and command dispatch.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/tubecontrol/internal/capture"
	"github.com/ayusman/tubecontrol/internal/command"
	"github.com/ayusman/tubecontrol/internal/config"
	"github.com/ayusman/tubecontrol/internal/detector"
	"github.com/ayusman/tubecontrol/internal/focus"
	"github.com/ayusman/tubecontrol/internal/gesture"
	"github.com/ayusman/tubecontrol/internal/log"
	"github.com/ayusman/tubecontrol/internal/metrics"
	"github.com/ayusman/tubecontrol/internal/player"
	"github.com/ayusman/tubecontrol/internal/store"
)

// ErrNoPlayer is returned by New without a player.
var ErrNoPlayer = errors.New("app: player is required")

// Options holds the collaborators of an App. Only Config, Store and Player
// are required.
type Options struct {
	Config   *config.Config
	Store    *store.Store
	Player   player.Player
	Camera   capture.Camera
	Detector detector.Detector
	Metrics  *metrics.Manager
	// Clock overrides time.Now for the command controller.
	Clock func() time.Time
}

// Controls are the two independent input switches.
type Controls struct {
	GestureControl  bool `json:"gesture_control"`
	EyeFocusControl bool `json:"eye_focus_control"`
}

// Status is a point-in-time view of the app.
type Status struct {
	Enabled     bool             `json:"enabled"`
	Running     bool             `json:"running"`
	PlayerReady bool             `json:"player_ready"`
	Controls    Controls         `json:"controls"`
	Bindings    int              `json:"bindings"`
	Last        command.Snapshot `json:"last"`
	Thresholds  focus.Thresholds `json:"thresholds"`
}

// App owns the session state and the frame loop.
type App struct {
	cfg      *config.Config
	store    *store.Store
	player   player.Player
	camera   capture.Camera
	detector detector.Detector
	metrics  *metrics.Manager
	preview  *capture.Preview
	clock    func() time.Time
	logger   *slog.Logger

	classifier atomic.Pointer[focus.Classifier]

	mu        sync.RWMutex
	enabled   bool
	controls  Controls
	bindings  gesture.Bindings
	engine    *command.Engine
	state     *command.State
	last      command.Snapshot
	stopCh    chan struct{}
	doneCh    chan struct{}
	exiting   chan struct{} // done of a loop that retired itself
	fired     int
	notifiers []command.Notifier
}

// New creates an App. Without a detector MediaPipe is tried first, then the
// mock detector; without a camera the configured device is used.
func New(opts Options) (*App, error) {
	if opts.Player == nil {
		return nil, ErrNoPlayer
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.New()
	}

	a := &App{
		cfg:      cfg,
		store:    opts.Store,
		player:   opts.Player,
		camera:   opts.Camera,
		detector: opts.Detector,
		metrics:  opts.Metrics,
		preview:  capture.NewPreview(),
		clock:    opts.Clock,
		logger:   log.Component("app"),
		controls: Controls{
			GestureControl:  cfg.GestureControl,
			EyeFocusControl: cfg.EyeFocusControl,
		},
	}
	if a.metrics == nil {
		a.metrics = metrics.NewManager()
	}
	if a.camera == nil {
		a.camera = capture.NewCamera(cfg.CameraID, capture.WithFPS(cfg.FPS))
	}
	if a.detector == nil {
		dc := detector.DefaultConfig()
		dc.ScriptPath = cfg.MediaPipeScript
		dc.PythonPath = cfg.PythonPath
		if mp, err := detector.NewMediaPipeDetector(dc); err == nil {
			a.detector = mp
			a.logger.Info("using MediaPipe detection")
		} else {
			a.logger.Warn("MediaPipe not available, using mock detector", "error", err)
			a.detector = detector.NewMockDetector()
		}
	}

	if a.store != nil {
		s := a.store.Settings()
		a.controls.GestureControl = s.Bool(store.SettingGestureControl, a.controls.GestureControl)
		a.controls.EyeFocusControl = s.Bool(store.SettingEyeFocusControl, a.controls.EyeFocusControl)
	}
	a.classifier.Store(focus.NewClassifier(focus.DefaultThresholds()))

	return a, nil
}

// Subscribe registers n for fired-command notifications.
func (a *App) Subscribe(n command.Notifier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notifiers = append(a.notifiers, n)
}

// Notify fans e out to subscribers.
func (a *App) Notify(e command.Event) {
	a.mu.RLock()
	ns := append([]command.Notifier(nil), a.notifiers...)
	a.mu.RUnlock()
	for _, n := range ns {
		n.Notify(e)
	}
}

// prepare loads the bindings snapshot and calibration thresholds and builds
// a fresh engine and session state. Callers hold a.mu.
func (a *App) prepare() error {
	bindings, err := a.cfg.BindingsTable()
	if err != nil {
		return err
	}
	thresholds := focus.DefaultThresholds()

	if a.store != nil {
		repo := a.store.Bindings()
		seeded, err := repo.Seed(bindings)
		if err != nil {
			return fmt.Errorf("seed bindings: %w", err)
		}
		if seeded {
			a.logger.Info("seeded bindings", "count", bindings.Len())
		}
		if bindings, err = repo.Snapshot(); err != nil {
			return fmt.Errorf("load bindings: %w", err)
		}
		if thresholds, err = a.store.Calibrations().Thresholds(); err != nil {
			return fmt.Errorf("load calibration: %w", err)
		}
	}

	copts := []command.Option{
		command.WithCooldown(a.cfg.Cooldown()),
		command.WithVolumeDiscount(a.cfg.VolumeDiscount),
		command.WithDwell(a.cfg.Dwell()),
	}
	if a.clock != nil {
		copts = append(copts, command.WithClock(a.clock))
	}

	a.bindings = bindings
	a.engine = command.NewEngine(
		a.resolver(bindings, a.controls),
		command.NewController(bindings, copts...),
		command.NewDispatcher(a.player, a.cfg.VolumeStep),
		command.NotifierFunc(a.Notify),
	)
	a.state = command.NewState()
	a.last = a.state.Snapshot()
	a.classifier.Store(focus.NewClassifier(thresholds))

	a.logger.Info("session prepared", "bindings", bindings.Len(), "controls", a.controls)
	return nil
}

func (a *App) resolver(b gesture.Bindings, c Controls) *gesture.Resolver {
	return gesture.NewResolver(b,
		gesture.WithMinConfidence(a.cfg.MinGestureConfidence),
		gesture.WithGestureControl(c.GestureControl),
		gesture.WithEyeFocusControl(c.EyeFocusControl),
	)
}

// Start loads the session snapshot, opens the camera and starts the frame
// loop. Starting a running app only re-enables it. ctx may be a request
// context.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for a.stopCh == nil && a.exiting != nil {
		exiting := a.exiting
		a.mu.Unlock()
		<-exiting
		a.mu.Lock()
		if a.exiting == exiting {
			a.exiting = nil
		}
	}
	if a.stopCh != nil {
		a.enabled = true
		return nil
	}
	if err := a.prepare(); err != nil {
		return err
	}
	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.cfg.FPS)

	a.enabled = true
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	a.metrics.SetEnabled(true)
	// The loop outlives the caller's context; Stop ends it.
	go a.runPipeline(context.WithoutCancel(ctx), a.engine, a.state, a.stopCh, a.doneCh)

	a.logger.Info("frame cycle started", "fps", a.cfg.FPS)
	return nil
}

// Stop halts the frame loop and waits for the in-flight cycle to finish
// and the camera to close.
func (a *App) Stop() {
	a.mu.Lock()
	stop, done, exiting := a.stopCh, a.doneCh, a.exiting
	a.enabled = false
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	if exiting != nil {
		<-exiting
	}
}

// Close stops the app and releases the detector.
func (a *App) Close() error {
	a.Stop()
	return a.detector.Close()
}

// SetEnabled starts or stops the frame loop. Disabling is cooperative: the
// loop exits after the cycle in progress.
func (a *App) SetEnabled(ctx context.Context, on bool) error {
	if on {
		return a.Start(ctx)
	}
	a.mu.Lock()
	a.enabled = false
	a.mu.Unlock()
	return nil
}

// IsEnabled reports whether the frame loop should keep running.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Running reports whether a frame loop goroutine is alive.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Controls returns the current input switches.
func (a *App) Controls() Controls {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.controls
}

// SetControls persists c and applies it to the running session.
func (a *App) SetControls(c Controls) error {
	if a.store != nil {
		s := a.store.Settings()
		if err := s.SetBool(store.SettingGestureControl, c.GestureControl); err != nil {
			return err
		}
		if err := s.SetBool(store.SettingEyeFocusControl, c.EyeFocusControl); err != nil {
			return err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.controls = c
	if a.engine != nil {
		a.engine.SetResolver(a.resolver(a.bindings, c))
	}
	a.logger.Info("controls changed", "gesture", c.GestureControl, "eye_focus", c.EyeFocusControl)
	return nil
}

// SetThresholds replaces the focus thresholds used by the classifier.
func (a *App) SetThresholds(t focus.Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	a.classifier.Store(focus.NewClassifier(t.Merge()))
	return nil
}

// Thresholds returns the thresholds in use.
func (a *App) Thresholds() focus.Thresholds {
	return a.classifier.Load().Thresholds()
}

// Status reports the app's current state.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Status{
		Enabled:     a.enabled,
		Running:     a.stopCh != nil,
		PlayerReady: a.player.Ready(),
		Controls:    a.controls,
		Bindings:    a.bindings.Len(),
		Last:        a.last,
		Thresholds:  a.classifier.Load().Thresholds(),
	}
}

// Player returns the player commands are dispatched to.
func (a *App) Player() player.Player {
	return a.player
}

// Preview returns the latest-frame buffer fed by the frame loop.
func (a *App) Preview() *capture.Preview {
	return a.preview
}

// Metrics returns the app's metrics.
func (a *App) Metrics() *metrics.Manager {
	return a.metrics
}

// Detector returns the detection source.
func (a *App) Detector() detector.Detector {
	return a.detector
}

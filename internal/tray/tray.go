// Package tray provides the system tray menu: enable switch, control
// toggles and the last fired command.
package tray

import (
	"fmt"
	"sync"

	"github.com/ayusman/tubecontrol/internal/command"
	"github.com/getlantern/systray"
)

// Callbacks are invoked outside the tray's lock.
type Callbacks struct {
	OnToggle         func(enabled bool)
	OnGestureControl func(on bool)
	OnEyeControl     func(on bool)
	OnOpenPlayer     func()
	OnQuit           func()
}

// Tray is the system tray application.
type Tray struct {
	mu        sync.RWMutex
	cb        Callbacks
	enabled   bool
	gestures  bool
	eyeFocus  bool
	lastLabel string

	menuToggle   *systray.MenuItem
	menuGestures *systray.MenuItem
	menuEye      *systray.MenuItem
	menuLast     *systray.MenuItem
}

// New creates a tray with the given initial switch states.
func New(enabled, gestures, eyeFocus bool, cb Callbacks) *Tray {
	return &Tray{
		cb:        cb,
		enabled:   enabled,
		gestures:  gestures,
		eyeFocus:  eyeFocus,
		lastLabel: "Last: none",
	}
}

// Run starts the tray. It blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("TubeControl")
	systray.SetTooltip("TubeControl gesture and eye-focus player control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Start or stop the camera")
	systray.AddSeparator()
	t.menuGestures = systray.AddMenuItemCheckbox("Gesture control", "React to hand gestures", t.gestures)
	t.menuEye = systray.AddMenuItemCheckbox("Eye focus control", "Play and pause on focus", t.eyeFocus)
	systray.AddSeparator()
	t.menuLast = systray.AddMenuItem(t.lastLabel, "Last fired command")
	t.menuLast.Disable()
	t.mu.Unlock()

	systray.AddSeparator()
	menuPlayer := systray.AddMenuItem("Open Player...", "Open the player page in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit TubeControl")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuGestures.ClickedCh:
				t.handleGestures()
			case <-t.menuEye.ClickedCh:
				t.handleEye()
			case <-menuPlayer.ClickedCh:
				if t.cb.OnOpenPlayer != nil {
					t.cb.OnOpenPlayer()
				}
			case <-menuQuit.ClickedCh:
				if t.cb.OnQuit != nil {
					t.cb.OnQuit()
				}
				systray.Quit()
				return
			}
		}
	}()
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func setChecked(item *systray.MenuItem, on bool) {
	if item == nil {
		return
	}
	if on {
		item.Check()
	} else {
		item.Uncheck()
	}
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	cb := t.cb.OnToggle
	t.mu.Unlock()

	if cb != nil {
		cb(enabled)
	}
}

func (t *Tray) handleGestures() {
	t.mu.Lock()
	t.gestures = !t.gestures
	on := t.gestures
	setChecked(t.menuGestures, on)
	cb := t.cb.OnGestureControl
	t.mu.Unlock()

	if cb != nil {
		cb(on)
	}
}

func (t *Tray) handleEye() {
	t.mu.Lock()
	t.eyeFocus = !t.eyeFocus
	on := t.eyeFocus
	setChecked(t.menuEye, on)
	cb := t.cb.OnEyeControl
	t.mu.Unlock()

	if cb != nil {
		cb(on)
	}
}

// SetEnabled updates the enable switch without invoking callbacks.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// IsEnabled returns the enable switch state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Notify implements command.Notifier by showing the fired command.
func (t *Tray) Notify(e command.Event) {
	t.SetLastCommand(LastLabel(e))
}

// SetLastCommand replaces the "Last:" menu text.
func (t *Tray) SetLastCommand(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastLabel = label
	if t.menuLast != nil {
		t.menuLast.SetTitle(label)
	}
}

// LastCommand returns the "Last:" menu text.
func (t *Tray) LastCommand() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastLabel
}

// LastLabel formats a fired command for the menu.
func LastLabel(e command.Event) string {
	label := fmt.Sprintf("Last: %s (%s)", e.Action, e.Modality)
	if e.Volume >= 0 {
		label += fmt.Sprintf(" vol %d", e.Volume)
	}
	return label
}

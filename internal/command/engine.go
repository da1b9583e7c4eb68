package command

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ayusman/tubecontrol/internal/gesture"
	"github.com/ayusman/tubecontrol/internal/log"
)

// Event describes a fired command.
type Event struct {
	Action    gesture.Action
	Operation gesture.Operation
	Modality  gesture.Modality
	Volume    int
	Time      time.Time
}

// Notifier is told about fired commands that changed the last action.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

// Notify calls f(e).
func (f NotifierFunc) Notify(e Event) { f(e) }

// Outcome reports what one Step did.
type Outcome struct {
	Candidate gesture.Candidate
	Resolved  bool
	Decision  Decision

	// Dispatched is set when the player was asked to act.
	Dispatched bool
	Result     Result
	Err        error
	// Fired is set when the dispatch succeeded and the state was committed.
	Fired    bool
	Notified bool

	Latency time.Duration
	Time    time.Time
}

// Engine runs resolution, admission, dispatch and commit for one frame.
type Engine struct {
	resolver   atomic.Pointer[gesture.Resolver]
	controller *Controller
	dispatcher *Dispatcher
	notifier   Notifier
	logger     *slog.Logger
}

// NewEngine wires the decision components together. notifier may be nil.
func NewEngine(r *gesture.Resolver, c *Controller, d *Dispatcher, n Notifier) *Engine {
	e := &Engine{
		controller: c,
		dispatcher: d,
		notifier:   n,
		logger:     log.Component("command"),
	}
	e.resolver.Store(r)
	return e
}

// SetLogger replaces the engine's logger.
func (e *Engine) SetLogger(l *slog.Logger) {
	e.logger = l
}

// SetResolver swaps the resolver used by subsequent steps. Safe to call from
// any goroutine.
func (e *Engine) SetResolver(r *gesture.Resolver) {
	e.resolver.Store(r)
}

// Controller returns the engine's controller.
func (e *Engine) Controller() *Controller {
	return e.controller
}

// Step processes one frame against st.
func (e *Engine) Step(ctx context.Context, st *State, f gesture.Frame) Outcome {
	now := e.controller.Now()
	out := Outcome{Time: now}

	e.controller.Observe(st, f.Focus, now)

	cand, ok := e.resolver.Load().Resolve(f, st)
	e.controller.Release(st, cand, ok)
	if !ok {
		return out
	}
	out.Candidate, out.Resolved = cand, true

	out.Decision = e.controller.Admit(st, cand, now)
	if !out.Decision.Admitted {
		if out.Decision.Reason == ReasonUnbound {
			e.logger.Debug("unbound action dropped", "action", cand.Action)
		}
		return out
	}

	start := time.Now()
	res, err := e.dispatcher.Dispatch(ctx, out.Decision.Operation)
	out.Latency = time.Since(start)
	out.Result = res
	out.Dispatched = !res.NotReady
	if err != nil {
		out.Err = err
		e.logger.Warn("dispatch failed", "operation", out.Decision.Operation, "error", err)
		return out
	}
	if res.NotReady {
		e.logger.Debug("player not ready", "operation", out.Decision.Operation)
		return out
	}

	out.Fired = true
	changed := e.controller.Commit(st, cand, out.Decision.Operation, now)
	e.logger.Info("command fired",
		"action", cand.Action,
		"operation", out.Decision.Operation,
		"modality", cand.Modality,
	)

	if changed && e.notifier != nil {
		e.notifier.Notify(Event{
			Action:    cand.Action,
			Operation: out.Decision.Operation,
			Modality:  cand.Modality,
			Volume:    res.Volume,
			Time:      now,
		})
		out.Notified = true
	}
	return out
}

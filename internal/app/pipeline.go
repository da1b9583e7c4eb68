package app

import (
	"context"
	"time"

	"github.com/ayusman/tubecontrol/internal/command"
	"github.com/ayusman/tubecontrol/internal/detector"
	"github.com/ayusman/tubecontrol/internal/gesture"
	"github.com/ayusman/tubecontrol/internal/store"
)

// pruneEvery is how many recorded dispatches pass between history prunes.
const pruneEvery = 100

// runPipeline runs one cycle per tick until stopped or disabled. Each cycle,
// dispatch included, completes before the next tick is taken, and st is
// only touched here. The camera is closed before done is.
func (a *App) runPipeline(ctx context.Context, eng *command.Engine, st *command.State, stop, done chan struct{}) {
	defer close(done)
	defer a.shutdown(stop)

	fps := a.cfg.FPS
	if fps <= 0 {
		fps = 1
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		a.cycle(ctx, eng, st)

		if !a.keepRunning(stop, done) {
			a.logger.Info("frame cycle disabled")
			return
		}
	}
}

// keepRunning reports whether the loop owning stop should take another tick.
// When disabled the loop gives up ownership in the same critical section, so
// a later Start either finds it enabled or starts a fresh loop after done.
func (a *App) keepRunning(stop, done chan struct{}) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enabled {
		return true
	}
	if a.stopCh == stop {
		a.stopCh, a.doneCh = nil, nil
		a.exiting = done
	}
	return false
}

// shutdown releases the loop's resources and clears the running state if
// Stop has not already done so.
func (a *App) shutdown(stop chan struct{}) {
	a.mu.Lock()
	if a.stopCh == stop {
		a.stopCh, a.doneCh = nil, nil
		a.enabled = false
	}
	a.mu.Unlock()

	if err := a.camera.Close(); err != nil {
		a.logger.Warn("closing camera", "error", err)
	}
	a.metrics.SetEnabled(false)
	a.logger.Info("frame cycle stopped")
}

// cycle reads, detects and processes one frame.
func (a *App) cycle(ctx context.Context, eng *command.Engine, st *command.State) {
	start := time.Now()

	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.logger.Debug("reading frame", "error", err)
		return
	}
	defer frame.Close()

	if err := a.preview.Publish(frame); err != nil {
		a.logger.Debug("publishing preview", "error", err)
	}

	res, err := a.detector.Detect(frame, start.UnixMilli())
	if err != nil {
		a.metrics.RecordDetectError()
		a.logger.Warn("detection failed", "error", err)
		return
	}

	a.process(ctx, eng, st, res)
	a.metrics.RecordFrame(time.Since(start))
}

// process runs one detection result through the engine and records the
// outcome.
func (a *App) process(ctx context.Context, eng *command.Engine, st *command.State, res detector.Result) command.Outcome {
	sample := a.classifier.Load().Classify(res.Faces)
	hands := res.Hands
	if !a.Controls().GestureControl {
		// Hands are not input while gesture control is off.
		hands = nil
	}
	out := eng.Step(ctx, st, gesture.NewFrame(hands, sample))

	if !out.Resolved {
		return out
	}
	a.metrics.RecordCandidate(out.Candidate.Action.String(), out.Candidate.Modality.String())
	a.metrics.RecordDecision(out.Decision.Reason.String())

	op := out.Decision.Operation.String()
	switch {
	case out.Err != nil:
		a.metrics.RecordDispatchError(op)
	case out.Result.NotReady:
		a.metrics.RecordNotReady()
	case out.Fired:
		a.metrics.RecordDispatch(op, out.Latency)
		if out.Result.Volume >= 0 {
			a.metrics.SetVolume(out.Result.Volume)
		}
		a.recordFired(st, out)
	}
	return out
}

func (a *App) recordFired(st *command.State, out command.Outcome) {
	snap := st.Snapshot()
	a.mu.Lock()
	a.last = snap
	a.fired++
	prune := a.fired%pruneEvery == 0
	a.mu.Unlock()

	if a.store == nil {
		return
	}
	history := a.store.History()
	if err := history.Record(&store.Dispatch{
		Action:    out.Candidate.Action.String(),
		Operation: out.Decision.Operation.String(),
		Modality:  out.Candidate.Modality.String(),
		Volume:    out.Result.Volume,
		Latency:   out.Latency,
		FiredAt:   out.Time,
	}); err != nil {
		a.logger.Warn("recording dispatch", "error", err)
		return
	}
	if prune && a.cfg.HistoryLimit > 0 {
		if n, err := history.Prune(a.cfg.HistoryLimit); err != nil {
			a.logger.Warn("pruning history", "error", err)
		} else if n > 0 {
			a.logger.Debug("pruned history", "removed", n)
		}
	}
}

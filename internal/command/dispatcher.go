package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayusman/tubecontrol/internal/gesture"
	"github.com/ayusman/tubecontrol/internal/player"
)

// DefaultVolumeStep is how far one volume operation moves the volume.
const DefaultVolumeStep = 10

// Result is what a dispatch did to the player.
type Result struct {
	// NotReady is set when the player had not loaded; nothing was sent.
	NotReady bool
	// Volume is the volume after a volume operation, -1 otherwise.
	Volume int
}

// Dispatcher maps operations to player calls.
type Dispatcher struct {
	player player.Player
	step   int
}

// NewDispatcher creates a dispatcher. A non-positive step uses
// DefaultVolumeStep.
func NewDispatcher(p player.Player, step int) *Dispatcher {
	if step <= 0 {
		step = DefaultVolumeStep
	}
	return &Dispatcher{player: p, step: step}
}

// Dispatch sends op to the player. A player that is not ready yields
// Result{NotReady: true} and no error.
func (d *Dispatcher) Dispatch(ctx context.Context, op gesture.Operation) (Result, error) {
	res := Result{Volume: -1}
	if d.player == nil || !d.player.Ready() {
		res.NotReady = true
		return res, nil
	}

	var err error
	switch op {
	case gesture.PlayVideoControl:
		err = d.player.PlayVideo(ctx)
	case gesture.PauseVideoControl:
		err = d.player.PauseVideo(ctx)
	case gesture.MuteVideoControl:
		err = d.player.Mute(ctx)
	case gesture.UnmuteVideoControl:
		err = d.player.UnMute(ctx)
	case gesture.VolumeUpVideoControl:
		res.Volume, err = d.adjust(ctx, d.step)
	case gesture.VolumeDownVideoControl:
		res.Volume, err = d.adjust(ctx, -d.step)
	default:
		return res, fmt.Errorf("dispatch: %w: %v", gesture.ErrUnknownOperation, op)
	}

	if errors.Is(err, player.ErrNotReady) {
		return Result{NotReady: true, Volume: -1}, nil
	}
	if err != nil {
		return res, fmt.Errorf("dispatch %s: %w", op, err)
	}
	return res, nil
}

func (d *Dispatcher) adjust(ctx context.Context, delta int) (int, error) {
	cur, err := d.player.Volume(ctx)
	if err != nil {
		return -1, err
	}
	v := player.ClampVolume(cur + delta)
	if err := d.player.SetVolume(ctx, v); err != nil {
		return -1, err
	}
	return v, nil
}

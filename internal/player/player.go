// Package player defines the embedded video player surface commands are
// dispatched to, plus its transports.
package player

import (
	"context"
	"errors"
)

// ErrNotReady is returned by transports asked to act before the player has
// loaded.
var ErrNotReady = errors.New("player not ready")

// Volume bounds.
const (
	MinVolume = 0
	MaxVolume = 100
)

// Player is the embedded player's command surface.
type Player interface {
	Ready() bool
	PlayVideo(ctx context.Context) error
	PauseVideo(ctx context.Context) error
	Mute(ctx context.Context) error
	UnMute(ctx context.Context) error
	Volume(ctx context.Context) (int, error)
	SetVolume(ctx context.Context, v int) error
	LoadVideoByID(ctx context.Context, id string) error
}

// ClampVolume bounds v to MinVolume..MaxVolume.
func ClampVolume(v int) int {
	if v < MinVolume {
		return MinVolume
	}
	if v > MaxVolume {
		return MaxVolume
	}
	return v
}

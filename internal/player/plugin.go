package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/tubecontrol/internal/plugin"
)

// Actions a plugin must support to act as a player.
var pluginActions = []string{
	"ready", "play", "pause", "mute", "unmute", "get-volume", "set-volume", "load-video",
}

// PluginPlayer drives a player through an out-of-process plugin.
type PluginPlayer struct {
	plugin   *plugin.Plugin
	executor *plugin.Executor
}

// NewPluginPlayer picks the named plugin, or any plugin supporting the full
// player action set when name is empty.
func NewPluginPlayer(m *plugin.Manager, e *plugin.Executor, name string) (*PluginPlayer, error) {
	var (
		p   *plugin.Plugin
		err error
	)
	if name != "" {
		p, err = m.Get(name)
	} else {
		p, err = m.Supporting(pluginActions...)
	}
	if err != nil {
		return nil, fmt.Errorf("player plugin: %w", err)
	}
	return &PluginPlayer{plugin: p, executor: e}, nil
}

// Name returns the plugin's name.
func (p *PluginPlayer) Name() string {
	return p.plugin.Manifest.Name
}

func (p *PluginPlayer) call(ctx context.Context, action string, params any) (json.RawMessage, error) {
	req := &plugin.Request{Action: action}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		req.Params = raw
	}

	resp, err := p.executor.Execute(ctx, p.plugin, req)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%s: %s", action, resp.Error)
	}
	return resp.Data, nil
}

// Ready asks the plugin whether a player is available.
func (p *PluginPlayer) Ready() bool {
	data, err := p.call(context.Background(), "ready", nil)
	if err != nil {
		return false
	}
	var r struct {
		Ready bool `json:"ready"`
	}
	return json.Unmarshal(data, &r) == nil && r.Ready
}

func (p *PluginPlayer) PlayVideo(ctx context.Context) error {
	_, err := p.call(ctx, "play", nil)
	return err
}

func (p *PluginPlayer) PauseVideo(ctx context.Context) error {
	_, err := p.call(ctx, "pause", nil)
	return err
}

func (p *PluginPlayer) Mute(ctx context.Context) error {
	_, err := p.call(ctx, "mute", nil)
	return err
}

func (p *PluginPlayer) UnMute(ctx context.Context) error {
	_, err := p.call(ctx, "unmute", nil)
	return err
}

func (p *PluginPlayer) Volume(ctx context.Context) (int, error) {
	data, err := p.call(ctx, "get-volume", nil)
	if err != nil {
		return 0, err
	}
	var v struct {
		Volume *int `json:"volume"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, fmt.Errorf("parse volume: %w", err)
	}
	if v.Volume == nil {
		return 0, errors.New("plugin returned no volume")
	}
	return *v.Volume, nil
}

func (p *PluginPlayer) SetVolume(ctx context.Context, v int) error {
	_, err := p.call(ctx, "set-volume", map[string]int{"volume": ClampVolume(v)})
	return err
}

func (p *PluginPlayer) LoadVideoByID(ctx context.Context, id string) error {
	_, err := p.call(ctx, "load-video", map[string]string{"id": id})
	return err
}

var _ Player = (*PluginPlayer)(nil)

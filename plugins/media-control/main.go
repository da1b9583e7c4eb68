// Package main is a player transport plugin that drives the host's active
// media player. On Linux it uses playerctl (MPRIS) and pactl; on macOS it
// uses AppleScript.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Request is the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Config json.RawMessage `json:"config"`
	Params json.RawMessage `json:"params"`
}

// Response is the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type volumeParams struct {
	Volume int `json:"volume"`
}

type videoParams struct {
	ID string `json:"id"`
}

type volumeData struct {
	Volume int `json:"volume"`
}

type readyData struct {
	Ready bool `json:"ready"`
}

// backend is one platform's way of reaching the media player.
type backend interface {
	ready() bool
	play() error
	pause() error
	mute(on bool) error
	volume() (int, error)
	setVolume(v int) error
	open(url string) error
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeError(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	b, err := platform()
	if err != nil {
		writeError(err.Error())
		return
	}

	data, err := handle(b, req)
	if err != nil {
		writeError(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}
	writeSuccess(data)
}

func handle(b backend, req Request) (any, error) {
	switch req.Action {
	case "ready":
		return readyData{Ready: b.ready()}, nil
	case "play":
		return nil, b.play()
	case "pause":
		return nil, b.pause()
	case "mute":
		return nil, b.mute(true)
	case "unmute":
		return nil, b.mute(false)
	case "get-volume":
		v, err := b.volume()
		if err != nil {
			return nil, err
		}
		return volumeData{Volume: v}, nil
	case "set-volume":
		var p volumeParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
		v := min(max(p.Volume, 0), 100)
		if err := b.setVolume(v); err != nil {
			return nil, err
		}
		return volumeData{Volume: v}, nil
	case "load-video":
		var p videoParams
		if err := json.Unmarshal(req.Params, &p); err != nil || p.ID == "" {
			return nil, errors.New("missing video id")
		}
		return nil, b.open("https://www.youtube.com/watch?v=" + p.ID)
	default:
		return nil, fmt.Errorf("unknown action: %s", req.Action)
	}
}

func platform() (backend, error) {
	switch runtime.GOOS {
	case "linux":
		return linuxBackend{}, nil
	case "darwin":
		return darwinBackend{}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

func writeError(msg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: msg})
}

func writeSuccess(data any) {
	resp := Response{Success: true}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			writeError(err.Error())
			return
		}
		resp.Data = raw
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

func run(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

type linuxBackend struct{}

func (linuxBackend) ready() bool {
	status, err := run("playerctl", "status")
	return err == nil && status != "" && status != "No players found"
}

func (linuxBackend) play() error {
	_, err := run("playerctl", "play")
	return err
}

func (linuxBackend) pause() error {
	_, err := run("playerctl", "pause")
	return err
}

func (linuxBackend) mute(on bool) error {
	state := "0"
	if on {
		state = "1"
	}
	_, err := run("pactl", "set-sink-mute", "@DEFAULT_SINK@", state)
	return err
}

// playerctl reports volume as 0.0..1.0.
func (linuxBackend) volume() (int, error) {
	out, err := run("playerctl", "volume")
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0, fmt.Errorf("parse volume %q: %w", out, err)
	}
	return int(f*100 + 0.5), nil
}

func (linuxBackend) setVolume(v int) error {
	_, err := run("playerctl", "volume", strconv.FormatFloat(float64(v)/100, 'f', 2, 64))
	return err
}

func (linuxBackend) open(url string) error {
	_, err := run("playerctl", "open", url)
	return err
}

type darwinBackend struct{}

func osascript(script string) (string, error) {
	return run("osascript", "-e", script)
}

func (darwinBackend) ready() bool {
	_, err := osascript(`get volume settings`)
	return err == nil
}

// Play and pause share the F8 media key on macOS.
func (darwinBackend) play() error {
	_, err := osascript(`tell application "System Events" to key code 100`)
	return err
}

func (d darwinBackend) pause() error {
	return d.play()
}

func (darwinBackend) mute(on bool) error {
	_, err := osascript(fmt.Sprintf(`set volume output muted %t`, on))
	return err
}

func (darwinBackend) volume() (int, error) {
	out, err := osascript(`output volume of (get volume settings)`)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("parse volume %q: %w", out, err)
	}
	return v, nil
}

func (darwinBackend) setVolume(v int) error {
	_, err := osascript(fmt.Sprintf(`set volume output volume %d`, v))
	return err
}

func (darwinBackend) open(url string) error {
	_, err := run("open", url)
	return err
}

package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func writeScript(t *testing.T, name, body string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return &Plugin{
		Manifest:   Manifest{Name: name, Version: "1.0.0", Executable: name},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := writeScript(t, "ok-plugin", `echo '{"success":true,"data":{"volume":40}}'`+"\n")

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{Action: "get-volume"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !resp.Success || resp.Error != "" {
		t.Errorf("unexpected response: %+v", resp)
	}

	var data struct {
		Volume int `json:"volume"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data.Volume != 40 {
		t.Errorf("expected volume 40, got %d", data.Volume)
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := writeScript(t, "echo-plugin", "INPUT=$(cat)\necho \"{\\\"success\\\":true,\\\"data\\\":{\\\"received\\\":$INPUT}}\"\n")

	req := &Request{
		Action: "set-volume",
		Params: json.RawMessage(`{"volume":70}`),
	}
	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, req)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data.Received.Action != "set-volume" {
		t.Errorf("expected action 'set-volume', got %q", data.Received.Action)
	}
	if string(data.Received.Params) != `{"volume":70}` {
		t.Errorf("unexpected params %s", data.Received.Params)
	}
}

func TestExecutor_Failures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		timeout time.Duration
		check   func(t *testing.T, resp *Response, err error)
	}{
		{
			name:    "error response",
			body:    `echo '{"success":false,"error":"player closed"}'` + "\n",
			timeout: 5 * time.Second,
			check: func(t *testing.T, resp *Response, err error) {
				if err != nil {
					t.Fatalf("Execute() failed: %v", err)
				}
				if resp.Success || resp.Error != "player closed" {
					t.Errorf("unexpected response: %+v", resp)
				}
			},
		},
		{
			name:    "invalid json",
			body:    "echo 'not valid json'\n",
			timeout: 5 * time.Second,
			check: func(t *testing.T, _ *Response, err error) {
				if err == nil {
					t.Fatal("expected error for invalid JSON, got nil")
				}
			},
		},
		{
			name:    "non-zero exit",
			body:    "echo 'Error: something failed' >&2\nexit 1\n",
			timeout: 5 * time.Second,
			check: func(t *testing.T, _ *Response, err error) {
				if err == nil {
					t.Fatal("expected error for non-zero exit, got nil")
				}
			},
		},
		{
			name:    "timeout",
			body:    "sleep 10\necho '{\"success\":true}'\n",
			timeout: 100 * time.Millisecond,
			check: func(t *testing.T, _ *Response, err error) {
				if !errors.Is(err, ErrTimeout) {
					t.Errorf("expected ErrTimeout, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin := writeScript(t, "test-plugin", tt.body)
			resp, err := NewExecutor(tt.timeout).Execute(context.Background(), plugin, &Request{Action: "play"})
			tt.check(t, resp, err)
		})
	}
}

func TestExecutor_ContextCancelled(t *testing.T) {
	plugin := writeScript(t, "slow-plugin", "sleep 10\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewExecutor(5*time.Second).Execute(ctx, plugin, &Request{Action: "play"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestNewExecutor(t *testing.T) {
	if got := NewExecutor(3 * time.Second).Timeout(); got != 3*time.Second {
		t.Errorf("expected timeout 3s, got %s", got)
	}
}

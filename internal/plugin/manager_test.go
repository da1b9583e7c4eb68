package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, root, dir string, m Manifest) {
	t.Helper()
	pluginDir := filepath.Join(root, dir)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
}

func TestManager_Discover(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "media-control", Manifest{
		Name:        "media-control",
		Version:     "1.0.0",
		Description: "Host media player control",
		Executable:  "media-control",
		Actions:     []string{"play", "pause", "ready"},
	})

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	p := plugins[0]
	if p.Manifest.Name != "media-control" || p.Manifest.Version != "1.0.0" {
		t.Errorf("unexpected manifest: %+v", p.Manifest)
	}
	if p.Path != filepath.Join(root, "media-control") {
		t.Errorf("expected path under %q, got %q", root, p.Path)
	}
	if p.Executable != filepath.Join(root, "media-control", "media-control") {
		t.Errorf("unexpected executable %q", p.Executable)
	}
}

func TestManager_Discover_Skips(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, root string)
	}{
		{"empty dir", func(*testing.T, string) {}},
		{"invalid json", func(t *testing.T, root string) {
			dir := filepath.Join(root, "bad-plugin")
			if err := os.MkdirAll(dir, 0755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(dir, "plugin.json"), []byte("not valid json"), 0644); err != nil {
				t.Fatal(err)
			}
		}},
		{"no manifest", func(t *testing.T, root string) {
			if err := os.MkdirAll(filepath.Join(root, "stray"), 0755); err != nil {
				t.Fatal(err)
			}
		}},
		{"nameless manifest", func(t *testing.T, root string) {
			writeManifest(t, root, "anon", Manifest{Executable: "x"})
		}},
		{"plain file", func(t *testing.T, root string) {
			if err := os.WriteFile(filepath.Join(root, "README"), []byte("hi"), 0644); err != nil {
				t.Fatal(err)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			tt.setup(t, root)

			manager := NewManager(root)
			if err := manager.Discover(); err != nil {
				t.Fatalf("Discover() failed: %v", err)
			}
			if n := len(manager.List()); n != 0 {
				t.Fatalf("expected 0 plugins, got %d", n)
			}
		})
	}
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	manager := NewManager("/path/that/does/not/exist")
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed on non-existent dir: %v", err)
	}
	if n := len(manager.List()); n != 0 {
		t.Fatalf("expected 0 plugins, got %d", n)
	}
}

func TestManager_Get(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "b", Manifest{Name: "beta", Version: "2.0.0", Executable: "beta"})

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	p, err := manager.Get("beta")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if p.Manifest.Version != "2.0.0" {
		t.Errorf("expected version '2.0.0', got %q", p.Manifest.Version)
	}

	if _, err := manager.Get("missing"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestManager_Supporting(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "a", Manifest{Name: "audio-only", Executable: "a", Actions: []string{"mute", "unmute"}})
	writeManifest(t, root, "b", Manifest{Name: "full", Executable: "b", Actions: []string{"play", "pause", "mute", "unmute"}})

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	p, err := manager.Supporting("play", "mute")
	if err != nil {
		t.Fatalf("Supporting() failed: %v", err)
	}
	if p.Manifest.Name != "full" {
		t.Errorf("expected 'full', got %q", p.Manifest.Name)
	}

	if _, err := manager.Supporting("load-video"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}

	list := manager.List()
	if len(list) != 2 || list[0].Manifest.Name != "audio-only" {
		t.Errorf("List() not sorted by name: %v", list)
	}
}

func TestManager_PluginDir(t *testing.T) {
	manager := NewManager("/path/to/plugins")
	if manager.PluginDir() != "/path/to/plugins" {
		t.Errorf("unexpected plugin dir %q", manager.PluginDir())
	}
}

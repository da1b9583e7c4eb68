package main

import (
	"os"
	"path/filepath"

	"github.com/ayusman/tubecontrol/internal/config"
)

// findWebDir returns cfg.StaticDir when set. Otherwise it checks "web",
// "../web", "../../web" and <data dir>/web, returning the first existing
// directory or "".
func findWebDir(cfg *config.Config) string {
	if cfg.StaticDir != "" {
		return cfg.StaticDir
	}

	candidates := []string{"web", "../web", "../../web", filepath.Join(cfg.DataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

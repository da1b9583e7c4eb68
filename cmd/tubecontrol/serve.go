package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/tubecontrol/internal/app"
	"github.com/ayusman/tubecontrol/internal/config"
	"github.com/ayusman/tubecontrol/internal/log"
	"github.com/ayusman/tubecontrol/internal/metrics"
	"github.com/ayusman/tubecontrol/internal/player"
	"github.com/ayusman/tubecontrol/internal/plugin"
	"github.com/ayusman/tubecontrol/internal/server"
	"github.com/ayusman/tubecontrol/internal/store"
	"github.com/ayusman/tubecontrol/internal/tray"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	paused bool
	tray   bool
}

func newServeCmd(c *cli) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the camera loop and the web interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("tray") {
				c.cfg.Tray = opts.tray
			}
			return runServe(cmd.Context(), c.cfg, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.paused, "paused", false, "start with the camera loop disabled")
	cmd.Flags().BoolVar(&opts.tray, "tray", false, "show the system tray menu")
	return cmd
}

// newPlayer builds the configured player. The remote player is also
// returned so its websocket bridge can be mounted.
func newPlayer(cfg *config.Config) (player.Player, *player.Remote, error) {
	if cfg.Player == config.PlayerPlugin {
		mgr := plugin.NewManager(cfg.PluginDir)
		if err := mgr.Discover(); err != nil {
			return nil, nil, fmt.Errorf("discover plugins: %w", err)
		}
		p, err := player.NewPluginPlayer(mgr, plugin.NewExecutor(cfg.PluginTimeout()), cfg.PlayerPlugin)
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil
	}
	remote := player.NewRemote(player.DefaultCallTimeout)
	return remote, remote, nil
}

func runServe(ctx context.Context, cfg *config.Config, opts *serveOptions) error {
	logger := log.Component("main")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	p, remote, err := newPlayer(cfg)
	if err != nil {
		return err
	}

	m := metrics.NewManager()
	a, err := app.New(app.Options{Config: cfg, Store: st, Player: p, Metrics: m})
	if err != nil {
		return err
	}
	defer a.Close()

	hub := server.NewEventHub()
	a.Subscribe(hub)

	srvCfg := server.Config{
		StaticDir:         findWebDir(cfg),
		Store:             st,
		App:               a,
		Events:            hub,
		Metrics:           m.Handler(),
		CalibrationMargin: cfg.CalibrationMargin,
	}
	if remote != nil {
		srvCfg.PlayerBridge = remote
	}
	if srvCfg.StaticDir != "" {
		logger.Info("serving static files", "dir", srvCfg.StaticDir)
	}
	srv := server.New(srvCfg)

	if !opts.paused {
		if err := a.Start(ctx); err != nil {
			logger.Warn("camera loop not started", "error", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, cfg.Addr)
	}()

	if cfg.Tray {
		t := newTray(ctx, a, cfg.Addr, stop)
		a.Subscribe(t)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// systray needs the main goroutine on some platforms.
		t.Run()
		stop()
	}

	err = <-errCh
	logger.Info("shutting down")
	return err
}

func newTray(ctx context.Context, a *app.App, addr string, quit context.CancelFunc) *tray.Tray {
	logger := log.Component("tray")
	controls := a.Controls()

	setControls := func(update func(*app.Controls)) {
		c := a.Controls()
		update(&c)
		if err := a.SetControls(c); err != nil {
			logger.Error("saving controls", "error", err)
		}
	}

	return tray.New(a.IsEnabled(), controls.GestureControl, controls.EyeFocusControl, tray.Callbacks{
		OnToggle: func(on bool) {
			if err := a.SetEnabled(ctx, on); err != nil {
				logger.Error("toggling camera loop", "error", err)
			}
		},
		OnGestureControl: func(on bool) {
			setControls(func(c *app.Controls) { c.GestureControl = on })
		},
		OnEyeControl: func(on bool) {
			setControls(func(c *app.Controls) { c.EyeFocusControl = on })
		},
		OnOpenPlayer: func() {
			if err := openBrowser(playerURL(addr)); err != nil {
				logger.Warn("opening browser", "error", err)
			}
		},
		OnQuit: quit,
	})
}

// playerURL turns a listen address into a local URL.
func playerURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

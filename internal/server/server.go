// Package server provides the HTTP surface: REST API, player bridge, event
// feed, preview stream, metrics and the static UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/tubecontrol/internal/app"
	"github.com/ayusman/tubecontrol/internal/focus"
	"github.com/ayusman/tubecontrol/internal/log"
	"github.com/ayusman/tubecontrol/internal/server/api"
	"github.com/ayusman/tubecontrol/internal/store"
)

// Config holds the server's collaborators. Routes whose collaborator is nil
// are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
	// PlayerBridge is the websocket endpoint the player page connects to.
	PlayerBridge http.Handler
	Events       *EventHub
	Metrics      http.Handler
	// CalibrationMargin is applied to calibration walks posted to the API.
	CalibrationMargin float64
}

// Server is the HTTP handler for the whole application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	logger *slog.Logger
	http   *http.Server
}

// New creates a Server and registers its routes.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		logger: log.Component("server"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		bindings := api.NewBindingHandler(s.config.Store)
		s.mux.Handle("/api/bindings", bindings)
		s.mux.Handle("/api/bindings/", bindings)
		s.mux.Handle("/api/history", api.NewHistoryHandler(s.config.Store))

		var target api.ThresholdSetter
		if s.config.App != nil {
			target = s.config.App
		}
		margin := s.config.CalibrationMargin
		if margin <= 0 {
			margin = focus.DefaultMargin
		}
		s.mux.Handle("/api/calibration", api.NewCalibrationHandler(s.config.Store, margin, target))
	}

	if s.config.App != nil {
		s.mux.Handle("/api/control", api.NewControlHandler(s.config.App))
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App.Preview()))
		if s.config.Store != nil {
			s.mux.Handle("/api/player/video", api.NewVideoHandler(s.config.App.Player(), s.config.Store))
		}
	}

	if s.config.PlayerBridge != nil {
		s.mux.Handle("/api/player", s.config.PlayerBridge)
	}
	if s.config.Events != nil {
		s.mux.Handle("/api/events", s.config.Events)
	}
	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		st := s.config.App.Status()
		response["running"] = st.Running
		response["player_ready"] = st.PlayerReady
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ayusman/tubecontrol/internal/app"
)

// Controller is the part of the app the control endpoint drives.
type Controller interface {
	Status() app.Status
	Controls() app.Controls
	SetControls(app.Controls) error
	SetEnabled(ctx context.Context, on bool) error
}

// ControlHandler serves /api/control: the enable switch and the gesture and
// eye-focus control toggles.
type ControlHandler struct {
	ctrl Controller
}

// NewControlHandler creates a ControlHandler.
func NewControlHandler(c Controller) *ControlHandler {
	return &ControlHandler{ctrl: c}
}

// Absent fields are left unchanged.
type controlRequest struct {
	Enabled         *bool `json:"enabled"`
	GestureControl  *bool `json:"gesture_control"`
	EyeFocusControl *bool `json:"eye_focus_control"`
}

func (h *ControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.ctrl.Status())
	case http.MethodPut:
		h.update(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *ControlHandler) update(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.GestureControl != nil || req.EyeFocusControl != nil {
		c := h.ctrl.Controls()
		if req.GestureControl != nil {
			c.GestureControl = *req.GestureControl
		}
		if req.EyeFocusControl != nil {
			c.EyeFocusControl = *req.EyeFocusControl
		}
		if err := h.ctrl.SetControls(c); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save controls")
			return
		}
	}

	if req.Enabled != nil {
		if err := h.ctrl.SetEnabled(r.Context(), *req.Enabled); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Failed to start: "+err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/tubecontrol/internal/detector"
	"github.com/ayusman/tubecontrol/internal/focus"
	"github.com/ayusman/tubecontrol/internal/store"
)

// ThresholdSetter applies new focus thresholds to the running session.
type ThresholdSetter interface {
	SetThresholds(focus.Thresholds) error
}

// CalibrationHandler serves /api/calibration. A POST carries the face
// samples of one calibration walk; thresholds are derived, stored and
// applied.
type CalibrationHandler struct {
	store  *store.Store
	margin float64
	target ThresholdSetter
}

// NewCalibrationHandler creates a CalibrationHandler. target may be nil.
func NewCalibrationHandler(s *store.Store, margin float64, target ThresholdSetter) *CalibrationHandler {
	return &CalibrationHandler{store: s, margin: margin, target: target}
}

type calibrationRequest struct {
	Samples []json.RawMessage `json:"samples"`
}

type calibrationResponse struct {
	Calibrated bool             `json:"calibrated"`
	ID         string           `json:"id,omitempty"`
	Samples    int              `json:"samples"`
	Rejected   int              `json:"rejected,omitempty"`
	Margin     float64          `json:"margin"`
	Thresholds focus.Thresholds `json:"thresholds"`
	CreatedAt  string           `json:"created_at,omitempty"`
}

func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w)
	case http.MethodPost:
		h.create(w, r)
	case http.MethodDelete:
		h.reset(w)
	default:
		methodNotAllowed(w)
	}
}

func toCalibrationResponse(c *store.Calibration) calibrationResponse {
	return calibrationResponse{
		Calibrated: true,
		ID:         c.ID,
		Samples:    c.Samples,
		Margin:     c.Margin,
		Thresholds: c.Thresholds.Merge(),
		CreatedAt:  c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *CalibrationHandler) get(w http.ResponseWriter) {
	c, err := h.store.Calibrations().Latest()
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusOK, calibrationResponse{Thresholds: focus.DefaultThresholds()})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load calibration")
		return
	}
	writeJSON(w, http.StatusOK, toCalibrationResponse(c))
}

func (h *CalibrationHandler) create(w http.ResponseWriter, r *http.Request) {
	var req calibrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	cal := focus.NewCalibrator(h.margin)
	kept := make([]json.RawMessage, 0, len(req.Samples))
	rejected := 0
	for _, raw := range req.Samples {
		var face detector.Face
		if err := json.Unmarshal(raw, &face); err != nil {
			rejected++
			continue
		}
		if err := cal.Add(&face); err != nil {
			rejected++
			continue
		}
		kept = append(kept, raw)
	}

	thresholds, err := cal.Thresholds()
	if errors.Is(err, focus.ErrNoSamples) {
		writeError(w, http.StatusBadRequest, "At least one face sample is required")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := &store.Calibration{Margin: h.margin, Samples: cal.Samples(), Thresholds: thresholds}
	if err := h.store.Calibrations().Save(c, kept); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save calibration")
		return
	}
	if h.target != nil {
		if err := h.target.SetThresholds(thresholds); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to apply calibration")
			return
		}
	}

	resp := toCalibrationResponse(c)
	resp.Rejected = rejected
	writeJSON(w, http.StatusCreated, resp)
}

func (h *CalibrationHandler) reset(w http.ResponseWriter) {
	if _, err := h.store.Calibrations().Reset(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset calibration")
		return
	}
	if h.target != nil {
		if err := h.target.SetThresholds(focus.DefaultThresholds()); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to apply defaults")
			return
		}
	}
	writeJSON(w, http.StatusOK, calibrationResponse{Thresholds: focus.DefaultThresholds()})
}

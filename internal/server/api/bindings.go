package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/tubecontrol/internal/gesture"
	"github.com/ayusman/tubecontrol/internal/store"
)

// BindingHandler serves /api/bindings and /api/bindings/{action}. Changes
// are stored immediately and picked up by the next session.
type BindingHandler struct {
	store *store.Store
}

// NewBindingHandler creates a BindingHandler.
func NewBindingHandler(s *store.Store) *BindingHandler {
	return &BindingHandler{store: s}
}

type bindingResponse struct {
	Action    string `json:"action"`
	Operation string `json:"operation"`
}

type listBindingsResponse struct {
	Bindings   []bindingResponse `json:"bindings"`
	Actions    []string          `json:"actions"`
	Operations []string          `json:"operations"`
}

type setBindingRequest struct {
	Operation string `json:"operation"`
}

func (h *BindingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/bindings")
	name = strings.TrimPrefix(name, "/")

	if name == "" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.list(w)
		return
	}

	action, err := gesture.ParseAction(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown action")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, action)
	case http.MethodPut:
		h.set(w, r, action)
	case http.MethodDelete:
		h.delete(w, action)
	default:
		methodNotAllowed(w)
	}
}

func (h *BindingHandler) list(w http.ResponseWriter) {
	list, err := h.store.Bindings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bindings")
		return
	}

	resp := listBindingsResponse{Bindings: make([]bindingResponse, 0, len(list))}
	for _, b := range list {
		resp.Bindings = append(resp.Bindings, bindingResponse{Action: b.Action.String(), Operation: b.Operation.String()})
	}
	for _, a := range gesture.Actions() {
		resp.Actions = append(resp.Actions, a.String())
	}
	for _, op := range gesture.Operations() {
		resp.Operations = append(resp.Operations, op.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BindingHandler) get(w http.ResponseWriter, a gesture.Action) {
	op, err := h.store.Bindings().Get(a)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Action is not bound")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}
	writeJSON(w, http.StatusOK, bindingResponse{Action: a.String(), Operation: op.String()})
}

func (h *BindingHandler) set(w http.ResponseWriter, r *http.Request, a gesture.Action) {
	var req setBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	op, err := gesture.ParseOperation(req.Operation)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown operation")
		return
	}
	if err := h.store.Bindings().Set(a, op); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save binding")
		return
	}
	writeJSON(w, http.StatusOK, bindingResponse{Action: a.String(), Operation: op.String()})
}

func (h *BindingHandler) delete(w http.ResponseWriter, a gesture.Action) {
	err := h.store.Bindings().Delete(a)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Action is not bound")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

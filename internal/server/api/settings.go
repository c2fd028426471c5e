package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/pinchcursor/internal/app"
	"github.com/ayusman/pinchcursor/internal/gesture"
)

// Controller is the runtime state the settings endpoint reads and edits.
// *app.App implements it.
type Controller interface {
	Threshold() float64
	SetThreshold(float64) error
	Viewport() gesture.Viewport
	SetViewport(gesture.Viewport) error
	IsEnabled() bool
	SetEnabled(bool)
}

// SettingsHandler handles GET and PUT on /api/settings.
type SettingsHandler struct {
	ctrl Controller
}

// NewSettingsHandler creates a new SettingsHandler over ctrl.
func NewSettingsHandler(ctrl Controller) *SettingsHandler {
	return &SettingsHandler{ctrl: ctrl}
}

type settingsResponse struct {
	Threshold float64          `json:"threshold"`
	Viewport  gesture.Viewport `json:"viewport"`
	Enabled   bool             `json:"enabled"`
}

// updateSettingsRequest fields are optional; nil leaves a setting as is.
type updateSettingsRequest struct {
	Threshold *float64          `json:"threshold"`
	Viewport  *gesture.Viewport `json:"viewport"`
	Enabled   *bool             `json:"enabled"`
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.current())
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) current() settingsResponse {
	return settingsResponse{
		Threshold: h.ctrl.Threshold(),
		Viewport:  h.ctrl.Viewport(),
		Enabled:   h.ctrl.IsEnabled(),
	}
}

// update handles PUT /api/settings.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Reject the whole request before applying any of it.
	if req.Threshold != nil {
		if err := app.ValidateThreshold(*req.Threshold); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Viewport != nil {
		if err := app.ValidateViewport(*req.Viewport); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if req.Threshold != nil {
		if err := h.ctrl.SetThreshold(*req.Threshold); err != nil {
			writeSettingError(w, err, "Failed to update threshold")
			return
		}
	}
	if req.Viewport != nil {
		if err := h.ctrl.SetViewport(*req.Viewport); err != nil {
			writeSettingError(w, err, "Failed to update viewport")
			return
		}
	}
	if req.Enabled != nil {
		h.ctrl.SetEnabled(*req.Enabled)
	}

	writeJSON(w, http.StatusOK, h.current())
}

func writeSettingError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, app.ErrInvalidSetting) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, fallback)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"camwatch/internal/compositor"
	"camwatch/internal/event"
	"camwatch/internal/logging"
	"camwatch/internal/state"
	"camwatch/internal/stream"
)

// Handlers bundles the stores and compositor behind the HTTP surface.
type Handlers struct {
	client     *stream.Client
	registry   *state.CameraRegistry
	ledger     *state.Ledger
	alert      *state.AlertReducer
	compositor *compositor.Compositor
	startedAt  time.Time
}

// New creates the handler set.
func New(client *stream.Client, stores stream.Stores, comp *compositor.Compositor) *Handlers {
	return &Handlers{
		client:     client,
		registry:   stores.Registry,
		ledger:     stores.Ledger,
		alert:      stores.Alert,
		compositor: comp,
		startedAt:  time.Now(),
	}
}

// Router builds the route table.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", h.GetStatus).Methods("GET")
	api.HandleFunc("/cameras", h.ListCameras).Methods("GET")
	api.HandleFunc("/ledger", h.GetLedger).Methods("GET")
	api.HandleFunc("/ledger/clear", h.ClearLedger).Methods("POST")
	api.HandleFunc("/focus/{camera}", h.SetFocus).Methods("POST")
	api.HandleFunc("/focus", h.ClearFocus).Methods("DELETE")
	api.HandleFunc("/frame/focused", h.GetFocusedFrame).Methods("GET")
	api.HandleFunc("/frame/{camera}", h.GetFrame).Methods("GET")

	return r
}

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	Connection stream.ConnState `json:"connection"`
	Alert      event.AlertLevel `json:"alert"`
	Focused    string           `json:"focused,omitempty"`
	Cameras    int              `json:"cameras"`
	Ledger     int              `json:"ledger"`
}

// GetStatus returns the connection phase, alert level, and store sizes.
func (h *Handlers) GetStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Connection: h.client.State(),
		Alert:      h.alert.Level(),
		Focused:    h.compositor.Focused(),
		Cameras:    h.registry.Len(),
		Ledger:     h.ledger.Len(),
	})
}

// ListCameras returns the camera IDs in first-seen order.
func (h *Handlers) ListCameras(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cameras": h.registry.List(),
	})
}

// GetLedger returns the match ledger, most recent first.
func (h *Handlers) GetLedger(w http.ResponseWriter, _ *http.Request) {
	records := h.ledger.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// ClearLedger empties the match ledger. This is the only user path
// that removes ledger entries.
func (h *Handlers) ClearLedger(w http.ResponseWriter, _ *http.Request) {
	h.ledger.Clear()
	logging.Info("Ledger cleared by user action")
	w.WriteHeader(http.StatusNoContent)
}

// SetFocus marks a camera for mirroring to the focused surface.
func (h *Handlers) SetFocus(w http.ResponseWriter, r *http.Request) {
	cameraID := mux.Vars(r)["camera"]
	if !h.registry.Known(cameraID) {
		writeError(w, http.StatusNotFound, "unknown camera")
		return
	}
	h.compositor.SetFocus(cameraID)
	w.WriteHeader(http.StatusNoContent)
}

// ClearFocus removes the focused camera.
func (h *Handlers) ClearFocus(w http.ResponseWriter, _ *http.Request) {
	h.compositor.ClearFocus()
	w.WriteHeader(http.StatusNoContent)
}

// GetFrame serves the current composited raster for a camera as JPEG.
func (h *Handlers) GetFrame(w http.ResponseWriter, r *http.Request) {
	cameraID := mux.Vars(r)["camera"]
	data, ok := h.compositor.Snapshot(cameraID)
	if !ok {
		writeError(w, http.StatusNotFound, "no frame rendered for camera")
		return
	}
	serveJPEG(w, data)
}

// GetFocusedFrame serves the focused surface as JPEG.
func (h *Handlers) GetFocusedFrame(w http.ResponseWriter, _ *http.Request) {
	data, ok := h.compositor.FocusedSnapshot()
	if !ok {
		writeError(w, http.StatusNotFound, "no focused frame")
		return
	}
	serveJPEG(w, data)
}

func serveJPEG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(data); err != nil {
		logging.Debug("frame write failed: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Package httprouter exposes a device's Engine over HTTP: push/pull trigger
// cycles, status/health report the result.
package httprouter

import (
	"encoding/json"
	"net/http"

	"github.com/clinisync/core/internal/protocol"
	"github.com/clinisync/core/internal/syncengine"
)

// Handlers bundles the five HTTP endpoints: push, pull, full sync, status,
// health. These expose a device's own Engine for local
// management/monitoring — the push/pull wire exchange with the remote
// collaborator itself happens through internal/transport/httptransport,
// which this engine's PushPull and FullSync call as their Transport.
type Handlers struct {
	Engine *syncengine.Engine
}

// NewHandlers builds the handler set bound to engine.
func NewHandlers(engine *syncengine.Engine) *Handlers {
	return &Handlers{Engine: engine}
}

// Register mounts all five handlers on mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /sync/push", h.Push)
	mux.HandleFunc("POST /sync/pull", h.Pull)
	mux.HandleFunc("POST /sync/full", h.FullSync)
	mux.HandleFunc("GET /sync/status", h.Status)
	mux.HandleFunc("GET /sync/health", h.Health)
}

// Push runs one full push/pull cycle and reports the resulting status.
func (h *Handlers) Push(w http.ResponseWriter, r *http.Request) {
	h.runAndReportStatus(w, r)
}

// Pull runs one full push/pull cycle and reports the resulting status.
// Push and Pull are separate endpoints for protocol symmetry with §4.7's
// envelope shapes, but both drive the same PushPull cycle: the engine
// always pushes before it pulls.
func (h *Handlers) Pull(w http.ResponseWriter, r *http.Request) {
	h.runAndReportStatus(w, r)
}

// FullSync triggers this device's one-time initial bootstrap against its
// collaborator and reports the resulting status. It is a no-op once
// bootstrap_complete is already set.
func (h *Handlers) FullSync(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.FullSync(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.Status(w, r)
}

func (h *Handlers) runAndReportStatus(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.PushPull(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.Status(w, r)
}

// statusBody is the JSON shape served by both /sync/status and as the body
// of a successful push/pull.
type statusBody struct {
	State          string `json:"state"`
	PendingChanges int64  `json:"pending_changes"`
	LastSyncTime   string `json:"last_sync_time,omitempty"`
	DeviceID       string `json:"device_id"`
}

// Status serves GET /sync/status with the engine's current Status.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.Engine.GetStatus(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(statusBody{
		State:          status.State.String(),
		PendingChanges: status.PendingChanges,
		LastSyncTime:   status.LastSyncTime,
		DeviceID:       status.DeviceID.String(),
	})
}

// Health serves GET /sync/health as one of the four SyncHealth shapes.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status, err := h.Engine.GetStatus(r.Context())
	if err != nil {
		json.NewEncoder(w).Encode(protocol.Errored(h.Engine.DeviceID(), err.Error()))
		return
	}

	var health protocol.Health
	switch {
	case status.State == syncengine.Offline:
		health = protocol.Offline(status.DeviceID, status.PendingChanges)
	case status.State == syncengine.Error:
		health = protocol.Errored(status.DeviceID, "last sync cycle failed")
	case status.PendingChanges > 100:
		health = protocol.Warning(status.DeviceID, status.PendingChanges, "backlog pending")
	default:
		health = protocol.Healthy(status.DeviceID, status.LastSyncTime)
	}
	json.NewEncoder(w).Encode(health)
}

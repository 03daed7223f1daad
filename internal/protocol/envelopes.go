// Package protocol defines the wire shapes exchanged between a device and
// its sync collaborator. The HTTP handlers live in the httprouter
// subpackage.
package protocol

import (
	"github.com/clinisync/core/internal/journal"
	"github.com/google/uuid"
)

// PushRequest carries a batch of local changes to the server.
type PushRequest struct {
	DeviceID   uuid.UUID        `json:"device_id"`
	Changes    []journal.Change `json:"changes"`
	ClientTime int64            `json:"client_time"`
}

// PushResponse reports which changes the server accepted and which it
// rejected, and the server's own clock for drift diagnostics.
type PushResponse struct {
	Acknowledged []uuid.UUID      `json:"acknowledged"`
	Rejected     []RejectedChange `json:"rejected"`
	ServerTime   int64            `json:"server_time"`
}

// RejectedChange names a change the server would not accept, and why.
type RejectedChange struct {
	ChangeID uuid.UUID `json:"change_id"`
	Reason   string    `json:"reason"`
}

// PullRequest asks the server for changes since a prior sync point.
type PullRequest struct {
	DeviceID    uuid.UUID `json:"device_id"`
	Since       string    `json:"since,omitempty"`
	EntityTypes []string  `json:"entity_types,omitempty"`
	Limit       int       `json:"limit,omitempty"`
}

// PullResponse returns a page of remote changes plus pagination state.
type PullResponse struct {
	Changes    []journal.Change `json:"changes"`
	HasMore    bool             `json:"has_more"`
	NextCursor string           `json:"next_cursor,omitempty"`
	ServerTime string           `json:"server_time"`
}

// FullSyncRequest bootstraps a device with every change for the requested
// entity types (or all of them), used on first run or after data loss.
type FullSyncRequest struct {
	DeviceID    uuid.UUID `json:"device_id"`
	EntityTypes []string  `json:"entity_types,omitempty"`
}

// HealthStatus is the coarse category reported by a /sync/health probe.
type HealthStatus string

const (
	HealthHealthy HealthStatus = "HEALTHY"
	HealthWarning HealthStatus = "WARNING"
	HealthError   HealthStatus = "ERROR"
	HealthOffline HealthStatus = "OFFLINE"
)

// Health is the /sync/health response body.
type Health struct {
	Status         HealthStatus `json:"status"`
	PendingChanges int64        `json:"pending_changes"`
	LastSync       string       `json:"last_sync,omitempty"`
	DeviceID       uuid.UUID    `json:"device_id"`
	Message        string       `json:"message,omitempty"`
}

// Healthy reports a fully caught-up device.
func Healthy(deviceID uuid.UUID, lastSync string) Health {
	return Health{Status: HealthHealthy, DeviceID: deviceID, LastSync: lastSync}
}

// Warning reports a device with a non-empty backlog that is still syncing.
func Warning(deviceID uuid.UUID, pending int64, message string) Health {
	return Health{Status: HealthWarning, PendingChanges: pending, DeviceID: deviceID, Message: message}
}

// Errored reports a device whose last sync cycle failed outright.
func Errored(deviceID uuid.UUID, message string) Health {
	return Health{Status: HealthError, DeviceID: deviceID, Message: message}
}

// Offline reports a device that could not reach its collaborator.
func Offline(deviceID uuid.UUID, pending int64) Health {
	return Health{Status: HealthOffline, PendingChanges: pending, DeviceID: deviceID, Message: "device is offline"}
}

// Package sse implements Server-Sent Events so open menus refresh when staff
// change a selection.
package sse

import (
	"time"

	"github.com/smakiapp/smaki-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventSelectionUpdated is sent whenever a daily selection changes.
	EventSelectionUpdated EventType = "selection.updated"

	// Flavor events go to staff clients only.
	EventFlavorCreated  EventType = "flavor.created"
	EventFlavorUpdated  EventType = "flavor.updated"
	EventFlavorArchived EventType = "flavor.archived"
	EventFlavorRestored EventType = "flavor.restored"

	// EventHeartbeat keeps idle connections open through proxies.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// SelectionEventData is the payload of selection.updated. It carries ids
// only; clients refetch the view they render.
type SelectionEventData struct {
	Date         domain.Date `json:"date"`
	UpdatedAt    time.Time   `json:"updated_at"`
	FlavorIDs    []int64     `json:"flavor_ids"`
	DisplayOrder []int64     `json:"display_order"`
	HitFlavorID  int64       `json:"hit_flavor_id,omitempty"`
	Operation    string      `json:"operation"`
}

// FlavorEventData is the payload of flavor events.
type FlavorEventData struct {
	Flavor *domain.Flavor `json:"flavor"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewSelectionUpdatedEvent creates a selection.updated event for sel.
func NewSelectionUpdatedEvent(sel *domain.DailySelection, operation string) Event {
	return Event{
		Type: EventSelectionUpdated,
		Data: SelectionEventData{
			Date:         sel.Date,
			UpdatedAt:    sel.UpdatedAt,
			FlavorIDs:    sel.FlavorIDs,
			DisplayOrder: sel.DisplayOrder,
			HitFlavorID:  sel.HitFlavorID,
			Operation:    operation,
		},
		Timestamp: time.Now(),
	}
}

// NewFlavorEvent creates one of the flavor.* events.
func NewFlavorEvent(t EventType, f *domain.Flavor) Event {
	return Event{
		Type:      t,
		Data:      FlavorEventData{Flavor: f},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: now},
		Timestamp: now,
	}
}

func isStaffOnlyEvent(t EventType) bool {
	//nolint:exhaustive // only staff events are listed
	switch t {
	case EventFlavorCreated, EventFlavorUpdated, EventFlavorArchived, EventFlavorRestored:
		return true
	default:
		return false
	}
}

package model

import "time"

// EventType names a message lifecycle transition.
type EventType string

const (
	EventCreated   EventType = "created"
	EventSent      EventType = "sent"
	EventArchived  EventType = "archived"
	EventDeleted   EventType = "deleted"
	EventFailed    EventType = "failed"
	EventExpired   EventType = "expired"
	EventCancelled EventType = "cancelled"
)

// Event is emitted to the history collaborator on every lifecycle change.
type Event struct {
	Type      EventType  `json:"type"`
	MessageID string     `json:"message_id"`
	DeviceID  string     `json:"device_id"`
	Slot      SlotNumber `json:"slot"`
	At        time.Time  `json:"at"`
}

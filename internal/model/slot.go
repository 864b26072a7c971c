package model

import "time"

// SlotNumber addresses one of the 100 message channels of a device.
// It is the only representation of a slot number inside the engine.
type SlotNumber int

const (
	UrgentFirst SlotNumber = 1
	UrgentLast  SlotNumber = 5
	NormalFirst SlotNumber = 6
	NormalLast  SlotNumber = 100

	MinSlot = UrgentFirst
	MaxSlot = NormalLast
)

// Slot is the occupancy record of a (device, number) pair.
type Slot struct {
	DeviceID       string     `json:"device_id"`
	Number         SlotNumber `json:"number"`
	Active         bool       `json:"active"`
	Reserved       int        `json:"reserved"`
	LastMessageRef string     `json:"last_message_ref,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

package compose

import (
	"errors"
	"fmt"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
	"github.com/Nixie-Tech-LLC/marquee/internal/slots"
)

var (
	ErrEmptyContent          = errors.New("content is empty")
	ErrContentTooLong        = errors.New("content is too long")
	ErrInvalidDisplayOptions = errors.New("invalid display options")
	ErrInvalidSchedule       = errors.New("invalid schedule")

	// ErrDeliveryFailed wraps the transport's error when a hand-off fails.
	ErrDeliveryFailed = errors.New("delivery failed")
	// ErrSettled is returned when an artifact was already sent or discarded.
	ErrSettled = errors.New("artifact already settled")
	// ErrMessageActive is returned when deleting a message that still occupies a slot.
	ErrMessageActive = errors.New("message is active on a slot")
)

// ConflictError reports the occupied slot of a submission that needs confirmation.
type ConflictError struct {
	DeviceID string
	Slot     model.SlotNumber
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %d of device %s is already in use", e.Slot, e.DeviceID)
}

func (e *ConflictError) Unwrap() error { return slots.ErrSlotConflict }

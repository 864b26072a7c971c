package slots

import "errors"

var (
	// ErrInvalidSlotRange is returned for slot numbers outside the range allowed
	// for the submission's urgency, or outside 1..100 altogether.
	ErrInvalidSlotRange = errors.New("slot number out of range")

	// ErrSlotConflict is returned when an explicitly requested slot is occupied
	// and the caller did not confirm the overwrite.
	ErrSlotConflict = errors.New("slot is already in use")

	// ErrEmptyDeviceID guards against keying state by an empty device id.
	ErrEmptyDeviceID = errors.New("device id is required")
)

package slots

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// Range is an inclusive span of slot numbers.
type Range struct {
	First model.SlotNumber
	Last  model.SlotNumber
}

var (
	UrgentRange = Range{First: model.UrgentFirst, Last: model.UrgentLast}
	NormalRange = Range{First: model.NormalFirst, Last: model.NormalLast}
	FullRange   = Range{First: model.MinSlot, Last: model.MaxSlot}
)

// Contains reports whether n lies in r.
func (r Range) Contains(n model.SlotNumber) bool {
	return n >= r.First && n <= r.Last
}

// RangeFor returns the range a submission of the given urgency may occupy.
func RangeFor(urgent bool) Range {
	if urgent {
		return UrgentRange
	}
	return NormalRange
}

// ParseNumber converts request text into a slot number. It is the single
// place where a slot number crosses from its textual form.
func ParseNumber(raw string) (model.SlotNumber, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidSlotRange, raw)
	}
	num := model.SlotNumber(n)
	if !FullRange.Contains(num) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSlotRange, n)
	}
	return num, nil
}

// Validate checks n against the range for the given urgency.
func Validate(n model.SlotNumber, urgent bool) error {
	if !FullRange.Contains(n) {
		return fmt.Errorf("%w: %d is outside %d-%d", ErrInvalidSlotRange, n, model.MinSlot, model.MaxSlot)
	}
	r := RangeFor(urgent)
	if !r.Contains(n) {
		kind := "normal"
		if urgent {
			kind = "urgent"
		}
		return fmt.Errorf("%w: %d is outside the %s range %d-%d", ErrInvalidSlotRange, n, kind, r.First, r.Last)
	}
	return nil
}

// Package effects holds the fixed entry/exit effect tables of the LED panels
// and the speed law used to scale their durations.
package effects

import (
	"fmt"
	"time"
)

// EntryCode identifies an entry effect. Codes are 1-indexed.
type EntryCode int

// ExitCode identifies an exit effect. Codes are 1-indexed and unrelated to EntryCode.
type ExitCode int

const (
	EntryImmediate EntryCode = iota + 1
	EntryScrollLeft
	EntryScrollRight
	EntryScrollUp
	EntryScrollDown
	EntryWipeLeft
	EntryWipeRight
	EntryWipeUp
	EntryWipeDown
	EntryOpenHorizontal
	EntryOpenVertical
	EntryFadeIn
	EntryBlinds
	EntryDissolve
	EntryZoomIn
	EntryTypewriter
	EntryLaser
)

const (
	ExitImmediate ExitCode = iota + 1
	ExitScrollLeft
	ExitScrollRight
	ExitScrollUp
	ExitScrollDown
	ExitWipeLeft
	ExitWipeRight
	ExitFadeOut
	ExitCloseCenter
	ExitBlinds
	ExitDissolve
)

// Descriptor is one row of an effect table.
type Descriptor struct {
	Code     int           `json:"code"`
	Name     string        `json:"name"`
	Duration time.Duration `json:"-"`
}

// Index 0 is unused so that codes index the arrays directly.
var entryTable = [...]Descriptor{
	{},
	{1, "immediate", 0},
	{2, "scroll_left", 2000 * time.Millisecond},
	{3, "scroll_right", 2000 * time.Millisecond},
	{4, "scroll_up", 1500 * time.Millisecond},
	{5, "scroll_down", 1500 * time.Millisecond},
	{6, "wipe_left", 1000 * time.Millisecond},
	{7, "wipe_right", 1000 * time.Millisecond},
	{8, "wipe_up", 1000 * time.Millisecond},
	{9, "wipe_down", 1000 * time.Millisecond},
	{10, "open_horizontal", 1200 * time.Millisecond},
	{11, "open_vertical", 1200 * time.Millisecond},
	{12, "fade_in", 800 * time.Millisecond},
	{13, "blinds", 1500 * time.Millisecond},
	{14, "dissolve", 1600 * time.Millisecond},
	{15, "zoom_in", 1200 * time.Millisecond},
	{16, "typewriter", 2400 * time.Millisecond},
	{17, "laser", 3200 * time.Millisecond},
}

var exitTable = [...]Descriptor{
	{},
	{1, "immediate", 0},
	{2, "scroll_left", 2000 * time.Millisecond},
	{3, "scroll_right", 2000 * time.Millisecond},
	{4, "scroll_up", 1500 * time.Millisecond},
	{5, "scroll_down", 1500 * time.Millisecond},
	{6, "wipe_left", 1000 * time.Millisecond},
	{7, "wipe_right", 1000 * time.Millisecond},
	{8, "fade_out", 800 * time.Millisecond},
	{9, "close_center", 1200 * time.Millisecond},
	{10, "blinds", 1500 * time.Millisecond},
	{11, "dissolve", 1600 * time.Millisecond},
}

// EntryCount and ExitCount are the table sizes.
const (
	EntryCount = len(entryTable) - 1
	ExitCount  = len(exitTable) - 1
)

func (c EntryCode) Valid() bool { return c >= 1 && int(c) <= EntryCount }
func (c ExitCode) Valid() bool  { return c >= 1 && int(c) <= ExitCount }

// Descriptor returns the table row for c. Invalid codes yield the zero Descriptor.
func (c EntryCode) Descriptor() Descriptor {
	if !c.Valid() {
		return Descriptor{}
	}
	return entryTable[c]
}

func (c ExitCode) Descriptor() Descriptor {
	if !c.Valid() {
		return Descriptor{}
	}
	return exitTable[c]
}

func (c EntryCode) String() string {
	if !c.Valid() {
		return fmt.Sprintf("entry(%d)", int(c))
	}
	return entryTable[c].Name
}

func (c ExitCode) String() string {
	if !c.Valid() {
		return fmt.Sprintf("exit(%d)", int(c))
	}
	return exitTable[c].Name
}

// Speed bounds of the user-facing slider.
const (
	MinSpeed = 1
	MaxSpeed = 8
)

// ValidSpeed reports whether s is on the 1..8 slider.
func ValidSpeed(s int) bool { return s >= MinSpeed && s <= MaxSpeed }

// SpeedMultiplier maps slider speed to the duration divisor: 9 - speed.
// Speed 8 divides by 1, speed 1 divides by 8. Out-of-range speeds are clamped.
func SpeedMultiplier(speed int) int {
	if speed < MinSpeed {
		speed = MinSpeed
	}
	if speed > MaxSpeed {
		speed = MaxSpeed
	}
	return 9 - speed
}

// EntryDuration is base(code) / (9 - speed).
func EntryDuration(code EntryCode, speed int) time.Duration {
	return code.Descriptor().Duration / time.Duration(SpeedMultiplier(speed))
}

// ExitDuration is base(code) / (9 - speed).
func ExitDuration(code ExitCode, speed int) time.Duration {
	return code.Descriptor().Duration / time.Duration(SpeedMultiplier(speed))
}

// Entries lists the entry table in code order.
func Entries() []Descriptor {
	out := make([]Descriptor, 0, EntryCount)
	return append(out, entryTable[1:]...)
}

// Exits lists the exit table in code order.
func Exits() []Descriptor {
	out := make([]Descriptor, 0, ExitCount)
	return append(out, exitTable[1:]...)
}

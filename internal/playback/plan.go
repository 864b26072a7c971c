package playback

import (
	"time"

	"github.com/Nixie-Tech-LLC/marquee/internal/effects"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// Plan carries the timing parameters of one playback.
type Plan struct {
	Entry      effects.EntryCode `json:"entry_code"`
	EntrySpeed int               `json:"entry_speed"`
	Wait       time.Duration     `json:"wait"`
	Hold       time.Duration     `json:"hold"`
	Exit       effects.ExitCode  `json:"exit_code"`
	ExitSpeed  int               `json:"exit_speed"`
	Blink      bool              `json:"blink"`
}

// PlanFromOptions derives a plan from a message's display options and schedule.
func PlanFromOptions(opts model.DisplayOptions, schedule model.Schedule) Plan {
	return Plan{
		Entry:      effects.EntryCode(opts.DisplayEffect),
		EntrySpeed: opts.DisplayEffectSpeed,
		Wait:       time.Duration(opts.DisplayWaitTimeSeconds) * time.Second,
		Hold:       schedule.Hold(),
		Exit:       effects.ExitCode(opts.EndEffect),
		ExitSpeed:  opts.EndEffectSpeed,
		Blink:      opts.Blink,
	}
}

// EntryDuration is the entering-phase length.
func (p Plan) EntryDuration() time.Duration {
	return effects.EntryDuration(p.Entry, p.EntrySpeed)
}

// ExitDuration is the exiting-phase length.
func (p Plan) ExitDuration() time.Duration {
	return effects.ExitDuration(p.Exit, p.ExitSpeed)
}

// Total is the wall-clock length of a complete playback.
func (p Plan) Total() time.Duration {
	return p.EntryDuration() + p.Wait + p.Hold + p.ExitDuration()
}

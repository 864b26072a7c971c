package playback

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. AfterFunc returns an error when the environment
// cannot schedule timers; the player then falls back to idle.
type Clock interface {
	AfterFunc(d time.Duration, f func()) (Timer, error)
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) (Timer, error) {
	return time.AfterFunc(d, f), nil
}

// RealClock is backed by time.AfterFunc.
func RealClock() Clock { return realClock{} }

// Package playback sequences the timed phases of a message on a panel:
// idle -> entering -> displaying -> exiting -> idle.
package playback

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// State is the phase a player is in.
type State string

const (
	StateIdle       State = "idle"
	StateEntering   State = "entering"
	StateDisplaying State = "displaying"
	StateExiting    State = "exiting"
)

// Cadences of the displaying phase.
const (
	ProgressInterval = 100 * time.Millisecond
	BlinkInterval    = 500 * time.Millisecond
)

// EventKind tells observers what changed.
type EventKind string

const (
	KindState    EventKind = "state"
	KindProgress EventKind = "progress"
	KindBlink    EventKind = "blink"
	KindDone     EventKind = "done"
	KindFailed   EventKind = "failed"
)

// Event is delivered to the observer outside the player's lock.
type Event struct {
	Kind     EventKind
	Session  uint64
	State    State
	Progress int
	BlinkOn  bool
	Err      error
}

// Observer receives player events.
type Observer func(Event)

// Status is a snapshot of a player.
type Status struct {
	Session  uint64 `json:"session"`
	State    State  `json:"state"`
	Progress int    `json:"progress"`
	BlinkOn  bool   `json:"blink_on"`
	Plan     Plan   `json:"plan"`
}

type step int

const (
	stepNone step = iota
	stepEntering
	stepWaiting
	stepDisplaying
	stepExiting
)

// Player runs one playback at a time. Starting a new one stops the current one.
type Player struct {
	clock    Clock
	observer Observer

	mu       sync.Mutex
	session  uint64
	step     step
	state    State
	progress int
	blinkOn  bool
	elapsed  time.Duration
	plan     Plan

	phaseTimer Timer
	tickTimer  Timer
	blinkTimer Timer
}

// NewPlayer returns an idle player. A nil clock means the real clock.
func NewPlayer(clock Clock, observer Observer) *Player {
	if clock == nil {
		clock = RealClock()
	}
	return &Player{clock: clock, observer: observer, state: StateIdle}
}

// Play stops any playback in progress and starts plan. It returns the session id.
func (p *Player) Play(plan Plan) uint64 {
	p.mu.Lock()
	evs := p.stopLocked()
	p.session++
	id := p.session
	p.plan = plan
	evs = append(evs, p.beginLocked(id, stepEntering)...)
	p.mu.Unlock()

	p.emit(evs)
	return id
}

// Stop cancels any pending phase and resets to idle with progress 0.
func (p *Player) Stop() {
	p.mu.Lock()
	evs := p.stopLocked()
	p.mu.Unlock()
	p.emit(evs)
}

// State returns the current phase.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Progress returns the displaying progress in percent.
func (p *Player) Progress() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

// Status returns a snapshot of the player.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Session:  p.session,
		State:    p.state,
		Progress: p.progress,
		BlinkOn:  p.blinkOn,
		Plan:     p.plan,
	}
}

func (p *Player) emit(evs []Event) {
	if p.observer == nil {
		return
	}
	for _, ev := range evs {
		p.observer(ev)
	}
}

func (p *Player) event(kind EventKind) Event {
	return Event{
		Kind:     kind,
		Session:  p.session,
		State:    p.state,
		Progress: p.progress,
		BlinkOn:  p.blinkOn,
	}
}

func (p *Player) stopTimers() {
	for _, t := range []*Timer{&p.phaseTimer, &p.tickTimer, &p.blinkTimer} {
		if *t != nil {
			(*t).Stop()
			*t = nil
		}
	}
}

func (p *Player) stopLocked() []Event {
	p.stopTimers()
	wasIdle := p.state == StateIdle && p.progress == 0
	// Invalidate callbacks of the stopped session.
	p.session++
	p.step = stepNone
	p.state = StateIdle
	p.progress = 0
	p.blinkOn = false
	p.elapsed = 0
	if wasIdle {
		return nil
	}
	return []Event{p.event(KindState)}
}

func (p *Player) failLocked(err error) []Event {
	log.Warn().Err(err).Uint64("session", p.session).Str("state", string(p.state)).Msg("playback timer could not be scheduled")
	evs := p.stopLocked()
	ev := p.event(KindFailed)
	ev.Err = err
	return append(evs, ev)
}

func (p *Player) beginLocked(id uint64, s step) []Event {
	var (
		d   time.Duration
		evs []Event
	)
	p.step = s
	switch s {
	case stepEntering:
		p.state = StateEntering
		d = p.plan.EntryDuration()
		evs = append(evs, p.event(KindState))
	case stepWaiting:
		d = p.plan.Wait
	case stepDisplaying:
		p.state = StateDisplaying
		p.progress = 0
		p.elapsed = 0
		d = p.plan.Hold
		evs = append(evs, p.event(KindState))
		if d > 0 {
			if err := p.scheduleTickLocked(id); err != nil {
				return append(evs, p.failLocked(err)...)
			}
			if p.plan.Blink {
				p.blinkOn = true
				evs = append(evs, p.event(KindBlink))
				if err := p.scheduleBlinkLocked(id); err != nil {
					return append(evs, p.failLocked(err)...)
				}
			}
		}
	case stepExiting:
		p.stopTimers()
		p.blinkOn = false
		p.progress = 100
		p.state = StateExiting
		d = p.plan.ExitDuration()
		evs = append(evs, p.event(KindState))
	}

	if d <= 0 {
		return append(evs, p.afterLocked(id, s)...)
	}
	t, err := p.clock.AfterFunc(d, func() { p.fire(id, s) })
	if err != nil {
		return append(evs, p.failLocked(err)...)
	}
	p.phaseTimer = t
	return evs
}

func (p *Player) afterLocked(id uint64, s step) []Event {
	switch s {
	case stepEntering:
		return p.beginLocked(id, stepWaiting)
	case stepWaiting:
		return p.beginLocked(id, stepDisplaying)
	case stepDisplaying:
		var evs []Event
		if p.progress < 100 {
			p.progress = 100
			evs = append(evs, p.event(KindProgress))
		}
		return append(evs, p.beginLocked(id, stepExiting)...)
	case stepExiting:
		p.stopTimers()
		p.step = stepNone
		p.state = StateIdle
		p.progress = 0
		return []Event{p.event(KindState), p.event(KindDone)}
	}
	return nil
}

func (p *Player) fire(id uint64, s step) {
	p.mu.Lock()
	if id != p.session || s != p.step {
		p.mu.Unlock()
		return
	}
	p.phaseTimer = nil
	evs := p.afterLocked(id, s)
	p.mu.Unlock()
	p.emit(evs)
}

func (p *Player) scheduleTickLocked(id uint64) error {
	t, err := p.clock.AfterFunc(ProgressInterval, func() { p.tick(id) })
	if err != nil {
		return err
	}
	p.tickTimer = t
	return nil
}

func (p *Player) tick(id uint64) {
	p.mu.Lock()
	if id != p.session || p.step != stepDisplaying {
		p.mu.Unlock()
		return
	}
	p.tickTimer = nil
	p.elapsed += ProgressInterval

	pct := int(p.elapsed * 100 / p.plan.Hold)
	if pct > 100 {
		pct = 100
	}
	var evs []Event
	if pct > p.progress {
		p.progress = pct
		evs = append(evs, p.event(KindProgress))
	}
	if p.elapsed < p.plan.Hold {
		if err := p.scheduleTickLocked(id); err != nil {
			evs = append(evs, p.failLocked(err)...)
		}
	}
	p.mu.Unlock()
	p.emit(evs)
}

func (p *Player) scheduleBlinkLocked(id uint64) error {
	t, err := p.clock.AfterFunc(BlinkInterval, func() { p.blink(id) })
	if err != nil {
		return err
	}
	p.blinkTimer = t
	return nil
}

func (p *Player) blink(id uint64) {
	p.mu.Lock()
	if id != p.session || p.step != stepDisplaying {
		p.mu.Unlock()
		return
	}
	p.blinkTimer = nil
	p.blinkOn = !p.blinkOn
	evs := []Event{p.event(KindBlink)}
	if err := p.scheduleBlinkLocked(id); err != nil {
		evs = append(evs, p.failLocked(err)...)
	}
	p.mu.Unlock()
	p.emit(evs)
}

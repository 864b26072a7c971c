package playback

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

type boardKey struct {
	deviceID string
	slot     model.SlotNumber
}

// Board tracks the expected playback of every committed slot, one player per
// (device, slot) pair.
type Board struct {
	clock Clock

	mu      sync.Mutex
	players map[boardKey]*Player
}

// NewBoard returns an empty board. A nil clock means the real clock.
func NewBoard(clock Clock) *Board {
	if clock == nil {
		clock = RealClock()
	}
	return &Board{clock: clock, players: make(map[boardKey]*Player)}
}

func (b *Board) player(deviceID string, slot model.SlotNumber, create bool) *Player {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := boardKey{deviceID: deviceID, slot: slot}
	p, ok := b.players[key]
	if !ok && create {
		p = NewPlayer(b.clock, func(ev Event) {
			log.Debug().
				Str("device_id", deviceID).
				Int("slot", int(slot)).
				Str("kind", string(ev.Kind)).
				Str("state", string(ev.State)).
				Int("progress", ev.Progress).
				Msg("playback event")
		})
		b.players[key] = p
	}
	return p
}

// Start plays plan on the slot, replacing whatever was playing there.
func (b *Board) Start(deviceID string, slot model.SlotNumber, plan Plan) uint64 {
	return b.player(deviceID, slot, true).Play(plan)
}

// Stop halts the slot's playback. Unknown slots are ignored.
func (b *Board) Stop(deviceID string, slot model.SlotNumber) {
	if p := b.player(deviceID, slot, false); p != nil {
		p.Stop()
	}
}

// Status reports the slot's playback, if the slot ever played.
func (b *Board) Status(deviceID string, slot model.SlotNumber) (Status, bool) {
	p := b.player(deviceID, slot, false)
	if p == nil {
		return Status{}, false
	}
	return p.Status(), true
}

// StopAll halts every player.
func (b *Board) StopAll() {
	b.mu.Lock()
	players := make([]*Player, 0, len(b.players))
	for _, p := range b.players {
		players = append(players, p)
	}
	b.mu.Unlock()

	for _, p := range players {
		p.Stop()
	}
}

package transport

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/compose"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// Delivery is one artifact accepted by the loopback transport.
type Delivery struct {
	MessageID string
	DeviceID  string
	Slot      model.SlotNumber
}

// Loopback accepts every artifact without sending it anywhere. It is used when
// no broker is configured.
type Loopback struct {
	mu         sync.Mutex
	deliveries []Delivery
}

func NewLoopback() *Loopback {
	return &Loopback{}
}

func (l *Loopback) Deliver(_ context.Context, a *compose.Artifact) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deliveries = append(l.deliveries, Delivery{MessageID: a.MessageID, DeviceID: a.DeviceID, Slot: a.Slot})
	log.Debug().Str("device_id", a.DeviceID).Int("slot", int(a.Slot)).Msg("loopback delivery")
	return nil
}

func (l *Loopback) Clear(_ context.Context, deviceID string, slot model.SlotNumber) error {
	log.Debug().Str("device_id", deviceID).Int("slot", int(slot)).Msg("loopback clear")
	return nil
}

// Deliveries returns what was delivered so far.
func (l *Loopback) Deliveries() []Delivery {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Delivery(nil), l.deliveries...)
}

// Package transport hands composed artifacts to devices.
package transport

import (
	"fmt"
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/marquee/internal/compose"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// Envelope is the JSON payload published for one slot.
type Envelope struct {
	MessageID string                 `json:"message_id"`
	DeviceID  string                 `json:"device_id"`
	Slot      model.SlotNumber       `json:"slot"`
	Width     int                    `json:"width"`
	Height    int                    `json:"height"`
	PNG       []byte                 `json:"png"`
	Effects   compose.EffectMetadata `json:"effects"`
	SentAt    time.Time              `json:"sent_at"`
}

// NewEnvelope encodes an artifact.
func NewEnvelope(a *compose.Artifact, at time.Time) (Envelope, error) {
	png, err := a.PNG()
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		MessageID: a.MessageID,
		DeviceID:  a.DeviceID,
		Slot:      a.Slot,
		Width:     a.Bitmap.Width,
		Height:    a.Bitmap.Height,
		PNG:       png,
		Effects:   a.Effects,
		SentAt:    at,
	}, nil
}

// SlotTopic is the topic a device subscribes to for one slot.
func SlotTopic(prefix, deviceID string, slot model.SlotNumber) string {
	return fmt.Sprintf("%s/%s/slots/%d", strings.TrimSuffix(prefix, "/"), deviceID, slot)
}

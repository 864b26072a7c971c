package packets

import (
	"github.com/Nixie-Tech-LLC/marquee/internal/compose"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

type SubmitMessageResponse struct {
	MessageID string                 `json:"message_id"`
	DeviceID  string                 `json:"device_id"`
	Slot      model.SlotNumber       `json:"slot"`
	Status    model.MessageStatus    `json:"status"`
	Conflict  bool                   `json:"conflict"`
	Forced    bool                   `json:"forced"`
	Width     int                    `json:"width"`
	Height    int                    `json:"height"`
	FontSize  float64                `json:"font_size"`
	Effects   compose.EffectMetadata `json:"effects"`
	ImageURL  string                 `json:"image_url,omitempty"`
	Warnings  []string               `json:"warnings"`
}

type SlotsResponse struct {
	DeviceID string             `json:"device_id"`
	Active   []model.SlotNumber `json:"active"`
	Slots    []model.Slot       `json:"slots"`
}

type ReleaseResponse struct {
	DeviceID string           `json:"device_id"`
	Slot     model.SlotNumber `json:"slot"`
	Archived []string         `json:"archived"`
}

type PlaybackResponse struct {
	DeviceID string           `json:"device_id"`
	Slot     model.SlotNumber `json:"slot"`
	Session  uint64           `json:"session"`
	State    string           `json:"state"`
	Progress int              `json:"progress"`
	BlinkOn  bool             `json:"blink_on"`
	TotalMS  int64            `json:"total_ms"`
}

type EffectResponse struct {
	Code           int    `json:"code"`
	Name           string `json:"name"`
	BaseDurationMS int64  `json:"base_duration_ms"`
}

type EffectsResponse struct {
	Entries []EffectResponse `json:"entries"`
	Exits   []EffectResponse `json:"exits"`
}

type DeleteMessageResponse struct {
	Deleted string `json:"deleted"`
}

package model

import "time"

// MessageStatus is the delivery/history state of a message.
type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusSending   MessageStatus = "sending"
	StatusSent      MessageStatus = "sent"
	StatusActive    MessageStatus = "active"
	StatusExpired   MessageStatus = "expired"
	StatusFailed    MessageStatus = "failed"
	StatusCancelled MessageStatus = "cancelled"
	StatusArchived  MessageStatus = "archived"
)

// Terminal reports whether no further transitions are expected.
func (s MessageStatus) Terminal() bool {
	switch s {
	case StatusExpired, StatusFailed, StatusCancelled, StatusArchived:
		return true
	}
	return false
}

// Position is the horizontal alignment of rendered lines.
type Position string

const (
	PositionLeft   Position = "left"
	PositionCenter Position = "center"
	PositionRight  Position = "right"
)

// DisplayOptions controls rendering and playback of a message.
type DisplayOptions struct {
	FontSize               float64  `json:"font_size"`
	Color                  string   `json:"color"`
	BackgroundColor        string   `json:"background_color"`
	Position               Position `json:"position"`
	DisplayEffect          int      `json:"display_effect"`
	DisplayEffectSpeed     int      `json:"display_effect_speed"`
	DisplayWaitTimeSeconds int      `json:"display_wait_time_seconds"`
	EndEffect              int      `json:"end_effect"`
	EndEffectSpeed         int      `json:"end_effect_speed"`
	Blink                  bool     `json:"blink"`
}

// Option bounds.
const (
	MinFontSize = 8
	MaxFontSize = 120
	MinSpeed    = 1
	MaxSpeed    = 8

	// MaxWaitSeconds caps the post-entry wait at one hour.
	MaxWaitSeconds = 60 * 60
)

// DefaultDisplayOptions returns the options applied to unset fields.
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{
		FontSize:           24,
		Color:              "#FFFFFF",
		BackgroundColor:    "#000000",
		Position:           PositionCenter,
		DisplayEffect:      1,
		DisplayEffectSpeed: 5,
		EndEffect:          1,
		EndEffectSpeed:     5,
	}
}

// WithDefaults fills zero-valued fields from DefaultDisplayOptions.
func (o DisplayOptions) WithDefaults() DisplayOptions {
	d := DefaultDisplayOptions()
	if o.FontSize == 0 {
		o.FontSize = d.FontSize
	}
	if o.Color == "" {
		o.Color = d.Color
	}
	if o.BackgroundColor == "" {
		o.BackgroundColor = d.BackgroundColor
	}
	if o.Position == "" {
		o.Position = d.Position
	}
	if o.DisplayEffect == 0 {
		o.DisplayEffect = d.DisplayEffect
	}
	if o.DisplayEffectSpeed == 0 {
		o.DisplayEffectSpeed = d.DisplayEffectSpeed
	}
	if o.EndEffect == 0 {
		o.EndEffect = d.EndEffect
	}
	if o.EndEffectSpeed == 0 {
		o.EndEffectSpeed = d.EndEffectSpeed
	}
	return o
}

// Message is the content and delivery record of one submission.
type Message struct {
	ID             string         `db:"id"              json:"id"`
	DeviceID       string         `db:"device_id"       json:"device_id"`
	Content        string         `db:"content"         json:"content"`
	Status         MessageStatus  `db:"status"          json:"status"`
	Priority       int            `db:"priority"        json:"priority"`
	Urgent         bool           `db:"urgent"          json:"urgent"`
	RoomNumber     SlotNumber     `db:"room_number"     json:"room_number"`
	DisplayOptions DisplayOptions `db:"-"               json:"display_options"`
	Schedule       Schedule       `db:"-"               json:"schedule"`
	CreatedAt      time.Time      `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"      json:"updated_at"`
	ArchivedAt     *time.Time     `db:"archived_at"     json:"archived_at,omitempty"`
}

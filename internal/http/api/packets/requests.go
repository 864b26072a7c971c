package packets

import (
	"encoding/json"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// SubmitMessageRequest creates a message on a device. RoomNumber may be sent
// as a number or a string; it is parsed once by the endpoint.
type SubmitMessageRequest struct {
	Content        string               `json:"content"         binding:"required"`
	Urgent         bool                 `json:"urgent"`
	Priority       int                  `json:"priority"`
	RoomNumber     json.RawMessage      `json:"room_number"`
	Confirm        bool                 `json:"confirm"`
	DisplayOptions model.DisplayOptions `json:"display_options"`
	Schedule       model.Schedule       `json:"schedule"`
}

type PreviewRequest struct {
	DeviceID       string               `json:"device_id"`
	Content        string               `json:"content"         binding:"required"`
	DisplayOptions model.DisplayOptions `json:"display_options"`
}

type UpsertDeviceRequest struct {
	Name   string `json:"name"`
	Width  int    `json:"width"  binding:"required,gt=0,lte=16384"`
	Height int    `json:"height" binding:"required,gt=0,lte=16384"`
}

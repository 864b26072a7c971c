package endpoints

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/compose"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api/packets"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
	"github.com/Nixie-Tech-LLC/marquee/internal/slots"
)

type MessageController struct {
	composer *compose.Composer
}

func newMessageController(composer *compose.Composer) *MessageController {
	return &MessageController{composer: composer}
}

// MessageModule mounts message submission, slot and history endpoints.
func MessageModule(composer *compose.Composer) api.Module {
	ctl := newMessageController(composer)
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/devices/:device_id/messages", ctl.submitMessage)
		c.GET("/devices/:device_id/messages", ctl.listMessages)
		c.DELETE("/messages/:id", ctl.deleteMessage)

		c.GET("/devices/:device_id/slots", ctl.listSlots)
		c.DELETE("/devices/:device_id/slots/:slot", ctl.releaseSlot)
		c.GET("/devices/:device_id/slots/:slot/playback", ctl.getPlayback)
	})
}

// parseRoomNumber accepts 6, "6" or null.
func parseRoomNumber(raw json.RawMessage) (*model.SlotNumber, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, err
		}
		if text == "" {
			return nil, nil
		}
	}
	n, err := slots.ParseNumber(text)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// POST /api/devices/:device_id/messages
func (m *MessageController) submitMessage(ctx *gin.Context) (any, *api.APIError) {
	var request packets.SubmitMessageRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	room, err := parseRoomNumber(request.RoomNumber)
	if err != nil {
		log.Error().Err(err).Str("room_number", string(request.RoomNumber)).Msg("invalid room number in request")
		return nil, toAPIError(err)
	}

	a, err := m.composer.Submit(ctx.Request.Context(), compose.Submission{
		DeviceID:       ctx.Param("device_id"),
		Content:        request.Content,
		Urgent:         request.Urgent,
		Priority:       request.Priority,
		RoomNumber:     room,
		Confirm:        request.Confirm,
		DisplayOptions: request.DisplayOptions,
		Schedule:       request.Schedule,
	})
	if err != nil {
		return nil, toAPIError(err)
	}

	warnings := a.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return packets.SubmitMessageResponse{
		MessageID: a.MessageID,
		DeviceID:  a.DeviceID,
		Slot:      a.Slot,
		Status:    model.StatusActive,
		Conflict:  a.Conflict,
		Forced:    a.Forced,
		Width:     a.Bitmap.Width,
		Height:    a.Bitmap.Height,
		FontSize:  a.Layout.FinalFontSize,
		Effects:   a.Effects,
		ImageURL:  a.ImageURL,
		Warnings:  warnings,
	}, nil
}

// GET /api/devices/:device_id/messages
func (m *MessageController) listMessages(ctx *gin.Context) (any, *api.APIError) {
	msgs, err := m.composer.History(ctx.Request.Context(), ctx.Param("device_id"))
	if err != nil {
		return nil, toAPIError(err)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

// DELETE /api/messages/:id
func (m *MessageController) deleteMessage(ctx *gin.Context) (any, *api.APIError) {
	id := ctx.Param("id")
	if err := m.composer.DeleteFromHistory(ctx.Request.Context(), id); err != nil {
		return nil, toAPIError(err)
	}
	return packets.DeleteMessageResponse{Deleted: id}, nil
}

// GET /api/devices/:device_id/slots
func (m *MessageController) listSlots(ctx *gin.Context) (any, *api.APIError) {
	deviceID := ctx.Param("device_id")
	return packets.SlotsResponse{
		DeviceID: deviceID,
		Active:   m.composer.ActiveSlots(deviceID),
		Slots:    m.composer.Slots(deviceID),
	}, nil
}

// DELETE /api/devices/:device_id/slots/:slot
func (m *MessageController) releaseSlot(ctx *gin.Context) (any, *api.APIError) {
	deviceID := ctx.Param("device_id")
	n, err := slots.ParseNumber(ctx.Param("slot"))
	if err != nil {
		return nil, toAPIError(err)
	}
	archived, err := m.composer.Release(ctx.Request.Context(), deviceID, n)
	if err != nil {
		return nil, toAPIError(err)
	}
	if archived == nil {
		archived = []string{}
	}
	return packets.ReleaseResponse{DeviceID: deviceID, Slot: n, Archived: archived}, nil
}

// GET /api/devices/:device_id/slots/:slot/playback
func (m *MessageController) getPlayback(ctx *gin.Context) (any, *api.APIError) {
	deviceID := ctx.Param("device_id")
	n, err := slots.ParseNumber(ctx.Param("slot"))
	if err != nil {
		return nil, toAPIError(err)
	}
	st, ok := m.composer.Playback(deviceID, n)
	if !ok {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "slot " + strconv.Itoa(int(n)) + " has not played"}
	}
	return packets.PlaybackResponse{
		DeviceID: deviceID,
		Slot:     n,
		Session:  st.Session,
		State:    string(st.State),
		Progress: st.Progress,
		BlinkOn:  st.BlinkOn,
		TotalMS:  st.Plan.Total().Milliseconds(),
	}, nil
}

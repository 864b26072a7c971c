package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/compose"
	"github.com/Nixie-Tech-LLC/marquee/internal/devices"
	"github.com/Nixie-Tech-LLC/marquee/internal/history"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api"
	"github.com/Nixie-Tech-LLC/marquee/internal/slots"
)

// toAPIError maps engine errors onto HTTP status codes.
func toAPIError(err error) *api.APIError {
	var conflict *compose.ConflictError
	switch {
	case errors.As(err, &conflict):
		return &api.APIError{
			Code:    http.StatusConflict,
			Message: err.Error(),
			Data:    gin.H{"slot": conflict.Slot, "conflict": true},
		}
	case errors.Is(err, slots.ErrInvalidSlotRange),
		errors.Is(err, slots.ErrEmptyDeviceID),
		errors.Is(err, compose.ErrEmptyContent),
		errors.Is(err, compose.ErrContentTooLong),
		errors.Is(err, compose.ErrInvalidDisplayOptions),
		errors.Is(err, compose.ErrInvalidSchedule):
		return &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, history.ErrNotFound), errors.Is(err, devices.ErrUnknownDevice):
		return &api.APIError{Code: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, compose.ErrMessageActive):
		return &api.APIError{Code: http.StatusConflict, Message: err.Error()}
	case errors.Is(err, compose.ErrDeliveryFailed):
		return &api.APIError{Code: http.StatusBadGateway, Message: err.Error()}
	case errors.Is(err, devices.ErrReadOnly):
		return &api.APIError{Code: http.StatusMethodNotAllowed, Message: err.Error()}
	}
	log.Error().Err(err).Msg("unhandled error in request")
	return &api.APIError{Code: http.StatusInternalServerError, Message: "internal error"}
}

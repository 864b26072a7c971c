package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/marquee/internal/devices"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api/packets"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// DeviceModule mounts the device directory endpoints.
func DeviceModule(registry devices.Registry) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		// GET /api/devices
		c.GET("/devices", func(ctx *gin.Context) (any, *api.APIError) {
			all, err := registry.List(ctx.Request.Context())
			if err != nil {
				return nil, toAPIError(err)
			}
			if all == nil {
				all = []model.Device{}
			}
			return all, nil
		})

		// GET /api/devices/:device_id
		c.GET("/devices/:device_id", func(ctx *gin.Context) (any, *api.APIError) {
			dev, err := registry.Lookup(ctx.Request.Context(), ctx.Param("device_id"))
			if err != nil {
				return nil, toAPIError(err)
			}
			return dev, nil
		})

		// PUT /api/devices/:device_id
		c.PUT("/devices/:device_id", func(ctx *gin.Context) (any, *api.APIError) {
			var request packets.UpsertDeviceRequest
			if err := ctx.ShouldBindJSON(&request); err != nil {
				return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
			}
			dev := model.Device{
				DeviceID:   ctx.Param("device_id"),
				Name:       request.Name,
				Resolution: model.Resolution{Width: request.Width, Height: request.Height},
			}
			if err := registry.Upsert(ctx.Request.Context(), dev); err != nil {
				return nil, toAPIError(err)
			}
			return dev, nil
		})
	})
}

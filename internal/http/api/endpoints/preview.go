package endpoints

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/marquee/internal/compose"
	"github.com/Nixie-Tech-LLC/marquee/internal/effects"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api/packets"
)

// PreviewModule mounts the preview renderer and the effect catalogue.
func PreviewModule(composer *compose.Composer) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/preview", func(ctx *gin.Context) (any, *api.APIError) {
			var request packets.PreviewRequest
			if err := ctx.ShouldBindJSON(&request); err != nil {
				return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
			}
			bmp, layout, warnings, err := composer.Preview(ctx.Request.Context(), request.DeviceID, request.Content, request.DisplayOptions)
			if err != nil {
				return nil, toAPIError(err)
			}
			png, err := bmp.EncodePNG()
			if err != nil {
				return nil, toAPIError(err)
			}
			headers := map[string]string{
				"X-Reference-Font-Size": strconv.FormatFloat(layout.RefFontSize, 'f', 2, 64),
				"X-Final-Font-Size":     strconv.FormatFloat(layout.FinalFontSize, 'f', 2, 64),
			}
			if len(warnings) > 0 {
				headers["X-Warning"] = strings.Join(warnings, "; ")
			}
			return api.Binary{ContentType: "image/png", Data: png, Headers: headers}, nil
		})

		c.GET("/effects", func(ctx *gin.Context) (any, *api.APIError) {
			return packets.EffectsResponse{
				Entries: effectList(effects.Entries()),
				Exits:   effectList(effects.Exits()),
			}, nil
		})
	})
}

func effectList(ds []effects.Descriptor) []packets.EffectResponse {
	out := make([]packets.EffectResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, packets.EffectResponse{
			Code:           d.Code,
			Name:           d.Name,
			BaseDurationMS: int64(d.Duration / time.Millisecond),
		})
	}
	return out
}

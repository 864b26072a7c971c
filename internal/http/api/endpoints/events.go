package endpoints

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/http/api"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

const eventWriteTimeout = 5 * time.Second

// EventSource streams the lifecycle events of one device until ctx is done.
type EventSource interface {
	Subscribe(ctx context.Context, deviceID string) <-chan model.Event
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventModule mounts the websocket event stream.
func EventModule(src EventSource) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		// GET /api/devices/:device_id/events
		c.Group.GET("/devices/:device_id/events", func(ctx *gin.Context) {
			deviceID := ctx.Param("device_id")
			conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
			if err != nil {
				log.Warn().Err(err).Str("device_id", deviceID).Msg("websocket upgrade failed")
				return
			}
			defer conn.Close()

			log.Debug().Str("device_id", deviceID).Msg("event stream connected")
			streamEvents(ctx.Request.Context(), conn, src, deviceID)
			log.Debug().Str("device_id", deviceID).Msg("event stream disconnected")
		})
	})
}

func streamEvents(parent context.Context, conn *websocket.Conn, src EventSource, deviceID string) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// The client only ever closes; any read error ends the stream.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for ev := range src.Subscribe(ctx, deviceID) {
		_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			log.Debug().Err(err).Str("device_id", deviceID).Msg("event stream write failed")
			return
		}
	}
}

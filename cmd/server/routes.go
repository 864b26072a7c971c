package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/marquee/internal/compose"
	"github.com/Nixie-Tech-LLC/marquee/internal/config"
	"github.com/Nixie-Tech-LLC/marquee/internal/devices"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api/endpoints"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, cfg *config.Config, composer *compose.Composer, registry devices.Registry, events endpoints.EventSource) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"X-Reference-Font-Size",
			"X-Final-Font-Size",
			"X-Warning",
		},
		AllowCredentials: false,
	}))

	modules := []api.Module{
		endpoints.MessageModule(composer),
		endpoints.PreviewModule(composer),
		endpoints.DeviceModule(registry),
	}
	// the live event stream needs redis pub/sub
	if events != nil {
		modules = append(modules, endpoints.EventModule(events))
	}
	api.MountGroup(r, api.GroupConfig{
		Prefix:      "/api",
		LogRequests: true,
	}, modules...)

	// Static content
	if !cfg.UseSpaces {
		r.Static("/uploads", cfg.UploadDir)
	}
}

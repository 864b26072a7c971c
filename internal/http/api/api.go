package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is returned by handlers; Data is merged into the JSON error body.
type APIError struct {
	Code    int
	Message string
	Data    gin.H
}

// Binary is a non-JSON handler result.
type Binary struct {
	ContentType string
	Data        []byte
	Headers     map[string]string
}

type HandlerFunc func(ctx *gin.Context) (any, *APIError)

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			body := gin.H{"error": apiErr.Message}
			for k, v := range apiErr.Data {
				body[k] = v
			}
			ctx.JSON(apiErr.Code, body)
			return
		}

		if bin, ok := result.(Binary); ok {
			for k, v := range bin.Headers {
				ctx.Header(k, v)
			}
			ctx.Data(http.StatusOK, bin.ContentType, bin.Data)
			return
		}
		ctx.JSON(http.StatusOK, result)
	}
}

// Controller is the gin group a Module registers its handlers on.
type Controller struct {
	Group *gin.RouterGroup
}

func (c *Controller) GET(path string, h HandlerFunc) {
	c.Group.GET(path, ResolveEndpoint(h))
}

func (c *Controller) POST(path string, h HandlerFunc) {
	c.Group.POST(path, ResolveEndpoint(h))
}

func (c *Controller) PUT(path string, h HandlerFunc) {
	c.Group.PUT(path, ResolveEndpoint(h))
}

func (c *Controller) DELETE(path string, h HandlerFunc) {
	c.Group.DELETE(path, ResolveEndpoint(h))
}

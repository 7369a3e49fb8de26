package resource

import (
	"github.com/gin-gonic/gin"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/middleware"
)

// Module implements the app.Module interface for the back-office resources.
type Module struct {
	handler  *Handler
	registry *Registry
}

// NewModule creates a Module. Panics if h or registry is nil.
func NewModule(h *Handler, registry *Registry) *Module {
	if h == nil {
		panic("resource.NewModule: handler must not be nil")
	}
	if registry == nil {
		panic("resource.NewModule: registry must not be nil")
	}
	return &Module{handler: h, registry: registry}
}

// RegisterRoutes registers the list, lifecycle and export routes of every
// resource plus the media browser. All routes require an admin caller.
func (m *Module) RegisterRoutes(api *gin.RouterGroup) {
	admin := api.Group("", middleware.RequireAdmin())

	admin.GET("/"+Media+"/browse", m.handler.BrowseMedia)
	for _, name := range m.registry.Names() {
		admin.GET("/"+name, m.handler.List(name))
		admin.PUT("/"+name+"/delete", m.handler.Trash(name))
		admin.DELETE("/"+name+"/delete", m.handler.Purge(name))
		admin.GET("/"+name+"/export", m.handler.Export(name))
	}
}

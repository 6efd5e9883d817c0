package http

import (
	"github.com/gin-gonic/gin"
)

// Register mounts every REST endpoint on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	// Windows
	r.GET("/windows", h.ListWindows)
	r.POST("/windows", h.OpenWindow)
	r.GET("/windows/:id", h.GetWindow)
	r.DELETE("/windows/:id", h.CloseWindow)
	r.POST("/windows/:id/minimize", h.MinimizeWindow)
	r.POST("/windows/:id/maximize", h.MaximizeWindow)
	r.POST("/windows/:id/focus", h.FocusWindow)
	r.POST("/windows/:id/move", h.MoveWindow)
	r.POST("/windows/:id/resize", h.ResizeWindow)
	r.POST("/windows/:id/title", h.SetTitle)
	r.POST("/windows/:id/icon", h.SetIcon)
	r.POST("/windows/:id/badge", h.SetBadge)

	// App catalog
	r.GET("/apps", h.ListApps)
	r.GET("/apps/:id", h.GetApp)

	// Session
	r.GET("/session", h.GetSession)
	r.POST("/session/save", h.SaveSession)
	r.POST("/session/restore", h.RestoreSession)

	r.GET("/metrics/json", h.MetricsSummary)
}

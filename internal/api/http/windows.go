package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/webdesk/internal/shared/types"
	"github.com/GriffinCanCode/webdesk/internal/shared/utils"
)

// ListWindows lists all open windows in stacking order
func (h *Handlers) ListWindows(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"windows": h.windows.List(),
		"stats":   h.windows.Stats(),
	})
}

// OpenWindow opens a window for an app, or raises the one already open
func (h *Handlers) OpenWindow(c *gin.Context) {
	var req OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateID(req.AppID, "app_id", true); err != nil {
		badRequest(c, err)
		return
	}

	_, existed := h.windows.FindByApp(req.AppID)

	inst, ok := h.windows.Open(req.AppID, req.Props)
	if !ok {
		notFound(c, "app", req.AppID)
		return
	}

	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"success": true,
		"window":  inst,
	})
}

// GetWindow returns one window
func (h *Handlers) GetWindow(c *gin.Context) {
	windowID, ok := h.windowID(c)
	if !ok {
		return
	}

	inst, found := h.windows.Get(windowID)
	if !found {
		notFound(c, "window", windowID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"window": inst})
}

// CloseWindow closes a window
func (h *Handlers) CloseWindow(c *gin.Context) {
	h.operate(c, h.windows.Close)
}

// MinimizeWindow hides a window without destroying it
func (h *Handlers) MinimizeWindow(c *gin.Context) {
	h.operate(c, h.windows.Minimize)
}

// MaximizeWindow toggles the maximized state
func (h *Handlers) MaximizeWindow(c *gin.Context) {
	h.operate(c, h.windows.ToggleMaximize)
}

// FocusWindow raises a window to the top
func (h *Handlers) FocusWindow(c *gin.Context) {
	h.operate(c, h.windows.Focus)
}

// MoveWindow commits a new origin
func (h *Handlers) MoveWindow(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.operate(c, func(windowID string) bool {
		return h.windows.Move(windowID, types.Position{X: *req.X, Y: *req.Y})
	})
}

// ResizeWindow commits a new size, clamped to the window's minimum
func (h *Handlers) ResizeWindow(c *gin.Context) {
	var req ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var pos *types.Position
	if req.X != nil && req.Y != nil {
		pos = &types.Position{X: *req.X, Y: *req.Y}
	}
	h.operate(c, func(windowID string) bool {
		return h.windows.Resize(windowID, types.Size{Width: req.Width, Height: req.Height}, pos)
	})
}

// SetTitle overrides the window title
func (h *Handlers) SetTitle(c *gin.Context) {
	var req TitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.operate(c, func(windowID string) bool {
		return h.windows.SetTitle(windowID, req.Title)
	})
}

// SetIcon overrides the window icon
func (h *Handlers) SetIcon(c *gin.Context) {
	var req IconRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Icon != nil {
		if err := utils.ValidateString(*req.Icon, "icon", 0, utils.MaxIconLength, false); err != nil {
			badRequest(c, err)
			return
		}
	}
	h.operate(c, func(windowID string) bool {
		return h.windows.SetIcon(windowID, req.Icon)
	})
}

// SetBadge sets or clears the window badge
func (h *Handlers) SetBadge(c *gin.Context) {
	var req BadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.operate(c, func(windowID string) bool {
		return h.windows.SetBadge(windowID, req.Count)
	})
}

// operate validates the :id param, 404s unknown windows and reports whether
// the registry accepted the change along with the window's new state
func (h *Handlers) operate(c *gin.Context, op func(windowID string) bool) {
	windowID, ok := h.windowID(c)
	if !ok {
		return
	}
	if _, found := h.windows.Get(windowID); !found {
		notFound(c, "window", windowID)
		return
	}

	success := op(windowID)

	body := gin.H{
		"success":   success,
		"window_id": windowID,
	}
	if inst, found := h.windows.Get(windowID); found {
		body["window"] = inst
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handlers) windowID(c *gin.Context) (string, bool) {
	windowID := c.Param("id")
	if err := utils.ValidateID(windowID, "window_id", true); err != nil {
		badRequest(c, err)
		return "", false
	}
	return windowID, true
}

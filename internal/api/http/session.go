package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSession returns the live snapshot, the stored one and the bridge status
func (h *Handlers) GetSession(c *gin.Context) {
	body := gin.H{"current": h.windows.Snapshot()}

	if h.bridge != nil {
		stored, found, err := h.bridge.Load(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if found {
			body["stored"] = stored
		}
		body["status"] = h.bridge.Status()
	}
	c.JSON(http.StatusOK, body)
}

// SaveSession writes the current snapshot synchronously
func (h *Handlers) SaveSession(c *gin.Context) {
	if h.bridge == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session persistence disabled"})
		return
	}
	if err := h.bridge.Save(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  h.bridge.Status(),
	})
}

// RestoreSession runs the one-shot restore if it has not run yet
func (h *Handlers) RestoreSession(c *gin.Context) {
	if h.bridge == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session persistence disabled"})
		return
	}

	scheduled, err := h.bridge.Restore(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	if scheduled == nil {
		scheduled = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"scheduled": scheduled,
		"status":    h.bridge.Status(),
	})
}

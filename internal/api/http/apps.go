package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/webdesk/internal/shared/utils"
)

// ListApps lists the app catalog, optionally filtered by ?category=
func (h *Handlers) ListApps(c *gin.Context) {
	var category *string
	if raw := c.Query("category"); raw != "" {
		if err := utils.ValidateID(raw, "category", false); err != nil {
			badRequest(c, err)
			return
		}
		category = &raw
	}

	c.JSON(http.StatusOK, gin.H{
		"apps":  h.apps.ListApps(category),
		"stats": h.apps.Stats(),
	})
}

// GetApp returns one catalog entry
func (h *Handlers) GetApp(c *gin.Context) {
	appID := c.Param("id")
	if err := utils.ValidateID(appID, "app_id", true); err != nil {
		badRequest(c, err)
		return
	}

	entry, ok := h.apps.GetApp(appID)
	if !ok {
		notFound(c, "app", appID)
		return
	}

	body := gin.H{"app": entry}
	if rec, ok := h.windows.Record(appID); ok {
		body["geometry"] = rec.State
	}
	c.JSON(http.StatusOK, body)
}

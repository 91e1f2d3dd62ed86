package handler

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/internal/api/auth"
	"github.com/gin-gonic/gin"
)

const keepAliveInterval = 30 * time.Second

// Events streams the toasts published for the browser as server-sent events.
func (h *Handler) Events(c *gin.Context) {
	clientID := auth.ClientID(c)
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "missing client id"})
		return
	}

	toasts, cancel := h.hub.Subscribe(clientID)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("ready", gin.H{"success": true})
	c.Writer.Flush()
	log.Debug("event stream opened", "client", clientID)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("event stream closed", "client", clientID)
			return
		case toast, ok := <-toasts:
			if !ok {
				return
			}
			c.SSEvent("toast", toast)
			c.Writer.Flush()
		case <-keepAlive.C:
			c.SSEvent("ping", time.Now().Unix())
			c.Writer.Flush()
		}
	}
}

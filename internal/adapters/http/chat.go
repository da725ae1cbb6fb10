package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NikolasNeofytou/task-flow/internal/app/orch"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

// historyHandler serves the message log so reconnecting clients can refetch.
type historyHandler struct {
	orch  *orch.Orchestrator
	limit int
}

// GET /api/chat/:channelId/messages?limit=50&before=<RFC3339>
func (h *historyHandler) messages(c *gin.Context) {
	channel := c.Param("channelId")
	limit := h.limit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit", "code": domain.CodeValidation})
			return
		}
		limit = n
	}
	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before timestamp", "code": domain.CodeValidation})
			return
		}
		before = &t
	}
	c.JSON(http.StatusOK, h.orch.Messages.Query(channel, before, limit))
}

// GET /api/chat/channels
func (h *historyHandler) channels(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.Messages.Channels())
}

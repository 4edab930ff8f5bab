package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stridehq/stride-backend/internal/triggers"
)

// TriggerHandler receives redelivered document events from the hosting
// runtime's trigger infrastructure.
type TriggerHandler struct {
	dispatcher triggers.Handler
}

// NewTriggerHandler creates a new TriggerHandler
func NewTriggerHandler(dispatcher triggers.Handler) *TriggerHandler {
	return &TriggerHandler{dispatcher: dispatcher}
}

// DeliverEvent handles POST /triggers/events. A non-2xx response tells the
// trigger infrastructure to redeliver; the processors' idempotency checks
// make that safe.
func (h *TriggerHandler) DeliverEvent(c *gin.Context) {
	var event triggers.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event: " + err.Error()})
		return
	}

	if err := h.dispatcher.Handle(c, event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Event handling failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

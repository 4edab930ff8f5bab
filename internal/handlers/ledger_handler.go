package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stridehq/stride-backend/internal/store"
)

// LedgerHandler handles ledger read requests
type LedgerHandler struct {
	store store.Store
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(st store.Store) *LedgerHandler {
	return &LedgerHandler{store: st}
}

// GetLedger handles GET /users/:userId/ledger
func (h *LedgerHandler) GetLedger(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	ledger, err := h.store.GetLedger(c, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get ledger: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, ledger)
}

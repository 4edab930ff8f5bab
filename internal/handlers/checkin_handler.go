package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stridehq/stride-backend/internal/models"
	"github.com/stridehq/stride-backend/internal/services"
	"github.com/stridehq/stride-backend/internal/store"
)

// CheckinHandler handles check-in ingestion and reads
type CheckinHandler struct {
	store  store.Store
	awards services.AwardProcessor
}

// NewCheckinHandler creates a new CheckinHandler
func NewCheckinHandler(st store.Store, awards services.AwardProcessor) *CheckinHandler {
	return &CheckinHandler{
		store:  st,
		awards: awards,
	}
}

type createCheckinRequest struct {
	// EventID is caller-assigned; one is generated when absent. Uniqueness
	// per user and day is the caller's responsibility.
	EventID string                 `json:"eventId"`
	DayKey  string                 `json:"dayKey"`
	Entry   map[string]interface{} `json:"entry"`
}

// CreateCheckin handles POST /users/:userId/checkins
func (h *CheckinHandler) CreateCheckin(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	var req createCheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	now := time.Now().UTC()
	dayKey := models.DayKeyFromTime(now)
	if req.DayKey != "" {
		parsed, err := models.ParseDayKey(req.DayKey)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid day key format (YYYY-MM-DD)"})
			return
		}
		dayKey = parsed
	}

	eventID := req.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	event := &models.CheckinEvent{
		UserID:          userID,
		EventID:         eventID,
		SubmittedDayKey: dayKey,
		Entry:           req.Entry,
		CreatedAt:       now,
	}
	if err := h.store.CreateCheckinEvent(c, event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record check-in: " + err.Error()})
		return
	}

	result, err := h.awards.Process(c, userID, eventID)
	if err != nil {
		// The event is persisted; redelivery will retry the award.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process check-in: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"eventId": eventID,
		"awarded": result.Awarded,
		"streak":  result.Streak,
	})
}

// GetCheckin handles GET /users/:userId/checkins/:eventId
func (h *CheckinHandler) GetCheckin(c *gin.Context) {
	event, err := h.store.GetCheckinEvent(c, c.Param("userId"), c.Param("eventId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Check-in not found"})
		return
	}
	c.JSON(http.StatusOK, event)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stridehq/stride-backend/internal/models"
	"github.com/stridehq/stride-backend/internal/services"
	"github.com/stridehq/stride-backend/internal/store"
)

// RedemptionHandler handles redemption ingestion and reads
type RedemptionHandler struct {
	store       store.Store
	redemptions services.RedemptionProcessor
	fulfillment services.FulfillmentDispatcher
	logger      *logrus.Entry
}

// NewRedemptionHandler creates a new RedemptionHandler
func NewRedemptionHandler(st store.Store, redemptions services.RedemptionProcessor, fulfillment services.FulfillmentDispatcher, logger *logrus.Logger) *RedemptionHandler {
	return &RedemptionHandler{
		store:       st,
		redemptions: redemptions,
		fulfillment: fulfillment,
		logger:      logger.WithField("component", "redemption-handler"),
	}
}

type createRedemptionRequest struct {
	RequestID string `json:"requestId"`
	RewardID  string `json:"rewardId" binding:"required"`
}

// CreateRedemption handles POST /users/:userId/redemptions
func (h *RedemptionHandler) CreateRedemption(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	var req createRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	request := &models.RedemptionRequest{
		UserID:    userID,
		RequestID: requestID,
		RewardID:  req.RewardID,
		Status:    models.RedemptionStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.CreateRedemptionRequest(c, request); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record redemption request: " + err.Error()})
		return
	}

	result, err := h.redemptions.Process(c, userID, requestID)
	if err != nil {
		// The request is persisted; redelivery will retry processing.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process redemption: " + err.Error()})
		return
	}

	response := gin.H{
		"requestId": requestID,
		"status":    result.Status,
	}
	if result.Reason != "" {
		response["reason"] = result.Reason
	}
	if result.Status == models.RedemptionStatusApproved {
		response["redemptionId"] = result.RedemptionID
		// Fulfillment failures are retried via redelivery; the redemption
		// stays visible as pending until a code is issued.
		if _, err := h.fulfillment.Fulfill(c, userID, result.RedemptionID); err != nil {
			h.logger.WithError(err).WithFields(logrus.Fields{
				"userId":       userID,
				"redemptionId": result.RedemptionID,
			}).Error("fulfillment failed, awaiting redelivery")
		}
	}
	c.JSON(http.StatusOK, response)
}

// ListRedemptions handles GET /users/:userId/redemptions
func (h *RedemptionHandler) ListRedemptions(c *gin.Context) {
	redemptions, err := h.store.ListRedemptions(c, c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list redemptions: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, redemptions)
}

// GetRedemption handles GET /users/:userId/redemptions/:redemptionId
func (h *RedemptionHandler) GetRedemption(c *gin.Context) {
	redemption, err := h.store.GetRedemption(c, c.Param("redemptionId"))
	if err != nil || redemption.UserID != c.Param("userId") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Redemption not found"})
		return
	}
	c.JSON(http.StatusOK, redemption)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stridehq/stride-backend/internal/catalog"
)

// RewardHandler exposes the static reward catalog
type RewardHandler struct {
	catalog *catalog.Catalog
}

// NewRewardHandler creates a new RewardHandler
func NewRewardHandler(cat *catalog.Catalog) *RewardHandler {
	return &RewardHandler{catalog: cat}
}

type rewardResponse struct {
	RewardID        string `json:"rewardId"`
	DisplayName     string `json:"displayName"`
	PointCost       int    `json:"pointCost"`
	FulfillmentKind string `json:"fulfillmentKind"`
}

// ListRewards handles GET /rewards
func (h *RewardHandler) ListRewards(c *gin.Context) {
	entries := h.catalog.Entries()
	rewards := make([]rewardResponse, 0, len(entries))
	for _, entry := range entries {
		rewards = append(rewards, rewardResponse{
			RewardID:        entry.RewardID,
			DisplayName:     entry.DisplayName,
			PointCost:       entry.PointCost,
			FulfillmentKind: string(entry.FulfillmentKind),
		})
	}
	c.JSON(http.StatusOK, rewards)
}

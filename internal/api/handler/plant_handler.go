package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/malagaclima/lluviabet/internal/api/middleware"
	"github.com/malagaclima/lluviabet/internal/service"
)

// PlantHandler exposes the water earned from won wagers.
type PlantHandler struct {
	rewardSvc *service.PlantRewardService
}

// NewPlantHandler creates a PlantHandler.
func NewPlantHandler(rewardSvc *service.PlantRewardService) *PlantHandler {
	return &PlantHandler{rewardSvc: rewardSvc}
}

// GetWater godoc
// GET /api/plant/water?recent=10
func (h *PlantHandler) GetWater(c *gin.Context) {
	userID := middleware.GetUserID(c)

	total, err := h.rewardSvc.TotalWater(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch water total")
		return
	}

	recent, _ := strconv.Atoi(c.DefaultQuery("recent", "10"))
	rewards, err := h.rewardSvc.RecentRewards(c.Request.Context(), userID, recent)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch rewards")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"total_water_units": total,
		"recent":            rewards,
	})
}

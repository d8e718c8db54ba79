package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/AdedejiAdetola/swans-backend/internal/campaign"
	apierrors "github.com/AdedejiAdetola/swans-backend/internal/errors"
	"github.com/AdedejiAdetola/swans-backend/internal/monitoring"
	"github.com/gin-gonic/gin"
)

// handleCreateCampaign opens a campaign funded from the caller's balance
func (s *APIServer) handleCreateCampaign(c *gin.Context) {
	var req campaign.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	result, err := s.campaignService.Create(c.Request.Context(), callerID(c), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	monitoring.RecordCampaignCreated()
	c.JSON(http.StatusCreated, result)
}

// handleApply records the calling creator's application
func (s *APIServer) handleApply(c *gin.Context) {
	app, err := s.campaignService.Apply(c.Request.Context(), c.Param("id"), callerID(c), time.Now().UTC())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	monitoring.RecordApplication()
	c.JSON(http.StatusCreated, app)
}

// selectWinnersRequest carries the winner list
type selectWinnersRequest struct {
	Winners []string `json:"winners"`
}

// handleSelectWinners completes the campaign with the given winner set
func (s *APIServer) handleSelectWinners(c *gin.Context) {
	var req selectWinnersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	result, err := s.campaignService.SelectWinners(c.Request.Context(), c.Param("id"), callerID(c), req.Winners, time.Now().UTC())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleCloseSettlement returns the unspent reserve to the brand
func (s *APIServer) handleCloseSettlement(c *gin.Context) {
	result, err := s.campaignService.CloseSettlement(c.Request.Context(), c.Param("id"), callerID(c), time.Now().UTC())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	monitoring.RecordCampaignSettled()
	c.JSON(http.StatusOK, result)
}

// handleGetCampaign returns a campaign with its derived phase
func (s *APIServer) handleGetCampaign(c *gin.Context) {
	result, err := s.campaignService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"campaign": result,
		"phase":    campaign.Phase(result, time.Now().UTC()),
	})
}

// handleListCampaigns returns campaigns, optionally filtered by brand
func (s *APIServer) handleListCampaigns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	result, err := s.campaignService.List(c.Request.Context(), c.Query("brand_id"), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaigns": result})
}

// handleListApplications returns the campaign roster
func (s *APIServer) handleListApplications(c *gin.Context) {
	result, err := s.campaignService.ListApplications(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": result})
}

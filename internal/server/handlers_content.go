package server

import (
	"net/http"
	"time"

	apierrors "github.com/AdedejiAdetola/swans-backend/internal/errors"
	"github.com/AdedejiAdetola/swans-backend/internal/logging"
	"github.com/AdedejiAdetola/swans-backend/internal/middleware"
	"github.com/AdedejiAdetola/swans-backend/internal/models"
	"github.com/AdedejiAdetola/swans-backend/internal/monitoring"
	"github.com/gin-gonic/gin"
)

// submitContentRequest carries a new content submission
type submitContentRequest struct {
	ID         string `json:"id" binding:"required"`
	ContentRef string `json:"content_ref" binding:"required"`
}

// handleSubmitContent records the calling creator's deliverable
func (s *APIServer) handleSubmitContent(c *gin.Context) {
	var req submitContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	sub, err := s.contentService.Submit(c.Request.Context(), c.Param("id"), callerID(c), req.ID, req.ContentRef, time.Now().UTC())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}

// reviewContentRequest carries the brand's review decision
type reviewContentRequest struct {
	Accept bool    `json:"accept"`
	Note   *string `json:"note"`
}

// handleReviewContent accepts or rejects pending content
func (s *APIServer) handleReviewContent(c *gin.Context) {
	var req reviewContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	sub, err := s.contentService.Review(c.Request.Context(), c.Param("id"), c.Param("contentId"), callerID(c), req.Accept, req.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// handlePublishContent publishes accepted content and pays the base payment
func (s *APIServer) handlePublishContent(c *gin.Context) {
	result, err := s.contentService.Publish(c.Request.Context(), c.Param("id"), c.Param("contentId"), callerID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	monitoring.RecordContentPublished()
	if result.Receipt != nil {
		amount, _ := result.Receipt.Amount.Float64()
		monitoring.RecordPayout(string(models.PaymentKindBase), amount)
		logging.LogPayment(middleware.GetRequestIDFromContext(c), result.Receipt.CampaignID,
			result.Receipt.ContentID, result.Receipt.PayeeID, string(result.Receipt.Kind),
			result.Receipt.Amount.String())
	}

	c.JSON(http.StatusOK, result)
}

// handleUpdateMetrics overwrites the engagement counters of published content
func (s *APIServer) handleUpdateMetrics(c *gin.Context) {
	var req models.EngagementMetrics
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	sub, err := s.contentService.UpdateMetrics(c.Request.Context(), c.Param("id"), c.Param("contentId"), callerID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// handleProcessBonus pays the engagement bonus for a winner's content
func (s *APIServer) handleProcessBonus(c *gin.Context) {
	result, err := s.contentService.ProcessBonusPayment(c.Request.Context(), c.Param("id"), c.Param("contentId"), callerID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if result.Receipt != nil {
		amount, _ := result.Receipt.Amount.Float64()
		monitoring.RecordPayout(string(models.PaymentKindBonus), amount)
		logging.LogPayment(middleware.GetRequestIDFromContext(c), result.Receipt.CampaignID,
			result.Receipt.ContentID, result.Receipt.PayeeID, string(result.Receipt.Kind),
			result.Receipt.Amount.String())
	}

	c.JSON(http.StatusOK, result)
}

// handleGetContent returns a single submission
func (s *APIServer) handleGetContent(c *gin.Context) {
	sub, err := s.contentService.Get(c.Request.Context(), c.Param("id"), c.Param("contentId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// handleListContent returns all submissions for a campaign
func (s *APIServer) handleListContent(c *gin.Context) {
	subs, err := s.contentService.ListByCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": subs})
}

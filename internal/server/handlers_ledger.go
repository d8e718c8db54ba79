package server

import (
	"net/http"
	"strconv"

	apierrors "github.com/AdedejiAdetola/swans-backend/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// handleGetReceipt returns a single payment receipt
func (s *APIServer) handleGetReceipt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid receipt ID"))
		return
	}

	receipt, err := s.ledgerService.GetReceipt(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// handleListCampaignReceipts returns all receipts for a campaign with the
// running total paid out
func (s *APIServer) handleListCampaignReceipts(c *gin.Context) {
	campaignID := c.Param("id")

	receipts, err := s.ledgerService.ListByCampaign(c.Request.Context(), campaignID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	total, err := s.ledgerService.TotalPaid(c.Request.Context(), campaignID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"receipts":   receipts,
		"total_paid": total,
	})
}

// handleListCreatorReceipts returns all receipts paid to a creator
func (s *APIServer) handleListCreatorReceipts(c *gin.Context) {
	receipts, err := s.ledgerService.ListByCreator(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": receipts})
}

// handleListEvents returns audit events after a sequence number, for polling
func (s *APIServer) handleListEvents(c *gin.Context) {
	after, _ := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	evs, err := s.recorder.List(c.Request.Context(), after, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": evs})
}

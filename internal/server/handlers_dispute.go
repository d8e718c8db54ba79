package server

import (
	"net/http"
	"time"

	"github.com/AdedejiAdetola/swans-backend/internal/dispute"
	apierrors "github.com/AdedejiAdetola/swans-backend/internal/errors"
	"github.com/AdedejiAdetola/swans-backend/internal/logging"
	"github.com/AdedejiAdetola/swans-backend/internal/middleware"
	"github.com/AdedejiAdetola/swans-backend/internal/monitoring"
	"github.com/gin-gonic/gin"
)

// handleFileDispute opens a dispute case with the caller as initiator
func (s *APIServer) handleFileDispute(c *gin.Context) {
	var req dispute.FileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	d, err := s.disputeService.File(c.Request.Context(), callerID(c), middleware.GetRoleFromContext(c), &req, time.Now().UTC())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	monitoring.RecordDispute(string(d.Status))
	logging.LogDispute(d.ID, string(d.Status), callerID(c))
	c.JSON(http.StatusCreated, d)
}

// evidenceRequest carries an evidence reference
type evidenceRequest struct {
	EvidenceRef string `json:"evidence_ref" binding:"required"`
}

// handleSubmitEvidence appends evidence attributed to the calling party
func (s *APIServer) handleSubmitEvidence(c *gin.Context) {
	var req evidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	e, err := s.disputeService.SubmitEvidence(c.Request.Context(), c.Param("id"), callerID(c), req.EvidenceRef)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, e)
}

// assignResolverRequest carries the resolver assignment
type assignResolverRequest struct {
	ResolverID string `json:"resolver_id" binding:"required"`
}

// handleAssignResolver moves a filed case into review
func (s *APIServer) handleAssignResolver(c *gin.Context) {
	var req assignResolverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	d, err := s.disputeService.AssignResolver(c.Request.Context(), c.Param("id"), req.ResolverID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	monitoring.RecordDispute(string(d.Status))
	logging.LogDispute(d.ID, string(d.Status), callerID(c))
	c.JSON(http.StatusOK, d)
}

// resolveRequest carries the resolver's decision
type resolveRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}

// handleResolveDispute records the assigned resolver's decision
func (s *APIServer) handleResolveDispute(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	d, err := s.disputeService.Resolve(c.Request.Context(), c.Param("id"), callerID(c), req.Resolution)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	monitoring.RecordDispute(string(d.Status))
	logging.LogDispute(d.ID, string(d.Status), callerID(c))
	c.JSON(http.StatusOK, d)
}

// handleCloseDispute finalizes a resolved case
func (s *APIServer) handleCloseDispute(c *gin.Context) {
	d, err := s.disputeService.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	monitoring.RecordDispute(string(d.Status))
	logging.LogDispute(d.ID, string(d.Status), callerID(c))
	c.JSON(http.StatusOK, d)
}

// handleWithdrawDispute closes a filed or in-review case at a party's request
func (s *APIServer) handleWithdrawDispute(c *gin.Context) {
	d, err := s.disputeService.CloseByAgreement(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	monitoring.RecordDispute(string(d.Status))
	logging.LogDispute(d.ID, string(d.Status), callerID(c))
	c.JSON(http.StatusOK, d)
}

// handleGetDispute returns a dispute case
func (s *APIServer) handleGetDispute(c *gin.Context) {
	d, err := s.disputeService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// handleListEvidence returns the evidence trail of a case
func (s *APIServer) handleListEvidence(c *gin.Context) {
	evidence, err := s.disputeService.ListEvidence(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evidence": evidence})
}

// handleListCampaignDisputes returns disputes raised against a campaign
func (s *APIServer) handleListCampaignDisputes(c *gin.Context) {
	disputes, err := s.disputeService.ListByCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}

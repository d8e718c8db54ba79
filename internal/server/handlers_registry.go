package server

import (
	"net/http"

	apierrors "github.com/AdedejiAdetola/swans-backend/internal/errors"
	"github.com/AdedejiAdetola/swans-backend/internal/models"
	"github.com/AdedejiAdetola/swans-backend/internal/monitoring"
	"github.com/AdedejiAdetola/swans-backend/internal/registry"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// handleRegisterBrand registers a brand account and issues its access token
func (s *APIServer) handleRegisterBrand(c *gin.Context) {
	var req registry.RegisterBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	brand, err := s.registryService.RegisterBrand(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := s.jwtAuthenticator.IssueToken(brand.ID, models.RoleBrand)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	monitoring.RecordAccountRegistered(string(models.RoleBrand))
	c.JSON(http.StatusCreated, gin.H{
		"brand":        brand,
		"access_token": token,
	})
}

// handleRegisterCreator registers a creator account and issues its access token
func (s *APIServer) handleRegisterCreator(c *gin.Context) {
	var req registry.RegisterCreatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	creator, err := s.registryService.RegisterCreator(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := s.jwtAuthenticator.IssueToken(creator.ID, models.RoleCreator)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	monitoring.RecordAccountRegistered(string(models.RoleCreator))
	c.JSON(http.StatusCreated, gin.H{
		"creator":      creator,
		"access_token": token,
	})
}

// fundRequest carries the funding amount
type fundRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// handleFundBrand credits the caller's brand balance
func (s *APIServer) handleFundBrand(c *gin.Context) {
	var req fundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	brandID := callerID(c)
	brand, err := s.registryService.FundBrandAccount(c.Request.Context(), brandID, req.Amount)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, brand)
}

// handleGetBrand returns a brand account
func (s *APIServer) handleGetBrand(c *gin.Context) {
	brand, err := s.registryService.GetBrand(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, brand)
}

// handleGetCreator returns a creator account
func (s *APIServer) handleGetCreator(c *gin.Context) {
	creator, err := s.registryService.GetCreator(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, creator)
}

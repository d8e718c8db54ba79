package server

import (
	"errors"
	"net/http"

	"github.com/AdedejiAdetola/swans-backend/internal/cache"
	"github.com/AdedejiAdetola/swans-backend/internal/campaign"
	"github.com/AdedejiAdetola/swans-backend/internal/config"
	"github.com/AdedejiAdetola/swans-backend/internal/content"
	"github.com/AdedejiAdetola/swans-backend/internal/dispute"
	apierrors "github.com/AdedejiAdetola/swans-backend/internal/errors"
	"github.com/AdedejiAdetola/swans-backend/internal/events"
	"github.com/AdedejiAdetola/swans-backend/internal/ledger"
	"github.com/AdedejiAdetola/swans-backend/internal/logging"
	"github.com/AdedejiAdetola/swans-backend/internal/middleware"
	"github.com/AdedejiAdetola/swans-backend/internal/monitoring"
	"github.com/AdedejiAdetola/swans-backend/internal/registry"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// APIServer represents the main API server
type APIServer struct {
	config           *config.Config
	router           *gin.Engine
	db               *pgxpool.Pool
	jwtAuthenticator *middleware.JWTAuthenticator

	recorder        *events.Recorder
	registryService *registry.Service
	campaignService *campaign.Service
	contentService  *content.Service
	disputeService  *dispute.Service
	ledgerService   *ledger.Service
}

// NewAPIServer creates a new API server instance
func NewAPIServer(cfg *config.Config, db *pgxpool.Pool, redis *cache.Redis) *APIServer {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	router.Use(monitoring.MetricsMiddleware())
	router.Use(logging.RequestLogger())

	jwtAuthenticator := middleware.NewJWTAuthenticator(&cfg.JWT)

	if cfg.RateLimit.Enabled && redis != nil {
		limiter := middleware.NewRateLimiter(redis, &cfg.RateLimit, jwtAuthenticator)
		router.Use(limiter.RateLimit())
	}

	recorder := events.NewRecorder(db, redis)
	maxIDLen := cfg.Engine.MaxIdentifierLength

	srv := &APIServer{
		config:           cfg,
		router:           router,
		db:               db,
		jwtAuthenticator: jwtAuthenticator,
		recorder:         recorder,
		registryService:  registry.NewService(db, recorder, maxIDLen),
		campaignService:  campaign.NewService(db, recorder, maxIDLen),
		contentService:   content.NewService(db, recorder, maxIDLen),
		disputeService:   dispute.NewService(db, recorder, maxIDLen),
		ledgerService:    ledger.NewService(db),
	}

	srv.setupRoutes()
	return srv
}

// Router returns the gin router
func (s *APIServer) Router() http.Handler {
	return s.router
}

// setupRoutes configures all API routes
func (s *APIServer) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/api/v1")
	{
		// Registration (public, token issued on success)
		v1.POST("/brands/register", s.handleRegisterBrand)
		v1.POST("/creators/register", s.handleRegisterCreator)

		// Account reads (public)
		v1.GET("/brands/:id", s.handleGetBrand)
		v1.GET("/creators/:id", s.handleGetCreator)
		v1.GET("/creators/:id/receipts", s.handleListCreatorReceipts)

		// Brand operations
		brands := v1.Group("")
		brands.Use(s.jwtAuthenticator.JWTAuth())
		brands.Use(middleware.RequireBrand())
		{
			brands.POST("/brands/me/fund", s.handleFundBrand)
			brands.POST("/campaigns", s.handleCreateCampaign)
			brands.POST("/campaigns/:id/winners", s.handleSelectWinners)
			brands.POST("/campaigns/:id/settle", s.handleCloseSettlement)
			brands.POST("/campaigns/:id/content/:contentId/review", s.handleReviewContent)
			brands.PUT("/campaigns/:id/content/:contentId/metrics", s.handleUpdateMetrics)
		}

		// Bonus payout: the owning brand or the content's creator may trigger
		// it; the service checks the caller against both
		parties := v1.Group("")
		parties.Use(s.jwtAuthenticator.JWTAuth())
		parties.Use(middleware.RequireParty())
		{
			parties.POST("/campaigns/:id/content/:contentId/bonus", s.handleProcessBonus)
		}

		// Creator operations
		creators := v1.Group("")
		creators.Use(s.jwtAuthenticator.JWTAuth())
		creators.Use(middleware.RequireCreator())
		{
			creators.POST("/campaigns/:id/apply", s.handleApply)
			creators.POST("/campaigns/:id/content", s.handleSubmitContent)
			creators.POST("/campaigns/:id/content/:contentId/publish", s.handlePublishContent)
		}

		// Campaign and content reads (public)
		v1.GET("/campaigns", s.handleListCampaigns)
		v1.GET("/campaigns/:id", s.handleGetCampaign)
		v1.GET("/campaigns/:id/applications", s.handleListApplications)
		v1.GET("/campaigns/:id/content", s.handleListContent)
		v1.GET("/campaigns/:id/content/:contentId", s.handleGetContent)
		v1.GET("/campaigns/:id/receipts", s.handleListCampaignReceipts)
		v1.GET("/campaigns/:id/disputes", s.handleListCampaignDisputes)
		v1.GET("/receipts/:id", s.handleGetReceipt)
		v1.GET("/events", s.handleListEvents)

		// Disputes: either party may file, submit evidence, or withdraw
		disputes := v1.Group("/disputes")
		disputes.Use(s.jwtAuthenticator.JWTAuth())
		{
			party := disputes.Group("")
			party.Use(middleware.RequireParty())
			{
				party.POST("", s.handleFileDispute)
				party.POST("/:id/evidence", s.handleSubmitEvidence)
				party.POST("/:id/withdraw", s.handleWithdrawDispute)
			}

			disputes.GET("/:id", s.handleGetDispute)
			disputes.GET("/:id/evidence", s.handleListEvidence)

			admin := disputes.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/:id/assign", s.handleAssignResolver)
				admin.POST("/:id/resolve", s.handleResolveDispute)
				admin.POST("/:id/close", s.handleCloseDispute)
			}
		}
	}
}

// Health check handler
func (s *APIServer) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "api",
	})
}

// callerID returns the authenticated account ID from the request context
func callerID(c *gin.Context) string {
	return middleware.GetAccountIDFromContext(c)
}

// respondError sends a standardized error response
func respondError(c *gin.Context, err *apierrors.APIError) {
	c.JSON(err.HTTPStatus, apierrors.ErrorResponse{
		Error:     *err,
		RequestID: middleware.GetRequestIDFromContext(c),
	})
}

// respondServiceError maps domain sentinel errors onto the API error taxonomy
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrInvalidIdentifier):
		respondError(c, apierrors.New(apierrors.ErrInvalidIdentifier, err.Error(), http.StatusBadRequest))
	case errors.Is(err, registry.ErrDuplicateIdentifier):
		respondError(c, apierrors.New(apierrors.ErrDuplicateIdentifier, err.Error(), http.StatusConflict))
	case errors.Is(err, registry.ErrDisplayNameRequired):
		respondError(c, apierrors.NewValidationError(err.Error()))
	case errors.Is(err, registry.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidAmount):
		respondError(c, apierrors.New(apierrors.ErrInvalidAmount, err.Error(), http.StatusBadRequest))
	case errors.Is(err, registry.ErrAccountNotFound),
		errors.Is(err, campaign.ErrCampaignNotFound),
		errors.Is(err, content.ErrContentNotFound),
		errors.Is(err, dispute.ErrDisputeNotFound),
		errors.Is(err, ledger.ErrReceiptNotFound):
		respondError(c, apierrors.ErrNotFoundError)

	case errors.Is(err, campaign.ErrInvalidWindow):
		respondError(c, apierrors.New(apierrors.ErrInvalidWindow, err.Error(), http.StatusBadRequest))
	case errors.Is(err, campaign.ErrInvalidBudget),
		errors.Is(err, campaign.ErrInvalidBasePayment),
		errors.Is(err, campaign.ErrInvalidParticipants),
		errors.Is(err, campaign.ErrNegativeRate):
		respondError(c, apierrors.New(apierrors.ErrInvalidBudget, err.Error(), http.StatusBadRequest))
	case errors.Is(err, campaign.ErrInsufficientFunds):
		respondError(c, apierrors.New(apierrors.ErrInsufficientFunds, err.Error(), http.StatusPaymentRequired))
	case errors.Is(err, ledger.ErrInsufficientReserve):
		respondError(c, apierrors.New(apierrors.ErrInsufficientReserve, err.Error(), http.StatusPaymentRequired))
	case errors.Is(err, campaign.ErrNotOwner), errors.Is(err, content.ErrNotOwner):
		respondError(c, apierrors.New(apierrors.ErrNotOwner, err.Error(), http.StatusForbidden))
	case errors.Is(err, campaign.ErrApplicationsClosed), errors.Is(err, content.ErrSubmissionClosed):
		respondError(c, apierrors.New(apierrors.ErrWindowClosed, err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, campaign.ErrDuplicateApplication):
		respondError(c, apierrors.New(apierrors.ErrDuplicateApplication, err.Error(), http.StatusConflict))
	case errors.Is(err, campaign.ErrCampaignFull):
		respondError(c, apierrors.New(apierrors.ErrCampaignFull, err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, campaign.ErrCampaignNotEnded),
		errors.Is(err, campaign.ErrCampaignCompleted),
		errors.Is(err, campaign.ErrCampaignNotCompleted),
		errors.Is(err, campaign.ErrUnknownWinner):
		respondError(c, apierrors.New(apierrors.ErrInvalidState, err.Error(), http.StatusUnprocessableEntity))

	case errors.Is(err, content.ErrNoApplication):
		respondError(c, apierrors.New(apierrors.ErrNoApplication, err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, content.ErrAlreadyReviewed):
		respondError(c, apierrors.New(apierrors.ErrAlreadyReviewed, err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, content.ErrNotAccepted), errors.Is(err, content.ErrNotPublished):
		respondError(c, apierrors.New(apierrors.ErrNotAccepted, err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, content.ErrAlreadyPaid):
		respondError(c, apierrors.New(apierrors.ErrAlreadyPaid, err.Error(), http.StatusConflict))
	case errors.Is(err, content.ErrNotAWinner):
		respondError(c, apierrors.New(apierrors.ErrNotAWinner, err.Error(), http.StatusUnprocessableEntity))

	case errors.Is(err, dispute.ErrInvalidTransition):
		respondError(c, apierrors.New(apierrors.ErrInvalidState, err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, dispute.ErrDisputeClosed):
		respondError(c, apierrors.New(apierrors.ErrDisputeClosed, err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, dispute.ErrNotAParty):
		respondError(c, apierrors.New(apierrors.ErrNotAParty, err.Error(), http.StatusForbidden))
	case errors.Is(err, dispute.ErrNotAssigned):
		respondError(c, apierrors.New(apierrors.ErrNotAssignedResolver, err.Error(), http.StatusForbidden))
	case errors.Is(err, dispute.ErrSelfDispute),
		errors.Is(err, dispute.ErrDescriptionMissing),
		errors.Is(err, dispute.ErrResolutionMissing):
		respondError(c, apierrors.NewValidationError(err.Error()))

	default:
		logging.LogError(err, middleware.GetRequestIDFromContext(c), "server", c.FullPath())
		respondError(c, apierrors.ErrInternalServerError)
	}
}

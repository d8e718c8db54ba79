package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AdedejiAdetola/swans-backend/internal/events"
	"github.com/AdedejiAdetola/swans-backend/internal/models"
	"github.com/AdedejiAdetola/swans-backend/internal/registry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Service errors
var (
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrInvalidWindow        = errors.New("campaign windows are misordered")
	ErrInvalidBudget        = errors.New("budget cannot cover base payment for all participants")
	ErrInvalidBasePayment   = errors.New("base payment must be positive")
	ErrInvalidParticipants  = errors.New("max participants must be positive")
	ErrNegativeRate         = errors.New("bonus rates must be non-negative")
	ErrInsufficientFunds    = errors.New("insufficient brand balance")
	ErrNotOwner             = errors.New("caller does not own this campaign")
	ErrApplicationsClosed   = errors.New("application window is closed")
	ErrDuplicateApplication = errors.New("creator has already applied")
	ErrCampaignFull         = errors.New("campaign has reached max participants")
	ErrCampaignNotEnded     = errors.New("campaign window has not ended")
	ErrCampaignCompleted    = errors.New("campaign is already completed")
	ErrCampaignNotCompleted = errors.New("campaign is not completed")
	ErrUnknownWinner        = errors.New("winner has no published content in this campaign")
)

const pgUniqueViolation = "23505"

// Phase derives the lifecycle phase of a campaign at a given instant.
// Completion is the only stored transition; everything else follows from the
// windows. Window membership is half-open: [start, end).
func Phase(c *models.Campaign, now time.Time) models.CampaignPhase {
	if c.Status == models.CampaignStatusCompleted {
		return models.PhaseCompleted
	}
	if now.Before(c.AppEnd) {
		return models.PhaseOpen
	}
	if now.Before(c.CampaignEnd) {
		return models.PhaseActive
	}
	return models.PhaseReviewClosed
}

// InApplicationWindow reports whether now falls in [AppStart, AppEnd)
func InApplicationWindow(c *models.Campaign, now time.Time) bool {
	return !now.Before(c.AppStart) && now.Before(c.AppEnd)
}

// InCampaignWindow reports whether now falls in [CampaignStart, CampaignEnd)
func InCampaignWindow(c *models.Campaign, now time.Time) bool {
	return !now.Before(c.CampaignStart) && now.Before(c.CampaignEnd)
}

// ValidateWindows checks the ordering constraints: each window is non-empty
// and applications close no later than the campaign starts
func ValidateWindows(appStart, appEnd, campStart, campEnd time.Time) error {
	if !appStart.Before(appEnd) || !campStart.Before(campEnd) || appEnd.After(campStart) {
		return ErrInvalidWindow
	}
	return nil
}

// Service handles campaign lifecycle, applications, and settlement
type Service struct {
	db       *pgxpool.Pool
	events   *events.Recorder
	maxIDLen int
}

// NewService creates a new campaign service
func NewService(db *pgxpool.Pool, recorder *events.Recorder, maxIDLen int) *Service {
	return &Service{db: db, events: recorder, maxIDLen: maxIDLen}
}

// CreateRequest carries the inputs for campaign creation
type CreateRequest struct {
	ID              string            `json:"id" binding:"required"`
	TotalBudget     decimal.Decimal   `json:"total_budget" binding:"required"`
	BasePayment     decimal.Decimal   `json:"base_payment" binding:"required"`
	Rates           models.BonusRates `json:"bonus_rates"`
	AppStart        time.Time         `json:"application_start" binding:"required"`
	AppEnd          time.Time         `json:"application_end" binding:"required"`
	CampaignStart   time.Time         `json:"campaign_start" binding:"required"`
	CampaignEnd     time.Time         `json:"campaign_end" binding:"required"`
	MaxParticipants int               `json:"max_participants" binding:"required"`
}

func (r *CreateRequest) validate(maxIDLen int) error {
	if err := registry.ValidateIdentifier(r.ID, maxIDLen); err != nil {
		return err
	}
	if err := ValidateWindows(r.AppStart, r.AppEnd, r.CampaignStart, r.CampaignEnd); err != nil {
		return err
	}
	if !r.BasePayment.IsPositive() {
		return ErrInvalidBasePayment
	}
	if r.MaxParticipants <= 0 {
		return ErrInvalidParticipants
	}
	for _, rate := range []decimal.Decimal{r.Rates.Likes, r.Rates.Views, r.Rates.Retweets, r.Rates.Comments, r.Rates.LinkClicks} {
		if rate.IsNegative() {
			return ErrNegativeRate
		}
	}
	// Budget must cover the base payment for a full roster
	floor := r.BasePayment.Mul(decimal.NewFromInt(int64(r.MaxParticipants)))
	if r.TotalBudget.LessThan(floor) {
		return ErrInvalidBudget
	}
	return nil
}

// Create opens a campaign, moving the full budget from the brand's balance
// into the campaign reserve in one transaction
func (s *Service) Create(ctx context.Context, brandID string, req *CreateRequest) (*models.Campaign, error) {
	if err := req.validate(s.maxIDLen); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Debit the brand only if the balance covers the budget; the row
	// predicate makes the check and the debit a single atomic step
	tag, err := tx.Exec(ctx, `
		UPDATE brand_accounts
		SET balance = balance - $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND balance >= $1
	`, req.TotalBudget, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to debit brand balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if exists, err := brandExists(ctx, tx, brandID); err != nil {
			return nil, err
		} else if !exists {
			return nil, registry.ErrAccountNotFound
		}
		return nil, ErrInsufficientFunds
	}

	c := &models.Campaign{
		ID:              req.ID,
		BrandID:         brandID,
		Status:          models.CampaignStatusOpen,
		TotalBudget:     req.TotalBudget,
		Reserved:        req.TotalBudget,
		BasePayment:     req.BasePayment,
		Rates:           req.Rates,
		AppStart:        req.AppStart,
		AppEnd:          req.AppEnd,
		CampaignStart:   req.CampaignStart,
		CampaignEnd:     req.CampaignEnd,
		MaxParticipants: req.MaxParticipants,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO campaigns (id, brand_id, status, total_budget, reserved, base_payment,
			rate_likes, rate_views, rate_retweets, rate_comments, rate_link_clicks,
			app_start, app_end, campaign_start, campaign_end, max_participants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING version, created_at, updated_at
	`, c.ID, c.BrandID, c.Status, c.TotalBudget, c.Reserved, c.BasePayment,
		c.Rates.Likes, c.Rates.Views, c.Rates.Retweets, c.Rates.Comments, c.Rates.LinkClicks,
		c.AppStart, c.AppEnd, c.CampaignStart, c.CampaignEnd, c.MaxParticipants).
		Scan(&c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, registry.ErrDuplicateIdentifier
		}
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	ev, err := s.events.Append(ctx, tx, "campaign", c.ID, "campaign.created", c)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.events.Publish(ctx, ev)
	return c, nil
}

// Apply records a creator's application. Applications are auto-accepted while
// the application window is open and the roster has room.
func (s *Service) Apply(ctx context.Context, campaignID, creatorID string, now time.Time) (*models.Application, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the campaign so the capacity check and the insert are atomic
	// against concurrent applicants
	c, err := getForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}

	if c.Status == models.CampaignStatusCompleted {
		return nil, ErrCampaignCompleted
	}
	if !InApplicationWindow(c, now) {
		return nil, ErrApplicationsClosed
	}

	var count int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM applications WHERE campaign_id = $1
	`, campaignID).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}
	if count >= c.MaxParticipants {
		return nil, ErrCampaignFull
	}

	app := &models.Application{CampaignID: campaignID, CreatorID: creatorID, AppliedAt: now}
	_, err = tx.Exec(ctx, `
		INSERT INTO applications (campaign_id, creator_id, applied_at)
		VALUES ($1, $2, $3)
	`, app.CampaignID, app.CreatorID, app.AppliedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateApplication
		}
		return nil, fmt.Errorf("failed to insert application: %w", err)
	}

	ev, err := s.events.Append(ctx, tx, "campaign", campaignID, "campaign.application_received", app)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.events.Publish(ctx, ev)
	return app, nil
}

// SelectWinners marks the campaign completed with the given winner set. Only
// the owning brand may call it, only after the campaign window has ended, and
// every winner must have published content in the campaign.
func (s *Service) SelectWinners(ctx context.Context, campaignID, brandID string, winners []string, now time.Time) (*models.Campaign, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := getForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}

	if c.BrandID != brandID {
		return nil, ErrNotOwner
	}
	if c.Status == models.CampaignStatusCompleted {
		return nil, ErrCampaignCompleted
	}
	if now.Before(c.CampaignEnd) {
		return nil, ErrCampaignNotEnded
	}

	for _, w := range winners {
		var published bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM content_submissions
				WHERE campaign_id = $1 AND creator_id = $2 AND status = $3
			)
		`, campaignID, w, models.ContentStatusPublished).Scan(&published)
		if err != nil {
			return nil, fmt.Errorf("failed to check winner content: %w", err)
		}
		if !published {
			return nil, fmt.Errorf("%w: %s", ErrUnknownWinner, w)
		}
	}

	err = tx.QueryRow(ctx, `
		UPDATE campaigns
		SET status = $1, winners = $2, version = version + 1, updated_at = NOW()
		WHERE id = $3
		RETURNING version, updated_at
	`, models.CampaignStatusCompleted, winners, campaignID).Scan(&c.Version, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record winners: %w", err)
	}
	c.Status = models.CampaignStatusCompleted
	c.Winners = winners

	ev, err := s.events.Append(ctx, tx, "campaign", campaignID, "campaign.winners_selected", map[string]any{
		"winners": winners,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.events.Publish(ctx, ev)
	return c, nil
}

// CloseSettlement returns the unspent reserve to the brand balance. Explicit
// and idempotent: the first call moves the funds and stamps settled_at, any
// later call is a no-op returning the already-settled campaign.
func (s *Service) CloseSettlement(ctx context.Context, campaignID, brandID string, now time.Time) (*models.Campaign, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := getForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}

	if c.BrandID != brandID {
		return nil, ErrNotOwner
	}
	if c.Status != models.CampaignStatusCompleted {
		return nil, ErrCampaignNotCompleted
	}
	if c.SettledAt != nil {
		// Already settled, nothing left to move
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return c, nil
	}

	remainder := c.Reserved
	if remainder.IsPositive() {
		_, err = tx.Exec(ctx, `
			UPDATE brand_accounts
			SET balance = balance + $1, version = version + 1, updated_at = NOW()
			WHERE id = $2
		`, remainder, brandID)
		if err != nil {
			return nil, fmt.Errorf("failed to return reserve to brand: %w", err)
		}
	}

	err = tx.QueryRow(ctx, `
		UPDATE campaigns
		SET reserved = 0, settled_at = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2
		RETURNING version, updated_at
	`, now, campaignID).Scan(&c.Version, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to settle campaign: %w", err)
	}
	c.Reserved = decimal.Zero
	c.SettledAt = &now

	ev, err := s.events.Append(ctx, tx, "campaign", campaignID, "campaign.settled", map[string]string{
		"returned": remainder.String(),
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.events.Publish(ctx, ev)
	return c, nil
}

const campaignColumns = `id, brand_id, status, total_budget, reserved, base_payment,
	rate_likes, rate_views, rate_retweets, rate_comments, rate_link_clicks,
	app_start, app_end, campaign_start, campaign_end, max_participants,
	winners, settled_at, version, created_at, updated_at`

// Get retrieves a campaign by ID
func (s *Service) Get(ctx context.Context, id string) (*models.Campaign, error) {
	row := s.db.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	return scanCampaign(row)
}

// List returns campaigns, newest first, optionally filtered by brand
func (s *Service) List(ctx context.Context, brandID string, limit, offset int) ([]models.Campaign, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	args := []any{}
	if brandID != "" {
		query += ` WHERE brand_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, brandID, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}
	defer rows.Close()

	var out []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}

	return out, nil
}

// ListApplications returns the roster of a campaign, in application order
func (s *Service) ListApplications(ctx context.Context, campaignID string) ([]models.Application, error) {
	rows, err := s.db.Query(ctx, `
		SELECT campaign_id, creator_id, applied_at
		FROM applications
		WHERE campaign_id = $1
		ORDER BY applied_at ASC
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var out []models.Application
	for rows.Next() {
		var a models.Application
		if err := rows.Scan(&a.CampaignID, &a.CreatorID, &a.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applications: %w", err)
	}

	return out, nil
}

// HasApplication reports whether a creator applied to a campaign
func (s *Service) HasApplication(ctx context.Context, campaignID, creatorID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM applications WHERE campaign_id = $1 AND creator_id = $2)
	`, campaignID, creatorID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check application: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(&c.ID, &c.BrandID, &c.Status, &c.TotalBudget, &c.Reserved, &c.BasePayment,
		&c.Rates.Likes, &c.Rates.Views, &c.Rates.Retweets, &c.Rates.Comments, &c.Rates.LinkClicks,
		&c.AppStart, &c.AppEnd, &c.CampaignStart, &c.CampaignEnd, &c.MaxParticipants,
		&c.Winners, &c.SettledAt, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to scan campaign: %w", err)
	}
	return &c, nil
}

func getForUpdate(ctx context.Context, tx pgx.Tx, id string) (*models.Campaign, error) {
	row := tx.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 FOR UPDATE`, id)
	return scanCampaign(row)
}

func brandExists(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM brand_accounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check brand: %w", err)
	}
	return exists, nil
}

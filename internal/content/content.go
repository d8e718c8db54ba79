package content

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/AdedejiAdetola/swans-backend/internal/campaign"
	"github.com/AdedejiAdetola/swans-backend/internal/events"
	"github.com/AdedejiAdetola/swans-backend/internal/ledger"
	"github.com/AdedejiAdetola/swans-backend/internal/models"
	"github.com/AdedejiAdetola/swans-backend/internal/registry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service errors
var (
	ErrContentNotFound  = errors.New("content not found")
	ErrNoApplication    = errors.New("creator has not applied to this campaign")
	ErrSubmissionClosed = errors.New("campaign window is closed for submissions")
	ErrAlreadyReviewed  = errors.New("content has already been reviewed")
	ErrNotAccepted      = errors.New("content is not in accepted state")
	ErrNotPublished     = errors.New("content is not published")
	ErrAlreadyPaid      = errors.New("payment has already been made for this content")
	ErrNotAWinner       = errors.New("creator is not a selected winner")
	ErrNotOwner         = errors.New("caller does not own this resource")
)

const pgUniqueViolation = "23505"

// Service handles content submission, review, publication, and the payments
// those transitions trigger
type Service struct {
	db       *pgxpool.Pool
	events   *events.Recorder
	maxIDLen int
}

// NewService creates a new content service
func NewService(db *pgxpool.Pool, recorder *events.Recorder, maxIDLen int) *Service {
	return &Service{db: db, events: recorder, maxIDLen: maxIDLen}
}

// Submit records a creator's deliverable for review. The creator must be on
// the campaign roster and the campaign window must be open.
func (s *Service) Submit(ctx context.Context, campaignID, creatorID, contentID, contentRef string, now time.Time) (*models.ContentSubmission, error) {
	if err := registry.ValidateIdentifier(contentID, s.maxIDLen); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := getCampaignForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status == models.CampaignStatusCompleted {
		return nil, campaign.ErrCampaignCompleted
	}
	if !campaign.InCampaignWindow(c, now) {
		return nil, ErrSubmissionClosed
	}

	var applied bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM applications WHERE campaign_id = $1 AND creator_id = $2)
	`, campaignID, creatorID).Scan(&applied)
	if err != nil {
		return nil, fmt.Errorf("failed to check application: %w", err)
	}
	if !applied {
		return nil, ErrNoApplication
	}

	sub := &models.ContentSubmission{
		ID:         contentID,
		CampaignID: campaignID,
		CreatorID:  creatorID,
		ContentRef: contentRef,
		Status:     models.ContentStatusPending,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO content_submissions (campaign_id, id, creator_id, content_ref, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING version, created_at, updated_at
	`, sub.CampaignID, sub.ID, sub.CreatorID, sub.ContentRef, sub.Status).
		Scan(&sub.Version, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, registry.ErrDuplicateIdentifier
		}
		return nil, fmt.Errorf("failed to insert content: %w", err)
	}

	ev, err := s.events.Append(ctx, tx, "content", sub.ID, "content.submitted", sub)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.events.Publish(ctx, ev)
	return sub, nil
}

// Review accepts or rejects a pending submission. Only the owning brand may
// review, and each submission is reviewed at most once.
func (s *Service) Review(ctx context.Context, campaignID, contentID, brandID string, accept bool, note *string) (*models.ContentSubmission, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := getCampaignForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.BrandID != brandID {
		return nil, ErrNotOwner
	}

	sub, err := getForUpdate(ctx, tx, campaignID, contentID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.ContentStatusPending {
		return nil, ErrAlreadyReviewed
	}

	status := models.ContentStatusRejected
	action := "content.rejected"
	if accept {
		status = models.ContentStatusAccepted
		action = "content.accepted"
	}

	err = tx.QueryRow(ctx, `
		UPDATE content_submissions
		SET status = $1, review_note = $2, version = version + 1, updated_at = NOW()
		WHERE campaign_id = $3 AND id = $4
		RETURNING version, updated_at
	`, status, note, campaignID, contentID).Scan(&sub.Version, &sub.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to review content: %w", err)
	}
	sub.Status = status
	sub.ReviewNote = note

	ev, err := s.events.Append(ctx, tx, "content", contentID, action, sub)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.events.Publish(ctx, ev)
	return sub, nil
}

// PublishResult pairs the published submission with the base payment receipt
type PublishResult struct {
	Content *models.ContentSubmission `json:"content"`
	Receipt *models.PaymentReceipt    `json:"receipt"`
}

// Publish marks accepted content as live and pays the base payment in the
// same transaction. The base_paid flag makes the payment exactly-once: either
// the status flip, the flag, the reserve deduction, and the receipt all
// commit, or none do.
func (s *Service) Publish(ctx context.Context, campaignID, contentID, creatorID string) (*PublishResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := getCampaignForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status == models.CampaignStatusCompleted {
		return nil, campaign.ErrCampaignCompleted
	}

	sub, err := getForUpdate(ctx, tx, campaignID, contentID)
	if err != nil {
		return nil, err
	}
	if sub.CreatorID != creatorID {
		return nil, ErrNotOwner
	}
	if sub.Status != models.ContentStatusAccepted {
		return nil, ErrNotAccepted
	}
	if sub.BasePaid {
		return nil, ErrAlreadyPaid
	}

	receipt, err := ledger.Pay(ctx, tx, ledger.Payout{
		CampaignID: campaignID,
		ContentID:  contentID,
		PayerID:    c.BrandID,
		PayeeID:    creatorID,
		Amount:     c.BasePayment,
		Kind:       models.PaymentKindBase,
	})
	if err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx, `
		UPDATE content_submissions
		SET status = $1, base_paid = TRUE, version = version + 1, updated_at = NOW()
		WHERE campaign_id = $2 AND id = $3
		RETURNING version, updated_at
	`, models.ContentStatusPublished, campaignID, contentID).Scan(&sub.Version, &sub.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to publish content: %w", err)
	}
	sub.Status = models.ContentStatusPublished
	sub.BasePaid = true

	ev1, err := s.events.Append(ctx, tx, "content", contentID, "content.published", sub)
	if err != nil {
		return nil, err
	}
	ev2, err := s.events.Append(ctx, tx, "payment", receipt.ID.String(), "payment.base_paid", receipt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.events.Publish(ctx, ev1, ev2)
	return &PublishResult{Content: sub, Receipt: receipt}, nil
}

// UpdateMetrics overwrites the engagement counters of published content. The
// counters are a snapshot, not a delta; the brand reports the latest totals.
func (s *Service) UpdateMetrics(ctx context.Context, campaignID, contentID, brandID string, m models.EngagementMetrics) (*models.ContentSubmission, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := getCampaignForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.BrandID != brandID {
		return nil, ErrNotOwner
	}

	sub, err := getForUpdate(ctx, tx, campaignID, contentID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.ContentStatusPublished {
		return nil, ErrNotPublished
	}

	err = tx.QueryRow(ctx, `
		UPDATE content_submissions
		SET likes = $1, views = $2, retweets = $3, comments = $4, link_clicks = $5,
		    version = version + 1, updated_at = NOW()
		WHERE campaign_id = $6 AND id = $7
		RETURNING version, updated_at
	`, m.Likes, m.Views, m.Retweets, m.Comments, m.LinkClicks, campaignID, contentID).
		Scan(&sub.Version, &sub.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update metrics: %w", err)
	}
	sub.Metrics = m

	ev, err := s.events.Append(ctx, tx, "content", contentID, "content.metrics_updated", m)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.events.Publish(ctx, ev)
	return sub, nil
}

// BonusResult pairs the paid submission with the bonus receipt. Receipt is
// nil when the computed bonus was zero; the flag is still set so the bonus
// can never be paid twice.
type BonusResult struct {
	Content *models.ContentSubmission `json:"content"`
	Amount  string                    `json:"amount"`
	Receipt *models.PaymentReceipt    `json:"receipt,omitempty"`
}

// ProcessBonusPayment pays the engagement bonus for a winner's published
// content. Callable by the owning brand or by the content's creator once
// winners have been selected, so a winner never depends on the brand to
// trigger their own payout. Guarded exactly-once by the bonus_paid flag.
func (s *Service) ProcessBonusPayment(ctx context.Context, campaignID, contentID, callerID string) (*BonusResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := getCampaignForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status != models.CampaignStatusCompleted {
		return nil, campaign.ErrCampaignNotCompleted
	}

	sub, err := getForUpdate(ctx, tx, campaignID, contentID)
	if err != nil {
		return nil, err
	}
	if callerID != c.BrandID && callerID != sub.CreatorID {
		return nil, ErrNotOwner
	}
	if sub.Status != models.ContentStatusPublished {
		return nil, ErrNotPublished
	}
	if !slices.Contains(c.Winners, sub.CreatorID) {
		return nil, ErrNotAWinner
	}
	if sub.BonusPaid {
		return nil, ErrAlreadyPaid
	}

	amount := ledger.Bonus(sub.Metrics, c.Rates)

	var receipt *models.PaymentReceipt
	if amount.IsPositive() {
		receipt, err = ledger.Pay(ctx, tx, ledger.Payout{
			CampaignID: campaignID,
			ContentID:  contentID,
			PayerID:    c.BrandID,
			PayeeID:    sub.CreatorID,
			Amount:     amount,
			Kind:       models.PaymentKindBonus,
		})
		if err != nil {
			return nil, err
		}
	}

	err = tx.QueryRow(ctx, `
		UPDATE content_submissions
		SET bonus_paid = TRUE, version = version + 1, updated_at = NOW()
		WHERE campaign_id = $1 AND id = $2
		RETURNING version, updated_at
	`, campaignID, contentID).Scan(&sub.Version, &sub.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to mark bonus paid: %w", err)
	}
	sub.BonusPaid = true

	evs := make([]*models.Event, 0, 2)
	ev, err := s.events.Append(ctx, tx, "content", contentID, "content.bonus_processed", map[string]string{
		"amount": amount.String(),
	})
	if err != nil {
		return nil, err
	}
	evs = append(evs, ev)
	if receipt != nil {
		ev, err = s.events.Append(ctx, tx, "payment", receipt.ID.String(), "payment.bonus_paid", receipt)
		if err != nil {
			return nil, err
		}
		evs = append(evs, ev)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.events.Publish(ctx, evs...)
	return &BonusResult{Content: sub, Amount: amount.String(), Receipt: receipt}, nil
}

const contentColumns = `campaign_id, id, creator_id, content_ref, status, review_note,
	likes, views, retweets, comments, link_clicks, base_paid, bonus_paid,
	version, created_at, updated_at`

// Get retrieves a submission by campaign and content ID
func (s *Service) Get(ctx context.Context, campaignID, contentID string) (*models.ContentSubmission, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+contentColumns+` FROM content_submissions WHERE campaign_id = $1 AND id = $2
	`, campaignID, contentID)
	return scanContent(row)
}

// ListByCampaign returns all submissions for a campaign, oldest first
func (s *Service) ListByCampaign(ctx context.Context, campaignID string) ([]models.ContentSubmission, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+contentColumns+` FROM content_submissions
		WHERE campaign_id = $1
		ORDER BY created_at ASC
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query content: %w", err)
	}
	defer rows.Close()

	var out []models.ContentSubmission
	for rows.Next() {
		sub, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content: %w", err)
	}

	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (*models.ContentSubmission, error) {
	var sub models.ContentSubmission
	err := row.Scan(&sub.CampaignID, &sub.ID, &sub.CreatorID, &sub.ContentRef, &sub.Status, &sub.ReviewNote,
		&sub.Metrics.Likes, &sub.Metrics.Views, &sub.Metrics.Retweets, &sub.Metrics.Comments, &sub.Metrics.LinkClicks,
		&sub.BasePaid, &sub.BonusPaid, &sub.Version, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to scan content: %w", err)
	}
	return &sub, nil
}

func getForUpdate(ctx context.Context, tx pgx.Tx, campaignID, contentID string) (*models.ContentSubmission, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+contentColumns+` FROM content_submissions WHERE campaign_id = $1 AND id = $2 FOR UPDATE
	`, campaignID, contentID)
	return scanContent(row)
}

func getCampaignForUpdate(ctx context.Context, tx pgx.Tx, id string) (*models.Campaign, error) {
	var c models.Campaign
	err := tx.QueryRow(ctx, `
		SELECT id, brand_id, status, total_budget, reserved, base_payment,
		       rate_likes, rate_views, rate_retweets, rate_comments, rate_link_clicks,
		       app_start, app_end, campaign_start, campaign_end, max_participants,
		       winners, settled_at, version, created_at, updated_at
		FROM campaigns WHERE id = $1 FOR UPDATE
	`, id).Scan(&c.ID, &c.BrandID, &c.Status, &c.TotalBudget, &c.Reserved, &c.BasePayment,
		&c.Rates.Likes, &c.Rates.Views, &c.Rates.Retweets, &c.Rates.Comments, &c.Rates.LinkClicks,
		&c.AppStart, &c.AppEnd, &c.CampaignStart, &c.CampaignEnd, &c.MaxParticipants,
		&c.Winners, &c.SettledAt, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, campaign.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to lock campaign: %w", err)
	}
	return &c, nil
}

package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdedejiAdetola/swans-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Service errors
var (
	ErrInvalidAmount       = errors.New("payment amount must be positive")
	ErrInsufficientReserve = errors.New("insufficient reserved budget")
	ErrReceiptNotFound     = errors.New("receipt not found")
)

// engagementUnit is the metric count that earns one unit of the bonus rate.
// Counts below one full unit contribute nothing for that metric.
const engagementUnit = 100

// Bonus computes the engagement bonus for a submission: for each of the five
// metrics, floor(count/100) times the campaign's per-metric rate.
func Bonus(m models.EngagementMetrics, r models.BonusRates) decimal.Decimal {
	total := metricBonus(m.Likes, r.Likes)
	total = total.Add(metricBonus(m.Views, r.Views))
	total = total.Add(metricBonus(m.Retweets, r.Retweets))
	total = total.Add(metricBonus(m.Comments, r.Comments))
	total = total.Add(metricBonus(m.LinkClicks, r.LinkClicks))
	return total
}

func metricBonus(count int64, rate decimal.Decimal) decimal.Decimal {
	if count < engagementUnit {
		return decimal.Zero
	}
	return decimal.NewFromInt(count / engagementUnit).Mul(rate)
}

// Payout describes a single payment from a campaign's reserve to a creator
type Payout struct {
	CampaignID string
	ContentID  string
	PayerID    string
	PayeeID    string
	Amount     decimal.Decimal
	Kind       models.PaymentKind
}

// Pay executes a payout inside the caller's transaction: it deducts the
// amount from the campaign reserve, credits the creator's cumulative
// earnings, and emits an immutable receipt. The caller must already hold the
// campaign row lock. The reserve check is repeated here defensively so a
// payout can never overdraw the reservation.
func Pay(ctx context.Context, tx pgx.Tx, p Payout) (*models.PaymentReceipt, error) {
	if !p.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	tag, err := tx.Exec(ctx, `
		UPDATE campaigns
		SET reserved = reserved - $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND reserved >= $1
	`, p.Amount, p.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to deduct campaign reserve: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrInsufficientReserve
	}

	_, err = tx.Exec(ctx, `
		UPDATE creator_accounts
		SET total_earnings = total_earnings + $1, version = version + 1, updated_at = NOW()
		WHERE id = $2
	`, p.Amount, p.PayeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to credit creator earnings: %w", err)
	}

	receipt := &models.PaymentReceipt{
		ID:         uuid.New(),
		CampaignID: p.CampaignID,
		ContentID:  p.ContentID,
		PayerID:    p.PayerID,
		PayeeID:    p.PayeeID,
		Amount:     p.Amount,
		Kind:       p.Kind,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO payment_receipts (id, campaign_id, content_id, payer_id, payee_id, amount, kind)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, receipt.ID, receipt.CampaignID, receipt.ContentID, receipt.PayerID, receipt.PayeeID,
		receipt.Amount, receipt.Kind).Scan(&receipt.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment receipt: %w", err)
	}

	return receipt, nil
}

// Service provides read access to the receipt ledger
type Service struct {
	db *pgxpool.Pool
}

// NewService creates a new ledger query service
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// GetReceipt retrieves a single receipt by ID
func (s *Service) GetReceipt(ctx context.Context, id uuid.UUID) (*models.PaymentReceipt, error) {
	var r models.PaymentReceipt
	err := s.db.QueryRow(ctx, `
		SELECT id, campaign_id, content_id, payer_id, payee_id, amount, kind, created_at
		FROM payment_receipts WHERE id = $1
	`, id).Scan(&r.ID, &r.CampaignID, &r.ContentID, &r.PayerID, &r.PayeeID, &r.Amount, &r.Kind, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReceiptNotFound
		}
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return &r, nil
}

// ListByCampaign returns all receipts issued against a campaign, oldest first
func (s *Service) ListByCampaign(ctx context.Context, campaignID string) ([]models.PaymentReceipt, error) {
	return s.list(ctx, `
		SELECT id, campaign_id, content_id, payer_id, payee_id, amount, kind, created_at
		FROM payment_receipts
		WHERE campaign_id = $1
		ORDER BY created_at ASC
	`, campaignID)
}

// ListByCreator returns all receipts paid to a creator, newest first
func (s *Service) ListByCreator(ctx context.Context, creatorID string) ([]models.PaymentReceipt, error) {
	return s.list(ctx, `
		SELECT id, campaign_id, content_id, payer_id, payee_id, amount, kind, created_at
		FROM payment_receipts
		WHERE payee_id = $1
		ORDER BY created_at DESC
	`, creatorID)
}

func (s *Service) list(ctx context.Context, query string, arg any) ([]models.PaymentReceipt, error) {
	rows, err := s.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()

	var receipts []models.PaymentReceipt
	for rows.Next() {
		var r models.PaymentReceipt
		if err := rows.Scan(&r.ID, &r.CampaignID, &r.ContentID, &r.PayerID, &r.PayeeID, &r.Amount, &r.Kind, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating receipts: %w", err)
	}

	return receipts, nil
}

// TotalPaid returns the sum of all receipts issued against a campaign
func (s *Service) TotalPaid(ctx context.Context, campaignID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payment_receipts WHERE campaign_id = $1
	`, campaignID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum receipts: %w", err)
	}
	return total, nil
}

package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdedejiAdetola/swans-backend/internal/events"
	"github.com/AdedejiAdetola/swans-backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Service errors
var (
	ErrInvalidIdentifier   = errors.New("identifier is empty, too long, or contains invalid characters")
	ErrDuplicateIdentifier = errors.New("identifier already registered")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrDisplayNameRequired = errors.New("display name is required")
)

// DefaultMaxIdentifierLength bounds human-chosen identifiers
const DefaultMaxIdentifierLength = 64

const pgUniqueViolation = "23505"

// ValidateIdentifier checks a platform identifier: non-empty, within the
// length bound, lowercase alphanumeric plus '-' and '_'.
func ValidateIdentifier(id string, maxLen int) error {
	if maxLen <= 0 {
		maxLen = DefaultMaxIdentifierLength
	}
	if id == "" || len(id) > maxLen {
		return ErrInvalidIdentifier
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return ErrInvalidIdentifier
		}
	}
	return nil
}

// Service handles identity registration and brand account funding
type Service struct {
	db       *pgxpool.Pool
	events   *events.Recorder
	maxIDLen int
}

// NewService creates a new registry service
func NewService(db *pgxpool.Pool, recorder *events.Recorder, maxIDLen int) *Service {
	if maxIDLen <= 0 {
		maxIDLen = DefaultMaxIdentifierLength
	}
	return &Service{db: db, events: recorder, maxIDLen: maxIDLen}
}

// RegisterBrandRequest carries the inputs for brand registration
type RegisterBrandRequest struct {
	ID          string  `json:"id" binding:"required"`
	DisplayName string  `json:"display_name" binding:"required"`
	ImageURL    *string `json:"image_url"`
	Description *string `json:"description"`
}

// RegisterBrand creates a brand account and claims its identifier. The
// registry row and the account row commit atomically; a duplicate identifier
// aborts with no observable effect.
func (s *Service) RegisterBrand(ctx context.Context, req *RegisterBrandRequest) (*models.BrandAccount, error) {
	if err := ValidateIdentifier(req.ID, s.maxIDLen); err != nil {
		return nil, err
	}
	if req.DisplayName == "" {
		return nil, ErrDisplayNameRequired
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.claimIdentifier(ctx, tx, req.ID, models.RoleBrand); err != nil {
		return nil, err
	}

	brand := &models.BrandAccount{
		ID:          req.ID,
		DisplayName: req.DisplayName,
		ImageURL:    req.ImageURL,
		Description: req.Description,
		Balance:     decimal.Zero,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO brand_accounts (id, display_name, image_url, description)
		VALUES ($1, $2, $3, $4)
		RETURNING balance, reputation, version, created_at, updated_at
	`, brand.ID, brand.DisplayName, brand.ImageURL, brand.Description).
		Scan(&brand.Balance, &brand.Reputation, &brand.Version, &brand.CreatedAt, &brand.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create brand account: %w", err)
	}

	ev, err := s.events.Append(ctx, tx, "brand", brand.ID, "brand.registered", brand)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.events.Publish(ctx, ev)
	return brand, nil
}

// RegisterCreatorRequest carries the inputs for creator registration
type RegisterCreatorRequest struct {
	ID          string               `json:"id" binding:"required"`
	DisplayName string               `json:"display_name" binding:"required"`
	ImageURL    *string              `json:"image_url"`
	Category    string               `json:"category" binding:"required"`
	Handles     models.SocialHandles `json:"handles"`
}

// RegisterCreator creates a creator account and claims its identifier
func (s *Service) RegisterCreator(ctx context.Context, req *RegisterCreatorRequest) (*models.CreatorAccount, error) {
	if err := ValidateIdentifier(req.ID, s.maxIDLen); err != nil {
		return nil, err
	}
	if req.DisplayName == "" {
		return nil, ErrDisplayNameRequired
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.claimIdentifier(ctx, tx, req.ID, models.RoleCreator); err != nil {
		return nil, err
	}

	creator := &models.CreatorAccount{
		ID:            req.ID,
		DisplayName:   req.DisplayName,
		ImageURL:      req.ImageURL,
		Category:      req.Category,
		Handles:       req.Handles,
		TotalEarnings: decimal.Zero,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO creator_accounts (id, display_name, image_url, category, twitter_handle, instagram_handle, tiktok_handle)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING total_earnings, reputation, version, created_at, updated_at
	`, creator.ID, creator.DisplayName, creator.ImageURL, creator.Category,
		creator.Handles.Twitter, creator.Handles.Instagram, creator.Handles.TikTok).
		Scan(&creator.TotalEarnings, &creator.Reputation, &creator.Version, &creator.CreatedAt, &creator.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create creator account: %w", err)
	}

	ev, err := s.events.Append(ctx, tx, "creator", creator.ID, "creator.registered", creator)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.events.Publish(ctx, ev)
	return creator, nil
}

// claimIdentifier inserts the registry mapping, translating a unique
// violation into ErrDuplicateIdentifier
func (s *Service) claimIdentifier(ctx context.Context, tx pgx.Tx, id string, kind models.AccountRole) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO registry (id, kind) VALUES ($1, $2)
	`, id, kind)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateIdentifier
		}
		return fmt.Errorf("failed to claim identifier: %w", err)
	}
	return nil
}

// FundBrandAccount credits a brand's escrow balance. Funding is the only
// operation that increases the balance outside settlement return.
func (s *Service) FundBrandAccount(ctx context.Context, brandID string, amount decimal.Decimal) (*models.BrandAccount, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	brand, err := getBrandForUpdate(ctx, tx, brandID)
	if err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx, `
		UPDATE brand_accounts
		SET balance = balance + $1, version = version + 1, updated_at = NOW()
		WHERE id = $2
		RETURNING balance, version, updated_at
	`, amount, brandID).Scan(&brand.Balance, &brand.Version, &brand.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to credit brand balance: %w", err)
	}

	ev, err := s.events.Append(ctx, tx, "brand", brandID, "brand.funded", map[string]string{
		"amount":  amount.String(),
		"balance": brand.Balance.String(),
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.events.Publish(ctx, ev)
	return brand, nil
}

// GetBrand retrieves a brand account by ID
func (s *Service) GetBrand(ctx context.Context, id string) (*models.BrandAccount, error) {
	var b models.BrandAccount
	err := s.db.QueryRow(ctx, `
		SELECT id, display_name, image_url, description, balance, reputation, version, created_at, updated_at
		FROM brand_accounts WHERE id = $1
	`, id).Scan(&b.ID, &b.DisplayName, &b.ImageURL, &b.Description, &b.Balance, &b.Reputation,
		&b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get brand: %w", err)
	}
	return &b, nil
}

// GetCreator retrieves a creator account by ID
func (s *Service) GetCreator(ctx context.Context, id string) (*models.CreatorAccount, error) {
	var c models.CreatorAccount
	err := s.db.QueryRow(ctx, `
		SELECT id, display_name, image_url, category, twitter_handle, instagram_handle, tiktok_handle,
		       total_earnings, reputation, version, created_at, updated_at
		FROM creator_accounts WHERE id = $1
	`, id).Scan(&c.ID, &c.DisplayName, &c.ImageURL, &c.Category,
		&c.Handles.Twitter, &c.Handles.Instagram, &c.Handles.TikTok,
		&c.TotalEarnings, &c.Reputation, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get creator: %w", err)
	}
	return &c, nil
}

func getBrandForUpdate(ctx context.Context, tx pgx.Tx, brandID string) (*models.BrandAccount, error) {
	var b models.BrandAccount
	err := tx.QueryRow(ctx, `
		SELECT id, display_name, image_url, description, balance, reputation, version, created_at, updated_at
		FROM brand_accounts WHERE id = $1 FOR UPDATE
	`, brandID).Scan(&b.ID, &b.DisplayName, &b.ImageURL, &b.Description, &b.Balance, &b.Reputation,
		&b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock brand account: %w", err)
	}
	return &b, nil
}

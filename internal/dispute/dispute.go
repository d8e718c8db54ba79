package dispute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AdedejiAdetola/swans-backend/internal/events"
	"github.com/AdedejiAdetola/swans-backend/internal/models"
	"github.com/AdedejiAdetola/swans-backend/internal/registry"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service errors
var (
	ErrDisputeNotFound    = errors.New("dispute not found")
	ErrInvalidTransition  = errors.New("invalid dispute state transition")
	ErrDisputeClosed      = errors.New("dispute no longer accepts evidence")
	ErrNotAParty          = errors.New("caller is not a party to this dispute")
	ErrNotAssigned        = errors.New("caller is not the assigned resolver")
	ErrSelfDispute        = errors.New("initiator and respondent must differ")
	ErrDescriptionMissing = errors.New("dispute description is required")
	ErrResolutionMissing  = errors.New("resolution text is required")
)

const pgUniqueViolation = "23505"

// CanTransition reports whether a dispute may move between two states. The
// machine is forward-only: filed -> in_review -> resolved -> closed, with an
// early exit to closed from filed or in_review when the parties agree.
func CanTransition(from, to models.DisputeStatus) bool {
	switch from {
	case models.DisputeStatusFiled:
		return to == models.DisputeStatusInReview || to == models.DisputeStatusClosed
	case models.DisputeStatusInReview:
		return to == models.DisputeStatusResolved || to == models.DisputeStatusClosed
	case models.DisputeStatusResolved:
		return to == models.DisputeStatusClosed
	default:
		return false
	}
}

// Service handles dispute cases and their evidence trail
type Service struct {
	db       *pgxpool.Pool
	events   *events.Recorder
	maxIDLen int
}

// NewService creates a new dispute service
func NewService(db *pgxpool.Pool, recorder *events.Recorder, maxIDLen int) *Service {
	return &Service{db: db, events: recorder, maxIDLen: maxIDLen}
}

// FileRequest carries the inputs for filing a dispute
type FileRequest struct {
	ID              string             `json:"id" binding:"required"`
	RespondentID    string             `json:"respondent_id" binding:"required"`
	Type            models.DisputeType `json:"type" binding:"required"`
	CampaignID      string             `json:"campaign_id" binding:"required"`
	ContentID       *string            `json:"content_id"`
	Description     string             `json:"description" binding:"required"`
	InitialEvidence *string            `json:"initial_evidence"`
}

// File opens a dispute case between the caller and the respondent
func (s *Service) File(ctx context.Context, initiatorID string, initiatorRole models.AccountRole, req *FileRequest, now time.Time) (*models.DisputeCase, error) {
	if err := registry.ValidateIdentifier(req.ID, s.maxIDLen); err != nil {
		return nil, err
	}
	if req.Description == "" {
		return nil, ErrDescriptionMissing
	}
	if req.RespondentID == initiatorID {
		return nil, ErrSelfDispute
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	d := &models.DisputeCase{
		ID:            req.ID,
		InitiatorID:   initiatorID,
		InitiatorRole: initiatorRole,
		RespondentID:  req.RespondentID,
		Type:          req.Type,
		CampaignID:    req.CampaignID,
		ContentID:     req.ContentID,
		Description:   req.Description,
		Status:        models.DisputeStatusFiled,
		FiledAt:       now,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO disputes (id, initiator_id, initiator_role, respondent_id, dispute_type,
			campaign_id, content_id, description, status, filed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING version, updated_at
	`, d.ID, d.InitiatorID, d.InitiatorRole, d.RespondentID, d.Type,
		d.CampaignID, d.ContentID, d.Description, d.Status, d.FiledAt).
		Scan(&d.Version, &d.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, registry.ErrDuplicateIdentifier
		}
		return nil, fmt.Errorf("failed to file dispute: %w", err)
	}

	if req.InitialEvidence != nil && *req.InitialEvidence != "" {
		e := &models.DisputeEvidence{
			ID:          uuid.New(),
			DisputeID:   d.ID,
			Party:       models.EvidencePartyInitiator,
			SubmittedBy: initiatorID,
			EvidenceRef: *req.InitialEvidence,
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO dispute_evidence (id, dispute_id, party, submitted_by, evidence_ref)
			VALUES ($1, $2, $3, $4, $5)
		`, e.ID, e.DisputeID, e.Party, e.SubmittedBy, e.EvidenceRef)
		if err != nil {
			return nil, fmt.Errorf("failed to seed initial evidence: %w", err)
		}
	}

	ev, err := s.events.Append(ctx, tx, "dispute", d.ID, "dispute.filed", d)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.events.Publish(ctx, ev)
	return d, nil
}

// SubmitEvidence appends a party-attributed evidence reference. Either party
// may submit while the case is filed or in review; attribution follows from
// which party the caller is, never from the request body.
func (s *Service) SubmitEvidence(ctx context.Context, disputeID, callerID, evidenceRef string) (*models.DisputeEvidence, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	d, err := getForUpdate(ctx, tx, disputeID)
	if err != nil {
		return nil, err
	}

	if d.Status == models.DisputeStatusResolved || d.Status == models.DisputeStatusClosed {
		return nil, ErrDisputeClosed
	}

	var party models.EvidenceParty
	switch callerID {
	case d.InitiatorID:
		party = models.EvidencePartyInitiator
	case d.RespondentID:
		party = models.EvidencePartyRespondent
	default:
		return nil, ErrNotAParty
	}

	e := &models.DisputeEvidence{
		ID:          uuid.New(),
		DisputeID:   disputeID,
		Party:       party,
		SubmittedBy: callerID,
		EvidenceRef: evidenceRef,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO dispute_evidence (id, dispute_id, party, submitted_by, evidence_ref)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, e.ID, e.DisputeID, e.Party, e.SubmittedBy, e.EvidenceRef).Scan(&e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert evidence: %w", err)
	}

	ev, err := s.events.Append(ctx, tx, "dispute", disputeID, "dispute.evidence_submitted", e)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.events.Publish(ctx, ev)
	return e, nil
}

// AssignResolver moves a filed case into review under a named resolver.
// Admin operation.
func (s *Service) AssignResolver(ctx context.Context, disputeID, resolverID string) (*models.DisputeCase, error) {
	return s.transition(ctx, disputeID, models.DisputeStatusInReview, "dispute.resolver_assigned",
		func(d *models.DisputeCase) error {
			d.ResolverID = &resolverID
			return nil
		})
}

// Resolve records the resolver's decision on a case in review. Only the
// resolver assigned to the case may resolve it.
func (s *Service) Resolve(ctx context.Context, disputeID, resolverID, resolution string) (*models.DisputeCase, error) {
	if resolution == "" {
		return nil, ErrResolutionMissing
	}
	return s.transition(ctx, disputeID, models.DisputeStatusResolved, "dispute.resolved",
		func(d *models.DisputeCase) error {
			if d.ResolverID == nil || *d.ResolverID != resolverID {
				return ErrNotAssigned
			}
			d.Resolution = &resolution
			return nil
		})
}

// Close finalizes a case. Admin operation, callable at any stage before
// closed; a stale filed or in-review case does not need party cooperation.
func (s *Service) Close(ctx context.Context, disputeID string) (*models.DisputeCase, error) {
	return s.transition(ctx, disputeID, models.DisputeStatusClosed, "dispute.closed",
		func(d *models.DisputeCase) error { return nil })
}

// CloseByAgreement closes a filed or in-review case when a party withdraws
// it. Either party may call; a resolved case must go through Close.
func (s *Service) CloseByAgreement(ctx context.Context, disputeID, callerID string) (*models.DisputeCase, error) {
	return s.transition(ctx, disputeID, models.DisputeStatusClosed, "dispute.closed_by_agreement",
		func(d *models.DisputeCase) error {
			if callerID != d.InitiatorID && callerID != d.RespondentID {
				return ErrNotAParty
			}
			if d.Status == models.DisputeStatusResolved {
				return ErrInvalidTransition
			}
			return nil
		})
}

// transition applies a guarded state change. The check callback runs under
// the row lock and may also stage field updates on the case.
func (s *Service) transition(ctx context.Context, disputeID string, to models.DisputeStatus, action string, check func(*models.DisputeCase) error) (*models.DisputeCase, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	d, err := getForUpdate(ctx, tx, disputeID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(d.Status, to) {
		return nil, ErrInvalidTransition
	}
	if err := check(d); err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx, `
		UPDATE disputes
		SET status = $1, resolver_id = $2, resolution = $3, version = version + 1, updated_at = NOW()
		WHERE id = $4
		RETURNING version, updated_at
	`, to, d.ResolverID, d.Resolution, disputeID).Scan(&d.Version, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update dispute: %w", err)
	}
	d.Status = to

	ev, err := s.events.Append(ctx, tx, "dispute", disputeID, action, d)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.events.Publish(ctx, ev)
	return d, nil
}

const disputeColumns = `id, initiator_id, initiator_role, respondent_id, dispute_type,
	campaign_id, content_id, description, status, resolver_id, resolution,
	version, filed_at, updated_at`

// Get retrieves a dispute case by ID
func (s *Service) Get(ctx context.Context, id string) (*models.DisputeCase, error) {
	row := s.db.QueryRow(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id)
	return scanDispute(row)
}

// ListByCampaign returns all disputes raised against a campaign, newest first
func (s *Service) ListByCampaign(ctx context.Context, campaignID string) ([]models.DisputeCase, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+disputeColumns+` FROM disputes
		WHERE campaign_id = $1
		ORDER BY filed_at DESC
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query disputes: %w", err)
	}
	defer rows.Close()

	var out []models.DisputeCase
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating disputes: %w", err)
	}

	return out, nil
}

// ListEvidence returns the evidence trail of a case in submission order
func (s *Service) ListEvidence(ctx context.Context, disputeID string) ([]models.DisputeEvidence, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, dispute_id, party, submitted_by, evidence_ref, created_at
		FROM dispute_evidence
		WHERE dispute_id = $1
		ORDER BY created_at ASC
	`, disputeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query evidence: %w", err)
	}
	defer rows.Close()

	var out []models.DisputeEvidence
	for rows.Next() {
		var e models.DisputeEvidence
		if err := rows.Scan(&e.ID, &e.DisputeID, &e.Party, &e.SubmittedBy, &e.EvidenceRef, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evidence: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating evidence: %w", err)
	}

	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDispute(row rowScanner) (*models.DisputeCase, error) {
	var d models.DisputeCase
	err := row.Scan(&d.ID, &d.InitiatorID, &d.InitiatorRole, &d.RespondentID, &d.Type,
		&d.CampaignID, &d.ContentID, &d.Description, &d.Status, &d.ResolverID, &d.Resolution,
		&d.Version, &d.FiledAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to scan dispute: %w", err)
	}
	return &d, nil
}

func getForUpdate(ctx context.Context, tx pgx.Tx, id string) (*models.DisputeCase, error) {
	row := tx.QueryRow(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1 FOR UPDATE`, id)
	return scanDispute(row)
}

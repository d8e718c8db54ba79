package models

import (
	"time"

	"github.com/google/uuid"
)

// DisputeStatus represents the state of a dispute case
type DisputeStatus string

const (
	DisputeStatusFiled    DisputeStatus = "filed"
	DisputeStatusInReview DisputeStatus = "in_review"
	DisputeStatusResolved DisputeStatus = "resolved"
	DisputeStatusClosed   DisputeStatus = "closed"
)

// DisputeType categorizes what the case is about
type DisputeType string

const (
	DisputeTypePayment  DisputeType = "payment"
	DisputeTypeContent  DisputeType = "content"
	DisputeTypeContract DisputeType = "contract"
)

// EvidenceParty identifies which side of the case submitted a piece of evidence
type EvidenceParty string

const (
	EvidencePartyInitiator  EvidenceParty = "initiator"
	EvidencePartyRespondent EvidenceParty = "respondent"
)

// DisputeCase is an adversarial record between two parties over a campaign
// or content outcome
type DisputeCase struct {
	ID            string        `json:"id" db:"id"`
	InitiatorID   string        `json:"initiator_id" db:"initiator_id"`
	InitiatorRole AccountRole   `json:"initiator_role" db:"initiator_role"`
	RespondentID  string        `json:"respondent_id" db:"respondent_id"`
	Type          DisputeType   `json:"type" db:"dispute_type"`
	CampaignID    string        `json:"campaign_id" db:"campaign_id"`
	ContentID     *string       `json:"content_id,omitempty" db:"content_id"`
	Description   string        `json:"description" db:"description"`
	Status        DisputeStatus `json:"status" db:"status"`
	ResolverID    *string       `json:"resolver_id,omitempty" db:"resolver_id"`
	Resolution    *string       `json:"resolution,omitempty" db:"resolution"`
	Version       int64         `json:"version" db:"version"`
	FiledAt       time.Time     `json:"filed_at" db:"filed_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// DisputeEvidence is a party-attributed, append-only evidence reference
type DisputeEvidence struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	DisputeID   string        `json:"dispute_id" db:"dispute_id"`
	Party       EvidenceParty `json:"party" db:"party"`
	SubmittedBy string        `json:"submitted_by" db:"submitted_by"`
	EvidenceRef string        `json:"evidence_ref" db:"evidence_ref"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

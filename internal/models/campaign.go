package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignStatus is the stored campaign state. The open/active/review-closed
// phases are derived from the campaign windows against an injected timestamp;
// only completed is a stored, irreversible transition.
type CampaignStatus string

const (
	CampaignStatusOpen      CampaignStatus = "open"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// CampaignPhase is the time-derived lifecycle phase of a campaign
type CampaignPhase string

const (
	PhaseOpen         CampaignPhase = "open"
	PhaseActive       CampaignPhase = "active"
	PhaseReviewClosed CampaignPhase = "review_closed"
	PhaseCompleted    CampaignPhase = "completed"
)

// BonusRates holds the per-100-engagements payout rate for each metric
type BonusRates struct {
	Likes      decimal.Decimal `json:"likes" db:"rate_likes"`
	Views      decimal.Decimal `json:"views" db:"rate_views"`
	Retweets   decimal.Decimal `json:"retweets" db:"rate_retweets"`
	Comments   decimal.Decimal `json:"comments" db:"rate_comments"`
	LinkClicks decimal.Decimal `json:"link_clicks" db:"rate_link_clicks"`
}

// Campaign represents a brand's time-boxed offer
type Campaign struct {
	ID              string          `json:"id" db:"id"`
	BrandID         string          `json:"brand_id" db:"brand_id"`
	Status          CampaignStatus  `json:"status" db:"status"`
	TotalBudget     decimal.Decimal `json:"total_budget" db:"total_budget"`
	Reserved        decimal.Decimal `json:"reserved" db:"reserved"`
	BasePayment     decimal.Decimal `json:"base_payment" db:"base_payment"`
	Rates           BonusRates      `json:"bonus_rates"`
	AppStart        time.Time       `json:"application_start" db:"app_start"`
	AppEnd          time.Time       `json:"application_end" db:"app_end"`
	CampaignStart   time.Time       `json:"campaign_start" db:"campaign_start"`
	CampaignEnd     time.Time       `json:"campaign_end" db:"campaign_end"`
	MaxParticipants int             `json:"max_participants" db:"max_participants"`
	Winners         []string        `json:"winners,omitempty" db:"winners"`
	SettledAt       *time.Time      `json:"settled_at,omitempty" db:"settled_at"`
	Version         int64           `json:"version" db:"version"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Application records a creator's (auto-accepted) application to a campaign
type Application struct {
	CampaignID string    `json:"campaign_id" db:"campaign_id"`
	CreatorID  string    `json:"creator_id" db:"creator_id"`
	AppliedAt  time.Time `json:"applied_at" db:"applied_at"`
}

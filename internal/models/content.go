package models

import (
	"time"
)

// ContentStatus represents the review state of a content submission
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusPending   ContentStatus = "pending"
	ContentStatusRejected  ContentStatus = "rejected"
	ContentStatusAccepted  ContentStatus = "accepted"
	ContentStatusPublished ContentStatus = "published"
)

// EngagementMetrics holds the five engagement counters for a published submission
type EngagementMetrics struct {
	Likes      int64 `json:"likes" db:"likes"`
	Views      int64 `json:"views" db:"views"`
	Retweets   int64 `json:"retweets" db:"retweets"`
	Comments   int64 `json:"comments" db:"comments"`
	LinkClicks int64 `json:"link_clicks" db:"link_clicks"`
}

// ContentSubmission represents a creator's deliverable for a campaign
type ContentSubmission struct {
	ID         string            `json:"id" db:"id"`
	CampaignID string            `json:"campaign_id" db:"campaign_id"`
	CreatorID  string            `json:"creator_id" db:"creator_id"`
	ContentRef string            `json:"content_ref" db:"content_ref"`
	Status     ContentStatus     `json:"status" db:"status"`
	ReviewNote *string           `json:"review_note,omitempty" db:"review_note"`
	Metrics    EngagementMetrics `json:"metrics"`
	BasePaid   bool              `json:"base_paid" db:"base_paid"`
	BonusPaid  bool              `json:"bonus_paid" db:"bonus_paid"`
	Version    int64             `json:"version" db:"version"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at" db:"updated_at"`
}

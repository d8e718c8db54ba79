package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentKind distinguishes the fixed base payout from the engagement bonus
type PaymentKind string

const (
	PaymentKindBase  PaymentKind = "base"
	PaymentKindBonus PaymentKind = "bonus"
)

// PaymentReceipt is the immutable record of a single payout. Receipts are
// append-only; rows are never updated or deleted.
type PaymentReceipt struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	CampaignID string          `json:"campaign_id" db:"campaign_id"`
	ContentID  string          `json:"content_id" db:"content_id"`
	PayerID    string          `json:"payer_id" db:"payer_id"`
	PayeeID    string          `json:"payee_id" db:"payee_id"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Kind       PaymentKind     `json:"kind" db:"kind"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

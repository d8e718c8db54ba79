package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountRole distinguishes the two sides of the marketplace plus platform admins
type AccountRole string

const (
	RoleBrand   AccountRole = "brand"
	RoleCreator AccountRole = "creator"
	RoleAdmin   AccountRole = "admin"
)

// RegistryEntry maps a platform-wide unique identifier to the kind of entity it names
type RegistryEntry struct {
	ID        string      `json:"id" db:"id"`
	Kind      AccountRole `json:"kind" db:"kind"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// BrandAccount represents a brand's profile and escrow balance
type BrandAccount struct {
	ID          string          `json:"id" db:"id"`
	DisplayName string          `json:"display_name" db:"display_name"`
	ImageURL    *string         `json:"image_url,omitempty" db:"image_url"`
	Description *string         `json:"description,omitempty" db:"description"`
	Balance     decimal.Decimal `json:"balance" db:"balance"`
	Reputation  int             `json:"reputation" db:"reputation"`
	Version     int64           `json:"version" db:"version"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// SocialHandles holds a creator's linked social accounts. Handles are opaque
// strings; verification is out of scope.
type SocialHandles struct {
	Twitter   *string `json:"twitter,omitempty" db:"twitter_handle"`
	Instagram *string `json:"instagram,omitempty" db:"instagram_handle"`
	TikTok    *string `json:"tiktok,omitempty" db:"tiktok_handle"`
}

// CreatorAccount represents a creator's profile and cumulative earnings
type CreatorAccount struct {
	ID            string          `json:"id" db:"id"`
	DisplayName   string          `json:"display_name" db:"display_name"`
	ImageURL      *string         `json:"image_url,omitempty" db:"image_url"`
	Category      string          `json:"category" db:"category"`
	Handles       SocialHandles   `json:"handles"`
	TotalEarnings decimal.Decimal `json:"total_earnings" db:"total_earnings"`
	Reputation    int             `json:"reputation" db:"reputation"`
	Version       int64           `json:"version" db:"version"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is a durable, append-only audit record emitted alongside every
// successful mutation. External observers consume it via polling or the
// redis fan-out channel.
type Event struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Seq        int64           `json:"seq" db:"seq"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   string          `json:"entity_id" db:"entity_id"`
	Action     string          `json:"action" db:"action"`
	Payload    json.RawMessage `json:"payload,omitempty" db:"payload"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

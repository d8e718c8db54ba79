package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AdedejiAdetola/swans-backend/internal/cache"
	"github.com/AdedejiAdetola/swans-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Channel is the redis pub/sub channel committed events are fanned out on
const Channel = "swans.events"

// Recorder writes audit events inside operation transactions and fans them
// out to external observers after commit. The events table is append-only.
type Recorder struct {
	db    *pgxpool.Pool
	redis *cache.Redis
}

// NewRecorder creates a new event recorder. The redis client is optional;
// without it events are still durably recorded and available via polling.
func NewRecorder(db *pgxpool.Pool, redis *cache.Redis) *Recorder {
	return &Recorder{db: db, redis: redis}
}

// Append records an event inside the caller's transaction so the event
// commits or aborts atomically with the state mutation it describes.
func (r *Recorder) Append(ctx context.Context, tx pgx.Tx, entityType, entityID, action string, payload any) (*models.Event, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event payload: %w", err)
		}
	}

	ev := &models.Event{
		ID:         uuid.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Payload:    body,
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO events (id, entity_type, entity_id, action, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq, created_at
	`, ev.ID, ev.EntityType, ev.EntityID, ev.Action, ev.Payload).Scan(&ev.Seq, &ev.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append event: %w", err)
	}

	return ev, nil
}

// Publish fans committed events out over redis. Best effort: a publish
// failure is logged, never surfaced, since the durable record already exists.
func (r *Recorder) Publish(ctx context.Context, evs ...*models.Event) {
	if r.redis == nil {
		return
	}
	for _, ev := range evs {
		if ev == nil {
			continue
		}
		body, err := json.Marshal(ev)
		if err != nil {
			log.Warn().Err(err).Str("event_id", ev.ID.String()).Msg("Failed to marshal event for publish")
			continue
		}
		if err := r.redis.Client.Publish(ctx, Channel, body).Err(); err != nil {
			log.Warn().Err(err).Str("event_id", ev.ID.String()).Msg("Failed to publish event")
		}
	}
}

// List returns events with seq greater than afterSeq, oldest first,
// for polling observers.
func (r *Recorder) List(ctx context.Context, afterSeq int64, limit int) ([]models.Event, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, seq, entity_type, entity_id, action, payload, created_at
		FROM events
		WHERE seq > $1
		ORDER BY seq ASC
		LIMIT $2
	`, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var ev models.Event
		if err := rows.Scan(&ev.ID, &ev.Seq, &ev.EntityType, &ev.EntityID, &ev.Action, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return out, nil
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SaveUsageEvent appends ev. A missing id or timestamp is filled in.
func (s *Store) SaveUsageEvent(ctx context.Context, ev UsageEvent) error {
	if ev.OwnerID == "" || ev.Feature == "" {
		return errors.New("usage event needs an owner and a feature")
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	meta := string(ev.Metadata)
	if len(ev.Metadata) == 0 || meta == "null" {
		meta = "{}"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_events (id, owner_id, feature, occurred_at, metadata) VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.OwnerID, ev.Feature, ev.OccurredAt.UTC().Format(timeLayout), meta,
	)
	if err != nil {
		return fmt.Errorf("saving usage event: %w", unavailable(err))
	}
	return nil
}

// ListUsageEvents returns the most recent events of ownerID, newest first.
func (s *Store) ListUsageEvents(ctx context.Context, ownerID string, limit int) ([]UsageEvent, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, feature, occurred_at, metadata
		FROM usage_events WHERE owner_id = ? ORDER BY occurred_at DESC LIMIT ?`,
		ownerID, min(limit, maxListLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("listing usage events: %w", unavailable(err))
	}
	defer rows.Close()

	events := []UsageEvent{}
	for rows.Next() {
		var ev UsageEvent
		var occurredAt, meta string
		if err := rows.Scan(&ev.ID, &ev.OwnerID, &ev.Feature, &occurredAt, &meta); err != nil {
			return nil, err
		}
		t, err := time.Parse(timeLayout, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("parsing occurred_at: %w", err)
		}
		ev.OccurredAt = t
		ev.Metadata = json.RawMessage(meta)
		events = append(events, ev)
	}
	return events, rows.Err()
}

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bezata/aicity-backend-sub002/internal/event"
)

// SaveEvent inserts a generated event instance into the history table.
func (s *Store) SaveEvent(ctx context.Context, inst *event.Instance) error {
	impacts, err := json.Marshal(inst.Template.Impacts)
	if err != nil {
		return fmt.Errorf("marshal impacts: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO events (id, template_id, title, severity, priority, district_id, parent_id, depth, impacts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7,''), $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		inst.ID, inst.Template.ID, inst.Template.Title, inst.Template.Severity,
		string(inst.Template.Priority), inst.DistrictID, inst.ParentID,
		inst.Depth, impacts, inst.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save event %s: %w", inst.ID, err)
	}
	return nil
}

// EventRecord is a row from the event history.
type EventRecord struct {
	ID         string  `json:"id"`
	TemplateID string  `json:"template_id"`
	Title      string  `json:"title"`
	Severity   float64 `json:"severity"`
	DistrictID string  `json:"district_id"`
	Depth      int     `json:"depth"`
}

// RecentEvents returns the latest generated events.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]EventRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, template_id, title, severity, district_id, depth
		FROM events
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var r EventRecord
		if err := rows.Scan(&r.ID, &r.TemplateID, &r.Title, &r.Severity, &r.DistrictID, &r.Depth); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

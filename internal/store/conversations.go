package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bezata/aicity-backend-sub002/internal/conversation"
)

// SaveConversation upserts a conversation and its messages.
func (s *Store) SaveConversation(ctx context.Context, c *conversation.Conversation) error {
	participants, err := json.Marshal(c.Participants)
	if err != nil {
		return fmt.Errorf("marshal participants: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO conversations (id, participants, topic, location, activity, district_id, status, sentiment, started_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			sentiment = EXCLUDED.sentiment,
			updated_at = EXCLUDED.updated_at`,
		c.ID, participants, c.Topic, c.Location, c.Activity,
		c.DistrictID, string(c.Status), c.Sentiment, c.StartedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save conversation %s: %w", c.ID, err)
	}

	for _, m := range c.Messages {
		_, err = s.db.Exec(ctx, `
			INSERT INTO messages (id, conversation_id, sender_id, content, sentiment, sent_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING`,
			m.ID, c.ID, m.SenderID, m.Content, m.Sentiment, m.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("save message %s: %w", m.ID, err)
		}
	}
	return nil
}

// RecentConversations returns the most recently updated conversations,
// without message bodies.
func (s *Store) RecentConversations(ctx context.Context, limit int) ([]*conversation.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, participants, topic, location, activity, district_id, status, sentiment, started_at, updated_at
		FROM conversations
		ORDER BY updated_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []*conversation.Conversation
	for rows.Next() {
		var c conversation.Conversation
		var participants []byte
		var status string
		if err := rows.Scan(&c.ID, &participants, &c.Topic, &c.Location, &c.Activity,
			&c.DistrictID, &status, &c.Sentiment, &c.StartedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		if err := json.Unmarshal(participants, &c.Participants); err != nil {
			return nil, fmt.Errorf("unmarshal participants: %w", err)
		}
		c.Status = conversation.Status(status)
		out = append(out, &c)
	}
	return out, nil
}

package conversation

import (
	"errors"
	"time"

	"github.com/bezata/aicity-backend-sub002/internal/city"
)

// Status is a conversation's lifecycle state. The only transition is
// active → completed.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// ErrConversationNotFound is returned when a referenced conversation id
// is unknown.
var ErrConversationNotFound = errors.New("conversation not found")

// Message is a single append-only entry in a conversation.
type Message struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Sentiment float64   `json:"sentiment"` // 0-1
	Topics    []string  `json:"topics,omitempty"`
}

// Conversation is a bounded exchange among a fixed participant set.
// Participants never change after creation; messages are append-only
// with non-decreasing timestamps.
type Conversation struct {
	ID           string       `json:"id"`
	Participants []string     `json:"participants"`
	Messages     []Message    `json:"messages"`
	Topic        string       `json:"topic"`
	Location     string       `json:"location"`
	Activity     string       `json:"activity"`
	DistrictID   string       `json:"district_id"`
	Status       Status       `json:"status"`
	Sentiment    float64      `json:"sentiment"`
	Context      city.Context `json:"context"` // cultural snapshot at creation
	StartedAt    time.Time    `json:"started_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// sentimentWindow is how many trailing messages feed the running
// conversation sentiment.
const sentimentWindow = 3

// defaultSentiment is used when a conversation has no messages yet.
const defaultSentiment = 0.5

// recomputeSentiment sets the running sentiment to the arithmetic mean
// of the last sentimentWindow message sentiments.
func (c *Conversation) recomputeSentiment() {
	n := len(c.Messages)
	if n == 0 {
		c.Sentiment = defaultSentiment
		return
	}
	start := n - sentimentWindow
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, m := range c.Messages[start:] {
		sum += m.Sentiment
	}
	c.Sentiment = sum / float64(n-start)
}

// Clone returns a deep copy that stays stable while the original keeps
// accumulating turns.
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	out.Messages = append([]Message(nil), c.Messages...)
	out.Context.Traditions = append([]string(nil), c.Context.Traditions...)
	out.Context.ActiveEvents = append([]string(nil), c.Context.ActiveEvents...)
	return &out
}

// LastMessage returns the most recent message, or nil if none exist.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// NextSpeaker returns the participant due to speak: the one who did not
// send the last message. For three-party conversations this rotates
// through the participant list.
func (c *Conversation) NextSpeaker() string {
	last := c.LastMessage()
	if last == nil {
		return c.Participants[0]
	}
	for i, id := range c.Participants {
		if id == last.SenderID {
			return c.Participants[(i+1)%len(c.Participants)]
		}
	}
	return c.Participants[0]
}

// IdleFor returns how long the conversation has gone without a message
// as of now.
func (c *Conversation) IdleFor(now time.Time) time.Duration {
	return now.Sub(c.UpdatedAt)
}

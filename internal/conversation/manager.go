package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bezata/aicity-backend-sub002/internal/agent"
	"github.com/bezata/aicity-backend-sub002/internal/city"
	"github.com/bezata/aicity-backend-sub002/internal/notify"
	"github.com/bezata/aicity-backend-sub002/internal/sim"
	"github.com/bezata/aicity-backend-sub002/internal/social"
	"github.com/bezata/aicity-backend-sub002/internal/textgen"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAgentBusy is returned when a participant is already in an active
// conversation.
var ErrAgentBusy = errors.New("agent already in an active conversation")

// Idle thresholds for the aging pass.
const (
	continueAfter = 5 * time.Minute
	completeAfter = 30 * time.Minute
)

// Persister receives best-effort writes of completed conversations.
type Persister interface {
	SaveConversation(ctx context.Context, c *Conversation) error
}

// Manager owns every conversation and drives its lifecycle. All other
// components see conversations read-only.
type Manager struct {
	conversations map[string]*Conversation
	activeByAgent map[string]string // agentID -> active conversation id

	registry  *agent.Registry
	directory *city.Directory
	gen       textgen.Generator // optional
	graph     social.GraphStore // optional mirror
	persister Persister         // optional
	bus       *notify.Bus
	clock     sim.Clock
	rng       sim.Rand
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewManager creates a conversation manager. gen, graph and persister
// may be nil; the manager degrades to static templates and in-memory
// state.
func NewManager(
	registry *agent.Registry,
	directory *city.Directory,
	gen textgen.Generator,
	graph social.GraphStore,
	persister Persister,
	bus *notify.Bus,
	clock sim.Clock,
	rng sim.Rand,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		conversations: make(map[string]*Conversation),
		activeByAgent: make(map[string]string),
		registry:      registry,
		directory:     directory,
		gen:           gen,
		graph:         graph,
		persister:     persister,
		bus:           bus,
		clock:         clock,
		rng:           rng,
		logger:        logger,
	}
}

// Open creates a conversation for the given participant group and emits
// the opening message authored by the first participant.
func (m *Manager) Open(ctx context.Context, participants []*agent.Profile, activity, districtID string, cctx city.Context) (*Conversation, error) {
	if len(participants) < 2 {
		return nil, fmt.Errorf("open conversation: need at least 2 participants, got %d", len(participants))
	}

	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}

	now := m.clock.Now()
	locations := locationsFor(activity)
	conv := &Conversation{
		ID:           uuid.New().String(),
		Participants: ids,
		Topic:        deriveTopic(activity, cctx, m.rng.Intn),
		Location:     locations[m.rng.Intn(len(locations))],
		Activity:     activity,
		DistrictID:   districtID,
		Status:       StatusActive,
		Sentiment:    defaultSentiment,
		Context:      cctx,
		StartedAt:    now,
		UpdatedAt:    now,
	}

	m.mu.Lock()
	for _, id := range ids {
		if _, busy := m.activeByAgent[id]; busy {
			m.mu.Unlock()
			return nil, fmt.Errorf("open conversation: %w: %s", ErrAgentBusy, id)
		}
	}
	m.conversations[conv.ID] = conv
	for _, id := range ids {
		m.activeByAgent[id] = conv.ID
	}
	m.mu.Unlock()

	for _, id := range ids {
		if err := m.directory.RecordAgentVisit(districtID, id); err != nil {
			m.logger.Debug("visit record skipped", zap.Error(err))
		}
	}

	opener := participants[0]
	m.mu.RLock()
	payload := conv.Clone()
	prompt := promptFor(conv, opener)
	m.mu.RUnlock()

	m.bus.Publish(notify.Notification{
		Topic:   notify.TopicConversationStarted,
		Title:   fmt.Sprintf("Conversation at %s", conv.Location),
		Body:    conv.Topic,
		Payload: payload,
	})

	opening := fmt.Sprintf("Hi! I was just thinking about %s.", conv.Topic)
	if text, err := m.generate(ctx, prompt); err == nil && text != "" {
		opening = text
	}
	m.appendMessage(conv.ID, opener, personalize(opening, opener))

	m.logger.Info("conversation opened",
		zap.String("conversation", conv.ID),
		zap.Strings("participants", ids),
		zap.String("topic", conv.Topic),
		zap.String("location", conv.Location))
	return conv, nil
}

// Advance produces the next turn: the participant who did not send the
// last message replies with the best-scoring response. A text generator
// failure falls back to the selected template, so the turn always
// completes.
func (m *Manager) Advance(ctx context.Context, id string) error {
	m.mu.RLock()
	conv, ok := m.conversations[id]
	if !ok {
		m.mu.RUnlock()
		return ErrConversationNotFound
	}
	if conv.Status != StatusActive {
		m.mu.RUnlock()
		return fmt.Errorf("advance conversation %s: not active", id)
	}
	speakerID := conv.NextSpeaker()
	m.mu.RUnlock()

	speaker, err := m.registry.Get(speakerID)
	if err != nil {
		return fmt.Errorf("advance conversation %s: %w", id, err)
	}

	// Candidate selection and the prompt both read the message history,
	// which appendMessage mutates under the write lock.
	m.mu.RLock()
	cand := selectCandidate(conv, speaker)
	prompt := promptFor(conv, speaker)
	m.mu.RUnlock()

	text := cand.text
	if generated, genErr := m.generate(ctx, prompt); genErr == nil && generated != "" {
		text = generated
	} else if genErr != nil {
		m.logger.Warn("response generation failed, using template",
			zap.String("conversation", id),
			zap.String("kind", string(cand.kind)),
			zap.Error(genErr))
	}

	m.appendMessage(id, speaker, personalize(text, speaker))
	return nil
}

// Complete transitions a conversation to completed, records the
// interaction for every participant and schedules the final best-effort
// persistence write.
func (m *Manager) Complete(ctx context.Context, id string) error {
	m.mu.Lock()
	conv, ok := m.conversations[id]
	if !ok {
		m.mu.Unlock()
		return ErrConversationNotFound
	}
	if conv.Status == StatusCompleted {
		m.mu.Unlock()
		return nil
	}
	conv.Status = StatusCompleted
	for _, pid := range conv.Participants {
		delete(m.activeByAgent, pid)
	}
	m.mu.Unlock()

	now := m.clock.Now()
	for _, pid := range conv.Participants {
		for _, other := range conv.Participants {
			if other == pid {
				continue
			}
			_ = m.registry.RecordInteraction(pid, agent.Interaction{
				PartnerID: other,
				Sentiment: conv.Sentiment,
				Timestamp: now,
			})
			if m.graph != nil {
				if err := m.graph.RecordInteraction(ctx, pid, other, conv.Sentiment, conv.Topic); err != nil {
					m.logger.Debug("interaction mirror write failed", zap.Error(err))
				}
			}
		}
	}

	summary := fmt.Sprintf("%d residents discussed %s at %s", len(conv.Participants), conv.Topic, conv.Location)
	if err := m.directory.TrackConversation(conv.DistrictID, summary); err != nil {
		m.logger.Debug("district conversation tracking skipped", zap.Error(err))
	}

	m.bus.Publish(notify.Notification{
		Topic:   notify.TopicConversationEnded,
		Title:   summary,
		Body:    conv.Topic,
		Payload: conv.Clone(),
	})

	if m.persister != nil {
		go func() {
			pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := m.persister.SaveConversation(pctx, conv); err != nil {
				m.logger.Warn("conversation persistence failed",
					zap.String("conversation", conv.ID),
					zap.Error(err))
			}
		}()
	}

	m.logger.Info("conversation completed",
		zap.String("conversation", id),
		zap.Int("messages", len(conv.Messages)),
		zap.Float64("sentiment", conv.Sentiment))
	return nil
}

// Age walks active conversations: idle beyond completeAfter are
// completed, idle beyond continueAfter get one forced continuation.
// Returns (continued, completed) counts.
func (m *Manager) Age(ctx context.Context, now time.Time) (int, int) {
	m.mu.RLock()
	var stale, idle []string
	for id, c := range m.conversations {
		if c.Status != StatusActive {
			continue
		}
		switch d := c.IdleFor(now); {
		case d > completeAfter:
			stale = append(stale, id)
		case d > continueAfter:
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range idle {
		if err := m.Advance(ctx, id); err != nil {
			m.logger.Warn("forced continuation failed",
				zap.String("conversation", id), zap.Error(err))
		}
	}
	for _, id := range stale {
		if err := m.Complete(ctx, id); err != nil {
			m.logger.Warn("conversation completion failed",
				zap.String("conversation", id), zap.Error(err))
		}
	}
	return len(idle), len(stale)
}

// EvictCompleted removes completed conversations older than the cutoff
// from the in-memory index and returns how many were evicted.
func (m *Manager) EvictCompleted(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, c := range m.conversations {
		if c.Status == StatusCompleted && c.UpdatedAt.Before(cutoff) {
			delete(m.conversations, id)
			evicted++
		}
	}
	return evicted
}

// Get returns a copy of a conversation by id. Copies keep readers
// isolated from turns appended after the call.
func (m *Manager) Get(id string) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return c.Clone(), nil
}

// List returns copies of all tracked conversations.
func (m *Manager) List() []*Conversation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Conversation, 0, len(m.conversations))
	for _, c := range m.conversations {
		out = append(out, c.Clone())
	}
	return out
}

// IsActive reports whether the agent is currently in an active
// conversation.
func (m *Manager) IsActive(agentID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.activeByAgent[agentID]
	return ok
}

// ActiveCount returns the number of active conversations.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.conversations {
		if c.Status == StatusActive {
			n++
		}
	}
	return n
}

// generate asks the text generator for the speaker's next line. Returns
// an error when no generator is configured so callers fall back. The
// prompt is built by the caller under the lock; the (possibly slow)
// generator call happens outside it.
func (m *Manager) generate(ctx context.Context, prompt string) (string, error) {
	if m.gen == nil {
		return "", fmt.Errorf("no generator configured")
	}
	return m.gen.Generate(ctx, prompt)
}

// promptFor builds the generation prompt for the speaker's next line.
// The caller must hold m.mu.
func promptFor(conv *Conversation, speaker *agent.Profile) string {
	prompt := fmt.Sprintf(
		"%s is chatting about %s at the %s during %s. Write their next short line of dialogue.",
		speaker.Name, conv.Topic, conv.Location, conv.Activity)
	if last := conv.LastMessage(); last != nil {
		prompt += fmt.Sprintf(" The previous speaker said: %q", last.Content)
	}
	return prompt
}

// appendMessage appends a message, keeping timestamps non-decreasing,
// recomputes sentiment and publishes the message notification.
func (m *Manager) appendMessage(convID string, sender *agent.Profile, content string) {
	now := m.clock.Now()

	m.mu.Lock()
	conv, ok := m.conversations[convID]
	if !ok || conv.Status != StatusActive {
		m.mu.Unlock()
		return
	}
	if last := conv.LastMessage(); last != nil && now.Before(last.Timestamp) {
		now = last.Timestamp
	}
	msg := Message{
		ID:        uuid.New().String(),
		SenderID:  sender.ID,
		Content:   content,
		Timestamp: now,
		Sentiment: estimateSentiment(content, sender),
		Topics:    []string{conv.Topic},
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = now
	conv.recomputeSentiment()
	m.mu.Unlock()

	m.bus.Publish(notify.Notification{
		Topic:   notify.TopicMessageAdded,
		Title:   sender.Name,
		Body:    content,
		Payload: msg,
	})
}

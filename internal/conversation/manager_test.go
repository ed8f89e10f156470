package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bezata/aicity-backend-sub002/internal/agent"
	"github.com/bezata/aicity-backend-sub002/internal/city"
	"github.com/bezata/aicity-backend-sub002/internal/notify"
	"github.com/bezata/aicity-backend-sub002/internal/sim"
	"github.com/bezata/aicity-backend-sub002/internal/social"
)

// scriptedRand returns preset values in order, wrapping around.
type scriptedRand struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0
	}
	v := r.floats[r.fi%len(r.floats)]
	r.fi++
	return v
}

func (r *scriptedRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[r.ii%len(r.ints)]
	r.ii++
	return v % n
}

type fixture struct {
	registry  *agent.Registry
	directory *city.Directory
	clock     *sim.ManualClock
	manager   *Manager
	a, b      *agent.Profile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry := agent.NewRegistry(zap.NewNop())
	directory := city.NewDirectory(zap.NewNop())
	directory.Register(&city.District{ID: "downtown", Name: "Downtown", Type: city.DistrictCommercial})

	a := &agent.Profile{Name: "Ana", DistrictID: "downtown",
		Traits: agent.Traits{Extroversion: 0.5, Enthusiasm: 0.5}}
	b := &agent.Profile{Name: "Bo", DistrictID: "downtown",
		Traits: agent.Traits{Extroversion: 0.5, Enthusiasm: 0.5}}
	registry.Register(a)
	registry.Register(b)

	clock := sim.NewManualClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	manager := NewManager(registry, directory, nil, social.NewMemoryGraph(), nil,
		notify.NewBus(zap.NewNop()), clock, &scriptedRand{}, zap.NewNop())

	return &fixture{registry: registry, directory: directory, clock: clock, manager: manager, a: a, b: b}
}

func (f *fixture) open(t *testing.T, activity string) *Conversation {
	t.Helper()
	conv, err := f.manager.Open(context.Background(), []*agent.Profile{f.a, f.b}, activity, "downtown", city.Context{Mood: 0.6})
	if err != nil {
		t.Fatalf("open conversation: %v", err)
	}
	return conv
}

func TestOpenLunchBreakConversation(t *testing.T) {
	f := newFixture(t)
	conv := f.open(t, "lunch_break")

	lunchSpots := map[string]bool{"Restaurant": true, "Food Court": true, "Park": true}
	if !lunchSpots[conv.Location] {
		t.Errorf("location = %q, want a lunch_break location", conv.Location)
	}
	if conv.Status != StatusActive {
		t.Errorf("status = %s, want active", conv.Status)
	}
	if len(conv.Messages) != 1 {
		t.Fatalf("messages = %d, want opening message", len(conv.Messages))
	}
	if conv.Messages[0].SenderID != f.a.ID {
		t.Errorf("opener = %s, want first participant %s", conv.Messages[0].SenderID, f.a.ID)
	}
}

func TestOpenRejectsBusyAgent(t *testing.T) {
	f := newFixture(t)
	f.open(t, "lunch_break")

	c := &agent.Profile{Name: "Cleo", DistrictID: "downtown"}
	f.registry.Register(c)

	_, err := f.manager.Open(context.Background(), []*agent.Profile{f.a, c}, "lunch_break", "downtown", city.Context{})
	if !errors.Is(err, ErrAgentBusy) {
		t.Fatalf("err = %v, want ErrAgentBusy", err)
	}
	if f.manager.IsActive(c.ID) {
		t.Error("failed open must not mark new agent busy")
	}
}

func TestOpenNeedsTwoParticipants(t *testing.T) {
	f := newFixture(t)
	if _, err := f.manager.Open(context.Background(), []*agent.Profile{f.a}, "work", "downtown", city.Context{}); err == nil {
		t.Fatal("expected error for single participant")
	}
}

func TestAdvanceRotatesSpeakers(t *testing.T) {
	f := newFixture(t)
	conv := f.open(t, "lunch_break")

	if err := f.manager.Advance(context.Background(), conv.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := f.manager.Advance(context.Background(), conv.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}

	got, _ := f.manager.Get(conv.ID)
	if len(got.Messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(got.Messages))
	}
	if got.Messages[1].SenderID != f.b.ID {
		t.Errorf("second speaker = %s, want %s", got.Messages[1].SenderID, f.b.ID)
	}
	if got.Messages[2].SenderID != f.a.ID {
		t.Errorf("third speaker = %s, want %s", got.Messages[2].SenderID, f.a.ID)
	}
}

func TestExtrovertGetsExpressiveMarker(t *testing.T) {
	f := newFixture(t)
	f.b.Traits.Extroversion = 0.9
	conv := f.open(t, "lunch_break")

	if err := f.manager.Advance(context.Background(), conv.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}
	got, _ := f.manager.Get(conv.ID)
	last := got.LastMessage()
	if last.Content[len(last.Content)-1] != '!' {
		t.Errorf("message %q should end with expressive marker", last.Content)
	}
}

func TestConcurrentAdvance(t *testing.T) {
	f := newFixture(t)
	conv := f.open(t, "lunch_break")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				if err := f.manager.Advance(context.Background(), conv.ID); err != nil {
					t.Errorf("advance: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	got, _ := f.manager.Get(conv.ID)
	if len(got.Messages) != 41 {
		t.Fatalf("messages = %d, want opening plus 40 turns", len(got.Messages))
	}
	for i := 1; i < len(got.Messages); i++ {
		if got.Messages[i].Timestamp.Before(got.Messages[i-1].Timestamp) {
			t.Fatalf("message %d timestamp precedes its predecessor", i)
		}
	}
}

func TestGetReturnsStableCopy(t *testing.T) {
	f := newFixture(t)
	conv := f.open(t, "lunch_break")

	snap, err := f.manager.Get(conv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	before := len(snap.Messages)

	if err := f.manager.Advance(context.Background(), conv.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(snap.Messages) != before {
		t.Errorf("snapshot grew to %d messages, want %d", len(snap.Messages), before)
	}
	if got, _ := f.manager.Get(conv.ID); len(got.Messages) != before+1 {
		t.Errorf("fresh copy has %d messages, want %d", len(got.Messages), before+1)
	}
}

func TestAdvanceAfterCompleteRejected(t *testing.T) {
	f := newFixture(t)
	conv := f.open(t, "lunch_break")
	if err := f.manager.Complete(context.Background(), conv.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := f.manager.Advance(context.Background(), conv.ID); err == nil {
		t.Fatal("expected error advancing a completed conversation")
	}
	got, _ := f.manager.Get(conv.ID)
	if len(got.Messages) != 1 {
		t.Errorf("messages = %d, completed conversation must not grow", len(got.Messages))
	}
}

func TestCompleteRecordsInteractions(t *testing.T) {
	f := newFixture(t)
	conv := f.open(t, "lunch_break")

	if err := f.manager.Complete(context.Background(), conv.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, _ := f.manager.Get(conv.ID)
	if got.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	if f.manager.IsActive(f.a.ID) || f.manager.IsActive(f.b.ID) {
		t.Error("participants should be released on completion")
	}
	if len(f.a.Social.Interactions) != 1 || f.a.Social.Interactions[0].PartnerID != f.b.ID {
		t.Errorf("a's interactions = %v, want one with b", f.a.Social.Interactions)
	}
	if len(f.b.Social.Interactions) != 1 {
		t.Errorf("b's interactions = %v, want one", f.b.Social.Interactions)
	}

	district, _ := f.directory.Get("downtown")
	if len(district.Conversations) != 1 {
		t.Errorf("district summaries = %v, want one", district.Conversations)
	}

	// Completion is one-way and idempotent.
	if err := f.manager.Complete(context.Background(), conv.ID); err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if len(f.a.Social.Interactions) != 1 {
		t.Error("second complete must not duplicate interactions")
	}
}

func TestAgeContinuesAndCompletes(t *testing.T) {
	f := newFixture(t)
	conv := f.open(t, "lunch_break")

	// Idle past the continuation threshold: a forced turn is produced.
	now := f.clock.Advance(6 * time.Minute)
	continued, completed := f.manager.Age(context.Background(), now)
	if continued != 1 || completed != 0 {
		t.Fatalf("age = (%d,%d), want (1,0)", continued, completed)
	}
	got, _ := f.manager.Get(conv.ID)
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d, want forced continuation", len(got.Messages))
	}

	// Idle past the completion threshold: the conversation ends.
	now = f.clock.Advance(31 * time.Minute)
	_, completed = f.manager.Age(context.Background(), now)
	if completed != 1 {
		t.Fatalf("completed = %d, want 1", completed)
	}
	got, _ = f.manager.Get(conv.ID)
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
}

func TestEvictCompleted(t *testing.T) {
	f := newFixture(t)
	conv := f.open(t, "lunch_break")
	f.manager.Complete(context.Background(), conv.ID)

	cutoff := f.clock.Now().Add(time.Hour)
	if evicted := f.manager.EvictCompleted(cutoff); evicted != 1 {
		t.Fatalf("evicted = %d, want 1", evicted)
	}
	if _, err := f.manager.Get(conv.ID); err != ErrConversationNotFound {
		t.Errorf("err = %v, want ErrConversationNotFound", err)
	}
}

func TestSentimentWindow(t *testing.T) {
	f := newFixture(t)
	conv := f.open(t, "lunch_break")

	for i := 0; i < 4; i++ {
		if err := f.manager.Advance(context.Background(), conv.ID); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	got, _ := f.manager.Get(conv.ID)

	n := len(got.Messages)
	want := (got.Messages[n-1].Sentiment + got.Messages[n-2].Sentiment + got.Messages[n-3].Sentiment) / 3
	if diff := got.Sentiment - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("sentiment = %f, want mean of last 3 = %f", got.Sentiment, want)
	}
}

func TestTimestampsNonDecreasing(t *testing.T) {
	f := newFixture(t)
	conv := f.open(t, "lunch_break")
	f.manager.Advance(context.Background(), conv.ID)

	// Clock moving backwards must not produce out-of-order messages.
	f.clock.Set(f.clock.Now().Add(-time.Hour))
	f.manager.Advance(context.Background(), conv.ID)

	got, _ := f.manager.Get(conv.ID)
	for i := 1; i < len(got.Messages); i++ {
		if got.Messages[i].Timestamp.Before(got.Messages[i-1].Timestamp) {
			t.Fatalf("message %d timestamp precedes its predecessor", i)
		}
	}
}

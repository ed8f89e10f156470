package city

import (
	"fmt"
	"testing"

	"go.uber.org/zap"
)

func TestRegisterAssignsID(t *testing.T) {
	d := NewDirectory(zap.NewNop())
	dist := &District{Name: "Downtown", Type: DistrictCommercial}
	d.Register(dist)

	if dist.ID == "" {
		t.Fatal("expected id to be assigned")
	}
	got, err := d.Get(dist.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Downtown" {
		t.Errorf("name = %q, want Downtown", got.Name)
	}
}

func TestGetUnknownDistrict(t *testing.T) {
	d := NewDirectory(zap.NewNop())
	if _, err := d.Get("nope"); err != ErrDistrictNotFound {
		t.Fatalf("err = %v, want ErrDistrictNotFound", err)
	}
}

func TestRecordAgentVisit(t *testing.T) {
	d := NewDirectory(zap.NewNop())
	dist := &District{ID: "harbor", Type: DistrictIndustrial}
	d.Register(dist)

	for i := 0; i < 3; i++ {
		if err := d.RecordAgentVisit("harbor", "agent"); err != nil {
			t.Fatalf("record visit: %v", err)
		}
	}
	if dist.VisitCount != 3 {
		t.Errorf("visit count = %d, want 3", dist.VisitCount)
	}
	if err := d.RecordAgentVisit("missing", "agent"); err != ErrDistrictNotFound {
		t.Errorf("err = %v, want ErrDistrictNotFound", err)
	}
}

func TestTrackConversationBounded(t *testing.T) {
	d := NewDirectory(zap.NewNop())
	dist := &District{ID: "old-town", Type: DistrictCultural}
	d.Register(dist)

	for i := 0; i < maxDistrictConversations+5; i++ {
		if err := d.TrackConversation("old-town", fmt.Sprintf("summary %d", i)); err != nil {
			t.Fatalf("track: %v", err)
		}
	}
	if n := len(dist.Conversations); n != maxDistrictConversations {
		t.Fatalf("summaries = %d, want %d", n, maxDistrictConversations)
	}
	if dist.Conversations[0] != "summary 5" {
		t.Errorf("oldest summary = %q, want summary 5", dist.Conversations[0])
	}
}

func TestCultureSnapshotIsCopy(t *testing.T) {
	c := NewCulture()
	c.SetTraditions([]string{"harvest week"})

	snap := c.Snapshot()
	snap.Traditions[0] = "mutated"

	if got := c.Snapshot().Traditions[0]; got != "harvest week" {
		t.Errorf("tradition = %q, snapshot mutation leaked", got)
	}
}

func TestSetMoodClamped(t *testing.T) {
	c := NewCulture()
	c.SetMood(1.7)
	if got := c.Snapshot().Mood; got != 1 {
		t.Errorf("mood = %f, want clamped to 1", got)
	}
	c.SetMood(-0.3)
	if got := c.Snapshot().Mood; got != 0 {
		t.Errorf("mood = %f, want clamped to 0", got)
	}
}

package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bezata/aicity-backend-sub002/internal/city"
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

func TestTimeOfDayFor(t *testing.T) {
	cases := []struct {
		hour int
		want TimeOfDay
	}{
		{5, Morning}, {11, Morning},
		{12, Afternoon}, {16, Afternoon},
		{17, Evening}, {21, Evening},
		{22, Night}, {4, Night}, {0, Night},
	}
	for _, c := range cases {
		if got := TimeOfDayFor(c.hour); got != c.want {
			t.Errorf("TimeOfDayFor(%d) = %s, want %s", c.hour, got, c.want)
		}
	}
}

func TestSelectFiltersByTimeOfDay(t *testing.T) {
	catalog := []Template{
		{ID: "m", PreferredTime: Morning},
		{ID: "e", PreferredTime: Evening},
	}
	s := NewSelector(catalog, &scriptedRand{ints: []int{0}})

	morning := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	if got := s.Select(morning); got.ID != "m" {
		t.Errorf("selected %s at 08:00, want m", got.ID)
	}

	evening := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	if got := s.Select(evening); got.ID != "e" {
		t.Errorf("selected %s at 19:00, want e", got.ID)
	}
}

func TestSelectFallsBackToFullCatalog(t *testing.T) {
	catalog := []Template{
		{ID: "m", PreferredTime: Morning},
		{ID: "e", PreferredTime: Evening},
	}
	s := NewSelector(catalog, &scriptedRand{ints: []int{1}})

	night := time.Date(2026, 3, 14, 2, 0, 0, 0, time.UTC)
	if got := s.Select(night); got.ID != "e" {
		t.Errorf("selected %s at night, want full-catalog pick e", got.ID)
	}
}

func TestTargetEmptyDirectory(t *testing.T) {
	directory := city.NewDirectory(zap.NewNop())
	targeter := NewTargeter(directory, nil, &scriptedRand{}, zap.NewNop())

	_, err := targeter.Target(context.Background(), Template{ID: "x"})
	if !errors.Is(err, city.ErrNoDistricts) {
		t.Fatalf("err = %v, want ErrNoDistricts", err)
	}
}

func TestTargetPrefersEligibleDistrictTypes(t *testing.T) {
	directory := city.NewDirectory(zap.NewNop())
	directory.Register(&city.District{ID: "res", Type: city.DistrictResidential})
	directory.Register(&city.District{ID: "com", Type: city.DistrictCommercial})

	targeter := NewTargeter(directory, nil, &scriptedRand{ints: []int{0}}, zap.NewNop())
	tmpl := Template{ID: "x", DistrictTypes: []city.DistrictType{city.DistrictCommercial}}

	for i := 0; i < 5; i++ {
		d, err := targeter.Target(context.Background(), tmpl)
		if err != nil {
			t.Fatalf("target: %v", err)
		}
		if d.ID != "com" {
			t.Fatalf("targeted %s, want commercial district", d.ID)
		}
	}
}

// failFinder always errors, forcing the random fallback.
type failFinder struct{}

func (failFinder) Find(context.Context, string) (string, error) {
	return "", errors.New("vector store down")
}

// fixedFinder resolves every description to one district.
type fixedFinder struct{ id string }

func (f fixedFinder) Find(context.Context, string) (string, error) { return f.id, nil }

func TestTargetFinderFallback(t *testing.T) {
	directory := city.NewDirectory(zap.NewNop())
	directory.Register(&city.District{ID: "only", Type: city.DistrictMixed})

	targeter := NewTargeter(directory, failFinder{}, &scriptedRand{ints: []int{0}}, zap.NewNop())
	d, err := targeter.Target(context.Background(), Template{ID: "x"})
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	if d.ID != "only" {
		t.Errorf("targeted %s, want only", d.ID)
	}
}

func TestTargetUsesFinderMatch(t *testing.T) {
	directory := city.NewDirectory(zap.NewNop())
	directory.Register(&city.District{ID: "a", Type: city.DistrictMixed})
	directory.Register(&city.District{ID: "b", Type: city.DistrictMixed})

	targeter := NewTargeter(directory, fixedFinder{id: "b"}, &scriptedRand{ints: []int{0}}, zap.NewNop())
	d, err := targeter.Target(context.Background(), Template{ID: "x"})
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	if d.ID != "b" {
		t.Errorf("targeted %s, want finder match b", d.ID)
	}
}

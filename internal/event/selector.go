package event

import (
	"context"
	"time"

	"github.com/bezata/aicity-backend-sub002/internal/city"
	"github.com/bezata/aicity-backend-sub002/internal/sim"
	"go.uber.org/zap"
)

// Selector chooses one template per invocation from the static catalog.
type Selector struct {
	catalog []Template
	rng     sim.Rand
}

// NewSelector creates a selector over the given catalog.
func NewSelector(catalog []Template, rng sim.Rand) *Selector {
	return &Selector{catalog: catalog, rng: rng}
}

// Select filters the catalog by preferred time-of-day for the given
// simulated time and picks uniformly from the filtered set, or from the
// full catalog when nothing matches. It always yields a template.
func (s *Selector) Select(now time.Time) Template {
	tod := TimeOfDayFor(now.Hour())

	var matching []Template
	for _, t := range s.catalog {
		if t.PreferredTime == tod {
			matching = append(matching, t)
		}
	}
	if len(matching) > 0 {
		return matching[s.rng.Intn(len(matching))]
	}
	return s.catalog[s.rng.Intn(len(s.catalog))]
}

// DistrictFinder resolves an event description to a district id via
// nearest-neighbor lookup. A miss returns an empty id with nil error.
type DistrictFinder interface {
	Find(ctx context.Context, description string) (string, error)
}

// Targeter binds selected templates to concrete districts. Lookup
// failures and misses fall back to uniform-random selection; the only
// error it ever returns is city.ErrNoDistricts.
type Targeter struct {
	directory *city.Directory
	finder    DistrictFinder // optional
	rng       sim.Rand
	logger    *zap.Logger
}

// NewTargeter creates a targeter. finder may be nil, in which case
// targeting is always uniform random.
func NewTargeter(directory *city.Directory, finder DistrictFinder, rng sim.Rand, logger *zap.Logger) *Targeter {
	return &Targeter{directory: directory, finder: finder, rng: rng, logger: logger}
}

// Target picks the affected district for a template. It never fails
// while at least one district is registered.
func (t *Targeter) Target(ctx context.Context, tmpl Template) (*city.District, error) {
	all := t.directory.All()
	if len(all) == 0 {
		return nil, city.ErrNoDistricts
	}

	if t.finder != nil {
		id, err := t.finder.Find(ctx, tmpl.Description)
		if err != nil {
			t.logger.Warn("district lookup failed, falling back to random",
				zap.String("template", tmpl.ID),
				zap.Error(err))
		} else if id != "" {
			if dist, derr := t.directory.Get(id); derr == nil {
				return dist, nil
			}
		}
	}

	// Prefer eligible district types when the template names any.
	pool := all
	if len(tmpl.DistrictTypes) > 0 {
		var eligible []*city.District
		for _, d := range all {
			for _, dt := range tmpl.DistrictTypes {
				if d.Type == dt {
					eligible = append(eligible, d)
					break
				}
			}
		}
		if len(eligible) > 0 {
			pool = eligible
		}
	}
	return pool[t.rng.Intn(len(pool))], nil
}

package city

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DistrictType categorizes a city district.
type DistrictType string

const (
	DistrictResidential DistrictType = "residential"
	DistrictCommercial  DistrictType = "commercial"
	DistrictIndustrial  DistrictType = "industrial"
	DistrictCultural    DistrictType = "cultural"
	DistrictMixed       DistrictType = "mixed"
)

// District is a named area of the city that events and conversations
// are targeted at.
type District struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Type          DistrictType `json:"type"`
	Description   string       `json:"description"`
	Population    int          `json:"population"`
	VisitCount    int          `json:"visit_count"`
	Conversations []string     `json:"conversations,omitempty"` // recent summaries
	CreatedAt     time.Time    `json:"created_at"`
}

// Structural errors raised to callers of the directory.
var (
	ErrDistrictNotFound = errors.New("district not found")
	ErrNoDistricts      = errors.New("no districts available")
)

// maxDistrictConversations bounds the per-district summary list.
const maxDistrictConversations = 20

// Directory holds all registered districts. It must be consulted before
// targeting any event or conversation at a district.
type Directory struct {
	districts map[string]*District
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewDirectory creates an empty district directory.
func NewDirectory(logger *zap.Logger) *Directory {
	return &Directory{
		districts: make(map[string]*District),
		logger:    logger,
	}
}

// Register adds a district, assigning an id if missing.
func (d *Directory) Register(dist *District) {
	if dist.ID == "" {
		dist.ID = uuid.New().String()
	}
	if dist.CreatedAt.IsZero() {
		dist.CreatedAt = time.Now()
	}

	d.mu.Lock()
	d.districts[dist.ID] = dist
	d.mu.Unlock()

	d.logger.Info("district registered",
		zap.String("district", dist.ID),
		zap.String("name", dist.Name),
		zap.String("type", string(dist.Type)))
}

// Get returns a district by id.
func (d *Directory) Get(id string) (*District, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	dist, ok := d.districts[id]
	if !ok {
		return nil, ErrDistrictNotFound
	}
	return dist, nil
}

// All returns every registered district.
func (d *Directory) All() []*District {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*District, 0, len(d.districts))
	for _, dist := range d.districts {
		out = append(out, dist)
	}
	return out
}

// RecordAgentVisit bumps the visit counter for a district.
func (d *Directory) RecordAgentVisit(districtID, agentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	dist, ok := d.districts[districtID]
	if !ok {
		return ErrDistrictNotFound
	}
	dist.VisitCount++
	d.logger.Debug("agent visit recorded",
		zap.String("district", districtID),
		zap.String("agent", agentID))
	return nil
}

// TrackConversation appends a conversation summary to a district's
// bounded recent list.
func (d *Directory) TrackConversation(districtID, summary string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	dist, ok := d.districts[districtID]
	if !ok {
		return ErrDistrictNotFound
	}
	dist.Conversations = append(dist.Conversations, summary)
	if n := len(dist.Conversations); n > maxDistrictConversations {
		dist.Conversations = dist.Conversations[n-maxDistrictConversations:]
	}
	return nil
}

package city

import (
	"context"
	"fmt"

	"github.com/bezata/aicity-backend-sub002/internal/embedding"
	"github.com/bezata/aicity-backend-sub002/internal/vectorstore"
	"go.uber.org/zap"
)

// DistrictIndex maintains district description vectors in Qdrant and
// resolves free-text descriptions to the nearest district.
type DistrictIndex struct {
	embedder embedding.Provider
	store    *vectorstore.Client
	logger   *zap.Logger
}

// NewDistrictIndex creates the index and ensures the backing collection
// exists.
func NewDistrictIndex(ctx context.Context, embedder embedding.Provider, store *vectorstore.Client, logger *zap.Logger) (*DistrictIndex, error) {
	if err := store.EnsureCollection(ctx, uint64(embedder.Dimension())); err != nil {
		return nil, fmt.Errorf("ensure district collection: %w", err)
	}
	return &DistrictIndex{embedder: embedder, store: store, logger: logger}, nil
}

// Index embeds a district's description and upserts it.
func (i *DistrictIndex) Index(ctx context.Context, d *District) error {
	text := d.Name + ": " + d.Description
	vectors, err := i.embedder.Embed(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embed district %s: %w", d.ID, err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("embed district %s: empty result", d.ID)
	}
	if err := i.store.UpsertDistrict(ctx, d.ID, d.Name, vectors[0]); err != nil {
		return err
	}
	i.logger.Debug("district indexed", zap.String("district", d.ID))
	return nil
}

// Find returns the id of the district nearest to the description, or an
// empty id when nothing matches. Zero matches is not an error.
func (i *DistrictIndex) Find(ctx context.Context, description string) (string, error) {
	vectors, err := i.embedder.Embed(ctx, []string{description})
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return "", nil
	}
	matches, err := i.store.SearchDistricts(ctx, vectors[0], 1)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0].DistrictID, nil
}

// Close releases the underlying vector store connection.
func (i *DistrictIndex) Close() error {
	return i.store.Close()
}

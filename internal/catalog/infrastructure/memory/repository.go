package memory

import (
	"context"
	"sort"
	"sync"

	catalog "farmpulse/internal/catalog/domain"
)

// CropRepository is an in-memory crop catalog.
type CropRepository struct {
	mu    sync.RWMutex
	crops map[string]catalog.Crop
}

// NewCropRepository constructs an empty repository.
func NewCropRepository() *CropRepository {
	return &CropRepository{crops: make(map[string]catalog.Crop)}
}

// Put validates and stores a crop.
func (r *CropRepository) Put(crop catalog.Crop) error {
	if err := crop.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.crops[crop.ID] = crop
	r.mu.Unlock()
	return nil
}

// Get fetches a crop by id.
func (r *CropRepository) Get(ctx context.Context, id string) (*catalog.Crop, error) {
	_ = ctx
	r.mu.RLock()
	crop, ok := r.crops[id]
	r.mu.RUnlock()
	if !ok {
		return nil, catalog.ErrNotFound
	}
	copy := crop
	return &copy, nil
}

// List returns all crops sorted by name.
func (r *CropRepository) List(ctx context.Context) ([]catalog.Crop, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]catalog.Crop, 0, len(r.crops))
	for _, crop := range r.crops {
		out = append(out, crop)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

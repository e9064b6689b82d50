package memory

import (
	"context"
	"sort"
	"sync"

	cropstage "farmpulse/internal/cropstage/domain"
)

// ZoneCropRepository is an in-memory zone crop store.
type ZoneCropRepository struct {
	mu   sync.RWMutex
	data map[string]cropstage.ZoneCrop
}

// NewZoneCropRepository constructs an empty repository.
func NewZoneCropRepository() *ZoneCropRepository {
	return &ZoneCropRepository{data: make(map[string]cropstage.ZoneCrop)}
}

// Get fetches a zone crop by id.
func (r *ZoneCropRepository) Get(ctx context.Context, id string) (*cropstage.ZoneCrop, error) {
	_ = ctx
	r.mu.RLock()
	zc, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, cropstage.ErrNotFound
	}
	copy := zc
	return &copy, nil
}

// ActiveByZone returns the zone's active crop.
func (r *ZoneCropRepository) ActiveByZone(ctx context.Context, zoneID string) (*cropstage.ZoneCrop, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, zc := range r.data {
		if zc.ZoneID == zoneID && zc.IsActive {
			copy := zc
			return &copy, nil
		}
	}
	return nil, cropstage.ErrNotFound
}

// ListByZone returns the zone's crop history, newest planting first.
func (r *ZoneCropRepository) ListByZone(ctx context.Context, zoneID string) ([]cropstage.ZoneCrop, error) {
	_ = ctx
	r.mu.RLock()
	var out []cropstage.ZoneCrop
	for _, zc := range r.data {
		if zc.ZoneID == zoneID {
			out = append(out, zc)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].PlantedAt.After(out[j].PlantedAt) })
	return out, nil
}

// Save upserts a zone crop.
func (r *ZoneCropRepository) Save(ctx context.Context, zc *cropstage.ZoneCrop) error {
	_ = ctx
	if zc == nil {
		return cropstage.ErrNotFound
	}
	if err := zc.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.data[zc.ID] = *zc
	r.mu.Unlock()
	return nil
}

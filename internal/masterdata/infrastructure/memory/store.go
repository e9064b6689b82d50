package memory

import (
	"context"
	"sync"

	masterdata "farmpulse/internal/masterdata/domain"
)

// Store is an in-memory masterdata snapshot. It implements the zone,
// equipment and reading type repositories for local mode and tests.
type Store struct {
	mu           sync.RWMutex
	zones        map[string]masterdata.Zone
	equipment    map[string]masterdata.Equipment
	readingTypes map[string]masterdata.ReadingType
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		zones:        make(map[string]masterdata.Zone),
		equipment:    make(map[string]masterdata.Equipment),
		readingTypes: make(map[string]masterdata.ReadingType),
	}
}

// PutZone adds or replaces a zone.
func (s *Store) PutZone(zone masterdata.Zone) error {
	if err := zone.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.zones[zone.ID] = zone
	s.mu.Unlock()
	return nil
}

// PutEquipment adds or replaces an equipment unit.
func (s *Store) PutEquipment(unit masterdata.Equipment) error {
	if err := unit.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.equipment[unit.ID] = unit
	s.mu.Unlock()
	return nil
}

// PutReadingType adds or replaces a reading type.
func (s *Store) PutReadingType(rt masterdata.ReadingType) error {
	if err := rt.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.readingTypes[rt.Code] = rt
	s.mu.Unlock()
	return nil
}

// Get fetches a zone by id.
func (s *Store) Get(ctx context.Context, id string) (*masterdata.Zone, error) {
	_ = ctx
	s.mu.RLock()
	zone, ok := s.zones[id]
	s.mu.RUnlock()
	if !ok {
		return nil, masterdata.ErrNotFound
	}
	copy := zone
	return &copy, nil
}

// ListByFarm lists zones belonging to a farm.
func (s *Store) ListByFarm(ctx context.Context, farmID string) ([]masterdata.Zone, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []masterdata.Zone
	for _, zone := range s.zones {
		if zone.FarmID == farmID {
			out = append(out, zone)
		}
	}
	return out, nil
}

// Equipment returns the equipment repository view of the store.
func (s *Store) Equipment() masterdata.EquipmentRepository {
	return equipmentView{store: s}
}

// ReadingTypes returns the reading type repository view of the store.
func (s *Store) ReadingTypes() masterdata.ReadingTypeRepository {
	return readingTypeView{store: s}
}

type equipmentView struct {
	store *Store
}

func (v equipmentView) Get(ctx context.Context, id string) (*masterdata.Equipment, error) {
	_ = ctx
	v.store.mu.RLock()
	unit, ok := v.store.equipment[id]
	v.store.mu.RUnlock()
	if !ok {
		return nil, masterdata.ErrNotFound
	}
	copy := unit
	return &copy, nil
}

func (v equipmentView) ListByZone(ctx context.Context, zoneID string) ([]masterdata.Equipment, error) {
	_ = ctx
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	var out []masterdata.Equipment
	for _, unit := range v.store.equipment {
		if unit.ZoneID == zoneID {
			out = append(out, unit)
		}
	}
	return out, nil
}

func (v equipmentView) ListByFarm(ctx context.Context, farmID string) ([]masterdata.Equipment, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	var out []masterdata.Equipment
	for _, unit := range v.store.equipment {
		zone, ok := v.store.zones[unit.ZoneID]
		if !ok || zone.FarmID != farmID {
			continue
		}
		out = append(out, unit)
	}
	return out, nil
}

type readingTypeView struct {
	store *Store
}

func (v readingTypeView) GetByCode(ctx context.Context, code string) (*masterdata.ReadingType, error) {
	_ = ctx
	v.store.mu.RLock()
	rt, ok := v.store.readingTypes[code]
	v.store.mu.RUnlock()
	if !ok {
		return nil, masterdata.ErrNotFound
	}
	copy := rt
	return &copy, nil
}

func (v readingTypeView) List(ctx context.Context) ([]masterdata.ReadingType, error) {
	_ = ctx
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	out := make([]masterdata.ReadingType, 0, len(v.store.readingTypes))
	for _, rt := range v.store.readingTypes {
		out = append(out, rt)
	}
	return out, nil
}

package locations

import (
	"context"
	"sort"
	"sync"

	"warehouse/pkg/models"
)

// MemoryRegistry keeps locations in process. One mutex guards the whole map,
// which makes every Reserve a single critical section per call — enough to
// keep the check-and-set linearizable.
type MemoryRegistry struct {
	mu        sync.RWMutex
	locations map[string]models.Location // by id
	// reserved marks slots held by an in-flight task. A reservation pins the
	// occupancy flag until the task fills the slot or lets it go.
	reserved map[string]bool
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		locations: make(map[string]models.Location),
		reserved:  make(map[string]bool),
	}
}

// Seed inserts or replaces a location. Intended for bootstrap and tests.
func (r *MemoryRegistry) Seed(loc models.Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations[loc.ID] = loc
}

func (r *MemoryRegistry) Lookup(_ context.Context, warehouseID, code string) (models.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, loc := range r.locations {
		if loc.WarehouseID == warehouseID && loc.Code == code {
			return loc, nil
		}
	}
	return models.Location{}, ErrLocationNotFound
}

func (r *MemoryRegistry) Get(_ context.Context, locationID string) (models.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, ok := r.locations[locationID]
	if !ok {
		return models.Location{}, ErrLocationNotFound
	}
	return loc, nil
}

func (r *MemoryRegistry) List(_ context.Context, warehouseID string) ([]models.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Location
	for _, loc := range r.locations {
		if loc.WarehouseID == warehouseID {
			out = append(out, loc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *MemoryRegistry) SuggestEmpty(_ context.Context, warehouseID, zone string) (models.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var fallback *models.Location
	var candidates []models.Location
	for _, loc := range r.locations {
		if loc.WarehouseID != warehouseID || loc.IsOccupied {
			continue
		}
		if loc.Zone == zone {
			candidates = append(candidates, loc)
		} else if fallback == nil {
			l := loc
			fallback = &l
		}
	}
	if len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].Code < candidates[j].Code })
		return candidates[0], nil
	}
	if fallback != nil {
		return *fallback, nil
	}
	return models.Location{}, ErrLocationNotFound
}

func (r *MemoryRegistry) Reserve(_ context.Context, locationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	loc, ok := r.locations[locationID]
	if !ok {
		return ErrLocationNotFound
	}
	if loc.IsOccupied && !loc.MixedAllowed {
		return ErrLocationOccupied
	}
	loc.IsOccupied = true
	r.locations[locationID] = loc
	r.reserved[locationID] = true
	return nil
}

func (r *MemoryRegistry) Release(_ context.Context, locationID string) error {
	return r.settle(locationID, false)
}

// MarkOccupied converts a reservation into real occupancy once stock landed.
func (r *MemoryRegistry) MarkOccupied(_ context.Context, locationID string) error {
	return r.settle(locationID, true)
}

// SetOccupied re-derives the flag from ledger state. A slot held by a live
// reservation keeps its flag; the reservation owner settles it through
// MarkOccupied or Release.
func (r *MemoryRegistry) SetOccupied(_ context.Context, locationID string, occupied bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	loc, ok := r.locations[locationID]
	if !ok {
		return ErrLocationNotFound
	}
	if !occupied && r.reserved[locationID] {
		return nil
	}
	loc.IsOccupied = occupied
	r.locations[locationID] = loc
	return nil
}

// settle ends the reservation and sets the flag to its final state.
func (r *MemoryRegistry) settle(locationID string, occupied bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	loc, ok := r.locations[locationID]
	if !ok {
		return ErrLocationNotFound
	}
	loc.IsOccupied = occupied
	r.locations[locationID] = loc
	delete(r.reserved, locationID)
	return nil
}

package locations

import (
	"context"

	custom_error "warehouse/pkg/errors"
	"warehouse/pkg/models"
)

var (
	ErrLocationOccupied = custom_error.Conflict(
		"location_occupied",
		"Location is already occupied",
		"Lokalizacja jest już zajęta",
	)
	ErrLocationNotFound = custom_error.NotFound(
		"location_not_found",
		"Location not found",
		"Nie znaleziono lokalizacji",
	)
)

// Registry owns location metadata and the occupancy flag. Reserve is a
// linearizable per-location check-and-set: of two concurrent reservations on
// the same empty slot, exactly one wins and the loser gets
// ErrLocationOccupied. Mixed-allowed locations accept any number of
// reservations.
type Registry interface {
	Lookup(ctx context.Context, warehouseID, code string) (models.Location, error)
	Get(ctx context.Context, locationID string) (models.Location, error)
	List(ctx context.Context, warehouseID string) ([]models.Location, error)
	// SuggestEmpty returns an unoccupied location in the given zone, used for
	// putaway guidance. Falls back to any empty slot when the zone is full.
	SuggestEmpty(ctx context.Context, warehouseID, zone string) (models.Location, error)

	Reserve(ctx context.Context, locationID string) error
	Release(ctx context.Context, locationID string) error
	MarkOccupied(ctx context.Context, locationID string) error
	// SetOccupied aligns the flag with ledger reality after a commit. It never
	// clears a slot held by a live reservation; the holder settles the flag
	// through MarkOccupied or Release.
	SetOccupied(ctx context.Context, locationID string, occupied bool) error
}

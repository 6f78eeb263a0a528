package locations

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"warehouse/pkg/models"
)

func seedRegistry() *MemoryRegistry {
	r := NewMemoryRegistry()
	r.Seed(models.Location{ID: "L1", Code: "A-01-01", WarehouseID: "WH1", Zone: "A", Aisle: "01", Rack: "01"})
	r.Seed(models.Location{ID: "L2", Code: "A-01-02", WarehouseID: "WH1", Zone: "A", Aisle: "01", Rack: "02"})
	r.Seed(models.Location{ID: "L3", Code: "B-02-01", WarehouseID: "WH1", Zone: "B", Aisle: "02", Rack: "01"})
	r.Seed(models.Location{ID: "L4", Code: "MIX-01", WarehouseID: "WH1", Zone: "B", MixedAllowed: true})
	return r
}

func TestReserveConcurrentSingleWinner(t *testing.T) {
	r := seedRegistry()
	ctx := context.Background()

	const workers = 20
	var wins int32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if err := r.Reserve(ctx, "L1"); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)

	loc, err := r.Get(ctx, "L1")
	assert.NoError(t, err)
	assert.True(t, loc.IsOccupied)
}

func TestReserveOccupiedFailsUnlessMixedAllowed(t *testing.T) {
	r := seedRegistry()
	ctx := context.Background()

	assert.NoError(t, r.Reserve(ctx, "L1"))
	assert.ErrorIs(t, r.Reserve(ctx, "L1"), ErrLocationOccupied)

	// mixed locations accept repeated reservations
	assert.NoError(t, r.Reserve(ctx, "L4"))
	assert.NoError(t, r.Reserve(ctx, "L4"))
}

func TestReserveUnknownLocation(t *testing.T) {
	r := seedRegistry()
	assert.ErrorIs(t, r.Reserve(context.Background(), "nope"), ErrLocationNotFound)
}

func TestReleaseMakesLocationReservableAgain(t *testing.T) {
	r := seedRegistry()
	ctx := context.Background()

	assert.NoError(t, r.Reserve(ctx, "L2"))
	assert.NoError(t, r.Release(ctx, "L2"))
	assert.NoError(t, r.Reserve(ctx, "L2"))
}

func TestSuggestEmptyPrefersZone(t *testing.T) {
	r := seedRegistry()
	ctx := context.Background()

	loc, err := r.SuggestEmpty(ctx, "WH1", "B")
	assert.NoError(t, err)
	assert.Equal(t, "B", loc.Zone)

	// zone exhausted, falls back to any empty slot
	assert.NoError(t, r.Reserve(ctx, "L3"))
	assert.NoError(t, r.Reserve(ctx, "L4"))
	loc, err = r.SuggestEmpty(ctx, "WH1", "B")
	assert.NoError(t, err)
	assert.Equal(t, "A", loc.Zone)
}

func TestLookupByCode(t *testing.T) {
	r := seedRegistry()

	loc, err := r.Lookup(context.Background(), "WH1", "A-01-02")
	assert.NoError(t, err)
	assert.Equal(t, "L2", loc.ID)

	_, err = r.Lookup(context.Background(), "WH2", "A-01-02")
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestListSortedByCode(t *testing.T) {
	r := seedRegistry()

	out, err := r.List(context.Background(), "WH1")
	assert.NoError(t, err)
	assert.Len(t, out, 4)
	assert.Equal(t, "A-01-01", out[0].Code)
	assert.Equal(t, "MIX-01", out[3].Code)
}

func TestSetOccupiedKeepsReservedSlot(t *testing.T) {
	r := seedRegistry()
	ctx := context.Background()

	assert.NoError(t, r.Reserve(ctx, "L1"))

	// a derived resync cannot free a slot a task still holds
	assert.NoError(t, r.SetOccupied(ctx, "L1", false))
	loc, err := r.Get(ctx, "L1")
	assert.NoError(t, err)
	assert.True(t, loc.IsOccupied)
	assert.ErrorIs(t, r.Reserve(ctx, "L1"), ErrLocationOccupied)

	// once stock landed the reservation is settled and resync applies again
	assert.NoError(t, r.MarkOccupied(ctx, "L1"))
	assert.NoError(t, r.SetOccupied(ctx, "L1", false))
	loc, err = r.Get(ctx, "L1")
	assert.NoError(t, err)
	assert.False(t, loc.IsOccupied)
}

func TestReleaseEndsReservationGuard(t *testing.T) {
	r := seedRegistry()
	ctx := context.Background()

	assert.NoError(t, r.Reserve(ctx, "L2"))
	assert.NoError(t, r.Release(ctx, "L2"))

	assert.NoError(t, r.MarkOccupied(ctx, "L2"))
	assert.NoError(t, r.SetOccupied(ctx, "L2", false))
	loc, err := r.Get(ctx, "L2")
	assert.NoError(t, err)
	assert.False(t, loc.IsOccupied)
}

package tasks

import (
	"context"
	"time"

	"warehouse/internal/catalog"
	"warehouse/internal/ledger"
	"warehouse/internal/locations"
	"warehouse/pkg/models"
)

// fixture wires the in-memory implementations with a small floor layout:
// a dock, two storage slots in zone A, one in zone B and a forward pick face.
type fixture struct {
	ledger   *ledger.MemoryLedger
	registry *locations.MemoryRegistry
	catalog  *catalog.MemoryCatalog
	env      Env
}

func newFixture() *fixture {
	l := ledger.NewMemoryLedger()
	r := locations.NewMemoryRegistry()
	c := catalog.NewMemoryCatalog()

	r.Seed(models.Location{ID: "DOCK", Code: "DOCK-01", WarehouseID: "WH1", Zone: "DOCK"})
	r.Seed(models.Location{ID: "A1", Code: "A-01-01", WarehouseID: "WH1", Zone: "A", Aisle: "01", Rack: "01"})
	r.Seed(models.Location{ID: "A2", Code: "A-01-02", WarehouseID: "WH1", Zone: "A", Aisle: "01", Rack: "02"})
	r.Seed(models.Location{ID: "B1", Code: "B-02-01", WarehouseID: "WH1", Zone: "B", Aisle: "02", Rack: "01"})
	r.Seed(models.Location{ID: "PICK", Code: "PICK-01", WarehouseID: "WH1", Zone: "PICK"})

	forward := "PICK-01"
	c.Seed(models.Product{ID: "P1", SKU: "SKU-1", Barcode: "111", Name: "Widget", Zone: "A",
		ForwardSlot: &forward, ReplenishMin: 5, ReplenishMax: 20})
	c.Seed(models.Product{ID: "P2", SKU: "SKU-2", Barcode: "222", Name: "Gadget", Zone: "B"})

	return &fixture{
		ledger:   l,
		registry: r,
		catalog:  c,
		env: Env{
			Ledger:   l,
			Registry: r,
			Catalog:  c,
			Now:      func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) },
		},
	}
}

// stock seeds on-hand quantity by applying an in movement.
func (f *fixture) stock(productID, locationID string, qty int) {
	loc := locationID
	err := f.ledger.Apply(context.Background(), []models.StockMovement{{
		ID:           "seed-" + productID + "-" + locationID,
		Type:         models.MovementIn,
		ProductID:    productID,
		WarehouseID:  "WH1",
		ToLocationID: &loc,
		Quantity:     qty,
		Reference:    "seed",
		PerformedBy:  "seed",
		OccurredAt:   time.Now(),
	}})
	if err != nil {
		panic(err)
	}
}

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

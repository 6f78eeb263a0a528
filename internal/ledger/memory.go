package ledger

import (
	"context"
	"fmt"
	"sync"

	"warehouse/pkg/models"
)

type recordKey struct {
	warehouseID string
	productID   string
	locationID  string
}

// MemoryLedger keeps records and the movement log in process. A single mutex
// serializes Apply calls, which satisfies the per-record serialization
// contract; readers take the read lock.
type MemoryLedger struct {
	mu        sync.RWMutex
	records   map[recordKey]models.InventoryRecord
	movements []models.StockMovement
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[recordKey]models.InventoryRecord)}
}

func (l *MemoryLedger) Snapshot(_ context.Context, warehouseID, productID, locationID string) (models.InventoryRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[recordKey{warehouseID, productID, locationID}]
	if !ok {
		return models.InventoryRecord{
			ProductID:   productID,
			WarehouseID: warehouseID,
			LocationID:  locationID,
		}, nil
	}
	return rec, nil
}

func (l *MemoryLedger) HasStock(_ context.Context, warehouseID, locationID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for key, rec := range l.records {
		if key.warehouseID == warehouseID && key.locationID == locationID && rec.QuantityOnHand > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (l *MemoryLedger) Movements(_ context.Context, filter MovementFilter) ([]models.StockMovement, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []models.StockMovement
	for _, m := range l.movements {
		if filter.WarehouseID != "" && m.WarehouseID != filter.WarehouseID {
			continue
		}
		if filter.ProductID != "" && m.ProductID != filter.ProductID {
			continue
		}
		if filter.LocationID != "" && !touchesLocation(m, filter.LocationID) {
			continue
		}
		if filter.Reference != "" && m.Reference != filter.Reference {
			continue
		}
		out = append(out, m)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// Apply stages the whole batch against copies first; shared state changes
// only after every movement validated, so a rejected batch leaves no trace.
func (l *MemoryLedger) Apply(_ context.Context, movements []models.StockMovement) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	staged := make(map[recordKey]models.InventoryRecord)

	for _, m := range movements {
		deltas, err := decompose(m)
		if err != nil {
			return fmt.Errorf("movement %s: %w", m.ID, err)
		}
		for _, d := range deltas {
			key := recordKey{d.warehouseID, d.productID, d.locationID}
			rec, ok := staged[key]
			if !ok {
				rec, ok = l.records[key]
				if !ok {
					rec = models.InventoryRecord{
						ProductID:   d.productID,
						WarehouseID: d.warehouseID,
						LocationID:  d.locationID,
					}
				}
			}
			rec.QuantityOnHand += d.onHand
			rec.QuantityAvailable += d.available
			rec.QuantityAllocated += d.allocated
			if d.lotNumber != nil {
				rec.LotNumber = d.lotNumber
			}
			if rec.QuantityOnHand < 0 || rec.QuantityAvailable < 0 || rec.QuantityAllocated < 0 {
				return fmt.Errorf("product %s at %s: %w", d.productID, d.locationID, ErrInsufficientQuantity)
			}
			staged[key] = rec
		}
	}

	for key, rec := range staged {
		l.records[key] = rec
	}
	l.movements = append(l.movements, movements...)
	return nil
}

func (l *MemoryLedger) Reconcile(_ context.Context, warehouseID string) ([]Discrepancy, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	net := make(map[recordKey]int)
	for _, m := range l.movements {
		deltas, err := decompose(m)
		if err != nil {
			continue
		}
		for _, d := range deltas {
			if d.warehouseID != warehouseID {
				continue
			}
			net[recordKey{d.warehouseID, d.productID, d.locationID}] += d.onHand
		}
	}

	var out []Discrepancy
	for key, rec := range l.records {
		if key.warehouseID != warehouseID {
			continue
		}
		if n := net[key]; n != rec.QuantityOnHand {
			out = append(out, Discrepancy{
				ProductID:  key.productID,
				LocationID: key.locationID,
				Recorded:   rec.QuantityOnHand,
				Net:        n,
			})
		}
		delete(net, key)
	}
	for key, n := range net {
		if n != 0 {
			out = append(out, Discrepancy{ProductID: key.productID, LocationID: key.locationID, Net: n})
		}
	}
	return out, nil
}

func touchesLocation(m models.StockMovement, locationID string) bool {
	if m.FromLocationID != nil && *m.FromLocationID == locationID {
		return true
	}
	if m.ToLocationID != nil && *m.ToLocationID == locationID {
		return true
	}
	return false
}

package ledger

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"warehouse/internal/repository"
	custom_error "warehouse/pkg/errors"
	"warehouse/pkg/models"
)

// PostgresLedger is the durable implementation. Apply runs the whole batch in
// one transaction with guarded updates; row locks on inventory_records give
// the per-record serialization, and a guard that matches no row aborts the
// transaction with ErrInsufficientQuantity.
type PostgresLedger struct {
	r *repository.Repository
}

func NewPostgresLedger(r *repository.Repository) *PostgresLedger {
	return &PostgresLedger{r: r}
}

func (l *PostgresLedger) Snapshot(_ context.Context, warehouseID, productID, locationID string) (models.InventoryRecord, error) {
	rec := models.InventoryRecord{
		ProductID:   productID,
		WarehouseID: warehouseID,
		LocationID:  locationID,
	}
	query := l.r.GoquDBWrapper.
		Select("product_id", "warehouse_id", "location_id", "quantity_on_hand",
			"quantity_available", "quantity_allocated", "lot_number", "serial_number", "expiry_date").
		From("inventory_records").
		Where(goqu.Ex{
			"warehouse_id": warehouseID,
			"product_id":   productID,
			"location_id":  locationID,
		})

	found, err := query.Executor().ScanStruct(&rec)
	if err != nil {
		return rec, fmt.Errorf("unable to execute SQL: %w", err)
	}
	if !found {
		// absent pair reads as an empty record
		return models.InventoryRecord{ProductID: productID, WarehouseID: warehouseID, LocationID: locationID}, nil
	}
	return rec, nil
}

func (l *PostgresLedger) HasStock(_ context.Context, warehouseID, locationID string) (bool, error) {
	var count int
	query := l.r.GoquDBWrapper.
		Select(goqu.COUNT("*")).
		From("inventory_records").
		Where(goqu.Ex{"warehouse_id": warehouseID, "location_id": locationID}).
		Where(goqu.C("quantity_on_hand").Gt(0))

	if _, err := query.Executor().ScanVal(&count); err != nil {
		return false, fmt.Errorf("unable to execute SQL: %w", err)
	}
	return count > 0, nil
}

func (l *PostgresLedger) Movements(_ context.Context, filter MovementFilter) ([]models.StockMovement, error) {
	query := l.r.GoquDBWrapper.
		Select("id", "movement_type", "product_id", "warehouse_id", "to_warehouse_id",
			"from_location_id", "to_location_id", "quantity", "lot_number",
			"reference", "performed_by", "occurred_at").
		From("stock_movements").
		Order(goqu.I("occurred_at").Desc())

	if filter.WarehouseID != "" {
		query = query.Where(goqu.Ex{"warehouse_id": filter.WarehouseID})
	}
	if filter.ProductID != "" {
		query = query.Where(goqu.Ex{"product_id": filter.ProductID})
	}
	if filter.LocationID != "" {
		query = query.Where(goqu.Or(
			goqu.Ex{"from_location_id": filter.LocationID},
			goqu.Ex{"to_location_id": filter.LocationID},
		))
	}
	if filter.Reference != "" {
		query = query.Where(goqu.Ex{"reference": filter.Reference})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint(filter.Limit))
	}

	var movements []models.StockMovement
	if err := query.Executor().ScanStructs(&movements); err != nil {
		return nil, fmt.Errorf("error executing SQL statement for movements: %w", err)
	}
	return movements, nil
}

func (l *PostgresLedger) Apply(_ context.Context, movements []models.StockMovement) error {
	return repository.WithTransaction(l.r.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		for _, m := range movements {
			deltas, err := decompose(m)
			if err != nil {
				return fmt.Errorf("movement %s: %w", m.ID, err)
			}
			for _, d := range deltas {
				if err := applyDelta(tx, d); err != nil {
					return err
				}
			}
			if err := appendMovement(tx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func applyDelta(tx *goqu.TxDatabase, d delta) error {
	insert := tx.Insert("inventory_records").
		Rows(goqu.Record{
			"warehouse_id":       d.warehouseID,
			"product_id":         d.productID,
			"location_id":        d.locationID,
			"quantity_on_hand":   0,
			"quantity_available": 0,
			"quantity_allocated": 0,
			"lot_number":         d.lotNumber,
		}).
		OnConflict(goqu.DoNothing())
	if _, err := insert.Executor().Exec(); err != nil {
		return wrapPqError(err, "failed to ensure inventory record")
	}

	update := tx.Update("inventory_records").
		Set(goqu.Record{
			"quantity_on_hand":   goqu.L("quantity_on_hand + ?", d.onHand),
			"quantity_available": goqu.L("quantity_available + ?", d.available),
			"quantity_allocated": goqu.L("quantity_allocated + ?", d.allocated),
		}).
		Where(goqu.Ex{
			"warehouse_id": d.warehouseID,
			"product_id":   d.productID,
			"location_id":  d.locationID,
		}).
		Where(goqu.L("quantity_on_hand + ?", d.onHand).Gte(0)).
		Where(goqu.L("quantity_available + ?", d.available).Gte(0)).
		Where(goqu.L("quantity_allocated + ?", d.allocated).Gte(0))

	result, err := update.Executor().Exec()
	if err != nil {
		return wrapPqError(err, "failed to apply movement delta")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not retrieve rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("product %s at %s: %w", d.productID, d.locationID, ErrInsufficientQuantity)
	}
	return nil
}

func appendMovement(tx *goqu.TxDatabase, m models.StockMovement) error {
	query := tx.Insert("stock_movements").
		Rows(goqu.Record{
			"id":               m.ID,
			"movement_type":    m.Type,
			"product_id":       m.ProductID,
			"warehouse_id":     m.WarehouseID,
			"to_warehouse_id":  m.ToWarehouseID,
			"from_location_id": m.FromLocationID,
			"to_location_id":   m.ToLocationID,
			"quantity":         m.Quantity,
			"lot_number":       m.LotNumber,
			"reference":        m.Reference,
			"performed_by":     m.PerformedBy,
			"occurred_at":      m.OccurredAt,
		})
	if _, err := query.Executor().Exec(); err != nil {
		return wrapPqError(err, "failed to append stock movement")
	}
	return nil
}

func (l *PostgresLedger) Reconcile(_ context.Context, warehouseID string) ([]Discrepancy, error) {
	// an inbound cross-warehouse transfer carries the source in warehouse_id
	// and this warehouse only in to_warehouse_id, so both columns are matched
	var movements []models.StockMovement
	query := l.r.GoquDBWrapper.
		Select("id", "movement_type", "product_id", "warehouse_id", "to_warehouse_id",
			"from_location_id", "to_location_id", "quantity", "lot_number",
			"reference", "performed_by", "occurred_at").
		From("stock_movements").
		Where(goqu.Or(
			goqu.Ex{"warehouse_id": warehouseID},
			goqu.Ex{"to_warehouse_id": warehouseID},
		))
	if err := query.Executor().ScanStructs(&movements); err != nil {
		return nil, fmt.Errorf("unable to execute SQL: %w", err)
	}

	type pair struct{ productID, locationID string }
	net := make(map[pair]int)
	for _, m := range movements {
		deltas, err := decompose(m)
		if err != nil {
			continue
		}
		for _, d := range deltas {
			if d.warehouseID != warehouseID {
				continue
			}
			net[pair{d.productID, d.locationID}] += d.onHand
		}
	}

	var records []models.InventoryRecord
	query = l.r.GoquDBWrapper.
		Select("product_id", "warehouse_id", "location_id", "quantity_on_hand",
			"quantity_available", "quantity_allocated").
		From("inventory_records").
		Where(goqu.Ex{"warehouse_id": warehouseID})
	if err := query.Executor().ScanStructs(&records); err != nil {
		return nil, fmt.Errorf("unable to execute SQL: %w", err)
	}

	var out []Discrepancy
	for _, rec := range records {
		key := pair{rec.ProductID, rec.LocationID}
		if n := net[key]; n != rec.QuantityOnHand {
			out = append(out, Discrepancy{
				ProductID:  rec.ProductID,
				LocationID: rec.LocationID,
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

func wrapPqError(err error, message string) error {
	if pqErr, ok := err.(*pq.Error); ok {
		return custom_error.WrapDBError(message, string(pqErr.Code))
	}
	return fmt.Errorf("%s: %w", message, err)
}

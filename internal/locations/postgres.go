package locations

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"warehouse/internal/repository"
	custom_error "warehouse/pkg/errors"
	"warehouse/pkg/models"
)

var locationColumns = []interface{}{
	"id", "code", "warehouse_id", "zone", "aisle", "rack",
	"is_occupied", "mixed_allowed", "capacity",
}

// PostgresRegistry keeps locations in the locations table. Reserve is a
// single guarded UPDATE, so the database row lock is the critical section.
type PostgresRegistry struct {
	r *repository.Repository
}

func NewPostgresRegistry(r *repository.Repository) *PostgresRegistry {
	return &PostgresRegistry{r: r}
}

func (p *PostgresRegistry) Lookup(_ context.Context, warehouseID, code string) (models.Location, error) {
	var loc models.Location
	query := p.r.GoquDBWrapper.
		Select(locationColumns...).
		From("locations").
		Where(goqu.Ex{"warehouse_id": warehouseID, "code": code})

	found, err := query.Executor().ScanStruct(&loc)
	if err != nil {
		return models.Location{}, fmt.Errorf("unable to execute SQL: %w", err)
	}
	if !found {
		return models.Location{}, ErrLocationNotFound
	}
	return loc, nil
}

func (p *PostgresRegistry) Get(_ context.Context, locationID string) (models.Location, error) {
	var loc models.Location
	query := p.r.GoquDBWrapper.
		Select(locationColumns...).
		From("locations").
		Where(goqu.Ex{"id": locationID})

	found, err := query.Executor().ScanStruct(&loc)
	if err != nil {
		return models.Location{}, fmt.Errorf("unable to execute SQL: %w", err)
	}
	if !found {
		return models.Location{}, ErrLocationNotFound
	}
	return loc, nil
}

func (p *PostgresRegistry) List(_ context.Context, warehouseID string) ([]models.Location, error) {
	var locations []models.Location
	query := p.r.GoquDBWrapper.
		Select(locationColumns...).
		From("locations").
		Where(goqu.Ex{"warehouse_id": warehouseID}).
		Order(goqu.I("code").Asc())

	if err := query.Executor().ScanStructs(&locations); err != nil {
		return nil, fmt.Errorf("unable to execute SQL: %w", err)
	}
	return locations, nil
}

func (p *PostgresRegistry) SuggestEmpty(ctx context.Context, warehouseID, zone string) (models.Location, error) {
	loc, err := p.suggestInZone(warehouseID, zone, true)
	if err == nil {
		return loc, nil
	}
	if err != ErrLocationNotFound {
		return models.Location{}, err
	}
	return p.suggestInZone(warehouseID, zone, false)
}

func (p *PostgresRegistry) suggestInZone(warehouseID, zone string, matchZone bool) (models.Location, error) {
	query := p.r.GoquDBWrapper.
		Select(locationColumns...).
		From("locations").
		Where(goqu.Ex{"warehouse_id": warehouseID, "is_occupied": false}).
		Order(goqu.I("code").Asc()).
		Limit(1)
	if matchZone {
		query = query.Where(goqu.Ex{"zone": zone})
	}

	var loc models.Location
	found, err := query.Executor().ScanStruct(&loc)
	if err != nil {
		return models.Location{}, fmt.Errorf("unable to execute SQL: %w", err)
	}
	if !found {
		return models.Location{}, ErrLocationNotFound
	}
	return loc, nil
}

// Reserve wins or loses in one statement: the occupancy flag flips only when
// it was false (or the slot allows mixing), and zero rows affected means the
// slot was taken.
func (p *PostgresRegistry) Reserve(ctx context.Context, locationID string) error {
	query := p.r.GoquDBWrapper.
		Update("locations").
		Set(goqu.Record{"is_occupied": true, "is_reserved": true}).
		Where(goqu.Ex{"id": locationID}).
		Where(goqu.Or(
			goqu.Ex{"is_occupied": false},
			goqu.Ex{"mixed_allowed": true},
		))

	result, err := query.Executor().Exec()
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return custom_error.WrapDBError("failed to reserve location", string(pqErr.Code))
		}
		return fmt.Errorf("failed to reserve location: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not retrieve rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := p.Get(ctx, locationID); err != nil {
			return err
		}
		return ErrLocationOccupied
	}
	return nil
}

func (p *PostgresRegistry) Release(_ context.Context, locationID string) error {
	return p.updateOccupancy(locationID, goqu.Record{"is_occupied": false, "is_reserved": false}, nil)
}

// MarkOccupied converts a reservation into real occupancy once stock landed.
func (p *PostgresRegistry) MarkOccupied(_ context.Context, locationID string) error {
	return p.updateOccupancy(locationID, goqu.Record{"is_occupied": true, "is_reserved": false}, nil)
}

// SetOccupied re-derives the flag from ledger state. A slot held by a live
// reservation keeps its flag; the reservation owner settles it through
// MarkOccupied or Release.
func (p *PostgresRegistry) SetOccupied(ctx context.Context, locationID string, occupied bool) error {
	if occupied {
		return p.updateOccupancy(locationID, goqu.Record{"is_occupied": true}, nil)
	}
	err := p.updateOccupancy(locationID, goqu.Record{"is_occupied": false}, goqu.Ex{"is_reserved": false})
	if err == ErrLocationNotFound {
		// zero rows: the slot is missing or reservation-guarded
		if _, getErr := p.Get(ctx, locationID); getErr != nil {
			return getErr
		}
		return nil
	}
	return err
}

func (p *PostgresRegistry) updateOccupancy(locationID string, record goqu.Record, guard goqu.Ex) error {
	query := p.r.GoquDBWrapper.
		Update("locations").
		Set(record).
		Where(goqu.Ex{"id": locationID})
	if guard != nil {
		query = query.Where(guard)
	}

	result, err := query.Executor().Exec()
	if err != nil {
		return fmt.Errorf("failed to update location occupancy: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not retrieve rows affected: %w", err)
	}
	if affected == 0 {
		return ErrLocationNotFound
	}
	return nil
}

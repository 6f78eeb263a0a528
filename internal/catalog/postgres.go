package catalog

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"warehouse/internal/repository"
	"warehouse/pkg/models"
)

var productColumns = []interface{}{
	"id", "sku", "barcode", "name", "zone", "lot_tracked",
	"forward_slot", "replenish_min", "replenish_max",
}

type PostgresCatalog struct {
	r *repository.Repository
}

func NewPostgresCatalog(r *repository.Repository) *PostgresCatalog {
	return &PostgresCatalog{r: r}
}

func (c *PostgresCatalog) ByCode(_ context.Context, code string) (models.Product, error) {
	var product models.Product
	query := c.r.GoquDBWrapper.
		Select(productColumns...).
		From("products").
		Where(goqu.Or(
			goqu.Ex{"barcode": code},
			goqu.Ex{"sku": code},
		))

	found, err := query.Executor().ScanStruct(&product)
	if err != nil {
		return models.Product{}, fmt.Errorf("unable to execute SQL: %w", err)
	}
	if !found {
		return models.Product{}, ErrProductNotFound
	}
	return product, nil
}

func (c *PostgresCatalog) ByID(_ context.Context, productID string) (models.Product, error) {
	var product models.Product
	query := c.r.GoquDBWrapper.
		Select(productColumns...).
		From("products").
		Where(goqu.Ex{"id": productID})

	found, err := query.Executor().ScanStruct(&product)
	if err != nil {
		return models.Product{}, fmt.Errorf("unable to execute SQL: %w", err)
	}
	if !found {
		return models.Product{}, ErrProductNotFound
	}
	return product, nil
}

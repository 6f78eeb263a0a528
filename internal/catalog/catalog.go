package catalog

import (
	"context"

	custom_error "warehouse/pkg/errors"
	"warehouse/pkg/models"
)

var ErrProductNotFound = custom_error.NotFound(
	"product_not_found",
	"Product not found for scanned code",
	"Nie znaleziono produktu dla zeskanowanego kodu",
)

// Catalog is the read-only product lookup used to validate scans.
type Catalog interface {
	// ByCode resolves a scanned barcode or SKU.
	ByCode(ctx context.Context, code string) (models.Product, error)
	ByID(ctx context.Context, productID string) (models.Product, error)
}

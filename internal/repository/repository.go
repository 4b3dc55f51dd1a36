package repository

import (
	"context"

	"github.com/aminasaas/storefront-backend/internal/entity"
)

// ProductRepository handles persistence for catalog items.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]entity.Product, error)
	FindByID(ctx context.Context, id string) (*entity.Product, error)
	// Upsert creates or fully replaces a product by id.
	Upsert(ctx context.Context, p entity.Product) error
	Delete(ctx context.Context, id string) error
	// Seed inserts the given products only when the catalog is empty.
	Seed(ctx context.Context, products []entity.Product) error
}

// CategoryRepository handles persistence for categories. Deleting a category
// does not touch products that reference it by name.
type CategoryRepository interface {
	FindAll(ctx context.Context) ([]entity.Category, error)
	Upsert(ctx context.Context, c entity.Category) error
	Delete(ctx context.Context, id string) error
}

// SettingsRepository handles the tenant settings singleton.
type SettingsRepository interface {
	// Get returns the stored settings, or defaults when none were saved yet.
	Get(ctx context.Context) (*entity.Settings, error)
	Save(ctx context.Context, s entity.Settings) error
}

// OrderLog is the append-only order record store. Records are write-once:
// there is no update or delete.
type OrderLog interface {
	// Append stores the order under the tenant's scope and returns the
	// generated record key.
	Append(ctx context.Context, tenant string, o entity.Order) (string, error)
	FindRecent(ctx context.Context, tenant string, limit int) ([]entity.Order, error)
}

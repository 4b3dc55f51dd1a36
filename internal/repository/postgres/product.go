package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aminasaas/storefront-backend/internal/entity"
	"github.com/aminasaas/storefront-backend/internal/repository"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a ProductRepository backed by Postgres.
func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, title, price, original_price, cost, description, images, category,
	stock, wholesale_price, min_wholesale_qty, allow_add_to_cart, discount_label, best_seller, reviews`

func scanProduct(row interface{ Scan(...any) error }) (*entity.Product, error) {
	var p entity.Product
	var images, reviews []byte
	if err := row.Scan(&p.ID, &p.Title, &p.Price, &p.OriginalPrice, &p.Cost, &p.Description,
		&images, &p.Category, &p.Stock, &p.WholesalePrice, &p.MinWholesaleQty,
		&p.AllowAddToCart, &p.DiscountLabel, &p.BestSeller, &reviews); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return nil, fmt.Errorf("failed to decode images for product %s: %w", p.ID, err)
	}
	if err := json.Unmarshal(reviews, &p.Reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews for product %s: %w", p.ID, err)
	}
	return &p, nil
}

func (r *productRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product %s: %w", id, err)
	}
	return p, nil
}

func (r *productRepository) Upsert(ctx context.Context, p entity.Product) error {
	images, err := json.Marshal(orEmpty(p.Images))
	if err != nil {
		return fmt.Errorf("failed to encode images: %w", err)
	}
	reviews, err := json.Marshal(orEmptyReviews(p.Reviews))
	if err != nil {
		return fmt.Errorf("failed to encode reviews: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			cost = EXCLUDED.cost,
			description = EXCLUDED.description,
			images = EXCLUDED.images,
			category = EXCLUDED.category,
			stock = EXCLUDED.stock,
			wholesale_price = EXCLUDED.wholesale_price,
			min_wholesale_qty = EXCLUDED.min_wholesale_qty,
			allow_add_to_cart = EXCLUDED.allow_add_to_cart,
			discount_label = EXCLUDED.discount_label,
			best_seller = EXCLUDED.best_seller,
			reviews = EXCLUDED.reviews`,
		p.ID, p.Title, p.Price, p.OriginalPrice, p.Cost, p.Description, images, p.Category,
		p.Stock, p.WholesalePrice, p.MinWholesaleQty, p.AllowAddToCart, p.DiscountLabel,
		p.BestSeller, reviews,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.ID, err)
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

func (r *productRepository) Seed(ctx context.Context, products []entity.Product) error {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return nil // already seeded
	}

	for _, p := range products {
		if err := r.Upsert(ctx, p); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyReviews(r []entity.Review) []entity.Review {
	if r == nil {
		return []entity.Review{}
	}
	return r
}

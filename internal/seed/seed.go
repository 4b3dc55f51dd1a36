// Package seed holds the demo catalog and loads it into an empty store.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aminasaas/storefront-backend/internal/entity"
	"github.com/aminasaas/storefront-backend/internal/repository"
)

// DefaultToken gates the seed endpoint when no secret is configured.
const DefaultToken = "demo-seed-key"

// Products returns the demo catalog. Callers get a fresh slice each time.
func Products() []entity.Product {
	return []entity.Product{
		{
			ID:            "1001",
			Title:         "Ensemble Premium Silk",
			Price:         "249",
			OriginalPrice: "599",
			Cost:          "100",
			Category:      "Fashion",
			Stock:         25,
			Description:   "Elegant silk ensemble perfect for special occasions. Premium quality fabric with intricate detailing.",
			Images: []string{
				"https://images.unsplash.com/photo-1595777712802-14f350313c22?w=500&h=500&fit=crop",
				"https://images.unsplash.com/photo-1614613535308-eb5fbd8952ff?w=500&h=500&fit=crop",
			},
			DiscountLabel:   "LIVRAISON GRATUITE",
			BestSeller:      true,
			WholesalePrice:  "150",
			MinWholesaleQty: 5,
			AllowAddToCart:  true,
		},
		{
			ID:            "1002",
			Title:         "Abaya Elegance Black",
			Price:         "350",
			OriginalPrice: "750",
			Cost:          "150",
			Category:      "Fashion",
			Stock:         30,
			Description:   "Classic black abaya with premium embroidery. Perfect for everyday elegance and formal occasions.",
			Images: []string{
				"https://images.unsplash.com/photo-1591195853828-11db59a44f6b?w=500&h=500&fit=crop",
				"https://images.unsplash.com/photo-1614613535308-eb5fbd8952ff?w=500&h=500&fit=crop",
			},
			DiscountLabel:   "HOT SELLER",
			BestSeller:      true,
			WholesalePrice:  "250",
			MinWholesaleQty: 3,
			AllowAddToCart:  true,
		},
		{
			ID:            "1003",
			Title:         "Coffret Aksiswar Gold",
			Price:         "180",
			OriginalPrice: "400",
			Cost:          "70",
			Category:      "Accessories",
			Stock:         50,
			Description:   "Luxurious gold-toned accessory set. Perfect gift for loved ones. Includes premium packaging.",
			Images: []string{
				"https://images.unsplash.com/photo-1599643478518-a784e5dc4c8f?w=500&h=500&fit=crop",
				"https://images.unsplash.com/photo-1611591437281-460bfbe1220a?w=500&h=500&fit=crop",
			},
			DiscountLabel:   "-55%",
			BestSeller:      true,
			WholesalePrice:  "120",
			MinWholesaleQty: 2,
			AllowAddToCart:  true,
		},
	}
}

// IfEmpty loads the demo catalog only when the store has no products yet,
// so a restart never clobbers tenant data.
func IfEmpty(ctx context.Context, log *zap.Logger, products repository.ProductRepository) error {
	if err := products.Seed(ctx, Products()); err != nil {
		return fmt.Errorf("failed to seed demo catalog: %w", err)
	}
	log.Info("demo catalog seeded if store was empty", zap.Int("products", len(Products())))
	return nil
}

// Force upserts every demo product regardless of existing data. Backs the
// token-gated seed endpoint.
func Force(ctx context.Context, products repository.ProductRepository) ([]entity.Product, error) {
	demo := Products()
	for _, p := range demo {
		if err := products.Upsert(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}
	return demo, nil
}

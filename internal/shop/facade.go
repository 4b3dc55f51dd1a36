// Package shop composes the storefront: read snapshots from the mirror, cart
// mutations, checkout, and the admin write path. It adds no business logic of
// its own beyond the filtered catalog view.
package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aminasaas/storefront-backend/internal/availability"
	"github.com/aminasaas/storefront-backend/internal/cart"
	"github.com/aminasaas/storefront-backend/internal/checkout"
	"github.com/aminasaas/storefront-backend/internal/entity"
	"github.com/aminasaas/storefront-backend/internal/messaging"
	"github.com/aminasaas/storefront-backend/internal/mirror"
	"github.com/aminasaas/storefront-backend/internal/pricing"
	"github.com/aminasaas/storefront-backend/internal/repository"
	"github.com/aminasaas/storefront-backend/internal/seed"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCartDisabled     = errors.New("product cannot be added to cart")
	ErrStoreUnavailable = errors.New("store is not servable")
)

// Tracker fires page-view events; checkout carries its own purchase tracker.
type Tracker interface {
	PageView(ctx context.Context, s entity.Settings, page string) error
}

// Facade is the single entry point the delivery layer talks to.
type Facade struct {
	log        *zap.Logger
	mir        *mirror.Mirror
	cart       *cart.Store
	pipeline   *checkout.Pipeline
	products   repository.ProductRepository
	categories repository.CategoryRepository
	settings   repository.SettingsRepository
	orders     repository.OrderLog
	pub        messaging.Publisher
	tracker    Tracker

	defaultAdminToken string
}

// New wires the facade. defaultAdminToken gates the admin surface until the
// tenant sets a passcode of their own.
func New(
	log *zap.Logger,
	mir *mirror.Mirror,
	cartStore *cart.Store,
	pipeline *checkout.Pipeline,
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	settings repository.SettingsRepository,
	orders repository.OrderLog,
	pub messaging.Publisher,
	tracker Tracker,
	defaultAdminToken string,
) *Facade {
	return &Facade{
		log:               log,
		mir:               mir,
		cart:              cartStore,
		pipeline:          pipeline,
		products:          products,
		categories:        categories,
		settings:          settings,
		orders:            orders,
		pub:               pub,
		tracker:           tracker,
		defaultAdminToken: defaultAdminToken,
	}
}

// Start watches the settings stream and logs availability transitions. The
// goroutine exits when ctx is cancelled; in-flight checkout dispatch is not
// affected by teardown.
func (f *Facade) Start(ctx context.Context) {
	go func() {
		servable := availability.Servable(f.mir.Settings().Billing, time.Now())
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-f.mir.SettingsUpdates():
				now := availability.Servable(s.Billing, time.Now())
				if now != servable {
					f.log.Info("store availability changed",
						zap.Bool("servable", now),
						zap.Bool("suspended", s.Billing.Suspended),
						zap.Bool("paid", s.Billing.Paid),
					)
					servable = now
				}
			}
		}
	}()
}

// Catalog returns the current product snapshot (read-only).
func (f *Facade) Catalog() []entity.Product {
	return f.mir.Products()
}

// Categories returns the current category snapshot (read-only).
func (f *Facade) Categories() []entity.Category {
	return f.mir.Categories()
}

// Settings returns the full settings snapshot. Handlers serving shoppers must
// use Settings().Public() instead.
func (f *Facade) Settings() entity.Settings {
	return f.mir.Settings()
}

// Available reports whether the storefront is currently servable.
func (f *Facade) Available() bool {
	return availability.Servable(f.mir.Settings().Billing, time.Now())
}

// FilteredCatalog returns products whose title or category contains query,
// case-insensitive. An empty query returns the full snapshot.
func (f *Facade) FilteredCatalog(query string) []entity.Product {
	all := f.mir.Products()
	if query == "" {
		return all
	}
	q := strings.ToLower(query)
	matched := make([]entity.Product, 0, len(all))
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Category), q) {
			matched = append(matched, p)
		}
	}
	return matched
}

// Product looks a product up in the current snapshot.
func (f *Facade) Product(id string) (entity.Product, error) {
	for _, p := range f.mir.Products() {
		if p.ID == id {
			return p, nil
		}
	}
	return entity.Product{}, ErrProductNotFound
}

// AddToCart snapshots the product from the current catalog into the cart.
// Products flagged direct-buy-only are rejected.
func (f *Facade) AddToCart(id string, qty int) error {
	p, err := f.Product(id)
	if err != nil {
		return err
	}
	if !p.AllowAddToCart {
		return ErrCartDisabled
	}
	f.cart.Add(p, qty)
	return nil
}

// SetCartQuantity delegates to the cart; qty below one removes the line.
func (f *Facade) SetCartQuantity(id string, qty int) {
	f.cart.SetQuantity(id, qty)
}

// RemoveFromCart removes a line; absent ids are a no-op.
func (f *Facade) RemoveFromCart(id string) {
	f.cart.Remove(id)
}

// CartLines returns a copy of the cart contents.
func (f *Facade) CartLines() []entity.CartLine {
	return f.cart.Lines()
}

// CartTotal returns the wholesale-aware cart total as a decimal string.
func (f *Facade) CartTotal() string {
	return f.cart.Total().String()
}

// Checkout submits the current cart. The cart is cleared only on commit.
func (f *Facade) Checkout(ctx context.Context, contact checkout.Contact) (*checkout.Result, error) {
	if !f.Available() {
		return nil, ErrStoreUnavailable
	}
	return f.pipeline.Submit(ctx, checkout.Request{
		Contact: contact,
		Lines:   f.cart.Lines(),
		Mode:    checkout.ModeCart,
	})
}

// BuyNow submits a single-line direct purchase without touching the cart.
func (f *Facade) BuyNow(ctx context.Context, id string, qty int, contact checkout.Contact) (*checkout.Result, error) {
	if !f.Available() {
		return nil, ErrStoreUnavailable
	}
	p, err := f.Product(id)
	if err != nil {
		return nil, err
	}
	if qty < 1 {
		qty = 1
	}
	return f.pipeline.Submit(ctx, checkout.Request{
		Contact: contact,
		Lines:   []entity.CartLine{{Product: p, Qty: qty}},
		Mode:    checkout.ModeDirect,
	})
}

// UnitPrice exposes the wholesale-aware unit price for a quantity, used by
// the delivery layer for price previews.
func (f *Facade) UnitPrice(id string, qty int) (string, error) {
	p, err := f.Product(id)
	if err != nil {
		return "", err
	}
	return pricing.UnitPrice(p, qty).String(), nil
}

// SaveProduct upserts a product and announces the change. A missing id gets
// a generated one.
func (f *Facade) SaveProduct(ctx context.Context, p entity.Product) (entity.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := f.products.Upsert(ctx, p); err != nil {
		return entity.Product{}, fmt.Errorf("failed to save product: %w", err)
	}
	f.announce(ctx, entity.CollectionProducts, p.ID, entity.ChangeUpsert)
	return p, nil
}

// DeleteProduct removes a product and announces the change.
func (f *Facade) DeleteProduct(ctx context.Context, id string) error {
	if err := f.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	f.announce(ctx, entity.CollectionProducts, id, entity.ChangeDelete)
	return nil
}

// AddReview appends a review to a product. Reviews are append-only; nothing
// here edits or removes one.
func (f *Facade) AddReview(ctx context.Context, productID string, r entity.Review) error {
	p, err := f.products.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}
	if p == nil {
		return ErrProductNotFound
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Date == "" {
		r.Date = time.Now().Format("02/01/2006")
	}
	p.Reviews = append(p.Reviews, r)
	if err := f.products.Upsert(ctx, *p); err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}
	f.announce(ctx, entity.CollectionProducts, p.ID, entity.ChangeUpsert)
	return nil
}

// SaveCategory upserts a category and announces the change.
func (f *Facade) SaveCategory(ctx context.Context, c entity.Category) (entity.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := f.categories.Upsert(ctx, c); err != nil {
		return entity.Category{}, fmt.Errorf("failed to save category: %w", err)
	}
	f.announce(ctx, entity.CollectionCategories, c.ID, entity.ChangeUpsert)
	return c, nil
}

// DeleteCategory removes a category. Products referencing it by name keep the
// dangling name; there is no cascade or reassignment.
func (f *Facade) DeleteCategory(ctx context.Context, id string) error {
	if err := f.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	f.announce(ctx, entity.CollectionCategories, id, entity.ChangeDelete)
	return nil
}

// UpdateSettings merges the patch over the stored settings and announces the
// change. Billing flags are not reachable through the patch.
func (f *Facade) UpdateSettings(ctx context.Context, patch entity.SettingsPatch) (entity.Settings, error) {
	current, err := f.settings.Get(ctx)
	if err != nil {
		return entity.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	merged := *current
	patch.Apply(&merged)
	if err := f.settings.Save(ctx, merged); err != nil {
		return entity.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	f.announce(ctx, entity.CollectionSettings, entity.SettingsDocID, entity.ChangeUpsert)
	return merged, nil
}

// Seed force-loads the demo catalog and announces the change. Existing demo
// products are replaced; everything else is untouched.
func (f *Facade) Seed(ctx context.Context) ([]entity.Product, error) {
	products, err := seed.Force(ctx, f.products)
	if err != nil {
		return nil, err
	}
	f.announce(ctx, entity.CollectionProducts, "", entity.ChangeUpsert)
	return products, nil
}

// RecentOrders returns the tenant's latest orders, newest first.
func (f *Facade) RecentOrders(ctx context.Context, limit int) ([]entity.Order, error) {
	tenant := checkout.SanitizeTenant(f.mir.Settings().StoreName)
	return f.orders.FindRecent(ctx, tenant, limit)
}

// TrackPageView fires a best-effort page-view event. Failures are logged and
// never surfaced.
func (f *Facade) TrackPageView(ctx context.Context, page string) {
	if f.tracker == nil {
		return
	}
	if err := f.tracker.PageView(ctx, f.mir.Settings(), page); err != nil {
		f.log.Warn("page view tracking failed", zap.String("page", page), zap.Error(err))
	}
}

// IsAdminToken reports whether token opens the admin surface. The tenant's
// saved passcode wins over the configured default.
func (f *Facade) IsAdminToken(token string) bool {
	if token == "" {
		return false
	}
	if pass := f.mir.Settings().AdminPassword; pass != "" {
		return token == pass
	}
	return f.defaultAdminToken != "" && token == f.defaultAdminToken
}

// announce publishes a change notice so every mirror rescans the collection.
// Publish failures are logged; the write already landed and readers will
// catch up on the next notice.
func (f *Facade) announce(ctx context.Context, c entity.Collection, docID string, op string) {
	notice := entity.ChangeNotice{
		Collection: c,
		DocID:      docID,
		Op:         op,
		OccurredAt: time.Now(),
	}
	if err := f.pub.PublishChange(ctx, notice); err != nil {
		f.log.Warn("failed to publish change notice",
			zap.String("collection", string(c)),
			zap.String("doc_id", docID),
			zap.Error(err),
		)
	}
}

// Package mirror keeps in-memory snapshots of the remote collections. Each
// collection is an isolated consumer: a change notice triggers a full rescan
// and the snapshot reference is swapped wholesale, so readers never see a
// partially updated collection. Ordering across collections is unspecified.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/aminasaas/storefront-backend/internal/entity"
	"github.com/aminasaas/storefront-backend/internal/messaging"
	"github.com/aminasaas/storefront-backend/internal/repository"
)

// Mirror holds the latest known snapshot of products, categories and
// settings. Snapshots are eventually consistent; on rescan failure the last
// known good snapshot stays in place.
type Mirror struct {
	log        *zap.Logger
	sub        messaging.Subscriber
	products   repository.ProductRepository
	categories repository.CategoryRepository
	settings   repository.SettingsRepository
	group      string

	mu             sync.RWMutex
	productsSnap   []entity.Product
	categoriesSnap []entity.Category
	settingsSnap   entity.Settings

	productsCh   chan []entity.Product
	categoriesCh chan []entity.Category
	settingsCh   chan entity.Settings
}

// New builds a Mirror. Snapshots start empty (settings start at defaults)
// until the first rescan lands; callers must tolerate that initial state.
func New(
	log *zap.Logger,
	sub messaging.Subscriber,
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	settings repository.SettingsRepository,
	group string,
) *Mirror {
	return &Mirror{
		log:          log,
		sub:          sub,
		products:     products,
		categories:   categories,
		settings:     settings,
		group:        group,
		settingsSnap: entity.DefaultSettings(),
		productsCh:   make(chan []entity.Product, 1),
		categoriesCh: make(chan []entity.Category, 1),
		settingsCh:   make(chan entity.Settings, 1),
	}
}

// Start launches one consumer goroutine per collection and returns. Each
// consumer rescans once immediately, then on every change notice, until ctx
// is cancelled. The three consumers are independent: a stall in one never
// blocks the others.
func (m *Mirror) Start(ctx context.Context) {
	go m.run(ctx, entity.CollectionProducts, m.refreshProducts)
	go m.run(ctx, entity.CollectionCategories, m.refreshCategories)
	go m.run(ctx, entity.CollectionSettings, m.refreshSettings)
}

func (m *Mirror) run(ctx context.Context, c entity.Collection, refresh func(context.Context) error) {
	if err := refresh(ctx); err != nil {
		m.log.Warn("initial snapshot load failed", zap.String("collection", string(c)), zap.Error(err))
	}

	m.sub.Consume(ctx, messaging.ChangeTopic(c), m.group+"-"+string(c), func(ctx context.Context, payload []byte) error {
		var notice entity.ChangeNotice
		if err := json.Unmarshal(payload, &notice); err != nil {
			return fmt.Errorf("failed to unmarshal change notice: %w", err)
		}
		if err := refresh(ctx); err != nil {
			// Keep the last known good snapshot: stale beats empty.
			return fmt.Errorf("failed to refresh %s snapshot: %w", c, err)
		}
		return nil
	})
}

func (m *Mirror) refreshProducts(ctx context.Context) error {
	snap, err := m.products.FindAll(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.productsSnap = snap
	m.mu.Unlock()
	publishLatest(m.productsCh, snap)
	return nil
}

func (m *Mirror) refreshCategories(ctx context.Context) error {
	snap, err := m.categories.FindAll(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.categoriesSnap = snap
	m.mu.Unlock()
	publishLatest(m.categoriesCh, snap)
	return nil
}

func (m *Mirror) refreshSettings(ctx context.Context) error {
	snap, err := m.settings.Get(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.settingsSnap = *snap
	m.mu.Unlock()
	publishLatest(m.settingsCh, *snap)
	return nil
}

// Products returns the current catalog snapshot. The slice is owned by the
// mirror and must be treated as read-only.
func (m *Mirror) Products() []entity.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.productsSnap
}

// Categories returns the current category snapshot (read-only).
func (m *Mirror) Categories() []entity.Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.categoriesSnap
}

// Settings returns the current settings snapshot.
func (m *Mirror) Settings() entity.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settingsSnap
}

// ProductUpdates delivers full-replacement catalog snapshots. The channel
// holds only the latest snapshot: slow consumers skip intermediates, they
// never see stale ones.
func (m *Mirror) ProductUpdates() <-chan []entity.Product {
	return m.productsCh
}

// CategoryUpdates delivers full-replacement category snapshots.
func (m *Mirror) CategoryUpdates() <-chan []entity.Category {
	return m.categoriesCh
}

// SettingsUpdates delivers settings snapshots.
func (m *Mirror) SettingsUpdates() <-chan entity.Settings {
	return m.settingsCh
}

// publishLatest replaces whatever is buffered with the newest snapshot.
func publishLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aminasaas/storefront-backend/internal/entity"
	"github.com/aminasaas/storefront-backend/internal/messaging"
)

// fakeSubscriber routes published payloads to registered topic handlers.
type fakeSubscriber struct {
	mu       sync.Mutex
	handlers map[string]func(ctx context.Context, payload []byte) error
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{handlers: make(map[string]func(ctx context.Context, payload []byte) error)}
}

func (f *fakeSubscriber) Consume(ctx context.Context, topic, groupID string, handler func(ctx context.Context, payload []byte) error) {
	f.mu.Lock()
	f.handlers[topic] = handler
	f.mu.Unlock()
	<-ctx.Done()
}

func (f *fakeSubscriber) deliver(t *testing.T, notice entity.ChangeNotice) {
	t.Helper()
	payload, err := json.Marshal(notice)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		f.mu.Lock()
		_, ok := f.handlers[messaging.ChangeTopic(notice.Collection)]
		f.mu.Unlock()
		return ok
	}, time.Second, 5*time.Millisecond, "consumer for %s never subscribed", notice.Collection)

	f.mu.Lock()
	handler := f.handlers[messaging.ChangeTopic(notice.Collection)]
	f.mu.Unlock()
	_ = handler(context.Background(), payload)
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products []entity.Product
	err      error
}

func (f *fakeProductRepo) set(products []entity.Product, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products, f.err = products, err
}

func (f *fakeProductRepo) FindAll(ctx context.Context) ([]entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products, f.err
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	return nil, nil
}
func (f *fakeProductRepo) Upsert(ctx context.Context, p entity.Product) error { return nil }
func (f *fakeProductRepo) Delete(ctx context.Context, id string) error        { return nil }
func (f *fakeProductRepo) Seed(ctx context.Context, p []entity.Product) error { return nil }

type fakeCategoryRepo struct {
	categories []entity.Category
}

func (f *fakeCategoryRepo) FindAll(ctx context.Context) ([]entity.Category, error) {
	return f.categories, nil
}
func (f *fakeCategoryRepo) Upsert(ctx context.Context, c entity.Category) error { return nil }
func (f *fakeCategoryRepo) Delete(ctx context.Context, id string) error         { return nil }

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings entity.Settings
}

func (f *fakeSettingsRepo) set(s entity.Settings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = s
}

func (f *fakeSettingsRepo) Get(ctx context.Context) (*entity.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.settings
	return &s, nil
}
func (f *fakeSettingsRepo) Save(ctx context.Context, s entity.Settings) error { return nil }

func startMirror(t *testing.T) (*Mirror, *fakeSubscriber, *fakeProductRepo, *fakeSettingsRepo) {
	t.Helper()
	sub := newFakeSubscriber()
	products := &fakeProductRepo{}
	settings := &fakeSettingsRepo{settings: entity.DefaultSettings()}
	m := New(zap.NewNop(), sub, products, &fakeCategoryRepo{}, settings, "test")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m.Start(ctx)
	return m, sub, products, settings
}

func TestChangeNoticeReplacesSnapshot(t *testing.T) {
	m, sub, products, _ := startMirror(t)

	products.set([]entity.Product{{ID: "1001", Title: "Silk Set"}}, nil)
	sub.deliver(t, entity.ChangeNotice{Collection: entity.CollectionProducts, Op: entity.ChangeUpsert})

	require.Eventually(t, func() bool { return len(m.Products()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Silk Set", m.Products()[0].Title)

	// Second notice fully replaces, never patches.
	products.set([]entity.Product{{ID: "1002", Title: "Abaya"}}, nil)
	sub.deliver(t, entity.ChangeNotice{Collection: entity.CollectionProducts, Op: entity.ChangeUpsert})

	require.Eventually(t, func() bool {
		snap := m.Products()
		return len(snap) == 1 && snap[0].ID == "1002"
	}, time.Second, 5*time.Millisecond)
}

func TestRescanFailureKeepsLastKnownGood(t *testing.T) {
	m, sub, products, _ := startMirror(t)

	products.set([]entity.Product{{ID: "1001"}}, nil)
	sub.deliver(t, entity.ChangeNotice{Collection: entity.CollectionProducts, Op: entity.ChangeUpsert})
	require.Eventually(t, func() bool { return len(m.Products()) == 1 }, time.Second, 5*time.Millisecond)

	products.set(nil, errors.New("store unreachable"))
	sub.deliver(t, entity.ChangeNotice{Collection: entity.CollectionProducts, Op: entity.ChangeUpsert})

	// Stale beats empty.
	assert.Len(t, m.Products(), 1)
}

func TestSettingsUpdatesStreamDeliversLatest(t *testing.T) {
	m, sub, _, settings := startMirror(t)

	s := entity.DefaultSettings()
	s.StoreName = "Amina Shop"
	settings.set(s)
	sub.deliver(t, entity.ChangeNotice{Collection: entity.CollectionSettings, DocID: entity.SettingsDocID, Op: entity.ChangeUpsert})

	select {
	case got := <-m.SettingsUpdates():
		assert.Equal(t, "Amina Shop", got.StoreName)
	case <-time.After(time.Second):
		t.Fatal("no settings snapshot delivered")
	}
}

func TestCollectionsAreIndependent(t *testing.T) {
	m, sub, products, settings := startMirror(t)

	// Products rescans fail; settings must still flow.
	products.set(nil, errors.New("store unreachable"))
	sub.deliver(t, entity.ChangeNotice{Collection: entity.CollectionProducts, Op: entity.ChangeUpsert})

	s := entity.DefaultSettings()
	s.Billing.Suspended = true
	settings.set(s)
	sub.deliver(t, entity.ChangeNotice{Collection: entity.CollectionSettings, DocID: entity.SettingsDocID, Op: entity.ChangeUpsert})

	require.Eventually(t, func() bool { return m.Settings().Billing.Suspended }, time.Second, 5*time.Millisecond)
}

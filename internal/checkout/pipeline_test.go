package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aminasaas/storefront-backend/internal/cart"
	"github.com/aminasaas/storefront-backend/internal/entity"
)

type fakeOrderLog struct {
	mu      sync.Mutex
	appends []struct {
		tenant string
		order  entity.Order
	}
	err error
}

func (f *fakeOrderLog) Append(ctx context.Context, tenant string, o entity.Order) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.appends = append(f.appends, struct {
		tenant string
		order  entity.Order
	}{tenant, o})
	return "key-1", nil
}

func (f *fakeOrderLog) FindRecent(ctx context.Context, tenant string, limit int) ([]entity.Order, error) {
	return nil, nil
}

func (f *fakeOrderLog) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.appends)
}

func (f *fakeOrderLog) last() entity.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appends[len(f.appends)-1].order
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []entity.Order
	err   error
}

func (f *fakeNotifier) NotifyOrder(ctx context.Context, o entity.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, o)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeTracker struct {
	mu     sync.Mutex
	totals []decimal.Decimal
	err    error
}

func (f *fakeTracker) Purchase(ctx context.Context, s entity.Settings, total decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totals = append(f.totals, total)
	return f.err
}

func testSettings() entity.Settings {
	s := entity.DefaultSettings()
	s.StoreName = "Amina Shop"
	s.TelegramChatID = "merchant-42"
	return s
}

func newTestPipeline(orders *fakeOrderLog, notifier *fakeNotifier, tracker *fakeTracker, cartStore *cart.Store) *Pipeline {
	return NewPipeline(zap.NewNop(), orders, notifier, tracker, cartStore,
		testSettings, "demo-shop")
}

func cartLine(id, price string, qty int) entity.CartLine {
	return entity.CartLine{Product: entity.Product{ID: id, Title: "Item " + id, Price: price}, Qty: qty}
}

func TestSubmitMissingNameRejectsBeforeSideEffects(t *testing.T) {
	orders := &fakeOrderLog{}
	notifier := &fakeNotifier{}
	p := newTestPipeline(orders, notifier, &fakeTracker{}, nil)

	_, err := p.Submit(context.Background(), Request{
		Contact: Contact{Phone: "0612345678"},
		Lines:   []entity.CartLine{cartLine("A", "100", 1)},
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
	assert.Zero(t, orders.count(), "validation failure must produce zero remote writes")
	assert.Zero(t, notifier.count())
}

func TestSubmitMissingPhoneRejects(t *testing.T) {
	orders := &fakeOrderLog{}
	p := newTestPipeline(orders, &fakeNotifier{}, &fakeTracker{}, nil)

	_, err := p.Submit(context.Background(), Request{
		Contact: Contact{Name: "Sara"},
		Lines:   []entity.CartLine{cartLine("A", "100", 1)},
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "phone", verr.Field)
	assert.Zero(t, orders.count())
}

func TestSubmitEmptyLinesRejects(t *testing.T) {
	orders := &fakeOrderLog{}
	p := newTestPipeline(orders, &fakeNotifier{}, &fakeTracker{}, nil)

	_, err := p.Submit(context.Background(), Request{
		Contact: Contact{Name: "Sara", Phone: "0612345678"},
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, orders.count())
}

func TestSubmitCartScenario(t *testing.T) {
	// cart = [{id A, price 100, qty 3}], no wholesale config.
	orders := &fakeOrderLog{}
	cartStore := cart.NewStore(zap.NewNop(), nil)
	cartStore.Add(entity.Product{ID: "A", Title: "Item A", Price: "100"}, 3)
	p := newTestPipeline(orders, &fakeNotifier{}, &fakeTracker{}, cartStore)

	res, err := p.Submit(context.Background(), Request{
		Contact: Contact{Name: "Sara", Phone: "0612345678", City: "Casablanca"},
		Lines:   cartStore.Lines(),
		Mode:    ModeCart,
	})

	require.NoError(t, err)
	assert.Equal(t, StatusCommitted, res.Status)
	require.Equal(t, 1, orders.count())
	assert.Equal(t, "300", orders.last().Total)
	assert.Equal(t, "Item A (x3)", orders.last().ItemsSummary)
	assert.Equal(t, entity.OrderStatusNew, orders.last().Status)
	assert.Equal(t, 0, cartStore.Len(), "cart checkout clears the cart after commit")
}

func TestSubmitDirectBuyKeepsCart(t *testing.T) {
	orders := &fakeOrderLog{}
	cartStore := cart.NewStore(zap.NewNop(), nil)
	cartStore.Add(entity.Product{ID: "B", Title: "Item B", Price: "50"}, 1)
	p := newTestPipeline(orders, &fakeNotifier{}, &fakeTracker{}, cartStore)

	line := entity.CartLine{
		Product: entity.Product{ID: "A", Title: "Item A", Price: "100", WholesalePrice: "80", MinWholesaleQty: 5},
		Qty:     5,
	}
	res, err := p.Submit(context.Background(), Request{
		Contact: Contact{Name: "Sara", Phone: "0612345678"},
		Lines:   []entity.CartLine{line},
		Mode:    ModeDirect,
	})

	require.NoError(t, err)
	assert.Equal(t, "400", res.Order.Total, "wholesale pricing applies per line")
	assert.Equal(t, 1, cartStore.Len(), "direct buy must not clear the cart")
}

func TestSubmitCommitsDespiteNotificationFailure(t *testing.T) {
	orders := &fakeOrderLog{}
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	tracker := &fakeTracker{err: errors.New("pixel down")}
	p := newTestPipeline(orders, notifier, tracker, nil)

	res, err := p.Submit(context.Background(), Request{
		Contact: Contact{Name: "Sara", Phone: "0612345678"},
		Lines:   []entity.CartLine{cartLine("A", "100", 1)},
		Mode:    ModeDirect,
	})

	require.NoError(t, err)
	assert.Equal(t, StatusCommitted, res.Status)
	assert.Equal(t, 1, orders.count(), "exactly one order record per submission")
	assert.Equal(t, 1, notifier.count(), "notification was attempted")
}

func TestSubmitPersistenceFailureRetainsCart(t *testing.T) {
	orders := &fakeOrderLog{err: errors.New("store unreachable")}
	notifier := &fakeNotifier{}
	cartStore := cart.NewStore(zap.NewNop(), nil)
	cartStore.Add(entity.Product{ID: "A", Price: "100"}, 1)
	p := newTestPipeline(orders, notifier, &fakeTracker{}, cartStore)

	_, err := p.Submit(context.Background(), Request{
		Contact: Contact{Name: "Sara", Phone: "0612345678"},
		Lines:   cartStore.Lines(),
		Mode:    ModeCart,
	})

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, cartStore.Len(), "cart is retained so the shopper can retry")
	assert.Zero(t, notifier.count(), "notify must not run when persistence failed")
}

func TestSubmitUsesSanitizedTenant(t *testing.T) {
	orders := &fakeOrderLog{}
	p := NewPipeline(zap.NewNop(), orders, &fakeNotifier{}, &fakeTracker{}, nil,
		func() entity.Settings {
			s := testSettings()
			s.StoreName = "Amina.Shop/#1"
			return s
		}, "demo-shop")

	_, err := p.Submit(context.Background(), Request{
		Contact: Contact{Name: "Sara", Phone: "0612345678"},
		Lines:   []entity.CartLine{cartLine("A", "10", 1)},
		Mode:    ModeDirect,
	})

	require.NoError(t, err)
	orders.mu.Lock()
	defer orders.mu.Unlock()
	assert.Equal(t, "Amina_Shop__1", orders.appends[0].tenant)
}

func TestSanitizeTenant(t *testing.T) {
	assert.Equal(t, "Amina_Shop", SanitizeTenant("Amina.Shop"))
	assert.Equal(t, "a_b_c_d_e_f_", SanitizeTenant("a.b#c$d/e[f]"))
	assert.Equal(t, "Store", SanitizeTenant(""))
	assert.Equal(t, "Amina Shop", SanitizeTenant("Amina Shop"))
}

func TestDuplicateSubmissionCreatesSecondRecord(t *testing.T) {
	orders := &fakeOrderLog{}
	p := newTestPipeline(orders, &fakeNotifier{}, &fakeTracker{}, nil)

	req := Request{
		Contact: Contact{Name: "Sara", Phone: "0612345678"},
		Lines:   []entity.CartLine{cartLine("A", "100", 1)},
		Mode:    ModeDirect,
	}
	_, err := p.Submit(context.Background(), req)
	require.NoError(t, err)
	_, err = p.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, orders.count())
}

package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aminasaas/storefront-backend/internal/entity"
)

type fakeStorage struct {
	mu      sync.Mutex
	saved   [][]entity.CartLine
	loaded  []entity.CartLine
	loadErr error
	saveErr error
}

func (f *fakeStorage) Load(ctx context.Context) ([]entity.CartLine, error) {
	return f.loaded, f.loadErr
}

func (f *fakeStorage) Save(ctx context.Context, lines []entity.CartLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, lines)
	return f.saveErr
}

func (f *fakeStorage) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func (f *fakeStorage) lastSaved() []entity.CartLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) == 0 {
		return nil
	}
	return f.saved[len(f.saved)-1]
}

func TestAddMergesQuantityByID(t *testing.T) {
	s := NewStore(zap.NewNop(), nil)
	p := entity.Product{ID: "A", Title: "Silk Set", Price: "100"}

	s.Add(p, 2)
	s.Add(p, 3)

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Qty)
}

func TestAddSnapshotsProductAtInsertTime(t *testing.T) {
	s := NewStore(zap.NewNop(), nil)
	p := entity.Product{ID: "A", Title: "Silk Set", Price: "100"}
	s.Add(p, 1)

	// Catalog edit after the add must not reach the existing line.
	p.Price = "999"
	p.Title = "renamed"

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "100", lines[0].Product.Price)
	assert.Equal(t, "Silk Set", lines[0].Product.Title)
}

func TestSetQuantityZeroRemoves(t *testing.T) {
	s := NewStore(zap.NewNop(), nil)
	s.Add(entity.Product{ID: "A", Price: "10"}, 2)

	s.SetQuantity("A", 0)

	assert.Equal(t, 0, s.Len())
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	s := NewStore(zap.NewNop(), nil)
	s.Add(entity.Product{ID: "A", Price: "10"}, 1)

	assert.NotPanics(t, func() { s.Remove("missing") })
	assert.Equal(t, 1, s.Len())
}

func TestLinesKeepInsertionOrder(t *testing.T) {
	s := NewStore(zap.NewNop(), nil)
	s.Add(entity.Product{ID: "B", Price: "1"}, 1)
	s.Add(entity.Product{ID: "A", Price: "1"}, 1)
	s.Add(entity.Product{ID: "C", Price: "1"}, 1)
	s.Remove("A")

	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "B", lines[0].Product.ID)
	assert.Equal(t, "C", lines[1].Product.ID)
}

func TestTotalUsesRegularPricingPerLine(t *testing.T) {
	s := NewStore(zap.NewNop(), nil)
	s.Add(entity.Product{ID: "A", Price: "100"}, 3)

	assert.True(t, s.Total().Equal(decimal.NewFromInt(300)))
}

func TestMutationsPersistAsynchronously(t *testing.T) {
	storage := &fakeStorage{}
	s := NewStore(zap.NewNop(), storage)

	s.Add(entity.Product{ID: "A", Price: "10"}, 1)

	require.Eventually(t, func() bool { return storage.saveCount() >= 1 }, time.Second, 5*time.Millisecond)
	saved := storage.lastSaved()
	require.Len(t, saved, 1)
	assert.Equal(t, "A", saved[0].Product.ID)
}

func TestPersistFailureIsSwallowed(t *testing.T) {
	storage := &fakeStorage{saveErr: errors.New("redis down")}
	s := NewStore(zap.NewNop(), storage)

	assert.NotPanics(t, func() { s.Add(entity.Product{ID: "A", Price: "10"}, 1) })

	// The in-memory cart stays authoritative.
	require.Eventually(t, func() bool { return storage.saveCount() >= 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, s.Len())
}

func TestNewStoreLoadsPersistedLines(t *testing.T) {
	storage := &fakeStorage{loaded: []entity.CartLine{
		{Product: entity.Product{ID: "A", Price: "10"}, Qty: 2},
	}}

	s := NewStore(zap.NewNop(), storage)

	require.Equal(t, 1, s.Len())
	assert.Equal(t, 2, s.Lines()[0].Qty)
}

func TestNewStoreLoadFailureStartsEmpty(t *testing.T) {
	storage := &fakeStorage{loadErr: errors.New("redis down")}

	s := NewStore(zap.NewNop(), storage)

	assert.Equal(t, 0, s.Len())
}

// Package cart holds the shopper's local cart. The cart never has a remote
// representation: the in-memory state is authoritative for the session and
// durable storage is a best-effort convenience.
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aminasaas/storefront-backend/internal/entity"
	"github.com/aminasaas/storefront-backend/internal/pricing"
)

// Storage persists cart lines between sessions. Implementations must treat
// Save as a full-snapshot replacement.
type Storage interface {
	Load(ctx context.Context) ([]entity.CartLine, error)
	Save(ctx context.Context, lines []entity.CartLine) error
}

const persistTimeout = 5 * time.Second

// Store is an ordered collection of cart lines keyed by product id.
// Mutations update memory synchronously and persist asynchronously;
// persistence failures are logged and never surfaced to the caller.
type Store struct {
	log     *zap.Logger
	storage Storage

	mu    sync.Mutex
	lines map[string]*entity.CartLine
	order []string // insertion order of product ids
}

// NewStore builds a Store and loads any previously persisted lines.
// A load failure starts the session with an empty cart.
func NewStore(log *zap.Logger, storage Storage) *Store {
	s := &Store{
		log:     log,
		storage: storage,
		lines:   make(map[string]*entity.CartLine),
	}
	if storage != nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		saved, err := storage.Load(ctx)
		if err != nil {
			log.Warn("failed to load persisted cart, starting empty", zap.Error(err))
		} else {
			for _, line := range saved {
				line := line
				s.lines[line.Product.ID] = &line
				s.order = append(s.order, line.Product.ID)
			}
		}
	}
	return s
}

// Add puts qty units of p into the cart. An existing line for the same id has
// its quantity incremented; otherwise a new line snapshots the product as it
// is right now.
func (s *Store) Add(p entity.Product, qty int) {
	if qty < 1 {
		qty = 1
	}
	s.mu.Lock()
	if line, ok := s.lines[p.ID]; ok {
		line.Qty += qty
	} else {
		s.lines[p.ID] = &entity.CartLine{Product: p, Qty: qty}
		s.order = append(s.order, p.ID)
	}
	snapshot := s.linesLocked()
	s.mu.Unlock()
	s.persist(snapshot)
}

// SetQuantity replaces the quantity of the line with the given id.
// Anything below 1 means remove.
func (s *Store) SetQuantity(id string, qty int) {
	if qty < 1 {
		s.Remove(id)
		return
	}
	s.mu.Lock()
	line, ok := s.lines[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	line.Qty = qty
	snapshot := s.linesLocked()
	s.mu.Unlock()
	s.persist(snapshot)
}

// Remove drops the line with the given id. Removing an absent id is a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	if _, ok := s.lines[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.lines, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	snapshot := s.linesLocked()
	s.mu.Unlock()
	s.persist(snapshot)
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = make(map[string]*entity.CartLine)
	s.order = nil
	s.mu.Unlock()
	s.persist(nil)
}

// Lines returns the cart lines in insertion order. The returned slice is a
// copy; callers cannot reach into the store's state through it.
func (s *Store) Lines() []entity.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linesLocked()
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Total is the wholesale-aware sum over all lines.
func (s *Store) Total() decimal.Decimal {
	return pricing.Total(s.Lines())
}

func (s *Store) linesLocked() []entity.CartLine {
	out := make([]entity.CartLine, 0, len(s.order))
	for _, id := range s.order {
		if line, ok := s.lines[id]; ok {
			out = append(out, *line)
		}
	}
	return out
}

// persist writes a snapshot to storage in the background. Failures are
// logged; the in-memory cart stays authoritative either way.
func (s *Store) persist(snapshot []entity.CartLine) {
	if s.storage == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.storage.Save(ctx, snapshot); err != nil {
			s.log.Warn("failed to persist cart", zap.Error(err), zap.Int("lines", len(snapshot)))
		}
	}()
}

// Package checkout runs the order pipeline: validate, persist, then fire
// best-effort notifications and tracking events. Persistence alone decides
// whether the checkout committed; a notification outage never blocks a sale.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aminasaas/storefront-backend/internal/cart"
	"github.com/aminasaas/storefront-backend/internal/entity"
	"github.com/aminasaas/storefront-backend/internal/pricing"
	"github.com/aminasaas/storefront-backend/internal/repository"
)

// Status is the pipeline's submission state.
type Status int

const (
	StatusIdle Status = iota
	StatusSubmitting
	StatusCommitted
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSubmitting:
		return "submitting"
	case StatusCommitted:
		return "committed"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Mode distinguishes a cart checkout from a single-item direct buy. Only a
// cart checkout clears the cart after committing.
type Mode int

const (
	ModeCart Mode = iota
	ModeDirect
)

// Contact is the customer-supplied triple. Name and phone are required,
// city is not.
type Contact struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required"`
	City  string `json:"city"`
}

// Request is one checkout submission.
type Request struct {
	Contact Contact
	Lines   []entity.CartLine
	Mode    Mode
}

// Result reports a committed submission.
type Result struct {
	Status  Status
	OrderID string
	Order   entity.Order
}

// Notifier dispatches the merchant/operator notification for an order.
type Notifier interface {
	NotifyOrder(ctx context.Context, o entity.Order) error
}

// Tracker fires purchase events to the configured analytics integrations.
type Tracker interface {
	Purchase(ctx context.Context, s entity.Settings, total decimal.Decimal) error
}

const dispatchTimeout = 15 * time.Second

var tenantUnsafe = regexp.MustCompile(`[.#$/\[\]]`)

// SanitizeTenant strips path-unsafe characters from a store name so it can
// key the tenant's order scope.
func SanitizeTenant(storeName string) string {
	if storeName == "" {
		storeName = "Store"
	}
	return tenantUnsafe.ReplaceAllString(storeName, "_")
}

// Pipeline executes checkout submissions. It is safe for concurrent use; the
// exposed status reflects whether any submission is in flight.
type Pipeline struct {
	log      *zap.Logger
	orders   repository.OrderLog
	notifier Notifier
	tracker  Tracker
	cart     *cart.Store
	settings func() entity.Settings
	source   string
	validate *validator.Validate

	mu       sync.Mutex
	inFlight int
}

// NewPipeline wires the pipeline. settings must return the current settings
// snapshot; source tags every order with the deployment it came from.
func NewPipeline(
	log *zap.Logger,
	orders repository.OrderLog,
	notifier Notifier,
	tracker Tracker,
	cartStore *cart.Store,
	settings func() entity.Settings,
	source string,
) *Pipeline {
	return &Pipeline{
		log:      log,
		orders:   orders,
		notifier: notifier,
		tracker:  tracker,
		cart:     cartStore,
		settings: settings,
		source:   source,
		validate: validator.New(),
	}
}

// Status returns StatusSubmitting while any submission is in flight.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight > 0 {
		return StatusSubmitting
	}
	return StatusIdle
}

// Submit runs one checkout. On success exactly one order record exists for
// this call; notification and analytics failures are logged and invisible to
// the caller. There is no dedup: submitting the same logical order twice
// creates two records.
func (p *Pipeline) Submit(ctx context.Context, req Request) (*Result, error) {
	if err := p.validateRequest(req); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.inFlight++
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	settings := p.settings()
	total := pricing.Total(req.Lines)
	now := time.Now()

	order := entity.Order{
		CreatedAt:      now,
		DateLocal:      now.Format("02/01/2006, 15:04:05"),
		Status:         entity.OrderStatusNew,
		StoreName:      settings.StoreName,
		TelegramChatID: settings.TelegramChatID,
		CustomerName:   req.Contact.Name,
		CustomerPhone:  req.Contact.Phone,
		CustomerCity:   req.Contact.City,
		ItemsSummary:   summarize(req.Lines),
		Total:          total.String(),
		ShopSource:     p.source,
	}

	tenant := SanitizeTenant(settings.StoreName)
	key, err := p.orders.Append(ctx, tenant, order)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	order.ID = key

	p.log.Info("order committed",
		zap.String("order_id", key),
		zap.String("tenant", tenant),
		zap.String("total", order.Total),
	)

	p.dispatch(ctx, order, settings, total)

	if req.Mode == ModeCart && p.cart != nil {
		p.cart.Clear()
	}

	return &Result{Status: StatusCommitted, OrderID: key, Order: order}, nil
}

func (p *Pipeline) validateRequest(req Request) error {
	if err := p.validate.Struct(req.Contact); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			return &ValidationError{Field: strings.ToLower(invalid[0].Field())}
		}
		return &ValidationError{Field: "contact"}
	}
	if len(req.Lines) == 0 {
		return &ValidationError{Field: "items"}
	}
	return nil
}

// dispatch fires the notification and the tracking events concurrently, each
// best-effort. The context is detached from the caller: tearing down the
// caller must not abort an in-flight dispatch, only the timeout does.
func (p *Pipeline) dispatch(ctx context.Context, order entity.Order, settings entity.Settings, total decimal.Decimal) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
	defer cancel()

	var wg sync.WaitGroup
	if p.notifier != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.notifier.NotifyOrder(dctx, order); err != nil {
				p.log.Warn("order notification failed", zap.String("order_id", order.ID), zap.Error(err))
			}
		}()
	}
	if p.tracker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.tracker.Purchase(dctx, settings, total); err != nil {
				p.log.Warn("purchase tracking failed", zap.String("order_id", order.ID), zap.Error(err))
			}
		}()
	}
	wg.Wait()
}

func summarize(lines []entity.CartLine) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("%s (x%d)", line.Product.Title, line.Qty))
	}
	return strings.Join(parts, ", ")
}

// Package analytics emits fire-and-forget tracking events to the configured
// pixel integrations. An event fires only for integrations whose tenant id is
// set; failures are returned for logging and otherwise swallowed.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aminasaas/storefront-backend/internal/entity"
)

// Currency for purchase values, matching the storefront's market.
const Currency = "MAD"

const (
	defaultFacebookEndpoint = "https://graph.facebook.com/v18.0/events"
	defaultTikTokEndpoint   = "https://business-api.tiktok.com/open_api/v1.3/event/track"
)

// Client fans events out to every configured integration.
type Client struct {
	log              *zap.Logger
	httpc            *http.Client
	facebookEndpoint string
	tiktokEndpoint   string
}

// NewClient builds a Client against the real pixel endpoints.
func NewClient(log *zap.Logger) *Client {
	return &Client{
		log:              log,
		httpc:            &http.Client{Timeout: 10 * time.Second},
		facebookEndpoint: defaultFacebookEndpoint,
		tiktokEndpoint:   defaultTikTokEndpoint,
	}
}

// NewClientWithEndpoints overrides the integration endpoints, used by tests.
func NewClientWithEndpoints(log *zap.Logger, facebook, tiktok string) *Client {
	c := NewClient(log)
	c.facebookEndpoint = facebook
	c.tiktokEndpoint = tiktok
	return c
}

type event struct {
	PixelID  string `json:"pixel_id"`
	Event    string `json:"event"`
	Value    string `json:"value,omitempty"`
	Currency string `json:"currency,omitempty"`
	Page     string `json:"page,omitempty"`
}

// Purchase fires a purchase event to each integration configured in s.
// Errors from individual integrations are joined; none of them stops the
// others from firing.
func (c *Client) Purchase(ctx context.Context, s entity.Settings, total decimal.Decimal) error {
	var errs []error
	if s.FacebookPixelID != "" {
		if err := c.post(ctx, c.facebookEndpoint, event{
			PixelID:  s.FacebookPixelID,
			Event:    "Purchase",
			Value:    total.String(),
			Currency: Currency,
		}); err != nil {
			errs = append(errs, fmt.Errorf("facebook purchase event: %w", err))
		}
	}
	if s.TikTokPixelID != "" {
		if err := c.post(ctx, c.tiktokEndpoint, event{
			PixelID:  s.TikTokPixelID,
			Event:    "PlaceAnOrder",
			Value:    total.String(),
			Currency: Currency,
		}); err != nil {
			errs = append(errs, fmt.Errorf("tiktok purchase event: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PageView fires a page-view event to each configured integration.
func (c *Client) PageView(ctx context.Context, s entity.Settings, page string) error {
	var errs []error
	if s.FacebookPixelID != "" {
		if err := c.post(ctx, c.facebookEndpoint, event{
			PixelID: s.FacebookPixelID,
			Event:   "PageView",
			Page:    page,
		}); err != nil {
			errs = append(errs, fmt.Errorf("facebook page view: %w", err))
		}
	}
	if s.TikTokPixelID != "" {
		if err := c.post(ctx, c.tiktokEndpoint, event{
			PixelID: s.TikTokPixelID,
			Event:   "page",
			Page:    page,
		}); err != nil {
			errs = append(errs, fmt.Errorf("tiktok page view: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *Client) post(ctx context.Context, endpoint string, ev event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("endpoint responded with status %d", resp.StatusCode)
	}
	return nil
}

// Package notify dispatches order notifications to Telegram chats. Every
// dispatch is best-effort: the checkout pipeline logs failures and moves on,
// a sale is never blocked on a notification outage.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aminasaas/storefront-backend/internal/entity"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram sends formatted order messages through the Bot API. The merchant
// chat comes from the order itself (it was snapshotted from settings at
// submit time); the operator chat is fixed per deployment.
type Telegram struct {
	log            *zap.Logger
	httpc          *http.Client
	apiBase        string
	token          string
	operatorChatID string
}

// NewTelegram builds a notifier. An empty token disables all dispatch.
func NewTelegram(log *zap.Logger, token, operatorChatID string) *Telegram {
	return &Telegram{
		log:            log,
		httpc:          &http.Client{Timeout: 10 * time.Second},
		apiBase:        defaultAPIBase,
		token:          token,
		operatorChatID: operatorChatID,
	}
}

// NewTelegramWithBase is NewTelegram pointed at a custom API base, used by
// tests to capture outgoing calls.
func NewTelegramWithBase(log *zap.Logger, token, operatorChatID, apiBase string) *Telegram {
	t := NewTelegram(log, token, operatorChatID)
	t.apiBase = apiBase
	return t
}

type inlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type sendMessageRequest struct {
	ChatID      string `json:"chat_id"`
	Text        string `json:"text"`
	ParseMode   string `json:"parse_mode"`
	ReplyMarkup *struct {
		InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
	} `json:"reply_markup,omitempty"`
}

// NotifyOrder sends the merchant message and, when a distinct operator chat
// is configured, a sales-tracker copy. Both dispatches are attempted even if
// the first fails; the combined error is returned for the caller to log.
func (t *Telegram) NotifyOrder(ctx context.Context, o entity.Order) error {
	if t.token == "" {
		return nil
	}

	var merchantErr, operatorErr error
	if o.TelegramChatID != "" {
		merchantErr = t.sendMerchant(ctx, o)
	} else {
		t.log.Warn("order has no merchant chat configured", zap.String("order_id", o.ID))
	}

	if t.operatorChatID != "" && t.operatorChatID != o.TelegramChatID {
		operatorErr = t.sendOperator(ctx, o)
	}

	if merchantErr != nil || operatorErr != nil {
		return fmt.Errorf("telegram dispatch: merchant=%v operator=%v", merchantErr, operatorErr)
	}
	return nil
}

func (t *Telegram) sendMerchant(ctx context.Context, o entity.Order) error {
	text := fmt.Sprintf(`📦 <b>طلب جديد! (New Order)</b>
➖➖➖➖➖➖➖➖
👤 <b>الزبون:</b> %s
📱 <b>الهاتف:</b> %s
🏠 <b>المدينة:</b> %s
➖➖➖➖➖➖➖➖
🛒 <b>المنتج:</b> %s
💰 <b>المجموع:</b> %s DH
➖➖➖➖➖➖➖➖`,
		o.CustomerName, o.CustomerPhone, o.CustomerCity, o.ItemsSummary, o.Total)

	req := sendMessageRequest{
		ChatID:    o.TelegramChatID,
		Text:      text,
		ParseMode: "HTML",
	}
	req.ReplyMarkup = &struct {
		InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
	}{
		InlineKeyboard: [][]inlineButton{{
			{Text: "💬 WhatsApp", URL: "https://wa.me/" + FormatWhatsAppPhone(o.CustomerPhone)},
			{Text: "📞 اتصال", URL: "tel:" + o.CustomerPhone},
		}},
	}
	return t.send(ctx, req)
}

func (t *Telegram) sendOperator(ctx context.Context, o entity.Order) error {
	text := fmt.Sprintf(`🚨 <b>مراقبة المبيعات (Sales Tracker)</b>
🏪 <b>المتجر:</b> %s
💰 <b>القيمة:</b> %s DH
🛒 <b>السلعة:</b> %s`,
		o.StoreName, o.Total, o.ItemsSummary)

	return t.send(ctx, sendMessageRequest{
		ChatID:    t.operatorChatID,
		Text:      text,
		ParseMode: "HTML",
	})
}

func (t *Telegram) send(ctx context.Context, msg sendMessageRequest) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram responded with status %d", resp.StatusCode)
	}
	return nil
}

// FormatWhatsAppPhone normalizes a local phone number for a wa.me deep link:
// non-digits are stripped and a leading 0 becomes the 212 country prefix.
func FormatWhatsAppPhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if strings.HasPrefix(clean, "0") {
		clean = "212" + clean[1:]
	}
	return clean
}

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aminasaas/storefront-backend/internal/entity"
)

type capturedMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func newCaptureServer(t *testing.T) (*httptest.Server, func() []capturedMessage) {
	t.Helper()
	var mu sync.Mutex
	var messages []capturedMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg capturedMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		mu.Lock()
		messages = append(messages, msg)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []capturedMessage {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedMessage(nil), messages...)
	}
}

func testOrder() entity.Order {
	return entity.Order{
		ID:             "ord-1",
		TelegramChatID: "merchant-42",
		StoreName:      "Amina Shop",
		CustomerName:   "Sara",
		CustomerPhone:  "0612345678",
		CustomerCity:   "Casablanca",
		ItemsSummary:   "Silk Set (x2)",
		Total:          "498",
	}
}

func TestNotifyOrderSendsMerchantAndOperator(t *testing.T) {
	srv, messages := newCaptureServer(t)
	tg := NewTelegramWithBase(zap.NewNop(), "token", "operator-1", srv.URL)

	require.NoError(t, tg.NotifyOrder(context.Background(), testOrder()))

	got := messages()
	require.Len(t, got, 2)
	assert.Equal(t, "merchant-42", got[0].ChatID)
	assert.Contains(t, got[0].Text, "Sara")
	assert.Contains(t, got[0].Text, "Silk Set (x2)")
	assert.Equal(t, "HTML", got[0].ParseMode)
	assert.Equal(t, "operator-1", got[1].ChatID)
	assert.Contains(t, got[1].Text, "Amina Shop")
}

func TestNotifyOrderSkipsOperatorWhenSameChat(t *testing.T) {
	srv, messages := newCaptureServer(t)
	tg := NewTelegramWithBase(zap.NewNop(), "token", "merchant-42", srv.URL)

	require.NoError(t, tg.NotifyOrder(context.Background(), testOrder()))

	got := messages()
	require.Len(t, got, 1)
	assert.Equal(t, "merchant-42", got[0].ChatID)
}

func TestNotifyOrderNoTokenIsNoop(t *testing.T) {
	srv, messages := newCaptureServer(t)
	tg := NewTelegramWithBase(zap.NewNop(), "", "operator-1", srv.URL)

	require.NoError(t, tg.NotifyOrder(context.Background(), testOrder()))
	assert.Empty(t, messages())
}

func TestNotifyOrderReportsDispatchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	tg := NewTelegramWithBase(zap.NewNop(), "token", "", srv.URL)

	err := tg.NotifyOrder(context.Background(), testOrder())
	assert.Error(t, err)
}

func TestFormatWhatsAppPhone(t *testing.T) {
	assert.Equal(t, "212612345678", FormatWhatsAppPhone("0612345678"))
	assert.Equal(t, "212612345678", FormatWhatsAppPhone("06 12 34 56 78"))
	assert.Equal(t, "212612345678", FormatWhatsAppPhone("+212612345678"))
	assert.Equal(t, "33123456789", FormatWhatsAppPhone("33123456789"))
}

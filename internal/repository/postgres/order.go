package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/aminasaas/storefront-backend/internal/entity"
	"github.com/aminasaas/storefront-backend/internal/repository"
)

type orderLog struct {
	db *sql.DB
}

// NewOrderLog creates the append-only order log backed by Postgres. There is
// deliberately no update or delete path.
func NewOrderLog(db *sql.DB) repository.OrderLog {
	return &orderLog{db: db}
}

func (l *orderLog) Append(ctx context.Context, tenant string, o entity.Order) (string, error) {
	key := uuid.NewString()
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO orders (key, tenant, created_at, date_local, status, store_name,
			telegram_chat_id, customer_name, customer_phone, customer_city,
			items_summary, total, shop_source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		key, tenant, o.CreatedAt, o.DateLocal, o.Status, o.StoreName,
		o.TelegramChatID, o.CustomerName, o.CustomerPhone, o.CustomerCity,
		o.ItemsSummary, o.Total, o.ShopSource,
	)
	if err != nil {
		return "", fmt.Errorf("failed to append order for tenant %s: %w", tenant, err)
	}
	return key, nil
}

func (l *orderLog) FindRecent(ctx context.Context, tenant string, limit int) ([]entity.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT key, created_at, date_local, status, store_name, telegram_chat_id,
			customer_name, customer_phone, customer_city, items_summary, total, shop_source
		FROM orders WHERE tenant = $1 ORDER BY created_at DESC LIMIT $2`,
		tenant, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []entity.Order
	for rows.Next() {
		var o entity.Order
		if err := rows.Scan(&o.ID, &o.CreatedAt, &o.DateLocal, &o.Status, &o.StoreName,
			&o.TelegramChatID, &o.CustomerName, &o.CustomerPhone, &o.CustomerCity,
			&o.ItemsSummary, &o.Total, &o.ShopSource); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	return orders, nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aminasaas/storefront-backend/internal/entity"
	"github.com/aminasaas/storefront-backend/internal/repository"
)

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a SettingsRepository backed by Postgres. The
// singleton lives in a single fixed row.
func NewSettingsRepository(db *sql.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*entity.Settings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT store_name, primary_color, hero_image, favicon, sheet_url, telegram_chat_id,
			phone_number, facebook_pixel_id, tiktok_pixel_id, admin_password,
			suspended, paid, trial_started_at
		FROM settings WHERE id = $1`, entity.SettingsDocID)

	var s entity.Settings
	var trialStartedAt sql.NullTime
	err := row.Scan(&s.StoreName, &s.PrimaryColor, &s.HeroImage, &s.Favicon, &s.SheetURL,
		&s.TelegramChatID, &s.PhoneNumber, &s.FacebookPixelID, &s.TikTokPixelID,
		&s.AdminPassword, &s.Billing.Suspended, &s.Billing.Paid, &trialStartedAt)
	if err == sql.ErrNoRows {
		defaults := entity.DefaultSettings()
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	if trialStartedAt.Valid {
		ts := trialStartedAt.Time
		s.Billing.TrialStartedAt = &ts
	}
	return &s, nil
}

func (r *settingsRepository) Save(ctx context.Context, s entity.Settings) error {
	var trialStartedAt sql.NullTime
	if s.Billing.TrialStartedAt != nil {
		trialStartedAt = sql.NullTime{Time: *s.Billing.TrialStartedAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (id, store_name, primary_color, hero_image, favicon, sheet_url,
			telegram_chat_id, phone_number, facebook_pixel_id, tiktok_pixel_id, admin_password,
			suspended, paid, trial_started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			store_name = EXCLUDED.store_name,
			primary_color = EXCLUDED.primary_color,
			hero_image = EXCLUDED.hero_image,
			favicon = EXCLUDED.favicon,
			sheet_url = EXCLUDED.sheet_url,
			telegram_chat_id = EXCLUDED.telegram_chat_id,
			phone_number = EXCLUDED.phone_number,
			facebook_pixel_id = EXCLUDED.facebook_pixel_id,
			tiktok_pixel_id = EXCLUDED.tiktok_pixel_id,
			admin_password = EXCLUDED.admin_password,
			suspended = EXCLUDED.suspended,
			paid = EXCLUDED.paid,
			trial_started_at = EXCLUDED.trial_started_at`,
		entity.SettingsDocID, s.StoreName, s.PrimaryColor, s.HeroImage, s.Favicon, s.SheetURL,
		s.TelegramChatID, s.PhoneNumber, s.FacebookPixelID, s.TikTokPixelID, s.AdminPassword,
		s.Billing.Suspended, s.Billing.Paid, trialStartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

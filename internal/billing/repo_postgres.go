package billing

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo persists billing settings as a single row (id = 1).
// Missing row reads fall back to defaults so a fresh database behaves sanely.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Get(ctx context.Context) (Settings, error) {
	const q = `
SELECT min_duration_seconds, base_price_minor, surge_multiplier, exclusive_multiplier,
       auto_bill_enabled, dispute_window_hours, min_price_minor, max_price_minor,
       pause_when_balance_zero, updated_at
FROM billing_settings
WHERE id = 1
`
	var s Settings
	err := r.db.QueryRowContext(ctx, q).Scan(
		&s.MinDurationSeconds,
		&s.BasePriceMinor,
		&s.SurgeMultiplier,
		&s.ExclusiveMultiplier,
		&s.AutoBillEnabled,
		&s.DisputeWindowHours,
		&s.MinPriceMinor,
		&s.MaxPriceMinor,
		&s.PauseWhenBalanceZero,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DefaultSettings(), nil
		}
		return Settings{}, err
	}
	return s, nil
}

func (r *PostgresRepo) Put(ctx context.Context, s Settings) error {
	const q = `
INSERT INTO billing_settings (
  id, min_duration_seconds, base_price_minor, surge_multiplier, exclusive_multiplier,
  auto_bill_enabled, dispute_window_hours, min_price_minor, max_price_minor,
  pause_when_balance_zero, updated_at
) VALUES (
  1,$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)
ON CONFLICT (id) DO UPDATE SET
  min_duration_seconds = EXCLUDED.min_duration_seconds,
  base_price_minor = EXCLUDED.base_price_minor,
  surge_multiplier = EXCLUDED.surge_multiplier,
  exclusive_multiplier = EXCLUDED.exclusive_multiplier,
  auto_bill_enabled = EXCLUDED.auto_bill_enabled,
  dispute_window_hours = EXCLUDED.dispute_window_hours,
  min_price_minor = EXCLUDED.min_price_minor,
  max_price_minor = EXCLUDED.max_price_minor,
  pause_when_balance_zero = EXCLUDED.pause_when_balance_zero,
  updated_at = EXCLUDED.updated_at
`
	_, err := r.db.ExecContext(ctx, q,
		s.MinDurationSeconds,
		s.BasePriceMinor,
		s.SurgeMultiplier,
		s.ExclusiveMultiplier,
		s.AutoBillEnabled,
		s.DisputeWindowHours,
		s.MinPriceMinor,
		s.MaxPriceMinor,
		s.PauseWhenBalanceZero,
		s.UpdatedAt,
	)
	return err
}

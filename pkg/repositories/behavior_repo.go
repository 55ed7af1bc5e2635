package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/smartmedishop/fraud-pipeline/pkg/database"
	"github.com/smartmedishop/fraud-pipeline/pkg/models"
)

// BehaviorProfileRepository defines the interface for per-user behavior profiles.
type BehaviorProfileRepository interface {
	// FindByUserId returns pgx.ErrNoRows when the user has no profile yet.
	FindByUserId(ctx context.Context, db *database.DB, userID uuid.UUID) (models.UserBehaviorProfile, error)
	// Upsert inserts or replaces the user's profile row.
	Upsert(ctx context.Context, tx pgx.Tx, profile models.UserBehaviorProfile) error
}

type BehaviorProfileRepositoryImpl struct {
}

func NewBehaviorProfileRepository() BehaviorProfileRepository {
	return &BehaviorProfileRepositoryImpl{}
}

func (r BehaviorProfileRepositoryImpl) FindByUserId(ctx context.Context, db *database.DB, userID uuid.UUID) (models.UserBehaviorProfile, error) {
	if userID == uuid.Nil {
		return models.UserBehaviorProfile{}, errors.New("user ID cannot be nil")
	}
	var p models.UserBehaviorProfile
	err := db.QueryRow(ctx, `
		SELECT id, user_id, COALESCE(preferred_payment_method, ''), COALESCE(preferred_device_type, ''),
			COALESCE(location_country, ''), transaction_velocity, amount_velocity,
			average_transaction_amount, max_transaction_amount, min_transaction_amount,
			unusual_patterns_count, last_transaction_date, transaction_frequency_per_day,
			weekend_transaction_ratio, night_transaction_ratio, created_at, updated_at
		FROM user_behavior_profiles WHERE user_id = $1`, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.PreferredPaymentMethod,
		&p.PreferredDeviceType,
		&p.LocationCountry,
		&p.TransactionVelocity,
		&p.AmountVelocity,
		&p.AverageTransactionAmount,
		&p.MaxTransactionAmount,
		&p.MinTransactionAmount,
		&p.UnusualPatternsCount,
		&p.LastTransactionDate,
		&p.TransactionFrequencyPerDay,
		&p.WeekendTransactionRatio,
		&p.NightTransactionRatio,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (r BehaviorProfileRepositoryImpl) Upsert(ctx context.Context, tx pgx.Tx, p models.UserBehaviorProfile) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO user_behavior_profiles (id, user_id, preferred_payment_method, preferred_device_type,
			location_country, transaction_velocity, amount_velocity, average_transaction_amount,
			max_transaction_amount, min_transaction_amount, unusual_patterns_count, last_transaction_date,
			transaction_frequency_per_day, weekend_transaction_ratio, night_transaction_ratio,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (user_id) DO UPDATE SET
			preferred_payment_method = EXCLUDED.preferred_payment_method,
			preferred_device_type = EXCLUDED.preferred_device_type,
			location_country = EXCLUDED.location_country,
			transaction_velocity = EXCLUDED.transaction_velocity,
			amount_velocity = EXCLUDED.amount_velocity,
			average_transaction_amount = EXCLUDED.average_transaction_amount,
			max_transaction_amount = EXCLUDED.max_transaction_amount,
			min_transaction_amount = EXCLUDED.min_transaction_amount,
			unusual_patterns_count = EXCLUDED.unusual_patterns_count,
			last_transaction_date = EXCLUDED.last_transaction_date,
			transaction_frequency_per_day = EXCLUDED.transaction_frequency_per_day,
			weekend_transaction_ratio = EXCLUDED.weekend_transaction_ratio,
			night_transaction_ratio = EXCLUDED.night_transaction_ratio,
			updated_at = EXCLUDED.updated_at`,
		p.ID,
		p.UserID,
		p.PreferredPaymentMethod,
		p.PreferredDeviceType,
		p.LocationCountry,
		p.TransactionVelocity,
		p.AmountVelocity,
		p.AverageTransactionAmount,
		p.MaxTransactionAmount,
		p.MinTransactionAmount,
		p.UnusualPatternsCount,
		p.LastTransactionDate,
		p.TransactionFrequencyPerDay,
		p.WeekendTransactionRatio,
		p.NightTransactionRatio,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

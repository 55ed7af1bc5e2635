package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/pkg/database"
	"github.com/smartmedishop/fraud-pipeline/pkg/models"
	"github.com/smartmedishop/fraud-pipeline/pkg/repositories"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/internal/observability"
	"go.uber.org/zap"
)

const behaviorCacheKeyPrefix = "behavior:"

// ApplyTransaction folds one transaction into the rolling profile state.
// It is a pure function so the arithmetic is testable without a database.
//
// The incremental mean uses the post-increment velocity, which is always >=1.
func ApplyTransaction(p models.UserBehaviorProfile, amount float64, txDate time.Time) models.UserBehaviorProfile {
	p.TransactionVelocity++
	p.AmountVelocity += amount
	p.AverageTransactionAmount = ((p.AverageTransactionAmount * float64(p.TransactionVelocity-1)) + amount) / float64(p.TransactionVelocity)

	if amount > p.MaxTransactionAmount {
		p.MaxTransactionAmount = amount
	}
	if p.MinTransactionAmount == 0 || amount < p.MinTransactionAmount {
		p.MinTransactionAmount = amount
	}

	p.LastTransactionDate = &txDate
	p.TransactionFrequencyPerDay = transactionFrequency(p)

	// Weekend/night ratios stay 0.0; computing them needs per-transaction
	// day-of-week history that is not tracked.
	return p
}

func transactionFrequency(p models.UserBehaviorProfile) float64 {
	if p.LastTransactionDate == nil {
		return 0
	}
	days := int(p.LastTransactionDate.Sub(p.CreatedAt).Hours() / 24)
	if days <= 0 {
		return float64(p.TransactionVelocity)
	}
	return float64(p.TransactionVelocity) / float64(days)
}

// RecomputeModalPreferences rescans the user's entire transaction history and
// sets each preferred dimension to its most frequent non-empty value. Ties go
// to the value encountered first, which is stable within one run because the
// history is ordered.
func RecomputeModalPreferences(p models.UserBehaviorProfile, history []models.Transaction) models.UserBehaviorProfile {
	if v := modalValue(history, func(t models.Transaction) string { return t.PaymentMethod }); v != "" {
		p.PreferredPaymentMethod = v
	}
	if v := modalValue(history, func(t models.Transaction) string { return t.DeviceType }); v != "" {
		p.PreferredDeviceType = v
	}
	if v := modalValue(history, func(t models.Transaction) string { return t.LocationCountry }); v != "" {
		p.LocationCountry = v
	}
	return p
}

func modalValue(history []models.Transaction, dim func(models.Transaction) string) string {
	counts := make(map[string]int)
	best := ""
	bestCount := 0
	for _, t := range history {
		v := dim(t)
		if v == "" {
			continue
		}
		counts[v]++
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}

// BehaviorAggregator maintains the per-user rolling behavior profile.
type BehaviorAggregator interface {
	// GetProfile returns the user's profile, or nil when none exists yet.
	// Read errors degrade to nil; the profile is an optional signal.
	GetProfile(ctx context.Context, userID uuid.UUID) *models.UserBehaviorProfile
	// RecordTransaction folds the transaction into the profile in its own
	// unit of work. Failures are logged and swallowed; they never surface
	// to the pipeline.
	RecordTransaction(ctx context.Context, txn models.Transaction)
}

type BehaviorAggregatorConfig struct {
	Logger      *zap.Logger
	DB          *database.DB
	Repo        repositories.BehaviorProfileRepository
	TxRepo      repositories.TransactionRepository
	RedisClient *redis.Client // optional; cache disabled when nil
	CacheTTL    time.Duration
}

func NewBehaviorAggregator(cfg BehaviorAggregatorConfig) BehaviorAggregator {
	return &cfg
}

func (b *BehaviorAggregatorConfig) GetProfile(ctx context.Context, userID uuid.UUID) *models.UserBehaviorProfile {
	if p := b.cacheGet(ctx, userID); p != nil {
		return p
	}

	profile, err := b.Repo.FindByUserId(ctx, b.DB, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		b.Logger.Warn("behavior_profile_read_failed",
			zap.String(pkg.UserId, userID.String()), zap.Error(err))
		return nil
	}

	b.cacheSet(ctx, profile)
	return &profile
}

func (b *BehaviorAggregatorConfig) RecordTransaction(ctx context.Context, txn models.Transaction) {
	now := time.Now()

	profile, err := b.Repo.FindByUserId(ctx, b.DB, txn.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		profile = models.UserBehaviorProfile{
			ID:        uuid.New(),
			UserID:    txn.UserID,
			CreatedAt: now,
		}
	} else if err != nil {
		b.Logger.Error("behavior_update_skipped_profile_read_failed",
			zap.String(pkg.UserId, txn.UserID.String()), zap.Error(err))
		observability.BehaviorUpdateFailures.Inc()
		return
	}

	profile = ApplyTransaction(profile, txn.Amount.InexactFloat64(), txn.TransactionDate)

	// Modal preferences come from the full history; a failed scan only
	// skips the modal refresh, the rolling stats still persist.
	history, err := b.TxRepo.FindByUserId(ctx, b.DB, txn.UserID)
	if err != nil {
		b.Logger.Warn("modal_preference_scan_failed",
			zap.String(pkg.UserId, txn.UserID.String()), zap.Error(err))
	} else {
		profile = RecomputeModalPreferences(profile, history)
	}

	profile.UpdatedAt = now
	err = b.DB.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return b.Repo.Upsert(ctx, tx, profile)
	})
	if err != nil {
		b.Logger.Error("behavior_update_persist_failed",
			zap.String(pkg.UserId, txn.UserID.String()),
			zap.String(pkg.TransactionId, txn.ID.String()),
			zap.Error(err))
		observability.BehaviorUpdateFailures.Inc()
		return
	}

	b.cacheInvalidate(ctx, txn.UserID)
}

func (b *BehaviorAggregatorConfig) cacheGet(ctx context.Context, userID uuid.UUID) *models.UserBehaviorProfile {
	if b.RedisClient == nil {
		return nil
	}
	raw, err := b.RedisClient.Get(ctx, behaviorCacheKeyPrefix+userID.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			b.Logger.Warn("behavior_cache_read_failed", zap.Error(err))
		}
		return nil
	}
	var p models.UserBehaviorProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		b.Logger.Warn("behavior_cache_decode_failed", zap.Error(err))
		return nil
	}
	return &p
}

func (b *BehaviorAggregatorConfig) cacheSet(ctx context.Context, p models.UserBehaviorProfile) {
	if b.RedisClient == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := b.RedisClient.Set(ctx, behaviorCacheKeyPrefix+p.UserID.String(), raw, b.CacheTTL).Err(); err != nil {
		b.Logger.Warn("behavior_cache_write_failed", zap.Error(err))
	}
}

func (b *BehaviorAggregatorConfig) cacheInvalidate(ctx context.Context, userID uuid.UUID) {
	if b.RedisClient == nil {
		return
	}
	if err := b.RedisClient.Del(ctx, behaviorCacheKeyPrefix+userID.String()).Err(); err != nil {
		b.Logger.Warn("behavior_cache_invalidate_failed", zap.Error(err))
	}
}

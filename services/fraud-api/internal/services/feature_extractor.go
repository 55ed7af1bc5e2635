package services

import (
	"context"
	"time"

	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/pkg/database"
	"github.com/smartmedishop/fraud-pipeline/pkg/models"
	"github.com/smartmedishop/fraud-pipeline/pkg/repositories"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/dtos"
	"go.uber.org/zap"
)

// Age assumed when the user has no recorded birth date.
const defaultUserAge = 30

// FeatureExtractor builds the flat feature map the scorer consumes.
type FeatureExtractor interface {
	// Extract assembles features from the transaction, its owning user and
	// the user's behavior profile (nil when none exists yet). It never fails;
	// missing optional inputs are defaulted or omitted.
	Extract(ctx context.Context, txn models.Transaction, user models.User, profile *models.UserBehaviorProfile) dtos.FeatureMap
}

type FeatureExtractorConfig struct {
	Logger *zap.Logger
	DB     *database.DB
	TxRepo repositories.TransactionRepository
}

func NewFeatureExtractor(cfg FeatureExtractorConfig) FeatureExtractor {
	return &cfg
}

func (f *FeatureExtractorConfig) Extract(ctx context.Context, txn models.Transaction, user models.User, profile *models.UserBehaviorProfile) dtos.FeatureMap {
	now := time.Now()
	features := dtos.FeatureMap{
		"amount":           txn.Amount.InexactFloat64(),
		"payment_method":   txn.PaymentMethod,
		"device_type":      txn.DeviceType,
		"location_country": txn.LocationCountry,
		"merchant_name":    txn.MerchantName,
		"transaction_type": txn.TransactionType,

		// Time features use the stored timestamp as-is; no timezone conversion.
		"hour":        txn.TransactionDate.Hour(),
		"day_of_week": isoWeekday(txn.TransactionDate),
		"month":       int(txn.TransactionDate.Month()),

		"user_id":               user.ID.String(),
		"user_account_age_days": user.AccountAgeDays(now),
		"user_age":              user.AgeYears(now, defaultUserAge),
		"user_fraud_count":      user.FraudCount,
		"user_risk_profile":     string(user.RiskProfile),
	}

	count, average := f.historyStats(ctx, txn, user)
	features["user_total_transactions"] = count
	features["user_average_amount"] = average

	if profile != nil {
		features["user_transaction_velocity"] = profile.TransactionVelocity
		features["user_amount_velocity"] = profile.AmountVelocity
		features["user_average_transaction_amount"] = profile.AverageTransactionAmount
		features["user_max_transaction_amount"] = profile.MaxTransactionAmount
		features["user_unusual_patterns_count"] = profile.UnusualPatternsCount
		features["user_transaction_frequency_per_day"] = profile.TransactionFrequencyPerDay
		features["user_weekend_transaction_ratio"] = profile.WeekendTransactionRatio
		features["user_night_transaction_ratio"] = profile.NightTransactionRatio
	}

	return features
}

// historyStats recomputes the user's all-time transaction count and average
// amount from the full history instead of trusting the cached counters on
// the user row; cached aggregates drift and under-count, which makes
// "limited history" rules fire for established users. If the current
// transaction is not yet visible in the read (transaction boundary), its
// amount is added manually exactly once.
func (f *FeatureExtractorConfig) historyStats(ctx context.Context, txn models.Transaction, user models.User) (int, float64) {
	history, err := f.TxRepo.FindByUserId(ctx, f.DB, user.ID)
	if err != nil {
		// Extraction must not fail; fall back to the cached user stats and
		// fold in the current transaction.
		f.Logger.Warn("history_read_failed_using_cached_stats",
			zap.String(pkg.UserId, user.ID.String()), zap.Error(err))
		count := user.TotalTransactions + 1
		total := user.AverageAmount*float64(user.TotalTransactions) + txn.Amount.InexactFloat64()
		return count, total / float64(count)
	}

	currentVisible := false
	var total float64
	for _, t := range history {
		if t.ID == txn.ID {
			currentVisible = true
		}
		total += t.Amount.InexactFloat64()
	}

	count := len(history)
	if !currentVisible {
		count++
		total += txn.Amount.InexactFloat64()
	}
	if count == 0 {
		return 0, 0
	}
	return count, total / float64(count)
}

// isoWeekday maps time.Weekday onto ISO numbering (Monday=1 .. Sunday=7).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
